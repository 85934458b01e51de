package store

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rickgao/whaleflow/internal/model"
)

// TestPostgresStore exercises PostgresStore against a live database
// reachable via WHALEFLOW_TEST_DATABASE_URL. It is skipped by default
// since it requires external infrastructure, mirroring how the
// upstream connection pool tests are gated on a running dependency.
func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("WHALEFLOW_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("WHALEFLOW_TEST_DATABASE_URL not set, skipping postgres integration test")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("pgxpool.New: %v", err)
	}
	defer pool.Close()

	s, err := NewPostgresStore(ctx, pool)
	if err != nil {
		t.Fatalf("NewPostgresStore: %v", err)
	}
	defer s.Close()

	wallet := stringp("0xpgtest")
	trade := model.Trade{
		Timestamp:    1_700_000_000,
		Platform:     "polymarket",
		Market:       "market-pg",
		MarketLabel:  "Postgres integration market",
		SizeUSD:      750,
		Side:         "yes",
		ActorAddress: wallet,
		TradeID:      stringp("pg-integration-trade-1"),
	}
	if err := s.AddTrade(ctx, trade); err != nil {
		t.Fatalf("AddTrade: %v", err)
	}
	if err := s.AddTrade(ctx, trade); err != nil {
		t.Fatalf("AddTrade duplicate: %v", err)
	}

	got, err := s.RecentTrades(ctx, model.RecentTradesFilter{Wallet: "0xpgtest", Limit: 10})
	if err != nil {
		t.Fatalf("RecentTrades: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected duplicate trade_id to be ignored, got %d rows", len(got))
	}
}
