package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/rickgao/whaleflow/internal/model"
)

func floatp(v float64) *float64 { return &v }
func stringp(v string) *string  { return &v }
func boolp(v bool) *bool        { return &v }

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "whale_flows.db")
	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleTrade(ts float64, platform, wallet string, sizeUSD float64, side string) model.Trade {
	return model.Trade{
		Timestamp:      ts,
		Platform:       platform,
		Market:         "market-1",
		MarketLabel:    "Will X happen?",
		SizeUSD:        sizeUSD,
		Side:           side,
		ActorAddress:   stringp(wallet),
		Price:          floatp(0.42),
		Quantity:       floatp(sizeUSD / 0.42),
		TradeID:        stringp(fmt.Sprintf("trade-%s-%s-%v", platform, wallet, ts)),
		MarketIsNiche:  boolp(false),
		MarketIsStock:  boolp(false),
		MarketVolume:   floatp(1_000_000),
		MarketCategory: stringp("Politics"),
	}
}

func TestSQLiteAddTradeBelowThresholdIsSkipped(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	trade := sampleTrade(1000, "polymarket", "0xabc", 50, "yes")
	if err := s.AddTrade(ctx, trade); err != nil {
		t.Fatalf("AddTrade: %v", err)
	}

	got, err := s.RecentTrades(ctx, model.RecentTradesFilter{MinSizeUSD: 0, Limit: 10})
	if err != nil {
		t.Fatalf("RecentTrades: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no persisted trades below threshold, got %d", len(got))
	}
}

func TestSQLiteAddTradeAndRecentTrades(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	t1 := sampleTrade(1000, "polymarket", "0xabc", 500, "yes")
	t2 := sampleTrade(2000, "kalshi", "0xdef", 1200, "no")
	if err := s.AddTrade(ctx, t1); err != nil {
		t.Fatalf("AddTrade t1: %v", err)
	}
	if err := s.AddTrade(ctx, t2); err != nil {
		t.Fatalf("AddTrade t2: %v", err)
	}

	got, err := s.RecentTrades(ctx, model.RecentTradesFilter{MinSizeUSD: 100, Limit: 10})
	if err != nil {
		t.Fatalf("RecentTrades: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(got))
	}
	if got[0].Timestamp != 2000 {
		t.Fatalf("expected newest trade first, got ts=%v", got[0].Timestamp)
	}
}

func TestSQLiteDuplicateTradeIDIgnored(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	trade := sampleTrade(1000, "polymarket", "0xabc", 500, "yes")
	if err := s.AddTrade(ctx, trade); err != nil {
		t.Fatalf("AddTrade first: %v", err)
	}
	if err := s.AddTrade(ctx, trade); err != nil {
		t.Fatalf("AddTrade duplicate: %v", err)
	}

	got, err := s.RecentTrades(ctx, model.RecentTradesFilter{MinSizeUSD: 0, Limit: 10})
	if err != nil {
		t.Fatalf("RecentTrades: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected duplicate trade_id to be ignored, got %d rows", len(got))
	}
}

func TestSQLiteRecentTradesFiltersByPlatformAndWallet(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	for _, trade := range []model.Trade{
		sampleTrade(1000, "polymarket", "0xabc", 500, "yes"),
		sampleTrade(1001, "kalshi", "0xdef", 500, "no"),
	} {
		if err := s.AddTrade(ctx, trade); err != nil {
			t.Fatalf("AddTrade: %v", err)
		}
	}

	byPlatform, err := s.RecentTrades(ctx, model.RecentTradesFilter{Platforms: []string{"kalshi"}, Limit: 10})
	if err != nil {
		t.Fatalf("RecentTrades by platform: %v", err)
	}
	if len(byPlatform) != 1 || byPlatform[0].Platform != "kalshi" {
		t.Fatalf("expected only kalshi trade, got %+v", byPlatform)
	}

	byWallet, err := s.RecentTrades(ctx, model.RecentTradesFilter{Wallet: "0xabc", Limit: 10})
	if err != nil {
		t.Fatalf("RecentTrades by wallet: %v", err)
	}
	if len(byWallet) != 1 || *byWallet[0].ActorAddress != "0xabc" {
		t.Fatalf("expected only 0xabc trade, got %+v", byWallet)
	}
}

func TestSQLiteLeaderboardAndWalletSummary(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	if err := s.AddTrade(ctx, sampleTrade(1000, "polymarket", "0xabc", 500, "yes")); err != nil {
		t.Fatalf("AddTrade: %v", err)
	}
	if err := s.AddTrade(ctx, sampleTrade(1010, "polymarket", "0xabc", 300, "no")); err != nil {
		t.Fatalf("AddTrade: %v", err)
	}
	if err := s.AddTrade(ctx, sampleTrade(1020, "kalshi", "0xdef", 900, "yes")); err != nil {
		t.Fatalf("AddTrade: %v", err)
	}

	since := 0.0
	board, err := s.Leaderboard(ctx, 10, &since)
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	if len(board) != 2 {
		t.Fatalf("expected 2 wallets, got %d", len(board))
	}
	if board[0].Address != "0xdef" || board[0].Volume != 900 {
		t.Fatalf("expected 0xdef leading with 900, got %+v", board[0])
	}

	summary, err := s.WalletSummary(ctx, "0xabc", &since)
	if err != nil {
		t.Fatalf("WalletSummary: %v", err)
	}
	if summary == nil {
		t.Fatal("expected summary for 0xabc")
	}
	if summary.Trades != 2 || summary.Volume != 800 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.YesVolume != 500 || summary.NoVolume != 300 {
		t.Fatalf("unexpected side volumes: %+v", summary)
	}
}

func TestSQLiteWalletAnalyticsGroupsByCategory(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	politics := sampleTrade(1000, "polymarket", "0xabc", 500, "yes")
	sports := sampleTrade(1010, "polymarket", "0xabc", 200, "yes")
	sports.MarketCategory = stringp("Sports")

	if err := s.AddTrade(ctx, politics); err != nil {
		t.Fatalf("AddTrade politics: %v", err)
	}
	if err := s.AddTrade(ctx, sports); err != nil {
		t.Fatalf("AddTrade sports: %v", err)
	}

	since := 0.0
	analytics, err := s.WalletAnalytics(ctx, "0xabc", &since)
	if err != nil {
		t.Fatalf("WalletAnalytics: %v", err)
	}
	if len(analytics.Categories) != 2 {
		t.Fatalf("expected 2 categories, got %d: %+v", len(analytics.Categories), analytics.Categories)
	}
	if analytics.DiversityScore != 2 {
		t.Fatalf("expected diversity score 2, got %v", analytics.DiversityScore)
	}
}

func TestSQLiteAllWalletsTopCategoryFallback(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	trade := sampleTrade(1000, "polymarket", "0xabc", 500, "yes")
	trade.MarketCategory = nil
	if err := s.AddTrade(ctx, trade); err != nil {
		t.Fatalf("AddTrade: %v", err)
	}

	since := 0.0
	wallets, err := s.AllWallets(ctx, 10, &since)
	if err != nil {
		t.Fatalf("AllWallets: %v", err)
	}
	if len(wallets) != 1 {
		t.Fatalf("expected 1 wallet, got %d", len(wallets))
	}
	if wallets[0].TopCategory != "Mixed" {
		t.Fatalf("expected Mixed fallback for nil category, got %q", wallets[0].TopCategory)
	}
}

func TestSQLiteSchemaEvolutionIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "whale_flows.db")

	s1, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	if err := s1.AddTrade(context.Background(), sampleTrade(1000, "polymarket", "0xabc", 500, "yes")); err != nil {
		t.Fatalf("AddTrade: %v", err)
	}
	s1.Close()

	s2, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()

	got, err := s2.RecentTrades(context.Background(), model.RecentTradesFilter{Limit: 10})
	if err != nil {
		t.Fatalf("RecentTrades after reopen: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected data to survive reopen, got %d rows", len(got))
	}
}
