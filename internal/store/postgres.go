package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rickgao/whaleflow/internal/model"
)

// PostgresStore is the client/server SQL backend. It issues one
// statement per call against a shared pgxpool.Pool rather than
// batching inserts, since ingestion throughput here is far below the
// rates that justified the teacher's pgx.Batch writer.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	s := &PostgresStore{pool: pool}
	if err := s.initSchema(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) initSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS whale_flows (
			id BIGSERIAL PRIMARY KEY,
			timestamp DOUBLE PRECISION NOT NULL,
			platform TEXT NOT NULL,
			market TEXT,
			size_usd DOUBLE PRECISION NOT NULL,
			side TEXT,
			actor_address TEXT,
			price DOUBLE PRECISION,
			quantity DOUBLE PRECISION,
			trade_id TEXT,
			UNIQUE(platform, trade_id)
		)`)
	if err != nil {
		return fmt.Errorf("create whale_flows: %w", err)
	}

	var existing []string
	rows, err := s.pool.Query(ctx, `
		SELECT column_name FROM information_schema.columns
		WHERE table_name = 'whale_flows'`)
	if err != nil {
		return fmt.Errorf("inspect columns: %w", err)
	}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return err
		}
		existing = append(existing, name)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	have := make(map[string]bool, len(existing))
	for _, c := range existing {
		have[c] = true
	}

	ddlTypes := map[string]string{
		"market_label":    "TEXT",
		"market_is_niche": "BOOLEAN",
		"market_is_stock": "BOOLEAN",
		"market_volume":   "DOUBLE PRECISION",
		"cluster_id":      "TEXT",
		"market_category": "TEXT",
	}
	for name, ddl := range ddlTypes {
		if have[name] {
			continue
		}
		alter := fmt.Sprintf("ALTER TABLE whale_flows ADD COLUMN %s %s", name, ddl)
		if _, err := s.pool.Exec(ctx, alter); err != nil {
			return fmt.Errorf("schema evolution %q: %w", alter, err)
		}
	}

	for _, idx := range []string{
		"CREATE INDEX IF NOT EXISTS idx_whale_flows_ts ON whale_flows(timestamp)",
		"CREATE INDEX IF NOT EXISTS idx_whale_flows_actor ON whale_flows(actor_address)",
	} {
		if _, err := s.pool.Exec(ctx, idx); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) AddTrade(ctx context.Context, trade model.Trade) error {
	if trade.SizeUSD < model.MinPersistSizeUSD {
		return nil
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO whale_flows (
			timestamp, platform, market, market_label, size_usd, side,
			actor_address, price, quantity, trade_id, market_is_niche,
			market_is_stock, market_volume, cluster_id, market_category
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (platform, trade_id) DO NOTHING`,
		trade.Timestamp, trade.Platform, trade.Market, trade.MarketLabel,
		trade.SizeUSD, trade.Side, trade.ActorAddress, trade.Price,
		trade.Quantity, trade.TradeID, trade.MarketIsNiche,
		trade.MarketIsStock, trade.MarketVolume, trade.ClusterID,
		trade.MarketCategory,
	)
	if err != nil {
		return fmt.Errorf("insert trade: %w", err)
	}
	return nil
}

func (s *PostgresStore) RecentTrades(ctx context.Context, filter model.RecentTradesFilter) ([]model.Trade, error) {
	where := []string{"size_usd >= $1"}
	params := []any{filter.MinSizeUSD}
	if filter.SinceTS != nil {
		params = append(params, *filter.SinceTS)
		where = append(where, fmt.Sprintf("timestamp >= $%d", len(params)))
	}
	if len(filter.Platforms) > 0 {
		lowered := make([]string, len(filter.Platforms))
		for i, p := range filter.Platforms {
			lowered[i] = strings.ToLower(p)
		}
		params = append(params, lowered)
		where = append(where, fmt.Sprintf("lower(platform) = ANY($%d)", len(params)))
	}
	if filter.Wallet != "" {
		params = append(params, filter.Wallet)
		where = append(where, fmt.Sprintf("actor_address = $%d", len(params)))
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 1000
	}
	params = append(params, limit)

	query := fmt.Sprintf(`
		SELECT timestamp, platform, market, market_label, size_usd, side, actor_address,
		       price, quantity, trade_id, market_is_niche, market_is_stock, market_volume,
		       cluster_id, market_category
		FROM whale_flows
		WHERE %s
		ORDER BY timestamp DESC
		LIMIT $%d`, strings.Join(where, " AND "), len(params))

	rows, err := s.pool.Query(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("recent trades: %w", err)
	}
	defer rows.Close()

	var out []model.Trade
	for rows.Next() {
		t, err := scanPgxTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanPgxTrade(rows pgx.Rows) (model.Trade, error) {
	var t model.Trade
	var market, label, side *string

	err := rows.Scan(
		&t.Timestamp, &t.Platform, &market, &label, &t.SizeUSD, &side,
		&t.ActorAddress, &t.Price, &t.Quantity, &t.TradeID,
		&t.MarketIsNiche, &t.MarketIsStock, &t.MarketVolume,
		&t.ClusterID, &t.MarketCategory,
	)
	if err != nil {
		return model.Trade{}, fmt.Errorf("scan trade: %w", err)
	}
	if market != nil {
		t.Market = *market
	}
	if label != nil {
		t.MarketLabel = *label
	}
	if side != nil {
		t.Side = *side
	}
	return t, nil
}

func (s *PostgresStore) Stats(ctx context.Context) (model.Stats, error) {
	now := float64(time.Now().UnixNano()) / 1e9
	cutoff24h := now - dayLookbackSeconds
	cutoffMinute := now - 60

	var trades24h, tradesMinute, wallets int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM whale_flows WHERE timestamp >= $1", cutoff24h).Scan(&trades24h); err != nil {
		return model.Stats{}, fmt.Errorf("stats trades24h: %w", err)
	}
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM whale_flows WHERE timestamp >= $1", cutoffMinute).Scan(&tradesMinute); err != nil {
		return model.Stats{}, fmt.Errorf("stats tradesMinute: %w", err)
	}
	if err := s.pool.QueryRow(ctx, `
		SELECT COUNT(DISTINCT actor_address) FROM whale_flows
		WHERE timestamp >= $1 AND actor_address IS NOT NULL AND actor_address != ''`, cutoff24h).Scan(&wallets); err != nil {
		return model.Stats{}, fmt.Errorf("stats wallets: %w", err)
	}

	var last *float64
	if err := s.pool.QueryRow(ctx, "SELECT MAX(timestamp) FROM whale_flows").Scan(&last); err != nil {
		return model.Stats{}, fmt.Errorf("stats last: %w", err)
	}

	return model.Stats{Wallets: wallets, Trades: trades24h, Flow: fmt.Sprintf("%d/min", tradesMinute), Last: last}, nil
}

func (s *PostgresStore) Leaderboard(ctx context.Context, limit int, sinceTS *float64) ([]model.LeaderboardEntry, error) {
	cutoff := resolveCutoff(sinceTS)
	rows, err := s.pool.Query(ctx, `
		SELECT actor_address,
		       SUM(size_usd) AS volume,
		       SUM(CASE WHEN lower(side) IN ('yes','buy') THEN size_usd ELSE 0 END) AS yes_volume,
		       SUM(CASE WHEN lower(side) IN ('no','sell') THEN size_usd ELSE 0 END) AS no_volume
		FROM whale_flows
		WHERE timestamp >= $1 AND actor_address IS NOT NULL AND actor_address != ''
		GROUP BY actor_address
		ORDER BY volume DESC
		LIMIT $2`, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	defer rows.Close()

	var out []model.LeaderboardEntry
	for rows.Next() {
		var addr string
		var volume, yesVolume, noVolume float64
		if err := rows.Scan(&addr, &volume, &yesVolume, &noVolume); err != nil {
			return nil, err
		}
		out = append(out, model.LeaderboardEntry{Address: addr, Volume: volume, Position: position(yesVolume, noVolume)})
	}
	return out, rows.Err()
}

func (s *PostgresStore) WalletSummary(ctx context.Context, address string, sinceTS *float64) (*model.WalletSummary, error) {
	if address == "" {
		return nil, nil
	}
	cutoff := resolveCutoff(sinceTS)
	row := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) AS trades,
		       COALESCE(SUM(size_usd), 0) AS volume,
		       COALESCE(SUM(CASE WHEN lower(side) IN ('yes','buy') THEN size_usd ELSE 0 END), 0) AS yes_volume,
		       COALESCE(SUM(CASE WHEN lower(side) IN ('no','sell') THEN size_usd ELSE 0 END), 0) AS no_volume,
		       COALESCE(MAX(timestamp), 0) AS last_ts
		FROM whale_flows
		WHERE actor_address = $1 AND timestamp >= $2`, address, cutoff)

	var trades int
	var volume, yesVolume, noVolume, lastTS float64
	if err := row.Scan(&trades, &volume, &yesVolume, &noVolume, &lastTS); err != nil {
		return nil, fmt.Errorf("wallet summary: %w", err)
	}
	if trades == 0 {
		return nil, nil
	}
	return &model.WalletSummary{Trades: trades, Volume: volume, YesVolume: yesVolume, NoVolume: noVolume, LastTS: lastTS}, nil
}

func (s *PostgresStore) AllWallets(ctx context.Context, limit int, sinceTS *float64) ([]model.WalletInfo, error) {
	cutoff := resolveCutoff(sinceTS)
	rows, err := s.pool.Query(ctx, `
		SELECT
			actor_address,
			SUM(size_usd) AS volume,
			COUNT(*) AS trades,
			MAX(timestamp) AS last_ts,
			(
				SELECT market_category
				FROM whale_flows w2
				WHERE w2.actor_address = w1.actor_address AND w2.timestamp >= $1
				GROUP BY market_category
				ORDER BY SUM(size_usd) DESC
				LIMIT 1
			) AS top_category
		FROM whale_flows w1
		WHERE timestamp >= $1 AND actor_address IS NOT NULL AND actor_address != ''
		GROUP BY actor_address
		ORDER BY volume DESC
		LIMIT $2`, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("all wallets: %w", err)
	}
	defer rows.Close()

	var out []model.WalletInfo
	for rows.Next() {
		var addr string
		var volume float64
		var trades int
		var lastTS float64
		var topCategory *string
		if err := rows.Scan(&addr, &volume, &trades, &lastTS, &topCategory); err != nil {
			return nil, err
		}
		cat := "Mixed"
		if topCategory != nil && *topCategory != "" {
			cat = *topCategory
		}
		out = append(out, model.WalletInfo{Address: addr, Volume: volume, Trades: trades, LastTS: lastTS, TopCategory: cat})
	}
	return out, rows.Err()
}

func (s *PostgresStore) WalletAnalytics(ctx context.Context, address string, sinceTS *float64) (model.WalletAnalytics, error) {
	cutoff := resolveCutoff(sinceTS)
	rows, err := s.pool.Query(ctx, `
		SELECT COALESCE(market_category, 'Other') AS category,
		       SUM(size_usd) AS volume,
		       COUNT(*) AS trades
		FROM whale_flows
		WHERE actor_address = $1 AND timestamp >= $2
		GROUP BY category
		ORDER BY volume DESC`, address, cutoff)
	if err != nil {
		return model.WalletAnalytics{}, fmt.Errorf("wallet analytics: %w", err)
	}
	defer rows.Close()

	categories := make(map[string]model.CategoryBreakdown)
	for rows.Next() {
		var category string
		var volume float64
		var trades int
		if err := rows.Scan(&category, &volume, &trades); err != nil {
			return model.WalletAnalytics{}, err
		}
		categories[category] = model.CategoryBreakdown{Volume: volume, Trades: trades}
	}
	return model.WalletAnalytics{Categories: categories, DiversityScore: float64(len(categories))}, rows.Err()
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
