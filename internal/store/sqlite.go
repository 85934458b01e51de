package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/rickgao/whaleflow/internal/model"
)

// SQLiteStore is the embedded single-file SQL backend. It runs a
// schema-evolution pass at open (ALTER TABLE ADD COLUMN for any
// column introduced after the table's initial creation) and uses
// write-ahead-log journaling with synchronous=NORMAL.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1) // modernc.org/sqlite serializes writers; one conn avoids SQLITE_BUSY churn

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	stmts := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		`CREATE TABLE IF NOT EXISTS whale_flows (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp REAL NOT NULL,
			platform TEXT NOT NULL,
			market TEXT,
			size_usd REAL NOT NULL,
			side TEXT,
			actor_address TEXT,
			price REAL,
			quantity REAL,
			trade_id TEXT,
			UNIQUE(platform, trade_id) ON CONFLICT IGNORE
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("init schema %q: %w", stmt, err)
		}
	}

	existing, err := s.existingColumns()
	if err != nil {
		return err
	}
	for name, ddl := range evolvingColumns {
		if existing[name] {
			continue
		}
		alter := fmt.Sprintf("ALTER TABLE whale_flows ADD COLUMN %s %s", name, ddl)
		if _, err := s.db.Exec(alter); err != nil {
			return fmt.Errorf("schema evolution %q: %w", alter, err)
		}
	}

	for _, idx := range []string{
		"CREATE INDEX IF NOT EXISTS idx_whale_flows_ts ON whale_flows(timestamp)",
		"CREATE INDEX IF NOT EXISTS idx_whale_flows_actor ON whale_flows(actor_address)",
	} {
		if _, err := s.db.Exec(idx); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) existingColumns() (map[string]bool, error) {
	rows, err := s.db.Query("PRAGMA table_info(whale_flows)")
	if err != nil {
		return nil, fmt.Errorf("table_info: %w", err)
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return nil, err
		}
		cols[name] = true
	}
	return cols, rows.Err()
}

func boolToInt(v *bool) any {
	if v == nil {
		return nil
	}
	if *v {
		return 1
	}
	return 0
}

func (s *SQLiteStore) AddTrade(ctx context.Context, trade model.Trade) error {
	if trade.SizeUSD < model.MinPersistSizeUSD {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO whale_flows (
			timestamp, platform, market, market_label, size_usd, side,
			actor_address, price, quantity, trade_id, market_is_niche,
			market_is_stock, market_volume, cluster_id, market_category
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		trade.Timestamp, trade.Platform, trade.Market, trade.MarketLabel,
		trade.SizeUSD, trade.Side, nullableString(trade.ActorAddress),
		nullableFloat(trade.Price), nullableFloat(trade.Quantity),
		nullableString(trade.TradeID), boolToInt(trade.MarketIsNiche),
		boolToInt(trade.MarketIsStock), nullableFloat(trade.MarketVolume),
		nullableString(trade.ClusterID), nullableString(trade.MarketCategory),
	)
	if err != nil {
		return fmt.Errorf("insert trade: %w", err)
	}
	return nil
}

func nullableString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func (s *SQLiteStore) RecentTrades(ctx context.Context, filter model.RecentTradesFilter) ([]model.Trade, error) {
	where := []string{"size_usd >= ?"}
	params := []any{filter.MinSizeUSD}
	if filter.SinceTS != nil {
		where = append(where, "timestamp >= ?")
		params = append(params, *filter.SinceTS)
	}
	if len(filter.Platforms) > 0 {
		placeholders := strings.Repeat("?,", len(filter.Platforms))
		placeholders = placeholders[:len(placeholders)-1]
		where = append(where, fmt.Sprintf("lower(platform) IN (%s)", placeholders))
		for _, p := range filter.Platforms {
			params = append(params, strings.ToLower(p))
		}
	}
	if filter.Wallet != "" {
		where = append(where, "actor_address = ?")
		params = append(params, filter.Wallet)
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
		LIMIT ?`, strings.Join(where, " AND "))

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("recent trades: %w", err)
	}
	defer rows.Close()

	var out []model.Trade
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrade(rows rowScanner) (model.Trade, error) {
	var t model.Trade
	var market, label, side sql.NullString
	var actor, tradeID, clusterID, category sql.NullString
	var price, quantity, volume sql.NullFloat64
	var isNiche, isStock sql.NullInt64

	err := rows.Scan(
		&t.Timestamp, &t.Platform, &market, &label, &t.SizeUSD, &side,
		&actor, &price, &quantity, &tradeID, &isNiche, &isStock, &volume,
		&clusterID, &category,
	)
	if err != nil {
		return model.Trade{}, fmt.Errorf("scan trade: %w", err)
	}

	t.Market = market.String
	t.MarketLabel = label.String
	t.Side = side.String
	if actor.Valid {
		v := actor.String
		t.ActorAddress = &v
	}
	if price.Valid {
		v := price.Float64
		t.Price = &v
	}
	if quantity.Valid {
		v := quantity.Float64
		t.Quantity = &v
	}
	if tradeID.Valid {
		v := tradeID.String
		t.TradeID = &v
	}
	if isNiche.Valid {
		v := isNiche.Int64 != 0
		t.MarketIsNiche = &v
	}
	if isStock.Valid {
		v := isStock.Int64 != 0
		t.MarketIsStock = &v
	}
	if volume.Valid {
		v := volume.Float64
		t.MarketVolume = &v
	}
	if clusterID.Valid {
		v := clusterID.String
		t.ClusterID = &v
	}
	if category.Valid {
		v := category.String
		t.MarketCategory = &v
	}
	return t, nil
}

func (s *SQLiteStore) Stats(ctx context.Context) (model.Stats, error) {
	now := float64(time.Now().UnixNano()) / 1e9
	cutoff24h := now - dayLookbackSeconds
	cutoffMinute := now - 60

	var trades24h, tradesMinute, wallets int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM whale_flows WHERE timestamp >= ?", cutoff24h).Scan(&trades24h); err != nil {
		return model.Stats{}, fmt.Errorf("stats trades24h: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM whale_flows WHERE timestamp >= ?", cutoffMinute).Scan(&tradesMinute); err != nil {
		return model.Stats{}, fmt.Errorf("stats tradesMinute: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT actor_address) FROM whale_flows
		WHERE timestamp >= ? AND actor_address IS NOT NULL AND actor_address != ''`, cutoff24h).Scan(&wallets); err != nil {
		return model.Stats{}, fmt.Errorf("stats wallets: %w", err)
	}

	var last sql.NullFloat64
	if err := s.db.QueryRowContext(ctx, "SELECT MAX(timestamp) FROM whale_flows").Scan(&last); err != nil {
		return model.Stats{}, fmt.Errorf("stats last: %w", err)
	}

	result := model.Stats{Wallets: wallets, Trades: trades24h, Flow: fmt.Sprintf("%d/min", tradesMinute)}
	if last.Valid {
		v := last.Float64
		result.Last = &v
	}
	return result, nil
}

func resolveCutoff(sinceTS *float64) float64 {
	if sinceTS != nil {
		return *sinceTS
	}
	return float64(time.Now().UnixNano())/1e9 - dayLookbackSeconds
}

func (s *SQLiteStore) Leaderboard(ctx context.Context, limit int, sinceTS *float64) ([]model.LeaderboardEntry, error) {
	cutoff := resolveCutoff(sinceTS)
	rows, err := s.db.QueryContext(ctx, `
		SELECT actor_address,
		       SUM(size_usd) AS volume,
		       SUM(CASE WHEN lower(side) IN ('yes','buy') THEN size_usd ELSE 0 END) AS yes_volume,
		       SUM(CASE WHEN lower(side) IN ('no','sell') THEN size_usd ELSE 0 END) AS no_volume
		FROM whale_flows
		WHERE timestamp >= ? AND actor_address IS NOT NULL AND actor_address != ''
		GROUP BY actor_address
		ORDER BY volume DESC
		LIMIT ?`, cutoff, limit)
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

func (s *SQLiteStore) WalletSummary(ctx context.Context, address string, sinceTS *float64) (*model.WalletSummary, error) {
	if address == "" {
		return nil, nil
	}
	cutoff := resolveCutoff(sinceTS)
	row := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) AS trades,
		       SUM(size_usd) AS volume,
		       SUM(CASE WHEN lower(side) IN ('yes','buy') THEN size_usd ELSE 0 END) AS yes_volume,
		       SUM(CASE WHEN lower(side) IN ('no','sell') THEN size_usd ELSE 0 END) AS no_volume,
		       MAX(timestamp) AS last_ts
		FROM whale_flows
		WHERE actor_address = ? AND timestamp >= ?`, address, cutoff)

	var trades int
	var volume, yesVolume, noVolume sql.NullFloat64
	var lastTS sql.NullFloat64
	if err := row.Scan(&trades, &volume, &yesVolume, &noVolume, &lastTS); err != nil {
		return nil, fmt.Errorf("wallet summary: %w", err)
	}
	if trades == 0 {
		return nil, nil
	}
	return &model.WalletSummary{
		Trades:    trades,
		Volume:    volume.Float64,
		YesVolume: yesVolume.Float64,
		NoVolume:  noVolume.Float64,
		LastTS:    lastTS.Float64,
	}, nil
}

func (s *SQLiteStore) AllWallets(ctx context.Context, limit int, sinceTS *float64) ([]model.WalletInfo, error) {
	cutoff := resolveCutoff(sinceTS)
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			actor_address,
			SUM(size_usd) AS volume,
			COUNT(*) AS trades,
			MAX(timestamp) AS last_ts,
			(
				SELECT market_category
				FROM whale_flows w2
				WHERE w2.actor_address = w1.actor_address AND w2.timestamp >= ?
				GROUP BY market_category
				ORDER BY SUM(size_usd) DESC
				LIMIT 1
			) AS top_category
		FROM whale_flows w1
		WHERE timestamp >= ? AND actor_address IS NOT NULL AND actor_address != ''
		GROUP BY actor_address
		ORDER BY volume DESC
		LIMIT ?`, cutoff, cutoff, limit)
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
		var topCategory sql.NullString
		if err := rows.Scan(&addr, &volume, &trades, &lastTS, &topCategory); err != nil {
			return nil, err
		}
		cat := "Mixed"
		if topCategory.Valid && topCategory.String != "" {
			cat = topCategory.String
		}
		out = append(out, model.WalletInfo{Address: addr, Volume: volume, Trades: trades, LastTS: lastTS, TopCategory: cat})
	}
	return out, rows.Err()
}

func (s *SQLiteStore) WalletAnalytics(ctx context.Context, address string, sinceTS *float64) (model.WalletAnalytics, error) {
	cutoff := resolveCutoff(sinceTS)
	rows, err := s.db.QueryContext(ctx, `
		SELECT COALESCE(market_category, 'Other') AS category,
		       SUM(size_usd) AS volume,
		       COUNT(*) AS trades
		FROM whale_flows
		WHERE actor_address = ? AND timestamp >= ?
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

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
