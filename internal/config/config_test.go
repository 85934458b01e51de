package config

import (
	"os"
	"testing"
)

// clearEnv removes every variable this package reads so tests don't
// leak into each other via the real process environment.
func clearEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"ENABLE_POLYMARKET", "ENABLE_KALSHI", "PERSIST_TRADES",
		"POLYMARKET_WS_URL", "POLYMARKET_TOP_N", "POLYMARKET_MARKET_IDS",
		"POLYMARKET_RTDS_WILDCARD", "POLYMARKET_RTDS_SUBSCRIBE_PAUSE",
		"POLYMARKET_EVENTS_PARAMS", "POLYMARKET_WHALE_THRESHOLD_USD",
		"KALSHI_WS_ENABLED", "KALSHI_ACCESS_KEY", "KALSHI_PRIVATE_KEY",
		"KALSHI_SIGNING_ALGO", "KALSHI_POLL_SECONDS", "KALSHI_MARKET_TICKERS",
		"MARKET_MAX_YEARS_AHEAD", "MARKET_NICHE_MAX_VOLUME_USD",
		"ZSCORE_THRESHOLD", "ZSCORE_MIN_SAMPLES",
		"DASH_FEED_MODE", "TRADE_DB_PATH", "METRICS_PORT", "HTTP_TIMEOUT_SECONDS",
		"POSTGRES_HOST", "POSTGRES_NAME", "POSTGRES_USER", "POSTGRES_MAX_CONNS", "POSTGRES_MIN_CONNS",
	}
	for _, k := range keys {
		os.Unsetenv(k)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Polymarket.WSURL != DefaultPolymarketWSURL {
		t.Errorf("Polymarket.WSURL = %q, want default", cfg.Polymarket.WSURL)
	}
	if cfg.Polymarket.TopN != DefaultPolymarketTopN {
		t.Errorf("Polymarket.TopN = %d, want %d", cfg.Polymarket.TopN, DefaultPolymarketTopN)
	}
	if cfg.Kalshi.SigningAlgo != DefaultKalshiSigningAlgo {
		t.Errorf("Kalshi.SigningAlgo = %q, want %q", cfg.Kalshi.SigningAlgo, DefaultKalshiSigningAlgo)
	}
	if cfg.Detectors.ZScoreThreshold != DefaultZScoreThreshold {
		t.Errorf("Detectors.ZScoreThreshold = %v, want %v", cfg.Detectors.ZScoreThreshold, DefaultZScoreThreshold)
	}
	if cfg.Store.Mode != DefaultStoreMode {
		t.Errorf("Store.Mode = %q, want %q", cfg.Store.Mode, DefaultStoreMode)
	}
	if !cfg.EnablePolymarket || !cfg.EnableKalshi {
		t.Error("both venues should default to enabled")
	}
	if !cfg.PersistTrades {
		t.Error("persist_trades should default to true")
	}
}

func TestLoadReadsEnvOverrides(t *testing.T) {
	clearEnv(t)
	os.Setenv("POLYMARKET_TOP_N", "10")
	os.Setenv("POLYMARKET_MARKET_IDS", "abc, def ,, ghi")
	os.Setenv("POLYMARKET_RTDS_WILDCARD", "false")
	os.Setenv("KALSHI_SIGNING_ALGO", "hmac-sha256")
	os.Setenv("KALSHI_MARKET_TICKERS", "FED-24,CPI-24")
	os.Setenv("ZSCORE_THRESHOLD", "4.5")
	os.Setenv("DASH_FEED_MODE", "postgres")
	os.Setenv("MARKET_NICHE_MAX_VOLUME_USD", "25000")
	defer clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Polymarket.TopN != 10 {
		t.Errorf("TopN = %d, want 10", cfg.Polymarket.TopN)
	}
	want := []string{"abc", "def", "ghi"}
	if len(cfg.Polymarket.MarketIDs) != len(want) {
		t.Fatalf("MarketIDs = %v, want %v", cfg.Polymarket.MarketIDs, want)
	}
	for i, v := range want {
		if cfg.Polymarket.MarketIDs[i] != v {
			t.Errorf("MarketIDs[%d] = %q, want %q", i, cfg.Polymarket.MarketIDs[i], v)
		}
	}
	if cfg.Polymarket.RTDSWildcard {
		t.Error("RTDSWildcard should be false")
	}
	if cfg.Kalshi.SigningAlgo != "hmac-sha256" {
		t.Errorf("SigningAlgo = %q, want hmac-sha256", cfg.Kalshi.SigningAlgo)
	}
	if len(cfg.Kalshi.MarketTickers) != 2 || cfg.Kalshi.MarketTickers[1] != "CPI-24" {
		t.Errorf("MarketTickers = %v", cfg.Kalshi.MarketTickers)
	}
	if cfg.Detectors.ZScoreThreshold != 4.5 {
		t.Errorf("ZScoreThreshold = %v, want 4.5", cfg.Detectors.ZScoreThreshold)
	}
	if cfg.Store.Mode != "server" {
		t.Errorf("Store.Mode = %q, want server", cfg.Store.Mode)
	}
	if cfg.Classifier.NicheMaxVolumeUSD == nil || *cfg.Classifier.NicheMaxVolumeUSD != 25000 {
		t.Errorf("NicheMaxVolumeUSD = %+v, want 25000", cfg.Classifier.NicheMaxVolumeUSD)
	}
}

func TestValidateRejectsBothVenuesDisabled(t *testing.T) {
	clearEnv(t)
	os.Setenv("ENABLE_POLYMARKET", "false")
	os.Setenv("ENABLE_KALSHI", "false")
	defer clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error when no venue is enabled")
	}
}

func TestValidateRequiresKalshiCredentialsWhenWSEnabled(t *testing.T) {
	clearEnv(t)
	defer clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg.Kalshi.WSEnabled = true
	cfg.Kalshi.AccessKey = ""
	cfg.Kalshi.PrivateKey = ""

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for missing kalshi credentials")
	}
}

func TestValidateRejectsUnknownStoreMode(t *testing.T) {
	clearEnv(t)
	defer clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg.Store.Mode = "bogus"
	cfg.Kalshi.WSEnabled = false

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for unknown store mode")
	}
}

func TestValidateRequiresPostgresFieldsForServerMode(t *testing.T) {
	clearEnv(t)
	defer clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg.Store.Mode = "server"
	cfg.Store.Postgres.Host = ""
	cfg.Kalshi.WSEnabled = false

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for missing postgres host")
	}
}

func TestParseQueryParamsAcceptsJSONAndQueryString(t *testing.T) {
	if v := parseQueryParams(`{"category":"Politics","limit":"5"}`); v["category"] != "Politics" || v["limit"] != "5" {
		t.Errorf("json form: got %+v", v)
	}
	if v := parseQueryParams("category=Politics&limit=5"); v["category"] != "Politics" || v["limit"] != "5" {
		t.Errorf("query-string form: got %+v", v)
	}
	if v := parseQueryParams(""); v != nil {
		t.Errorf("empty input should yield nil, got %+v", v)
	}
}

func TestParseBoolEnvVocabulary(t *testing.T) {
	truthy := []string{"1", "true", "TRUE", "yes", "y", "on"}
	for _, v := range truthy {
		if !parseBoolEnv(v) {
			t.Errorf("parseBoolEnv(%q) = false, want true", v)
		}
	}
	falsy := []string{"0", "false", "no", "", "maybe"}
	for _, v := range falsy {
		if parseBoolEnv(v) {
			t.Errorf("parseBoolEnv(%q) = true, want false", v)
		}
	}
}
