package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
)

// Load reads every environment variable in §6's catalog, applies
// defaults for anything unset, and returns the assembled Config
// without validating it. A ".env" file in the working directory is
// loaded first if present; a missing file is not an error, matching
// the upstream ingest service's "best effort .env, real env wins"
// convention.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Polymarket: loadPolymarketConfig(),
		Kalshi:     loadKalshiConfig(),
		Classifier: loadClassifierConfig(),
		Cluster:    ClusterConfig{MatchThreshold: getenvFloat("CLUSTER_MATCH_THRESHOLD", 0)},
		Detectors:  loadDetectorConfig(),
		Store:      loadStoreConfig(),
		HTTP:       HTTPConfig{Timeout: getenvDuration("HTTP_TIMEOUT_SECONDS", time.Second, 0)},
		Metrics:    MetricsConfig{Port: getenvInt("METRICS_PORT", 0), Path: getenv("METRICS_PATH", "")},

		PersistTrades:    getenvBool("PERSIST_TRADES", true),
		EnablePolymarket: getenvBool("ENABLE_POLYMARKET", true),
		EnableKalshi:     getenvBool("ENABLE_KALSHI", true),
	}

	cfg.applyDefaults()
	return cfg, nil
}

// LoadAndValidate loads the configuration and validates it,
// returning a wrapped error if anything is inconsistent.
func LoadAndValidate() (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func loadPolymarketConfig() PolymarketConfig {
	return PolymarketConfig{
		WSURL:         getenv("POLYMARKET_WS_URL", ""),
		MarketsURL:    getenv("POLYMARKET_MARKETS_URL", ""),
		TopN:          getenvInt("POLYMARKET_TOP_N", 0),
		MarketIDs:     getenvCSV("POLYMARKET_MARKET_IDS"),
		Channel:       getenv("POLYMARKET_WS_CHANNEL", ""),
		SubscribeMode: getenv("POLYMARKET_SUBSCRIBE_MODE", ""),
		StreamMode:    getenv("POLYMARKET_STREAM_MODE", ""),

		RTDSURL:            getenv("POLYMARKET_RTDS_URL", ""),
		RTDSTopic:          getenv("POLYMARKET_RTDS_TOPIC", ""),
		RTDSType:           getenv("POLYMARKET_RTDS_TYPE", ""),
		RTDSEventSlugs:     getenvCSV("POLYMARKET_RTDS_EVENT_SLUGS"),
		RTDSWildcard:       getenvBool("POLYMARKET_RTDS_WILDCARD", true),
		RTDSChunkSize:      getenvInt("POLYMARKET_RTDS_CHUNK_SIZE", 0),
		RTDSSubscribePause: getenvDuration("POLYMARKET_RTDS_SUBSCRIBE_PAUSE", time.Second, 0),
		RTDSSubscribeMode:  getenv("POLYMARKET_RTDS_SUBSCRIBE_MODE", ""),

		EventsURL:            getenv("POLYMARKET_EVENTS_URL", ""),
		EventsLimit:          getenvInt("POLYMARKET_EVENTS_LIMIT", 0),
		EventsMaxPages:       getenvInt("POLYMARKET_EVENTS_MAX_PAGES", 0),
		EventsParams:         getenvParams("POLYMARKET_EVENTS_PARAMS"),
		EventKeywords:        getenvCSV("POLYMARKET_EVENT_KEYWORDS"),
		EventExcludeKeywords: getenvCSV("POLYMARKET_EVENT_EXCLUDE_KEYWORDS"),
		EventCategories:      getenvCSV("POLYMARKET_EVENT_CATEGORIES"),
		EventSubcategories:   getenvCSV("POLYMARKET_EVENT_SUBCATEGORIES"),
		EventTags:            getenvCSV("POLYMARKET_EVENT_TAGS"),
		EventCompanies:       getenvCSV("POLYMARKET_EVENT_COMPANIES"),

		L2Enabled:     getenvBool("POLYMARKET_L2_ENABLED", false),
		L2APIKey:      getenv("POLYMARKET_API_KEY", ""),
		L2APISecret:   getenv("POLYMARKET_API_SECRET", ""),
		L2Passphrase:  getenv("POLYMARKET_API_PASSPHRASE", ""),
		L2RequestPath: getenv("POLYMARKET_L2_REQUEST_PATH", ""),

		PingInterval: getenvDuration("POLYMARKET_PING_INTERVAL", time.Second, 0),
		PingTimeout:  getenvDuration("POLYMARKET_PING_TIMEOUT", time.Second, 0),
		ReconnectMin: getenvDuration("POLYMARKET_RECONNECT_MIN", time.Second, 0),
		ReconnectMax: getenvDuration("POLYMARKET_RECONNECT_MAX", time.Second, 0),

		WhaleThresholdUSD:  getenvFloat("POLYMARKET_WHALE_THRESHOLD_USD", 0),
		WhaleWindowSeconds: getenvFloat("POLYMARKET_WHALE_WINDOW_SECONDS", 0),
	}
}

func loadKalshiConfig() KalshiConfig {
	return KalshiConfig{
		TradesURL: getenv("KALSHI_TRADES_URL", ""),
		WSURL:     getenv("KALSHI_WS_URL", ""),
		WSPath:    getenv("KALSHI_WS_PATH", ""),
		WSEnabled: getenvBool("KALSHI_WS_ENABLED", true),
		PollEnabled: getenvBool("KALSHI_POLL_ENABLED", false),

		WSChannels:    getenvCSV("KALSHI_WS_CHANNELS"),
		MarketTickers: getenvCSV("KALSHI_MARKET_TICKERS"),

		MarketsURL:            getenv("KALSHI_MARKETS_URL", ""),
		MarketsLimit:          getenvInt("KALSHI_MARKETS_LIMIT", 0),
		MarketsMaxPages:       getenvInt("KALSHI_MARKETS_MAX_PAGES", 0),
		MarketsParams:         getenvParams("KALSHI_MARKETS_PARAMS"),
		MarketKeywords:        getenvCSV("KALSHI_MARKET_KEYWORDS"),
		MarketExcludeKeywords: getenvCSV("KALSHI_MARKET_EXCLUDE_KEYWORDS"),
		MarketCategories:      getenvCSV("KALSHI_MARKET_CATEGORIES"),
		MarketSubcategories:   getenvCSV("KALSHI_MARKET_SUBCATEGORIES"),
		MarketTags:            getenvCSV("KALSHI_MARKET_TAGS"),
		MarketCompanies:       getenvCSV("KALSHI_MARKET_COMPANIES"),

		AccessKey:   getenv("KALSHI_ACCESS_KEY", ""),
		PrivateKey:  getenv("KALSHI_PRIVATE_KEY", ""),
		SigningAlgo: getenv("KALSHI_SIGNING_ALGO", ""),

		PollSeconds:  getenvDuration("KALSHI_POLL_SECONDS", time.Second, 0),
		ReconnectMin: getenvDuration("KALSHI_RECONNECT_MIN", time.Second, 0),
		ReconnectMax: getenvDuration("KALSHI_RECONNECT_MAX", time.Second, 0),

		YesThresholdUSD:  getenvFloat("KALSHI_YES_THRESHOLD_USD", 0),
		YesWindowSeconds: getenvFloat("KALSHI_YES_WINDOW_SECONDS", 0),
	}
}

func loadClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		NicheKeywords:     getenvCSV("MARKET_NICHE_KEYWORDS"),
		StockKeywords:     getenvCSV("MARKET_STOCK_KEYWORDS"),
		ExcludeKeywords:   getenvCSV("MARKET_EXCLUDE_KEYWORDS"),
		MaxYearsAhead:     getenvInt("MARKET_MAX_YEARS_AHEAD", 0),
		NicheMaxVolumeUSD: getenvOptionalFloat("MARKET_NICHE_MAX_VOLUME_USD"),
	}
}

func loadDetectorConfig() DetectorConfig {
	return DetectorConfig{
		ZScoreWindowSeconds:   getenvFloat("ZSCORE_WINDOW_SECONDS", 0),
		ZScoreThreshold:       getenvFloat("ZSCORE_THRESHOLD", 0),
		ZScoreMinSamples:      getenvInt("ZSCORE_MIN_SAMPLES", 0),
		ZScoreCooldownSeconds: getenvFloat("ZSCORE_COOLDOWN_SECONDS", 0),

		SweepWindowMS:        getenvFloat("SWEEP_WINDOW_MS", 0),
		SweepMinTrades:       getenvInt("SWEEP_MIN_TRADES", 0),
		SweepCooldownSeconds: getenvFloat("SWEEP_COOLDOWN_SECONDS", 0),
	}
}

func loadStoreConfig() StoreConfig {
	return StoreConfig{
		Mode:        feedModeToStoreMode(getenv("DASH_FEED_MODE", "")),
		TradeDBPath: getenv("TRADE_DB_PATH", ""),
		Postgres: DBConfig{
			Host:     getenv("POSTGRES_HOST", ""),
			Port:     getenvInt("POSTGRES_PORT", 0),
			User:     getenv("POSTGRES_USER", ""),
			Password: getenv("POSTGRES_PASSWORD", ""),
			Name:     getenv("POSTGRES_DATABASE", ""),
			SSLMode:  getenv("POSTGRES_SSLMODE", ""),
			MaxConns: getenvInt("POSTGRES_MAX_CONNS", 0),
			MinConns: getenvInt("POSTGRES_MIN_CONNS", 0),
		},
		Redis: RedisConfig{
			Enabled: getenvBool("REDIS_CACHE_ENABLED", false),
			Addr:    getenv("REDIS_ADDR", ""),
			TTL:     getenvDuration("REDIS_CACHE_TTL_SECONDS", time.Second, 0),
		},
	}
}

// feedModeToStoreMode maps spec §6's DASH_FEED_MODE vocabulary
// (mock, db, postgres) onto the store package's backend names
// (memory, embedded, server).
func feedModeToStoreMode(mode string) string {
	switch mode {
	case "mock":
		return "memory"
	case "db":
		return "embedded"
	case "postgres":
		return "server"
	default:
		return ""
	}
}
