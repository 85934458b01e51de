package config

import "time"

// Config is the root configuration tree for the gatherer process.
// Each nested struct groups the environment variables for one
// concern, mirroring the component that consumes it.
type Config struct {
	Polymarket PolymarketConfig
	Kalshi     KalshiConfig
	Classifier ClassifierConfig
	Cluster    ClusterConfig
	Detectors  DetectorConfig
	Store      StoreConfig
	HTTP       HTTPConfig
	Metrics    MetricsConfig

	PersistTrades    bool
	EnablePolymarket bool
	EnableKalshi     bool
}

// PolymarketConfig configures both the RTDS trade feed and the
// order-book mode adapter, plus the optional L2 request-signing
// credentials.
type PolymarketConfig struct {
	WSURL         string
	MarketsURL    string
	TopN          int
	MarketIDs     []string
	Channel       string
	SubscribeMode string // "bulk", "sharded", "per-market"
	StreamMode    string // "rtds" or "orderbook"

	RTDSURL            string
	RTDSTopic          string
	RTDSType           string
	RTDSEventSlugs     []string
	RTDSWildcard       bool
	RTDSChunkSize      int
	RTDSSubscribePause time.Duration
	RTDSSubscribeMode  string // "simple" or "command"

	EventsURL            string
	EventsLimit          int
	EventsMaxPages       int
	EventsParams         map[string]string
	EventKeywords        []string
	EventExcludeKeywords []string
	EventCategories      []string
	EventSubcategories   []string
	EventTags            []string
	EventCompanies       []string

	L2Enabled     bool
	L2APIKey      string
	L2APISecret   string
	L2Passphrase  string
	L2RequestPath string

	PingInterval  time.Duration
	PingTimeout   time.Duration
	ReconnectMin  time.Duration
	ReconnectMax  time.Duration

	WhaleThresholdUSD  float64
	WhaleWindowSeconds float64
}

// KalshiConfig configures the websocket adapter, the HTTP trades
// poller, and request signing.
type KalshiConfig struct {
	TradesURL   string
	WSURL       string
	WSPath      string
	WSEnabled   bool
	PollEnabled bool

	WSChannels    []string
	MarketTickers []string

	MarketsURL            string
	MarketsLimit          int
	MarketsMaxPages       int
	MarketsParams         map[string]string
	MarketKeywords        []string
	MarketExcludeKeywords []string
	MarketCategories      []string
	MarketSubcategories   []string
	MarketTags            []string
	MarketCompanies       []string

	AccessKey   string
	PrivateKey  string
	SigningAlgo string

	PollSeconds  time.Duration
	ReconnectMin time.Duration
	ReconnectMax time.Duration

	YesThresholdUSD  float64
	YesWindowSeconds float64
}

// ClassifierConfig carries the raw keyword lists and thresholds read
// from the environment; the coordinator converts it into
// classify.ClassifierConfig.
type ClassifierConfig struct {
	NicheKeywords     []string
	StockKeywords     []string
	ExcludeKeywords   []string
	MaxYearsAhead     int
	NicheMaxVolumeUSD *float64
}

// ClusterConfig configures the semantic cluster registry.
type ClusterConfig struct {
	MatchThreshold float64
}

// DetectorConfig carries the z-score and sweep detector parameters.
type DetectorConfig struct {
	ZScoreWindowSeconds   float64
	ZScoreThreshold       float64
	ZScoreMinSamples      int
	ZScoreCooldownSeconds float64

	SweepWindowMS        float64
	SweepMinTrades       int
	SweepCooldownSeconds float64
}

// StoreConfig selects and configures the trade-store backend.
type StoreConfig struct {
	Mode         string // "memory", "embedded", "server"
	TradeDBPath  string
	MemoryMaxLen int
	Postgres     DBConfig
	Redis        RedisConfig
}

// RedisConfig configures the optional read-through cache in front of
// Store.Leaderboard and Store.Stats.
type RedisConfig struct {
	Enabled bool
	Addr    string
	TTL     time.Duration
}

// DBConfig configures a Postgres connection.
type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int
	MinConns int
}

// HTTPConfig is the single global HTTP timeout shared by every venue
// adapter's REST client, per spec §5.
type HTTPConfig struct {
	Timeout time.Duration
}

// MetricsConfig configures the coordinator's /health, /debug, and
// /metrics endpoints.
type MetricsConfig struct {
	Port int
	Path string
}
