package config

import "time"

// Default values for optional configuration fields, matching the
// upstream ingest service's fallbacks exactly.
const (
	DefaultPolymarketWSURL      = "wss://ws-subscriptions-clob.polymarket.com/ws/market"
	DefaultPolymarketMarketsURL = "https://gamma-api.polymarket.com/markets"
	DefaultPolymarketTopN       = 50
	DefaultPolymarketChannel    = "trades"
	DefaultSubscribeMode        = "bulk"
	DefaultStreamMode           = "rtds"

	DefaultRTDSURL           = "wss://ws-live-data.polymarket.com"
	DefaultRTDSTopic         = "activity"
	DefaultRTDSType          = "trades"
	DefaultRTDSChunkSize     = 500
	DefaultRTDSSubscribePause = 10 * time.Millisecond
	DefaultRTDSSubscribeMode = "simple"

	DefaultEventsURL      = "https://gamma-api.polymarket.com/events"
	DefaultEventsLimit    = 100
	DefaultEventsMaxPages = 50

	DefaultL2RequestPath = "/"

	DefaultPolymarketPingInterval = 20 * time.Second
	DefaultPolymarketPingTimeout  = 20 * time.Second
	DefaultPolymarketReconnectMin = 2 * time.Second
	DefaultPolymarketReconnectMax = 60 * time.Second

	DefaultPolymarketWhaleThresholdUSD  = 10000.0
	DefaultPolymarketWhaleWindowSeconds = 21600.0

	DefaultKalshiTradesURL = "https://api.elections.kalshi.com/trade-api/v2/markets/trades"
	DefaultKalshiWSURL     = "wss://api.elections.kalshi.com/trade-api/ws/v2"
	DefaultKalshiWSPath    = "/trade-api/ws/v2"

	DefaultKalshiMarketsURL      = "https://api.elections.kalshi.com/trade-api/v2/markets"
	DefaultKalshiMarketsLimit    = 200
	DefaultKalshiMarketsMaxPages = 50

	DefaultKalshiSigningAlgo = "ed25519"
	DefaultKalshiPollSeconds = 2 * time.Second
	DefaultKalshiReconnectMin = 2 * time.Second
	DefaultKalshiReconnectMax = 60 * time.Second

	DefaultKalshiYesThresholdUSD  = 50000.0
	DefaultKalshiYesWindowSeconds = 3600.0

	DefaultMaxYearsAhead = 1

	DefaultClusterMatchThreshold = 88.0

	DefaultZScoreWindowSeconds   = 3600.0
	DefaultZScoreThreshold       = 3.0
	DefaultZScoreMinSamples      = 30
	DefaultZScoreCooldownSeconds = 30.0

	DefaultSweepWindowMS        = 50.0
	DefaultSweepMinTrades       = 5
	DefaultSweepCooldownSeconds = 1.0

	DefaultStoreMode    = "memory"
	DefaultTradeDBPath  = "data/trades.db"
	DefaultMemoryMaxLen = 2000
	DefaultDBPort       = 5432
	DefaultDBSSLMode    = "prefer"
	DefaultMaxConns     = 10
	DefaultMinConns     = 2

	DefaultRedisAddr = "localhost:6379"
	DefaultRedisTTL  = 5 * time.Second

	DefaultHTTPTimeout = 15 * time.Second

	DefaultMetricsPort = 9090
	DefaultMetricsPath = "/metrics"
)

func (c *Config) applyDefaults() {
	applyPolymarketDefaults(&c.Polymarket)
	applyKalshiDefaults(&c.Kalshi)

	if c.Classifier.MaxYearsAhead == 0 {
		c.Classifier.MaxYearsAhead = DefaultMaxYearsAhead
	}
	if c.Cluster.MatchThreshold == 0 {
		c.Cluster.MatchThreshold = DefaultClusterMatchThreshold
	}

	if c.Detectors.ZScoreWindowSeconds == 0 {
		c.Detectors.ZScoreWindowSeconds = DefaultZScoreWindowSeconds
	}
	if c.Detectors.ZScoreThreshold == 0 {
		c.Detectors.ZScoreThreshold = DefaultZScoreThreshold
	}
	if c.Detectors.ZScoreMinSamples == 0 {
		c.Detectors.ZScoreMinSamples = DefaultZScoreMinSamples
	}
	if c.Detectors.ZScoreCooldownSeconds == 0 {
		c.Detectors.ZScoreCooldownSeconds = DefaultZScoreCooldownSeconds
	}
	if c.Detectors.SweepWindowMS == 0 {
		c.Detectors.SweepWindowMS = DefaultSweepWindowMS
	}
	if c.Detectors.SweepMinTrades == 0 {
		c.Detectors.SweepMinTrades = DefaultSweepMinTrades
	}
	if c.Detectors.SweepCooldownSeconds == 0 {
		c.Detectors.SweepCooldownSeconds = DefaultSweepCooldownSeconds
	}

	if c.Store.Mode == "" {
		c.Store.Mode = DefaultStoreMode
	}
	if c.Store.TradeDBPath == "" {
		c.Store.TradeDBPath = DefaultTradeDBPath
	}
	if c.Store.MemoryMaxLen == 0 {
		c.Store.MemoryMaxLen = DefaultMemoryMaxLen
	}
	applyDBDefaults(&c.Store.Postgres)
	if c.Store.Redis.Addr == "" {
		c.Store.Redis.Addr = DefaultRedisAddr
	}
	if c.Store.Redis.TTL == 0 {
		c.Store.Redis.TTL = DefaultRedisTTL
	}

	if c.HTTP.Timeout == 0 {
		c.HTTP.Timeout = DefaultHTTPTimeout
	}

	if c.Metrics.Port == 0 {
		c.Metrics.Port = DefaultMetricsPort
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
}

func applyPolymarketDefaults(p *PolymarketConfig) {
	if p.WSURL == "" {
		p.WSURL = DefaultPolymarketWSURL
	}
	if p.MarketsURL == "" {
		p.MarketsURL = DefaultPolymarketMarketsURL
	}
	if p.TopN == 0 {
		p.TopN = DefaultPolymarketTopN
	}
	if p.Channel == "" {
		p.Channel = DefaultPolymarketChannel
	}
	if p.SubscribeMode == "" {
		p.SubscribeMode = DefaultSubscribeMode
	}
	if p.StreamMode == "" {
		p.StreamMode = DefaultStreamMode
	}
	if p.RTDSURL == "" {
		p.RTDSURL = DefaultRTDSURL
	}
	if p.RTDSTopic == "" {
		p.RTDSTopic = DefaultRTDSTopic
	}
	if p.RTDSType == "" {
		p.RTDSType = DefaultRTDSType
	}
	if p.RTDSChunkSize == 0 {
		p.RTDSChunkSize = DefaultRTDSChunkSize
	}
	if p.RTDSSubscribePause == 0 {
		p.RTDSSubscribePause = DefaultRTDSSubscribePause
	}
	if p.RTDSSubscribeMode == "" {
		p.RTDSSubscribeMode = DefaultRTDSSubscribeMode
	}
	if p.EventsURL == "" {
		p.EventsURL = DefaultEventsURL
	}
	if p.EventsLimit == 0 {
		p.EventsLimit = DefaultEventsLimit
	}
	if p.EventsMaxPages == 0 {
		p.EventsMaxPages = DefaultEventsMaxPages
	}
	if p.L2RequestPath == "" {
		p.L2RequestPath = DefaultL2RequestPath
	}
	if p.PingInterval == 0 {
		p.PingInterval = DefaultPolymarketPingInterval
	}
	if p.PingTimeout == 0 {
		p.PingTimeout = DefaultPolymarketPingTimeout
	}
	if p.ReconnectMin == 0 {
		p.ReconnectMin = DefaultPolymarketReconnectMin
	}
	if p.ReconnectMax == 0 {
		p.ReconnectMax = DefaultPolymarketReconnectMax
	}
	if p.WhaleThresholdUSD == 0 {
		p.WhaleThresholdUSD = DefaultPolymarketWhaleThresholdUSD
	}
	if p.WhaleWindowSeconds == 0 {
		p.WhaleWindowSeconds = DefaultPolymarketWhaleWindowSeconds
	}
}

func applyKalshiDefaults(k *KalshiConfig) {
	if k.TradesURL == "" {
		k.TradesURL = DefaultKalshiTradesURL
	}
	if k.WSURL == "" {
		k.WSURL = DefaultKalshiWSURL
	}
	if k.WSPath == "" {
		k.WSPath = DefaultKalshiWSPath
	}
	if len(k.WSChannels) == 0 {
		k.WSChannels = []string{"trade"}
	}
	if k.MarketsURL == "" {
		k.MarketsURL = DefaultKalshiMarketsURL
	}
	if k.MarketsLimit == 0 {
		k.MarketsLimit = DefaultKalshiMarketsLimit
	}
	if k.MarketsMaxPages == 0 {
		k.MarketsMaxPages = DefaultKalshiMarketsMaxPages
	}
	if k.SigningAlgo == "" {
		k.SigningAlgo = DefaultKalshiSigningAlgo
	}
	if k.PollSeconds == 0 {
		k.PollSeconds = DefaultKalshiPollSeconds
	}
	if k.ReconnectMin == 0 {
		k.ReconnectMin = DefaultKalshiReconnectMin
	}
	if k.ReconnectMax == 0 {
		k.ReconnectMax = DefaultKalshiReconnectMax
	}
	if k.YesThresholdUSD == 0 {
		k.YesThresholdUSD = DefaultKalshiYesThresholdUSD
	}
	if k.YesWindowSeconds == 0 {
		k.YesWindowSeconds = DefaultKalshiYesWindowSeconds
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
