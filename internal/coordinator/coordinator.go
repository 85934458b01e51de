package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rickgao/whaleflow/internal/api"
	"github.com/rickgao/whaleflow/internal/auth"
	"github.com/rickgao/whaleflow/internal/classify"
	"github.com/rickgao/whaleflow/internal/cluster"
	"github.com/rickgao/whaleflow/internal/config"
	"github.com/rickgao/whaleflow/internal/connection"
	"github.com/rickgao/whaleflow/internal/database"
	"github.com/rickgao/whaleflow/internal/detect"
	"github.com/rickgao/whaleflow/internal/metrics"
	"github.com/rickgao/whaleflow/internal/model"
	"github.com/rickgao/whaleflow/internal/store"
	"github.com/rickgao/whaleflow/internal/venue/kalshi"
	"github.com/rickgao/whaleflow/internal/venue/polymarket"
)

// Coordinator owns every adapter worker and the shared dependencies
// they're built from: the classifier, the two market catalogs, the
// cluster registry, the detector bundle, and the trade store. Grounded
// on the upstream ingest service's top-level wiring, which constructs
// the same set of collaborators before spawning its connection
// manager, message router and writers.
type Coordinator struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *metrics.Metrics

	polyCatalog   *classify.Catalog
	kalshiCatalog *classify.Catalog
	st            store.Store
	bundle        *Bundle

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New builds every collaborator described in cfg but does not start
// anything yet.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) (*Coordinator, error) {
	if logger == nil {
		logger = slog.Default()
	}

	classifier := classify.NewClassifier(classify.ClassifierConfig{
		NicheKeywords:   cfg.Classifier.NicheKeywords,
		StockKeywords:   cfg.Classifier.StockKeywords,
		ExcludeKeywords: cfg.Classifier.ExcludeKeywords,
		MaxYearsAhead:   cfg.Classifier.MaxYearsAhead,
		NicheMaxVolume:  cfg.Classifier.NicheMaxVolumeUSD,
	})
	clusters := cluster.NewRegistry(cfg.Cluster.MatchThreshold)

	st, err := newStore(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("build store: %w", err)
	}

	polyCatalog := classify.NewCatalog(polymarketCatalogFetcher(cfg), catalogRefreshInterval, logger.With("catalog", "polymarket"))
	kalshiCatalog := classify.NewCatalog(kalshiCatalogFetcher(cfg), catalogRefreshInterval, logger.With("catalog", "kalshi"))

	bundle := NewBundle(BundleConfig{
		Classifier:    classifier,
		Clusters:      clusters,
		PolyCatalog:   polyCatalog,
		KalshiCatalog: kalshiCatalog,

		ZScore: detect.NewZScoreDetector(
			cfg.Detectors.ZScoreWindowSeconds, cfg.Detectors.ZScoreThreshold,
			cfg.Detectors.ZScoreMinSamples, cfg.Detectors.ZScoreCooldownSeconds),
		Sweep: detect.NewSweepDetector(
			cfg.Detectors.SweepWindowMS, cfg.Detectors.SweepMinTrades, cfg.Detectors.SweepCooldownSeconds),
		PolyWallets:  detect.NewWalletAccumulator(cfg.Polymarket.WhaleWindowSeconds, cfg.Polymarket.WhaleThresholdUSD),
		KalshiYesAcc: detect.NewVenueAccumulator(cfg.Kalshi.YesWindowSeconds, cfg.Kalshi.YesThresholdUSD),

		Store:         st,
		PersistTrades: cfg.PersistTrades,

		Metrics: m,
		Logger:  logger,
	})

	return &Coordinator{
		cfg:           cfg,
		logger:        logger,
		metrics:       m,
		polyCatalog:   polyCatalog,
		kalshiCatalog: kalshiCatalog,
		st:            st,
		bundle:        bundle,
	}, nil
}

// catalogRefreshInterval matches the upstream ingest service's
// periodic metadata resync cadence.
const catalogRefreshInterval = 10 * time.Minute

// Store returns the trade store, for the HTTP query surface.
func (c *Coordinator) Store() store.Store { return c.st }

// Run performs the initial catalog refresh, then spawns exactly the
// enabled adapter workers and blocks until ctx is cancelled and every
// worker has returned. Per spec §4.6 it emits a warning and returns
// immediately if no adapter ends up enabled.
func (c *Coordinator) Run(ctx context.Context) error {
	refreshCtx, cancelRefresh := context.WithCancel(ctx)
	defer cancelRefresh()

	g, gctx := errgroup.WithContext(refreshCtx)
	g.Go(func() error { return c.polyCatalog.Start(gctx) })
	g.Go(func() error { return c.kalshiCatalog.Start(gctx) })
	if err := g.Wait(); err != nil {
		return fmt.Errorf("initial catalog refresh: %w", err)
	}
	defer c.polyCatalog.Stop()
	defer c.kalshiCatalog.Stop()

	if c.metrics != nil {
		c.metrics.CatalogSize.WithLabelValues("polymarket").Set(float64(c.polyCatalog.Size()))
		c.metrics.CatalogSize.WithLabelValues("kalshi").Set(float64(c.kalshiCatalog.Size()))
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	defer cancel()

	httpClient := api.NewClient("", nil, api.WithTimeout(c.cfg.HTTP.Timeout))

	enabled := 0

	if c.cfg.EnableKalshi && c.cfg.Kalshi.WSEnabled {
		creds, err := auth.LoadCredentials(c.cfg.Kalshi.AccessKey, c.cfg.Kalshi.PrivateKey, c.cfg.Kalshi.SigningAlgo)
		if err != nil {
			return fmt.Errorf("load kalshi credentials: %w", err)
		}
		adapter := kalshi.NewWSAdapter(kalshi.WSConfig{
			URL:           c.cfg.Kalshi.WSURL,
			Channels:      c.cfg.Kalshi.WSChannels,
			MarketTickers: c.cfg.Kalshi.MarketTickers,
			PingInterval:  0,
			PingTimeout:   0,
			ReconnectMin:  c.cfg.Kalshi.ReconnectMin,
			ReconnectMax:  c.cfg.Kalshi.ReconnectMax,
		}, creds, c.bundle.HandleKalshiTrade, c.logger.With("adapter", "kalshi_ws"))
		if c.metrics != nil {
			adapter.OnReconnect(func() { c.metrics.AdapterReconnects.WithLabelValues("kalshi_ws").Inc() })
		}
		c.spawn(runCtx, "kalshi_ws", adapter.Run)
		enabled++
	}

	if c.cfg.EnableKalshi && c.cfg.Kalshi.PollEnabled {
		pollClient := api.NewClient("", nil, api.WithTimeout(c.cfg.HTTP.Timeout))
		allowed := toSet(c.cfg.Kalshi.MarketTickers)
		poller := kalshi.NewPoller(kalshi.PollerConfig{
			TradesURL:      c.cfg.Kalshi.TradesURL,
			PollSeconds:    c.cfg.Kalshi.PollSeconds,
			AllowedMarkets: allowed,
		}, pollClient, c.bundle.HandleKalshiTrade, c.logger.With("adapter", "kalshi_poll"))
		c.spawn(runCtx, "kalshi_poll", poller.Run)
		enabled++
	}

	if c.cfg.EnablePolymarket {
		var signer connection.Signer
		if c.cfg.Polymarket.L2Enabled {
			signer = &auth.PolymarketL2Credentials{
				APIKey:     c.cfg.Polymarket.L2APIKey,
				Secret:     c.cfg.Polymarket.L2APISecret,
				Passphrase: c.cfg.Polymarket.L2Passphrase,
				Path:       c.cfg.Polymarket.L2RequestPath,
			}
		}

		switch c.cfg.Polymarket.StreamMode {
		case "orderbook":
			adapter := polymarket.NewOrderBookAdapter(polymarket.OrderBookConfig{
				URL:           c.cfg.Polymarket.WSURL,
				Channel:       c.cfg.Polymarket.Channel,
				MarketIDs:     c.cfg.Polymarket.MarketIDs,
				MarketsURL:    c.cfg.Polymarket.MarketsURL,
				TopN:          c.cfg.Polymarket.TopN,
				SubscribeMode: c.cfg.Polymarket.SubscribeMode,
				ChunkSize:     c.cfg.Polymarket.RTDSChunkSize,
				PingInterval:  c.cfg.Polymarket.PingInterval,
				PingTimeout:   c.cfg.Polymarket.PingTimeout,
				ReconnectMin:  c.cfg.Polymarket.ReconnectMin,
				ReconnectMax:  c.cfg.Polymarket.ReconnectMax,
			}, httpClient, signer, c.bundle.HandlePolymarketTrade, c.logger.With("adapter", "polymarket_orderbook"))
			if c.metrics != nil {
				adapter.OnReconnect(func() { c.metrics.AdapterReconnects.WithLabelValues("polymarket_orderbook").Inc() })
			}
			c.spawn(runCtx, "polymarket_orderbook", adapter.Run)
		default:
			adapter := polymarket.NewRTDSAdapter(polymarket.RTDSConfig{
				URL:            c.cfg.Polymarket.RTDSURL,
				Topic:          c.cfg.Polymarket.RTDSTopic,
				Type:           c.cfg.Polymarket.RTDSType,
				EventSlugs:     c.cfg.Polymarket.RTDSEventSlugs,
				Wildcard:       c.cfg.Polymarket.RTDSWildcard,
				ChunkSize:      c.cfg.Polymarket.RTDSChunkSize,
				SubscribePause: c.cfg.Polymarket.RTDSSubscribePause,
				SubscribeMode:  c.cfg.Polymarket.RTDSSubscribeMode,
				EventsURL:      c.cfg.Polymarket.EventsURL,
				EventsLimit:    c.cfg.Polymarket.EventsLimit,
				EventsMaxPages: c.cfg.Polymarket.EventsMaxPages,
				PingInterval:   c.cfg.Polymarket.PingInterval,
				PingTimeout:    c.cfg.Polymarket.PingTimeout,
				ReconnectMin:   c.cfg.Polymarket.ReconnectMin,
				ReconnectMax:   c.cfg.Polymarket.ReconnectMax,
			}, httpClient, signer, c.bundle.HandlePolymarketTrade, c.logger.With("adapter", "polymarket_rtds"))
			if c.metrics != nil {
				adapter.OnReconnect(func() { c.metrics.AdapterReconnects.WithLabelValues("polymarket_rtds").Inc() })
			}
			c.spawn(runCtx, "polymarket_rtds", adapter.Run)
		}
		enabled++
	}

	if enabled == 0 {
		c.logger.Warn("no adapters enabled, nothing to run")
		return nil
	}

	c.logger.Info("coordinator running", "adapters_enabled", enabled)
	c.wg.Wait()
	return nil
}

// Stop cancels every running adapter worker and waits for them to
// return.
func (c *Coordinator) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
	if c.st != nil {
		c.st.Close()
	}
}

// spawn runs fn in its own goroutine, tracked by the coordinator's
// WaitGroup, logging any returned error. Adapter Run methods are
// long-running and normally only return on ctx cancellation.
func (c *Coordinator) spawn(ctx context.Context, name string, fn func(context.Context) error) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := fn(ctx); err != nil {
			c.logger.Error("adapter stopped", "adapter", name, "error", err)
		}
	}()
}

func toSet(values []string) map[string]bool {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

// polymarketCatalogFetcher closes over cfg to produce a
// classify.FetchFunc hitting Gamma's /markets endpoint, gated by the
// event filter fields under cfg.Polymarket.
func polymarketCatalogFetcher(cfg *config.Config) classify.FetchFunc {
	client := api.NewClient(apiRoot(cfg.Polymarket.MarketsURL, "/markets"), nil, api.WithTimeout(cfg.HTTP.Timeout))
	opts := api.DefaultPolymarketCatalogOptions()
	opts.PageLimit = cfg.Polymarket.EventsLimit
	opts.MaxPages = cfg.Polymarket.EventsMaxPages
	opts.Filter = classify.FilterConfig{
		ExcludeKeywords: cfg.Polymarket.EventExcludeKeywords,
		IncludeKeywords: cfg.Polymarket.EventKeywords,
		Categories:      cfg.Polymarket.EventCategories,
		Subcategories:   cfg.Polymarket.EventSubcategories,
		Tags:            cfg.Polymarket.EventTags,
		CompanyTerms:    cfg.Polymarket.EventCompanies,
	}

	return func(ctx context.Context) (map[string]model.MarketMeta, error) {
		return api.FetchPolymarketCatalog(ctx, client, opts)
	}
}

// apiRoot strips a known trailing path from a full endpoint URL to
// recover the API's base URL, since api.Client joins baseURL+path.
func apiRoot(fullURL, suffix string) string {
	return strings.TrimSuffix(fullURL, suffix)
}

func kalshiCatalogFetcher(cfg *config.Config) classify.FetchFunc {
	client := api.NewClient(apiRoot(cfg.Kalshi.MarketsURL, "/markets"), nil, api.WithTimeout(cfg.HTTP.Timeout))
	filter := classify.FilterConfig{
		ExcludeKeywords: cfg.Kalshi.MarketExcludeKeywords,
		IncludeKeywords: cfg.Kalshi.MarketKeywords,
		Categories:      cfg.Kalshi.MarketCategories,
		Subcategories:   cfg.Kalshi.MarketSubcategories,
		Tags:            cfg.Kalshi.MarketTags,
		CompanyTerms:    cfg.Kalshi.MarketCompanies,
	}
	return func(ctx context.Context) (map[string]model.MarketMeta, error) {
		return api.FetchKalshiCatalog(ctx, client, filter)
	}
}

func newStore(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	st, err := newBaseStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if !cfg.Redis.Enabled {
		return st, nil
	}
	cached, err := store.NewCachedStore(ctx, st, cfg.Redis.Addr, cfg.Redis.TTL)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("build redis cache: %w", err)
	}
	return cached, nil
}

func newBaseStore(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Mode {
	case "memory":
		return store.NewMemoryStore(cfg.MemoryMaxLen), nil
	case "embedded":
		return store.NewSQLiteStore(cfg.TradeDBPath)
	case "server":
		dbCfg := database.DBConfig{
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Name:     cfg.Postgres.Name,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.MaxConns,
			MinConns: cfg.Postgres.MinConns,
		}
		pool, err := database.Connect(ctx, dbCfg)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		return store.NewPostgresStore(ctx, pool)
	default:
		return nil, fmt.Errorf("unknown store mode %q", cfg.Mode)
	}
}
