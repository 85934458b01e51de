package polymarket

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/rickgao/whaleflow/internal/api"
	"github.com/rickgao/whaleflow/internal/connection"
	"github.com/rickgao/whaleflow/internal/model"
	"github.com/rickgao/whaleflow/internal/normalize"
)

// RTDSConfig configures the event-slug RTDS subscription, the
// default Polymarket stream mode per spec §4.5.1.
type RTDSConfig struct {
	URL string

	Topic          string
	Type           string
	EventSlugs     []string
	Wildcard       bool
	ChunkSize      int
	SubscribePause time.Duration
	SubscribeMode  string // "simple" or "command"

	EventsURL      string
	EventsLimit    int
	EventsMaxPages int

	PingInterval time.Duration
	PingTimeout  time.Duration
	ReconnectMin time.Duration
	ReconnectMax time.Duration
}

// RTDSAdapter resolves the subscription universe (an explicit slug
// list, a wildcard, or a page sweep of the Events catalog), shards
// it, and runs one reconnecting worker per shard.
type RTDSAdapter struct {
	cfg          RTDSConfig
	eventsClient *api.Client
	signer       connection.Signer
	handler      TradeHandler
	logger       *slog.Logger
	onReconnect  func()
}

func NewRTDSAdapter(cfg RTDSConfig, eventsClient *api.Client, signer connection.Signer, handler TradeHandler, logger *slog.Logger) *RTDSAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &RTDSAdapter{cfg: cfg, eventsClient: eventsClient, signer: signer, handler: handler, logger: logger}
}

// OnReconnect registers a callback invoked before each shard's
// (re)connect attempt, for reconnect-count instrumentation.
func (a *RTDSAdapter) OnReconnect(fn func()) {
	a.onReconnect = fn
}

// Run blocks until ctx is cancelled, re-resolving the subscription
// universe and re-sharding every time all shard workers exit.
func (a *RTDSAdapter) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		slugs, err := a.resolveEventSlugs(ctx)
		if err != nil {
			a.logger.Warn("polymarket rtds event slug resolution failed", "error", err)
		}
		if len(slugs) == 0 {
			a.logger.Warn("no polymarket event slugs to subscribe to, retrying soon")
			if !sleepOrDone(ctx, 30*time.Second) {
				return nil
			}
			continue
		}

		shards := chunkList(slugs, a.cfg.ChunkSize)
		var wg sync.WaitGroup
		for idx, shard := range shards {
			wg.Add(1)
			go func(idx int, shard []string) {
				defer wg.Done()
				a.runShard(ctx, idx, shard)
			}(idx, shard)
		}
		wg.Wait()

		if !sleepOrDone(ctx, 5*time.Second) {
			return nil
		}
	}
}

func (a *RTDSAdapter) runShard(ctx context.Context, shardID int, eventSlugs []string) {
	backoff := a.cfg.ReconnectMin
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if a.onReconnect != nil {
			a.onReconnect()
		}

		if err := a.runShardOnce(ctx, shardID, eventSlugs); err != nil {
			a.logger.Warn("polymarket rtds shard error, reconnecting", "shard", shardID, "error", err, "delay", backoff)
		}

		if !sleepOrDone(ctx, backoff) {
			return
		}
		backoff *= 2
		if backoff > a.cfg.ReconnectMax {
			backoff = a.cfg.ReconnectMax
		}
	}
}

func (a *RTDSAdapter) runShardOnce(ctx context.Context, shardID int, eventSlugs []string) error {
	clientCfg := connection.DefaultClientConfig()
	clientCfg.URL = a.cfg.URL
	clientCfg.Signer = a.signer
	if a.cfg.PingTimeout > 0 {
		clientCfg.PingTimeout = a.cfg.PingTimeout
	}

	conn := connection.NewClient(clientCfg, a.logger)
	if err := conn.Connect(ctx); err != nil {
		return err
	}
	defer conn.Close()

	if err := a.subscribe(ctx, conn, shardID, eventSlugs); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-conn.Errors():
			return err
		case msg := <-conn.Messages():
			for _, raw := range extractTrades(msg.Data) {
				a.handler(normalize.Trade(model.PlatformPolymarket, raw))
			}
		}
	}
}

func (a *RTDSAdapter) subscribe(ctx context.Context, conn connection.Client, shardID int, eventSlugs []string) error {
	for _, slug := range dedupeStrings(eventSlugs) {
		payload, err := json.Marshal(a.buildSubscription(slug))
		if err != nil {
			return err
		}
		if err := conn.Send(payload); err != nil {
			return err
		}
		if a.cfg.SubscribePause > 0 {
			if !sleepOrDone(ctx, a.cfg.SubscribePause) {
				return nil
			}
		}
	}
	return nil
}

func (a *RTDSAdapter) buildSubscription(slug string) any {
	if lowerTrim(a.cfg.SubscribeMode) == "command" {
		return map[string]any{
			"type":      "subscribe",
			"topic":     a.cfg.Topic,
			"event_slug": slug,
			"resources": []string{a.cfg.Type},
		}
	}
	return map[string]any{
		"topic":      a.cfg.Topic,
		"type":       a.cfg.Type,
		"event_slug": slug,
	}
}

func (a *RTDSAdapter) resolveEventSlugs(ctx context.Context) ([]string, error) {
	if len(a.cfg.EventSlugs) > 0 {
		return a.cfg.EventSlugs, nil
	}
	if a.cfg.Wildcard {
		return []string{"*"}, nil
	}
	return fetchEventSlugs(ctx, a.eventsClient, a.cfg.EventsURL, a.cfg.EventsLimit, a.cfg.EventsMaxPages)
}

// fetchEventSlugs paginates the Events catalog by offset, collecting
// every distinct event slug it can find, per the upstream ingest
// service's fetch_polymarket_event_slugs.
func fetchEventSlugs(ctx context.Context, client *api.Client, eventsURL string, limit, maxPages int) ([]string, error) {
	if client == nil || maxPages <= 0 {
		return nil, nil
	}

	var slugs []string
	offset := 0
	for page := 0; page < maxPages; page++ {
		query := url.Values{}
		query.Set("limit", itoa(limit))
		query.Set("offset", itoa(offset))
		query.Set("active", "true")
		query.Set("closed", "false")

		body, err := client.GetRaw(ctx, eventsURL, query)
		if err != nil {
			return slugs, err
		}

		items := extractListItems(body, "events", "data", "results", "items")
		if len(items) == 0 {
			break
		}
		for _, item := range items {
			if slug := firstNonEmpty(item, "slug", "event_slug", "eventSlug", "event"); slug != "" {
				slugs = append(slugs, slug)
			}
		}
		offset += limit
	}
	return dedupeStrings(slugs), nil
}
