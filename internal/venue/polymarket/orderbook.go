package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/rickgao/whaleflow/internal/api"
	"github.com/rickgao/whaleflow/internal/connection"
	"github.com/rickgao/whaleflow/internal/model"
	"github.com/rickgao/whaleflow/internal/normalize"
)

// OrderBookConfig configures the CLOB (order-book channel)
// subscription mode per spec §4.5.2.
type OrderBookConfig struct {
	URL       string
	Channel   string
	MarketIDs []string // explicit CLOB token ids; empty triggers the top-N sweep below

	MarketsURL    string
	MarketsParams map[string]string
	TopN          int

	SubscribeMode string // "bulk", "sharded", or "per-market"
	ChunkSize     int

	PingInterval time.Duration
	PingTimeout  time.Duration
	ReconnectMin time.Duration
	ReconnectMax time.Duration
}

// OrderBookAdapter subscribes to the CLOB market channel for a set of
// token ids, resolved either from an explicit list or from a
// volume-ranked sweep of the Gamma markets catalog.
type OrderBookAdapter struct {
	cfg           OrderBookConfig
	marketsClient *api.Client
	signer        connection.Signer
	handler       TradeHandler
	logger        *slog.Logger
	onReconnect   func()
}

func NewOrderBookAdapter(cfg OrderBookConfig, marketsClient *api.Client, signer connection.Signer, handler TradeHandler, logger *slog.Logger) *OrderBookAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &OrderBookAdapter{cfg: cfg, marketsClient: marketsClient, signer: signer, handler: handler, logger: logger}
}

func (a *OrderBookAdapter) OnReconnect(fn func()) {
	a.onReconnect = fn
}

// Run blocks until ctx is cancelled, re-resolving the market universe
// and re-sharding every time all shard workers exit.
func (a *OrderBookAdapter) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		marketIDs, err := a.resolveMarketIDs(ctx)
		if err != nil {
			a.logger.Warn("polymarket markets resolution failed", "error", err)
		}
		if len(marketIDs) == 0 {
			a.logger.Warn("no polymarket markets to subscribe to, retrying soon")
			if !sleepOrDone(ctx, 30*time.Second) {
				return nil
			}
			continue
		}

		switch lowerTrim(a.cfg.SubscribeMode) {
		case "shard", "sharded":
			shards := chunkList(marketIDs, a.cfg.ChunkSize)
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
		case "per-market":
			var wg sync.WaitGroup
			for idx, id := range marketIDs {
				wg.Add(1)
				go func(idx int, id string) {
					defer wg.Done()
					a.runShard(ctx, idx, []string{id})
				}(idx, id)
			}
			wg.Wait()
			if !sleepOrDone(ctx, 5*time.Second) {
				return nil
			}
		default: // "bulk": one connection, every market id
			a.runShard(ctx, 0, marketIDs)
			return nil
		}
	}
}

func (a *OrderBookAdapter) runShard(ctx context.Context, shardID int, marketIDs []string) {
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

		if err := a.runShardOnce(ctx, shardID, marketIDs); err != nil {
			a.logger.Warn("polymarket clob shard error, reconnecting", "shard", shardID, "error", err, "delay", backoff)
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

func (a *OrderBookAdapter) runShardOnce(ctx context.Context, shardID int, marketIDs []string) error {
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

	if err := a.subscribe(ctx, conn, marketIDs); err != nil {
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

func (a *OrderBookAdapter) subscribe(ctx context.Context, conn connection.Client, marketIDs []string) error {
	for _, id := range dedupeStrings(marketIDs) {
		payload, err := json.Marshal(map[string]any{
			"type":    "subscribe",
			"channel": a.cfg.Channel,
			"market":  id,
		})
		if err != nil {
			return err
		}
		if err := conn.Send(payload); err != nil {
			return err
		}
		if !sleepOrDone(ctx, 5*time.Millisecond) {
			return nil
		}
	}
	return nil
}

func (a *OrderBookAdapter) resolveMarketIDs(ctx context.Context) ([]string, error) {
	if len(a.cfg.MarketIDs) > 0 {
		return a.cfg.MarketIDs, nil
	}
	return fetchTopMarketIDs(ctx, a.marketsClient, a.cfg.MarketsURL, a.cfg.MarketsParams, a.cfg.TopN)
}

// fetchTopMarketIDs fetches the Gamma markets catalog once, keeps
// only active/open markets, ranks them by volume, and returns the
// CLOB token ids (both legs, when present) of the top N, per the
// upstream ingest service's fetch_top_polymarket_market_ids.
func fetchTopMarketIDs(ctx context.Context, client *api.Client, marketsURL string, params map[string]string, topN int) ([]string, error) {
	if client == nil || topN <= 0 {
		return nil, nil
	}

	query := url.Values{}
	query.Set("limit", itoa(topN))
	for k, v := range params {
		query.Set(k, v)
	}
	if query.Get("active") == "" {
		query.Set("active", "true")
	}
	if query.Get("closed") == "" {
		query.Set("closed", "false")
	}

	body, err := client.GetRaw(ctx, marketsURL, query)
	if err != nil {
		return nil, err
	}

	items := extractListItems(body, "markets", "data", "results", "items")
	active := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if isMarketActive(item) {
			active = append(active, item)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		return marketVolume(active[i]) > marketVolume(active[j])
	})
	if len(active) > topN {
		active = active[:topN]
	}

	var ids []string
	for _, item := range active {
		tokenIDs := parseTokenIDs(item)
		if len(tokenIDs) > 0 {
			ids = append(ids, tokenIDs...)
			continue
		}
		if id := firstNonEmpty(item, "condition_id", "conditionId", "id"); id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func isMarketActive(item map[string]any) bool {
	if active, ok := item["active"].(bool); ok && !active {
		return false
	}
	if closed, ok := item["closed"].(bool); ok && closed {
		return false
	}
	if archived, ok := item["archived"].(bool); ok && archived {
		return false
	}
	return true
}

func marketVolume(item map[string]any) float64 {
	for _, key := range []string{"volume24hr", "volume_24hr", "volume24h", "volume", "liquidity"} {
		if v, ok := item[key]; ok {
			if f, ok := toFloat(v); ok {
				return f
			}
		}
	}
	return 0
}

func toFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case string:
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func parseTokenIDs(item map[string]any) []string {
	raw, ok := item["clobTokenIds"]
	if !ok {
		raw, ok = item["clob_token_ids"]
		if !ok {
			return nil
		}
	}
	switch v := raw.(type) {
	case []any:
		return stringifyAny(v)
	case string:
		var decoded []any
		if err := json.Unmarshal([]byte(v), &decoded); err != nil {
			return nil
		}
		return stringifyAny(decoded)
	default:
		return nil
	}
}

func stringifyAny(values []any) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			out = append(out, s)
			continue
		}
		out = append(out, fmt.Sprint(v))
	}
	return out
}
