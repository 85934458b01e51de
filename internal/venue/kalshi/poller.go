package kalshi

import (
	"container/list"
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/rickgao/whaleflow/internal/api"
	"github.com/rickgao/whaleflow/internal/model"
	"github.com/rickgao/whaleflow/internal/normalize"
)

// PollerConfig configures the HTTP trades poller per spec §4.5.5.
type PollerConfig struct {
	TradesURL      string
	PollSeconds    time.Duration
	AllowedMarkets map[string]bool // nil/empty imposes no restriction
}

// Poller periodically fetches the Kalshi trades endpoint, filters
// out anything already seen or older than the latest accepted
// trade, and hands the rest to handler in arrival order.
type Poller struct {
	cfg     PollerConfig
	client  *api.Client
	handler TradeHandler
	logger  *slog.Logger

	latestSeen float64
	seen       *dedupLRU
}

// dedupLRUCap is the bound on remembered trade ids, matching the
// upstream ingest service's deque+set combo.
const dedupLRUCap = 5000

func NewPoller(cfg PollerConfig, client *api.Client, handler TradeHandler, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		cfg:     cfg,
		client:  client,
		handler: handler,
		logger:  logger,
		seen:    newDedupLRU(dedupLRUCap),
	}
}

// Run polls until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.cfg.PollSeconds)
	defer ticker.Stop()

	p.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	body, err := p.client.GetRaw(ctx, p.cfg.TradesURL, nil)
	if err != nil {
		p.logger.Warn("kalshi trades request failed", "error", err)
		return
	}

	for _, raw := range extractHTTPTrades(body) {
		tradeID := firstNonEmpty(raw, "trade_id", "id")
		if tradeID != "" && p.seen.Contains(tradeID) {
			continue
		}

		ts := normalize.ParseTimestamp(firstAny(raw, "timestamp", "time", "created_time", "createdAt", "ts"))
		if ts < p.latestSeen {
			continue
		}
		if len(p.cfg.AllowedMarkets) > 0 {
			market := firstNonEmpty(raw, "market", "market_id", "marketId", "ticker", "market_ticker")
			if !p.cfg.AllowedMarkets[market] {
				continue
			}
		}

		p.handler(normalize.Trade(model.PlatformKalshi, raw))

		if ts > p.latestSeen {
			p.latestSeen = ts
		}
		if tradeID != "" {
			p.seen.Add(tradeID)
		}
	}
}

// extractHTTPTrades mirrors extract_kalshi_trades: accepts either a
// bare array or an object carrying trades/data/results.
func extractHTTPTrades(body []byte) []normalize.Raw {
	var asObject map[string]any
	if err := json.Unmarshal(body, &asObject); err == nil {
		for _, key := range []string{"trades", "data", "results"} {
			if raw, ok := asObject[key]; ok {
				if items, ok := raw.([]any); ok {
					return toRawTrades(items)
				}
			}
		}
		return nil
	}

	var asArray []any
	if err := json.Unmarshal(body, &asArray); err == nil {
		return toRawTrades(asArray)
	}
	return nil
}

func toRawTrades(items []any) []normalize.Raw {
	out := make([]normalize.Raw, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			out = append(out, normalize.Raw(m))
		}
	}
	return out
}

// dedupLRU is a fixed-capacity set of recently seen ids, evicting the
// oldest entry on overflow. Backed by a doubly linked list (eviction
// order) plus a map (O(1) membership), the idiomatic Go shape of the
// upstream ingest service's deque+set pair.
type dedupLRU struct {
	cap int
	ll  *list.List
	idx map[string]*list.Element
}

func newDedupLRU(capacity int) *dedupLRU {
	return &dedupLRU{cap: capacity, ll: list.New(), idx: make(map[string]*list.Element, capacity)}
}

func (d *dedupLRU) Contains(id string) bool {
	_, ok := d.idx[id]
	return ok
}

func (d *dedupLRU) Add(id string) {
	if _, ok := d.idx[id]; ok {
		return
	}
	elem := d.ll.PushBack(id)
	d.idx[id] = elem
	if d.ll.Len() > d.cap {
		oldest := d.ll.Front()
		if oldest != nil {
			d.ll.Remove(oldest)
			delete(d.idx, oldest.Value.(string))
		}
	}
}
