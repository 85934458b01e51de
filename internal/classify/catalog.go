package classify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/rickgao/whaleflow/internal/model"
)

// FetchFunc retrieves the full market directory for one venue,
// keyed by every alias the venue exposes for that market (slug,
// ticker, token id, condition id, event slug).
type FetchFunc func(ctx context.Context) (map[string]model.MarketMeta, error)

// Catalog holds the refreshed alias -> MarketMeta map for one venue.
// A refresh produces a brand new map that replaces the old one under
// a short write lock (copy-on-refresh); readers take a snapshot
// reference and never block on a refresh in progress.
type Catalog struct {
	fetch    FetchFunc
	interval time.Duration
	logger   *slog.Logger

	mu    sync.RWMutex
	alias map[string]model.MarketMeta

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewCatalog(fetch FetchFunc, interval time.Duration, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{
		fetch:    fetch,
		interval: interval,
		logger:   logger,
		alias:    make(map[string]model.MarketMeta),
	}
}

// Start performs a blocking initial refresh, then refreshes on the
// configured interval until ctx is cancelled.
func (c *Catalog) Start(ctx context.Context) error {
	if err := c.refresh(ctx); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := c.refresh(ctx); err != nil {
					c.logger.Warn("catalog refresh failed", "error", err)
				}
			}
		}
	}()
	return nil
}

func (c *Catalog) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
}

func (c *Catalog) refresh(ctx context.Context) error {
	fresh, err := c.fetch(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.alias = fresh
	c.mu.Unlock()
	c.logger.Info("catalog refreshed", "aliases", len(fresh))
	return nil
}

// Lookup returns the first MarketMeta matching any of the candidate
// keys, in order.
func (c *Catalog) Lookup(candidateKeys ...string) (model.MarketMeta, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, k := range candidateKeys {
		if k == "" {
			continue
		}
		if meta, ok := c.alias[k]; ok {
			return meta, true
		}
	}
	return model.MarketMeta{}, false
}

// Size returns the number of aliases currently held, for diagnostics.
func (c *Catalog) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.alias)
}
