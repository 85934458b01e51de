package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rickgao/whaleflow/internal/model"
)

// CachedStore wraps any Store with a Redis read-through cache in
// front of the two query paths a dashboard polls most often,
// Leaderboard and Stats. AddTrade invalidates both immediately: a
// whale trade has to show up on the next poll, not after the TTL
// expires on its own.
type CachedStore struct {
	Store

	client *redis.Client
	ttl    time.Duration

	mu         sync.Mutex
	leaderKeys map[string]struct{}
}

// NewCachedStore dials addr eagerly so a misconfigured cache fails at
// startup rather than on the first query.
func NewCachedStore(ctx context.Context, inner Store, addr string, ttl time.Duration) (*CachedStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect redis cache: %w", err)
	}
	return &CachedStore{
		Store:      inner,
		client:     client,
		ttl:        ttl,
		leaderKeys: make(map[string]struct{}),
	}, nil
}

const statsCacheKey = "whaleflow:cache:stats"

func (c *CachedStore) Stats(ctx context.Context) (model.Stats, error) {
	var cached model.Stats
	if c.getCached(ctx, statsCacheKey, &cached) {
		return cached, nil
	}

	stats, err := c.Store.Stats(ctx)
	if err != nil {
		return model.Stats{}, err
	}
	c.setCached(ctx, statsCacheKey, stats)
	return stats, nil
}

func (c *CachedStore) Leaderboard(ctx context.Context, limit int, sinceTS *float64) ([]model.LeaderboardEntry, error) {
	key := leaderboardCacheKey(limit, sinceTS)

	var cached []model.LeaderboardEntry
	if c.getCached(ctx, key, &cached) {
		return cached, nil
	}

	entries, err := c.Store.Leaderboard(ctx, limit, sinceTS)
	if err != nil {
		return nil, err
	}
	c.setCached(ctx, key, entries)
	c.trackLeaderboardKey(key)
	return entries, nil
}

func (c *CachedStore) AddTrade(ctx context.Context, trade model.Trade) error {
	if err := c.Store.AddTrade(ctx, trade); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

func (c *CachedStore) Close() error {
	redisErr := c.client.Close()
	if err := c.Store.Close(); err != nil {
		return err
	}
	return redisErr
}

func leaderboardCacheKey(limit int, sinceTS *float64) string {
	if sinceTS == nil {
		return fmt.Sprintf("whaleflow:cache:leaderboard:%d:-", limit)
	}
	return fmt.Sprintf("whaleflow:cache:leaderboard:%d:%v", limit, *sinceTS)
}

func (c *CachedStore) getCached(ctx context.Context, key string, dest interface{}) bool {
	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	return json.Unmarshal([]byte(val), dest) == nil
}

func (c *CachedStore) setCached(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	c.client.Set(ctx, key, data, c.ttl)
}

func (c *CachedStore) trackLeaderboardKey(key string) {
	c.mu.Lock()
	c.leaderKeys[key] = struct{}{}
	c.mu.Unlock()
}

func (c *CachedStore) invalidate(ctx context.Context) {
	c.mu.Lock()
	keys := make([]string, 0, len(c.leaderKeys)+1)
	for k := range c.leaderKeys {
		keys = append(keys, k)
	}
	c.leaderKeys = make(map[string]struct{})
	c.mu.Unlock()

	keys = append(keys, statsCacheKey)
	c.client.Del(ctx, keys...)
}
