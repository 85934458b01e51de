package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rickgao/whaleflow/internal/model"
)

// MemoryStore is a single ordered slice of trades bounded by maxlen,
// guarded by one exclusive lock around the shared slice.
type MemoryStore struct {
	maxlen int

	mu     sync.Mutex
	trades []model.Trade
}

func NewMemoryStore(maxlen int) *MemoryStore {
	if maxlen <= 0 {
		maxlen = 2000
	}
	return &MemoryStore{maxlen: maxlen}
}

func (s *MemoryStore) AddTrade(ctx context.Context, trade model.Trade) error {
	if trade.SizeUSD < model.MinPersistSizeUSD {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trades = append(s.trades, trade)
	if len(s.trades) > s.maxlen {
		s.trades = s.trades[len(s.trades)-s.maxlen:]
	}
	return nil
}

func (s *MemoryStore) snapshot() []model.Trade {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Trade, len(s.trades))
	copy(out, s.trades)
	return out
}

func (s *MemoryStore) RecentTrades(ctx context.Context, filter model.RecentTradesFilter) ([]model.Trade, error) {
	trades := s.snapshot()

	filtered := make([]model.Trade, 0, len(trades))
	for _, t := range trades {
		if t.SizeUSD < filter.MinSizeUSD {
			continue
		}
		if filter.SinceTS != nil && t.Timestamp < *filter.SinceTS {
			continue
		}
		if len(filter.Platforms) > 0 && !platformAllowed(t.Platform, filter.Platforms) {
			continue
		}
		if filter.Wallet != "" && (t.ActorAddress == nil || *t.ActorAddress != filter.Wallet) {
			continue
		}
		filtered = append(filtered, t)
	}

	reversed := make([]model.Trade, len(filtered))
	for i, t := range filtered {
		reversed[len(filtered)-1-i] = t
	}
	if filter.Limit > 0 && len(reversed) > filter.Limit {
		reversed = reversed[:filter.Limit]
	}
	return reversed, nil
}

func platformAllowed(platform string, allowed []string) bool {
	for _, a := range allowed {
		if equalFoldASCII(platform, a) {
			return true
		}
	}
	return false
}

func equalFoldASCII(a, b string) bool {
	return lower(a) == lower(b)
}

func lower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

func (s *MemoryStore) Stats(ctx context.Context) (model.Stats, error) {
	now := float64(time.Now().UnixNano()) / 1e9
	cutoff24h := now - dayLookbackSeconds
	cutoffMinute := now - 60

	trades := s.snapshot()

	wallets := make(map[string]bool)
	trades24h := 0
	tradesMinute := 0
	var last *float64
	for _, t := range trades {
		if t.Timestamp >= cutoff24h {
			trades24h++
			if t.ActorAddress != nil && *t.ActorAddress != "" {
				wallets[*t.ActorAddress] = true
			}
		}
		if t.Timestamp >= cutoffMinute {
			tradesMinute++
		}
		ts := t.Timestamp
		if last == nil || ts > *last {
			last = &ts
		}
	}

	return model.Stats{
		Wallets: len(wallets),
		Trades:  trades24h,
		Flow:    fmt.Sprintf("%d/min", tradesMinute),
		Last:    last,
	}, nil
}

func (s *MemoryStore) resolveCutoff(sinceTS *float64) float64 {
	if sinceTS != nil {
		return *sinceTS
	}
	return float64(time.Now().UnixNano())/1e9 - dayLookbackSeconds
}

type walletTotals struct {
	volume    float64
	yesVolume float64
	noVolume  float64
}

func (s *MemoryStore) Leaderboard(ctx context.Context, limit int, sinceTS *float64) ([]model.LeaderboardEntry, error) {
	cutoff := s.resolveCutoff(sinceTS)
	trades := s.snapshot()

	totals := make(map[string]*walletTotals)
	order := make([]string, 0)
	for _, t := range trades {
		if t.ActorAddress == nil || *t.ActorAddress == "" || t.Timestamp < cutoff {
			continue
		}
		addr := *t.ActorAddress
		wt, ok := totals[addr]
		if !ok {
			wt = &walletTotals{}
			totals[addr] = wt
			order = append(order, addr)
		}
		wt.volume += t.SizeUSD
		side := lower(t.Side)
		if sideIsYes(side) {
			wt.yesVolume += t.SizeUSD
		} else if sideIsNo(side) {
			wt.noVolume += t.SizeUSD
		}
	}

	entries := make([]model.LeaderboardEntry, 0, len(order))
	for _, addr := range order {
		wt := totals[addr]
		entries = append(entries, model.LeaderboardEntry{
			Address:  addr,
			Volume:   wt.volume,
			Position: position(wt.yesVolume, wt.noVolume),
		})
	}
	sortEntriesByVolumeDesc(entries)
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func sortEntriesByVolumeDesc(entries []model.LeaderboardEntry) {
	for i := 1; i < len(entries); i++ {
		j := i
		for j > 0 && entries[j-1].Volume < entries[j].Volume {
			entries[j-1], entries[j] = entries[j], entries[j-1]
			j--
		}
	}
}

func (s *MemoryStore) WalletSummary(ctx context.Context, address string, sinceTS *float64) (*model.WalletSummary, error) {
	if address == "" {
		return nil, nil
	}
	cutoff := s.resolveCutoff(sinceTS)
	trades := s.snapshot()

	var matched []model.Trade
	for _, t := range trades {
		if t.ActorAddress != nil && *t.ActorAddress == address && t.Timestamp >= cutoff {
			matched = append(matched, t)
		}
	}
	if len(matched) == 0 {
		return nil, nil
	}

	var volume, yesVolume, noVolume, lastTS float64
	for _, t := range matched {
		volume += t.SizeUSD
		side := lower(t.Side)
		if sideIsYes(side) {
			yesVolume += t.SizeUSD
		} else if sideIsNo(side) {
			noVolume += t.SizeUSD
		}
		if t.Timestamp > lastTS {
			lastTS = t.Timestamp
		}
	}

	return &model.WalletSummary{
		Trades:    len(matched),
		Volume:    volume,
		YesVolume: yesVolume,
		NoVolume:  noVolume,
		LastTS:    lastTS,
	}, nil
}

// AllWallets derives its ranking from Leaderboard and per-wallet
// stats from WalletSummary; top_category is the wallet's in-window
// category with the largest summed size_usd, or "Mixed" when none of
// its in-window trades carries a category.
func (s *MemoryStore) AllWallets(ctx context.Context, limit int, sinceTS *float64) ([]model.WalletInfo, error) {
	ranking, err := s.Leaderboard(ctx, limit, sinceTS)
	if err != nil {
		return nil, err
	}
	cutoff := s.resolveCutoff(sinceTS)
	trades := s.snapshot()
	results := make([]model.WalletInfo, 0, len(ranking))
	for _, entry := range ranking {
		summary, err := s.WalletSummary(ctx, entry.Address, sinceTS)
		if err != nil {
			return nil, err
		}
		if summary == nil {
			continue
		}
		catVolume := make(map[string]float64)
		for _, t := range trades {
			if t.ActorAddress != nil && *t.ActorAddress == entry.Address && t.Timestamp >= cutoff && t.MarketCategory != nil {
				catVolume[*t.MarketCategory] += t.SizeUSD
			}
		}
		top, best := "Mixed", 0.0
		for cat, v := range catVolume {
			if cat != "" && v > best {
				top, best = cat, v
			}
		}
		results = append(results, model.WalletInfo{
			Address:     entry.Address,
			Volume:      summary.Volume,
			Trades:      summary.Trades,
			LastTS:      summary.LastTS,
			TopCategory: top,
		})
	}
	return results, nil
}

func (s *MemoryStore) WalletAnalytics(ctx context.Context, address string, sinceTS *float64) (model.WalletAnalytics, error) {
	if address == "" {
		return model.WalletAnalytics{Categories: map[string]model.CategoryBreakdown{}}, nil
	}
	cutoff := s.resolveCutoff(sinceTS)
	trades := s.snapshot()

	categories := make(map[string]model.CategoryBreakdown)
	for _, t := range trades {
		if t.ActorAddress == nil || *t.ActorAddress != address || t.Timestamp < cutoff {
			continue
		}
		cat := "Other"
		if t.MarketCategory != nil && *t.MarketCategory != "" {
			cat = *t.MarketCategory
		}
		b := categories[cat]
		b.Volume += t.SizeUSD
		b.Trades++
		categories[cat] = b
	}

	return model.WalletAnalytics{
		Categories:     categories,
		DiversityScore: float64(len(categories)),
	}, nil
}

func (s *MemoryStore) Close() error { return nil }
