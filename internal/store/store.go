package store

import (
	"context"

	"github.com/rickgao/whaleflow/internal/model"
)

// Store is the capability set every backend satisfies.
type Store interface {
	AddTrade(ctx context.Context, trade model.Trade) error
	RecentTrades(ctx context.Context, filter model.RecentTradesFilter) ([]model.Trade, error)
	Stats(ctx context.Context) (model.Stats, error)
	Leaderboard(ctx context.Context, limit int, sinceTS *float64) ([]model.LeaderboardEntry, error)
	WalletSummary(ctx context.Context, address string, sinceTS *float64) (*model.WalletSummary, error)
	AllWallets(ctx context.Context, limit int, sinceTS *float64) ([]model.WalletInfo, error)
	WalletAnalytics(ctx context.Context, address string, sinceTS *float64) (model.WalletAnalytics, error)
	Close() error
}

const dayLookbackSeconds = 86400

func sideIsYes(side string) bool {
	switch side {
	case "yes", "buy":
		return true
	default:
		return false
	}
}

func sideIsNo(side string) bool {
	switch side {
	case "no", "sell":
		return true
	default:
		return false
	}
}

func position(yesVolume, noVolume float64) string {
	if yesVolume == 0 && noVolume == 0 {
		return "N/A"
	}
	if yesVolume >= noVolume {
		return "YES"
	}
	return "NO"
}
