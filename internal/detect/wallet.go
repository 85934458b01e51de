package detect

import "sync"

// WalletAlert is emitted the first time a wallet's rolling volume
// crosses the configured threshold.
type WalletAlert struct {
	Wallet   string
	TotalUSD float64
}

// WalletAccumulator latches a wallet into "flagged" the first time
// its rolling window total crosses Threshold, and emits nothing on
// subsequent adds until the total drops back below threshold and
// crosses again.
type WalletAccumulator struct {
	windowSeconds float64
	threshold     float64

	mu      sync.Mutex
	wallets map[string]*slidingSum
	flagged map[string]bool
}

func NewWalletAccumulator(windowSeconds, threshold float64) *WalletAccumulator {
	return &WalletAccumulator{
		windowSeconds: windowSeconds,
		threshold:     threshold,
		wallets:       make(map[string]*slidingSum),
		flagged:       make(map[string]bool),
	}
}

func (a *WalletAccumulator) AddTrade(wallet string, timestamp, sizeUSD float64) (WalletAlert, bool) {
	if wallet == "" {
		return WalletAlert{}, false
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	window, ok := a.wallets[wallet]
	if !ok {
		window = newSlidingSum(a.windowSeconds)
		a.wallets[wallet] = window
	}
	total := window.add(timestamp, sizeUSD)

	if total >= a.threshold && !a.flagged[wallet] {
		a.flagged[wallet] = true
		return WalletAlert{Wallet: wallet, TotalUSD: total}, true
	}
	if total < a.threshold && a.flagged[wallet] {
		delete(a.flagged, wallet)
	}
	return WalletAlert{}, false
}
