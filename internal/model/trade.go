package model

const (
	PlatformPolymarket = "polymarket"
	PlatformKalshi     = "kalshi"

	SideYes = "yes"
	SideNo  = "no"

	// MinPersistSizeUSD is the size gate applied at store ingress: trades
	// below this notional are not persisted.
	MinPersistSizeUSD = 100.0
)

// Trade is the canonical record produced by the normalizer and consumed
// by the detector bundle and trade store.
type Trade struct {
	Timestamp   float64 // seconds since epoch, fractional
	Platform    string  // "polymarket" or "kalshi"
	Market      string  // venue-native identifier
	MarketLabel string  // human title, may equal Market

	SizeUSD float64

	Side string // "yes", "no", or passthrough lowercase

	ActorAddress *string // lowercased wallet, nil when venue has none

	Price    *float64 // probability in [0,1]
	Quantity *float64

	TradeID *string // venue-native id, used for (platform, trade_id) dedup

	MarketIsNiche  *bool
	MarketIsStock  *bool
	MarketVolume   *float64
	ClusterID      *string
	MarketCategory *string
}

// Valid reports whether the trade carries a usable size. The normalizer
// never rejects a trade itself; this is the boundary check applied by
// the detector bundle. Store ingress applies its own MinPersistSizeUSD
// gate instead.
func (t Trade) Valid() bool {
	return t.SizeUSD > 0
}
