package detect

import "sync"

// VenueAccumAlert is emitted when the one-sided venue accumulator
// crosses threshold.
type VenueAccumAlert struct {
	TotalUSD float64
}

// VenueAccumulator is a single global rolling sum over one venue/side
// pair (the spec's Kalshi YES accumulator). It latches exactly once
// per crossing of Threshold, matching the upstream reference
// implementation's single global latch rather than a per-market one;
// preserved intentionally, not a bug (see DESIGN.md open question b).
type VenueAccumulator struct {
	threshold float64

	mu     sync.Mutex
	window *slidingSum
	active bool
}

func NewVenueAccumulator(windowSeconds, threshold float64) *VenueAccumulator {
	return &VenueAccumulator{
		threshold: threshold,
		window:    newSlidingSum(windowSeconds),
	}
}

func (a *VenueAccumulator) Add(timestamp, sizeUSD float64) (VenueAccumAlert, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	total := a.window.add(timestamp, sizeUSD)
	if total >= a.threshold && !a.active {
		a.active = true
		return VenueAccumAlert{TotalUSD: total}, true
	}
	if total < a.threshold && a.active {
		a.active = false
	}
	return VenueAccumAlert{}, false
}
