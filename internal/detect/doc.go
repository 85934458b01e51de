// Package detect implements the sliding-window anomaly detectors fed
// by every venue adapter: rolling z-score spikes, short-window
// sweeps, per-wallet accumulation, and one-sided venue accumulation.
//
// The sliding sum and rolling-stats windows update their aggregates by
// subtraction on prune rather than by re-scanning the buffer, so each
// add is amortized O(1) regardless of window size. The sweep detector
// scans its buffer on each add for the price range and total.
package detect
