// Package classify holds the market catalog (per-venue alias map,
// refreshed periodically) and the stateless text classifier that
// tags a market's text blob as niche, stock-related, excluded, or
// long-dated.
package classify
