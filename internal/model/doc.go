// Package model defines the canonical data types shared across the
// ingestion, classification, detection, and storage stages.
//
// Conventions:
//   - Timestamps: float64 seconds since Unix epoch (fractional).
//   - Prices: float64 probability in [0,1].
//   - Platform names are always lowercase ("polymarket", "kalshi").
package model
