// Package api provides the shared HTTP client used to reach both
// venues' REST catalogs, plus one catalog fetcher per venue:
// Kalshi's cursor-paginated /markets and /events, and Polymarket's
// offset-paginated Gamma /markets.
package api
