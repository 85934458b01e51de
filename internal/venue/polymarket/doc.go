// Package polymarket implements the two Polymarket venue adapters:
// the RTDS event-slug subscription (rtds.go, the default per spec)
// and the CLOB order-book token-id subscription (orderbook.go). Both
// shard their subscription universe across worker goroutines built on
// the generalized single-connection client (internal/connection) and
// share the same inbound trade-frame parsing (extract.go). Optional L2
// request signing lives in internal/auth.
package polymarket
