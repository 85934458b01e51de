// Package kalshi implements the two Kalshi venue adapters: a
// websocket trade subscription (client.go) and an HTTP trades poller
// with LRU-bounded dedup (poller.go). Both share the venue's request
// signing (internal/auth) and, for the websocket adapter, the
// generalized single-connection client (internal/connection).
package kalshi
