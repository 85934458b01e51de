// Package connection implements a single long-lived WebSocket client:
// ping/pong handling, a dedicated read-loop goroutine, and a write
// mutex kept separate from the connection-state mutex. Venue adapters
// own reconnect/backoff and authentication; Client only owns the
// wire.
package connection
