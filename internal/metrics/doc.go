// Package metrics wires the coordinator's Prometheus collectors:
// trades ingested, alerts emitted, store query latency, adapter
// reconnects, and catalog size. Mounted at the configured metrics
// path alongside the coordinator's health endpoints.
package metrics
