package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the process-wide Prometheus collectors the
// coordinator and its adapters report through. Build one with New
// and thread it into every component that emits a signal.
type Metrics struct {
	TradesIngested   *prometheus.CounterVec
	AlertsEmitted    *prometheus.CounterVec
	StoreQueryLatency *prometheus.HistogramVec
	AdapterReconnects *prometheus.CounterVec
	CatalogSize      *prometheus.GaugeVec
}

// New registers every collector against the default Prometheus
// registry. Calling it twice in the same process panics (duplicate
// registration), matching promauto's behavior; callers should build
// exactly one Metrics per process.
func New() *Metrics {
	return &Metrics{
		TradesIngested: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "whaleflow_trades_ingested_total",
			Help: "Trades accepted by the store, by platform.",
		}, []string{"platform"}),
		AlertsEmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "whaleflow_alerts_emitted_total",
			Help: "Detector alerts emitted, by detector kind.",
		}, []string{"detector"}),
		StoreQueryLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "whaleflow_store_query_duration_seconds",
			Help:    "Latency of Store query methods.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		AdapterReconnects: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "whaleflow_adapter_reconnects_total",
			Help: "Venue adapter reconnect attempts, by adapter.",
		}, []string{"adapter"}),
		CatalogSize: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "whaleflow_catalog_aliases",
			Help: "Number of aliases currently held by a venue's market catalog.",
		}, []string{"venue"}),
	}
}

// Handler returns the HTTP handler to mount at the configured
// metrics path.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveQuery times a Store query method call and records it under
// method. Usage: defer m.ObserveQuery("leaderboard")().
func (m *Metrics) ObserveQuery(method string) func() {
	timer := prometheus.NewTimer(m.StoreQueryLatency.WithLabelValues(method))
	return func() { timer.ObserveDuration() }
}
