package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// buildForTest mirrors New but registers against a throwaway registry
// so the test can run independently of process-wide registration.
func buildForTest() (*Metrics, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		TradesIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "test_trades_ingested_total",
		}, []string{"platform"}),
		StoreQueryLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "test_store_query_duration_seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
	}
	reg.MustRegister(m.TradesIngested, m.StoreQueryLatency)
	return m, reg
}

func TestTradesIngestedIncrements(t *testing.T) {
	m, reg := buildForTest()
	m.TradesIngested.WithLabelValues("kalshi").Inc()
	m.TradesIngested.WithLabelValues("kalshi").Inc()
	m.TradesIngested.WithLabelValues("polymarket").Inc()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}

	var total float64
	for _, f := range families {
		if f.GetName() != "test_trades_ingested_total" {
			continue
		}
		for _, metric := range f.Metric {
			total += metric.GetCounter().GetValue()
		}
	}
	if total != 3 {
		t.Errorf("total = %v, want 3", total)
	}
}

func TestObserveQueryRecordsDuration(t *testing.T) {
	m, reg := buildForTest()
	done := m.ObserveQuery("leaderboard")
	done()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}

	var found *dto.MetricFamily
	for _, f := range families {
		if f.GetName() == "test_store_query_duration_seconds" {
			found = f
		}
	}
	if found == nil {
		t.Fatal("histogram family not found")
	}
	if len(found.Metric) != 1 {
		t.Fatalf("expected 1 observed series, got %d", len(found.Metric))
	}
	if found.Metric[0].GetHistogram().GetSampleCount() != 1 {
		t.Errorf("sample count = %d, want 1", found.Metric[0].GetHistogram().GetSampleCount())
	}
}
