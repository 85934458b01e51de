package kalshi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rickgao/whaleflow/internal/api"
	"github.com/rickgao/whaleflow/internal/model"
)

func TestExtractHTTPTradesFromWrappedObject(t *testing.T) {
	body := []byte(`{"trades":[{"trade_id":"t1","yes_price":55,"count":10,"ticker":"FOO"}]}`)
	got := extractHTTPTrades(body)
	if len(got) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(got))
	}
	if got[0]["trade_id"] != "t1" {
		t.Fatalf("expected trade_id t1, got %v", got[0]["trade_id"])
	}
}

func TestExtractHTTPTradesFromBareArray(t *testing.T) {
	body := []byte(`[{"trade_id":"t1"},{"trade_id":"t2"}]`)
	got := extractHTTPTrades(body)
	if len(got) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(got))
	}
}

func TestExtractHTTPTradesFallsBackThroughKeys(t *testing.T) {
	body := []byte(`{"results":[{"trade_id":"t1"}]}`)
	got := extractHTTPTrades(body)
	if len(got) != 1 {
		t.Fatalf("expected 1 trade from results key, got %d", len(got))
	}
}

func TestExtractHTTPTradesUnparseableReturnsNil(t *testing.T) {
	if got := extractHTTPTrades([]byte(`not json`)); got != nil {
		t.Fatalf("expected nil for unparseable body, got %v", got)
	}
}

func TestDedupLRUEvictsOldest(t *testing.T) {
	d := newDedupLRU(2)
	d.Add("a")
	d.Add("b")
	d.Add("c")

	if d.Contains("a") {
		t.Fatalf("expected a to be evicted")
	}
	if !d.Contains("b") || !d.Contains("c") {
		t.Fatalf("expected b and c to remain")
	}
}

func TestDedupLRUAddIsIdempotent(t *testing.T) {
	d := newDedupLRU(3)
	d.Add("a")
	d.Add("a")
	d.Add("b")
	d.Add("c")
	if !d.Contains("a") {
		t.Fatalf("expected a to still be present")
	}
}

func TestPollerTickSkipsDuplicateAndStaleTrades(t *testing.T) {
	call := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		call++
		switch call {
		case 1:
			w.Write([]byte(`{"trades":[{"trade_id":"t1","timestamp":100,"ticker":"FOO","yes_price":60,"count":5}]}`))
		case 2:
			// t1 repeated (must be skipped) plus a stale trade and a fresh one.
			w.Write([]byte(`{"trades":[
				{"trade_id":"t1","timestamp":100,"ticker":"FOO","yes_price":60,"count":5},
				{"trade_id":"t0","timestamp":50,"ticker":"FOO","yes_price":60,"count":5},
				{"trade_id":"t2","timestamp":150,"ticker":"FOO","yes_price":60,"count":5}
			]}`))
		}
	}))
	defer server.Close()

	client := api.NewClient("", nil)

	var received []model.Trade
	p := NewPoller(PollerConfig{TradesURL: server.URL, PollSeconds: time.Hour}, client, func(tr model.Trade) {
		received = append(received, tr)
	}, nil)

	ctx := context.Background()
	p.tick(ctx)
	p.tick(ctx)

	if len(received) != 2 {
		t.Fatalf("expected 2 accepted trades (t1, t2), got %d: %+v", len(received), received)
	}
}

func TestPollerTickFiltersByAllowedMarkets(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"trades":[
			{"trade_id":"a","timestamp":10,"ticker":"ALLOWED","yes_price":60,"count":1},
			{"trade_id":"b","timestamp":20,"ticker":"BLOCKED","yes_price":60,"count":1}
		]}`))
	}))
	defer server.Close()

	client := api.NewClient("", nil)

	var received []model.Trade
	p := NewPoller(PollerConfig{
		TradesURL:      server.URL,
		PollSeconds:    time.Hour,
		AllowedMarkets: map[string]bool{"ALLOWED": true},
	}, client, func(tr model.Trade) {
		received = append(received, tr)
	}, nil)

	p.tick(context.Background())

	if len(received) != 1 {
		t.Fatalf("expected 1 trade passing the market filter, got %d", len(received))
	}
}
