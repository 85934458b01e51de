package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rickgao/whaleflow/internal/classify"
)

func TestFetchPolymarketCatalogParsesClobTokenIDsArray(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		offset := r.URL.Query().Get("offset")
		if offset != "0" {
			json.NewEncoder(w).Encode([]map[string]any{})
			return
		}
		json.NewEncoder(w).Encode([]map[string]any{
			{
				"question":     "Will X happen?",
				"category":     "Politics",
				"volume":       125000.5,
				"clobTokenIds": []any{"token-yes", "token-no"},
				"conditionId":  "cond-1",
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)
	catalog, err := FetchPolymarketCatalog(context.Background(), client, DefaultPolymarketCatalogOptions())
	if err != nil {
		t.Fatalf("FetchPolymarketCatalog: %v", err)
	}

	for _, key := range []string{"token-yes", "token-no", "cond-1"} {
		meta, ok := catalog[key]
		if !ok {
			t.Fatalf("expected key %q in catalog", key)
		}
		if meta.Label != "Will X happen?" {
			t.Errorf("unexpected label %q for key %q", meta.Label, key)
		}
		if meta.Category == nil || *meta.Category != "Politics" {
			t.Errorf("expected category Politics for key %q, got %+v", key, meta.Category)
		}
	}
}

func TestFetchPolymarketCatalogParsesClobTokenIDsEncodedString(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		offset := r.URL.Query().Get("offset")
		if offset != "0" {
			json.NewEncoder(w).Encode([]map[string]any{})
			return
		}
		json.NewEncoder(w).Encode([]map[string]any{
			{
				"question":     "Encoded token ids",
				"clobTokenIds": `["tok-a","tok-b"]`,
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)
	catalog, err := FetchPolymarketCatalog(context.Background(), client, DefaultPolymarketCatalogOptions())
	if err != nil {
		t.Fatalf("FetchPolymarketCatalog: %v", err)
	}
	if _, ok := catalog["tok-a"]; !ok {
		t.Fatal("expected tok-a to be parsed from encoded string")
	}
	if _, ok := catalog["tok-b"]; !ok {
		t.Fatal("expected tok-b to be parsed from encoded string")
	}
}

func TestFetchPolymarketCatalogStopsOnEmptyPage(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		json.NewEncoder(w).Encode([]map[string]any{})
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)
	catalog, err := FetchPolymarketCatalog(context.Background(), client, PolymarketCatalogOptions{PageLimit: 10, MaxPages: 5})
	if err != nil {
		t.Fatalf("FetchPolymarketCatalog: %v", err)
	}
	if len(catalog) != 0 {
		t.Fatalf("expected empty catalog, got %d entries", len(catalog))
	}
	if calls != 1 {
		t.Fatalf("expected single request before stopping on empty page, got %d", calls)
	}
}

func TestFetchPolymarketCatalogAppliesFilter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		offset := r.URL.Query().Get("offset")
		if offset != "0" {
			json.NewEncoder(w).Encode([]map[string]any{})
			return
		}
		json.NewEncoder(w).Encode([]map[string]any{
			{"question": "Who wins the Super Bowl?", "slug": "super-bowl", "category": "Sports"},
			{"question": "Will the Fed cut rates?", "slug": "fed-cut", "category": "Economics"},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)
	opts := DefaultPolymarketCatalogOptions()
	opts.Filter = classify.FilterConfig{ExcludeKeywords: []string{"super bowl"}}
	catalog, err := FetchPolymarketCatalog(context.Background(), client, opts)
	if err != nil {
		t.Fatalf("FetchPolymarketCatalog: %v", err)
	}
	if _, ok := catalog["super-bowl"]; ok {
		t.Error("expected super-bowl to be excluded by filter")
	}
	if _, ok := catalog["fed-cut"]; !ok {
		t.Error("expected fed-cut to remain in catalog")
	}
}
