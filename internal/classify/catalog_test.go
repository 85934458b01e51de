package classify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rickgao/whaleflow/internal/model"
)

func TestCatalogLookupAfterRefresh(t *testing.T) {
	fetch := func(ctx context.Context) (map[string]model.MarketMeta, error) {
		return map[string]model.MarketMeta{
			"slug-1":   {Label: "Market One"},
			"ticker-1": {Label: "Market One"},
		}, nil
	}
	cat := NewCatalog(fetch, time.Hour, nil)
	if err := cat.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer cat.Stop()

	meta, ok := cat.Lookup("nonexistent", "ticker-1")
	if !ok {
		t.Fatal("expected lookup to succeed on second candidate key")
	}
	if meta.Label != "Market One" {
		t.Errorf("Label = %q, want %q", meta.Label, "Market One")
	}
}

func TestCatalogStartFailsOnInitialFetchError(t *testing.T) {
	wantErr := errors.New("boom")
	fetch := func(ctx context.Context) (map[string]model.MarketMeta, error) {
		return nil, wantErr
	}
	cat := NewCatalog(fetch, time.Hour, nil)
	if err := cat.Start(context.Background()); !errors.Is(err, wantErr) {
		t.Fatalf("Start error = %v, want %v", err, wantErr)
	}
}

func TestCatalogReplacesMapOnRefresh(t *testing.T) {
	gen := 0
	fetch := func(ctx context.Context) (map[string]model.MarketMeta, error) {
		gen++
		if gen == 1 {
			return map[string]model.MarketMeta{"a": {Label: "first"}}, nil
		}
		return map[string]model.MarketMeta{"b": {Label: "second"}}, nil
	}
	cat := NewCatalog(fetch, time.Hour, nil)
	_ = cat.Start(context.Background())
	defer cat.Stop()

	if _, ok := cat.Lookup("a"); !ok {
		t.Fatal("expected initial alias present")
	}
	if err := cat.refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if _, ok := cat.Lookup("a"); ok {
		t.Error("stale alias should be gone after refresh")
	}
	if _, ok := cat.Lookup("b"); !ok {
		t.Error("new alias should be present after refresh")
	}
}
