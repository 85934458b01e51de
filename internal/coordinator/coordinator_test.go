package coordinator

import (
	"context"
	"testing"
	"time"

	"github.com/rickgao/whaleflow/internal/config"
)

func TestToSet(t *testing.T) {
	if got := toSet(nil); got != nil {
		t.Errorf("toSet(nil) = %v, want nil", got)
	}
	set := toSet([]string{"A", "B"})
	if !set["A"] || !set["B"] || len(set) != 2 {
		t.Errorf("toSet = %v, want {A,B}", set)
	}
}

func TestApiRoot(t *testing.T) {
	got := apiRoot("https://api.elections.kalshi.com/trade-api/v2/markets", "/markets")
	want := "https://api.elections.kalshi.com/trade-api/v2"
	if got != want {
		t.Errorf("apiRoot = %q, want %q", got, want)
	}
}

func TestNewStoreMemory(t *testing.T) {
	st, err := newStore(context.Background(), config.StoreConfig{Mode: "memory", MemoryMaxLen: 10})
	if err != nil {
		t.Fatalf("newStore: %v", err)
	}
	defer st.Close()
}

func TestNewStoreEmbedded(t *testing.T) {
	st, err := newStore(context.Background(), config.StoreConfig{Mode: "embedded", TradeDBPath: t.TempDir() + "/trades.db"})
	if err != nil {
		t.Fatalf("newStore: %v", err)
	}
	defer st.Close()
}

func TestNewStoreUnknownMode(t *testing.T) {
	_, err := newStore(context.Background(), config.StoreConfig{Mode: "bogus"})
	if err == nil {
		t.Fatal("expected error for unknown store mode")
	}
}

func TestNewStoreRedisCacheFailsWithoutReachableRedis(t *testing.T) {
	_, err := newStore(context.Background(), config.StoreConfig{
		Mode:         "memory",
		MemoryMaxLen: 10,
		Redis: config.RedisConfig{
			Enabled: true,
			Addr:    "127.0.0.1:1",
			TTL:     time.Second,
		},
	})
	if err == nil {
		t.Fatal("expected connection error against an unreachable redis cache")
	}
}

func TestNewStoreServerFailsWithoutReachableDatabase(t *testing.T) {
	_, err := newStore(context.Background(), config.StoreConfig{
		Mode: "server",
		Postgres: config.DBConfig{
			Host: "127.0.0.1", Port: 1, Name: "whaleflow", User: "whaleflow", MaxConns: 1,
		},
	})
	if err == nil {
		t.Fatal("expected connection error against an unreachable database")
	}
}
