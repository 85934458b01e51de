package polymarket

import "testing"

func TestExtractTradesFromDataEnvelope(t *testing.T) {
	got := extractTrades([]byte(`{"event":"trade","data":{"taker_address":"0xabc","size":"10","price":"0.5"}}`))
	if len(got) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(got))
	}
	if got[0]["taker_address"] != "0xabc" {
		t.Fatalf("unexpected taker_address: %v", got[0]["taker_address"])
	}
}

func TestExtractTradesFromNestedTradesList(t *testing.T) {
	got := extractTrades([]byte(`{"type":"trades","data":{"trades":[{"size":"1"},{"size":"2"}]}}`))
	if len(got) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(got))
	}
}

func TestExtractTradesIgnoresNonTradeMessages(t *testing.T) {
	got := extractTrades([]byte(`{"event":"book","data":{"bids":[]}}`))
	if got != nil {
		t.Fatalf("expected nil for non-trade event, got %v", got)
	}
}

func TestExtractTradesAcceptsBareTradeLookingPayload(t *testing.T) {
	got := extractTrades([]byte(`{"market":"0x123","size":"5","price":"0.2"}`))
	if len(got) != 1 {
		t.Fatalf("expected 1 bare trade payload, got %d", len(got))
	}
}

func TestChunkListSplitsEvenly(t *testing.T) {
	shards := chunkList([]string{"a", "b", "c", "d", "e"}, 2)
	if len(shards) != 3 {
		t.Fatalf("expected 3 shards, got %d", len(shards))
	}
	if len(shards[0]) != 2 || len(shards[2]) != 1 {
		t.Fatalf("unexpected shard sizes: %v", shards)
	}
}

func TestChunkListNonPositiveSizeReturnsSingleShard(t *testing.T) {
	shards := chunkList([]string{"a", "b"}, 0)
	if len(shards) != 1 || len(shards[0]) != 2 {
		t.Fatalf("expected one shard with both items, got %v", shards)
	}
}

func TestDedupeStringsPreservesOrder(t *testing.T) {
	got := dedupeStrings([]string{"a", "b", "a", "c", "b"})
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}
