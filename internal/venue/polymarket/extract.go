package polymarket

import (
	"encoding/json"
	"strings"

	"github.com/rickgao/whaleflow/internal/model"
	"github.com/rickgao/whaleflow/internal/normalize"
)

// TradeHandler receives every trade either adapter extracts from the
// wire, already converted to the canonical record.
type TradeHandler func(model.Trade)

// extractTrades parses one websocket frame into zero or more raw
// trade records. Polymarket's RTDS and CLOB feeds share this shape:
// an envelope carrying an event/type/channel/topic discriminator and
// a data/trade/trades/payload body, occasionally nested one level
// deeper under the same key names.
func extractTrades(data []byte) []normalize.Raw {
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil
	}

	eventType := lowerTrim(firstNonEmpty(payload, "event", "type", "channel", "topic"))
	if eventType != "" && eventType != "trade" && eventType != "trades" && eventType != "activity" {
		return nil
	}

	body := firstAny(payload, "data", "trade", "trades", "payload")
	switch v := body.(type) {
	case map[string]any:
		if nested := firstAny(v, "trades", "trade", "data"); nested != nil {
			switch n := nested.(type) {
			case map[string]any:
				return []normalize.Raw{normalize.Raw(n)}
			case []any:
				return toRawTrades(n)
			}
		}
		return []normalize.Raw{normalize.Raw(v)}
	case []any:
		return toRawTrades(v)
	}

	if looksLikeTrade(payload) {
		return []normalize.Raw{normalize.Raw(payload)}
	}
	return nil
}

// looksLikeTrade accepts a bare frame with no discriminator at all
// when it carries fields only a trade payload would have.
func looksLikeTrade(payload map[string]any) bool {
	for _, key := range []string{
		"taker_address", "maker_address", "size", "price",
		"market", "market_id", "market_slug", "event_slug",
	} {
		if _, ok := payload[key]; ok {
			return true
		}
	}
	return false
}

func toRawTrades(items []any) []normalize.Raw {
	out := make([]normalize.Raw, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			out = append(out, normalize.Raw(m))
		}
	}
	return out
}

func firstNonEmpty(payload map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := payload[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func firstAny(payload map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := payload[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func lowerTrim(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// chunkList splits items into shards of size chunkSize, or a single
// shard holding everything when chunkSize is non-positive.
func chunkList(items []string, chunkSize int) [][]string {
	if chunkSize <= 0 {
		return [][]string{items}
	}
	var shards [][]string
	for i := 0; i < len(items); i += chunkSize {
		end := i + chunkSize
		if end > len(items) {
			end = len(items)
		}
		shards = append(shards, items[i:end])
	}
	return shards
}

// dedupeStrings preserves first-seen order while dropping repeats,
// matching Python's list(dict.fromkeys(...)) idiom.
func dedupeStrings(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}
