package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rickgao/whaleflow/internal/model"
)

var marketIDKeys = []string{"market", "market_id", "marketId", "condition_id", "conditionId", "id", "ticker", "market_ticker"}
var priceKeys = []string{"price", "price_usd", "priceUsd", "price_cents", "yes_price", "no_price"}
var quantityKeys = []string{"size", "trade_size", "quantity", "qty", "count"}
var tradeIDKeys = []string{"trade_id", "id", "hash", "tx_hash", "txHash"}
var sideKeys = []string{"side", "taker_side", "takerSide"}
var sizeUSDKeys = []string{"size_usd", "sizeUsd", "volume_usd", "volumeUsd", "notional"}
var timestampKeys = []string{"timestamp", "time", "created_at", "createdAt", "created_time", "ts"}

// WalletKeys lists, per-venue, the fields that carry the acting wallet
// address. Polymarket payloads vary between taker_address and
// maker_address depending on message shape; Kalshi trades carry none.
var WalletKeys = []string{"taker_address", "wallet", "user_address", "address", "maker_address"}

var nonAlpha = regexp.MustCompile(`[^a-z]+`)

// Raw is a loosely-typed venue payload as decoded from JSON.
type Raw map[string]any

func firstString(raw Raw, keys []string) string {
	for _, k := range keys {
		if v, ok := raw[k]; ok {
			s := stringify(v)
			if s != "" {
				return s
			}
		}
	}
	return ""
}

func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		if x {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case nil:
		return 0, false
	case float64:
		return x, true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// ParseTimestamp converts a raw timestamp value to seconds since
// epoch. Numeric values greater than 1e12 are treated as
// milliseconds. ISO-8601 strings with a trailing "Z" are accepted.
// Anything unparsable falls back to the current wall clock.
func ParseTimestamp(v any) float64 {
	if v == nil {
		return float64(time.Now().UnixNano()) / 1e9
	}
	switch x := v.(type) {
	case float64, int, int64:
		f, _ := toFloat(x)
		if f > 1e12 {
			f /= 1000.0
		}
		return f
	case string:
		cleaned := strings.TrimSpace(x)
		if cleaned == "" {
			return float64(time.Now().UnixNano()) / 1e9
		}
		if strings.HasSuffix(cleaned, "Z") {
			cleaned = cleaned[:len(cleaned)-1] + "+00:00"
		}
		for _, layout := range []string{
			"2006-01-02T15:04:05.999999-07:00",
			"2006-01-02T15:04:05-07:00",
			"2006-01-02 15:04:05.999999-07:00",
			"2006-01-02 15:04:05-07:00",
			"2006-01-02T15:04:05.999999",
			"2006-01-02T15:04:05",
		} {
			if t, err := time.Parse(layout, cleaned); err == nil {
				return float64(t.UnixNano()) / 1e9
			}
		}
		return float64(time.Now().UnixNano()) / 1e9
	default:
		return float64(time.Now().UnixNano()) / 1e9
	}
}

// NormalizeSide maps a venue-native side string onto the canonical
// {"yes","no",<lowercased passthrough>} space. Compound phrases like
// "sell no" are resolved before single-token phrases.
func NormalizeSide(v any) string {
	s := stringify(v)
	if s == "" {
		return ""
	}
	cleaned := strings.ToLower(strings.TrimSpace(s))
	if cleaned == "" {
		return ""
	}
	tokens := nonAlpha.Split(cleaned, -1)
	parts := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		if t != "" {
			parts[t] = true
		}
	}
	switch {
	case parts["sell"] && parts["no"]:
		return "yes"
	case parts["buy"] && parts["no"]:
		return "no"
	case parts["sell"] && parts["yes"]:
		return "no"
	case parts["buy"] && parts["yes"]:
		return "yes"
	}
	switch cleaned {
	case "buy", "bid", "long", "yes":
		return "yes"
	case "sell", "ask", "short", "no":
		return "no"
	}
	return cleaned
}

// NormalizePrice rescales an input price >1.5 by dividing by 100, on
// the assumption it was expressed in cents or hundred-thousandths
// rather than as a probability in [0,1].
func NormalizePrice(v any) (float64, bool) {
	f, ok := toFloat(v)
	if !ok {
		return 0, false
	}
	if f > 1.5 {
		f /= 100.0
	}
	return f, true
}

func extractQuantity(raw Raw) (float64, bool) {
	for _, k := range quantityKeys {
		if v, ok := raw[k]; ok {
			if f, ok := toFloat(v); ok {
				return f, true
			}
		}
	}
	return 0, false
}

func extractPrice(raw Raw) (float64, bool) {
	for _, k := range priceKeys {
		if v, ok := raw[k]; ok {
			if f, ok := NormalizePrice(v); ok {
				return f, true
			}
		}
	}
	return 0, false
}

func extractSizeUSD(raw Raw) float64 {
	for _, k := range sizeUSDKeys {
		if v, ok := raw[k]; ok {
			if f, ok := toFloat(v); ok {
				return f
			}
		}
	}
	size, hasSize := extractQuantity(raw)
	price, hasPrice := extractPrice(raw)
	if !hasSize || !hasPrice || size <= 0 || price <= 0 {
		return 0
	}
	return size * price
}

// backfillTradeNumbers fills in whichever of price/quantity is absent
// from the other and sizeUSD, mirroring the upstream reference
// implementation's rounding-tolerant backfill.
func backfillTradeNumbers(sizeUSD float64, price *float64, quantity *float64) (*float64, *float64) {
	if sizeUSD <= 0 {
		return price, quantity
	}
	if price == nil && quantity != nil && *quantity != 0 {
		p := sizeUSD / *quantity
		price = &p
	}
	if quantity == nil && price != nil && *price != 0 {
		q := sizeUSD / *price
		quantity = &q
	}
	return price, quantity
}

// Trade builds a canonical model.Trade from a raw venue payload. It
// never errors; malformed or missing fields degrade to zero values.
func Trade(platform string, raw Raw) model.Trade {
	t := model.Trade{
		Platform:  platform,
		Timestamp: ParseTimestamp(firstOf(raw, timestampKeys)),
		Market:    firstString(raw, marketIDKeys),
	}
	t.MarketLabel = t.Market

	t.Side = NormalizeSide(firstString(raw, sideKeys))

	wallet := firstString(raw, WalletKeys)
	if wallet != "" {
		w := strings.ToLower(wallet)
		t.ActorAddress = &w
	}

	var price, quantity *float64
	if p, ok := extractPrice(raw); ok {
		price = &p
	}
	if q, ok := extractQuantity(raw); ok {
		quantity = &q
	}

	t.SizeUSD = extractSizeUSD(raw)
	price, quantity = backfillTradeNumbers(t.SizeUSD, price, quantity)
	t.Price = price
	t.Quantity = quantity

	if id := firstString(raw, tradeIDKeys); id != "" {
		t.TradeID = &id
	}

	return t
}

func firstOf(raw Raw, keys []string) any {
	for _, k := range keys {
		if v, ok := raw[k]; ok && v != nil {
			return v
		}
	}
	return nil
}
