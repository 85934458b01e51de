package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/rickgao/whaleflow/internal/classify"
	"github.com/rickgao/whaleflow/internal/model"
)

// PolymarketCatalogOptions bounds the offset-paginated Gamma /markets
// sweep.
type PolymarketCatalogOptions struct {
	PageLimit int
	MaxPages  int
	Filter    classify.FilterConfig
}

// DefaultPolymarketCatalogOptions bounds the /markets sweep at 40
// pages of 500 markets each.
func DefaultPolymarketCatalogOptions() PolymarketCatalogOptions {
	return PolymarketCatalogOptions{PageLimit: 500, MaxPages: 40}
}

// FetchPolymarketCatalog paginates Gamma's /markets by offset, since
// Gamma has no cursor concept, and returns a MarketMeta keyed by every
// CLOB token id, condition id and slug a market advertises. Markets that
// fail opts.Filter are fetched (so pagination order is unaffected)
// but excluded from the result, restricting the event universe the
// classifier sees per spec §4.2.
func FetchPolymarketCatalog(ctx context.Context, client *Client, opts PolymarketCatalogOptions) (map[string]model.MarketMeta, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultPaginationTimeout)
		defer cancel()
	}
	if opts.PageLimit <= 0 {
		opts.PageLimit = 500
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = 40
	}

	catalog := make(map[string]model.MarketMeta)
	offset := 0
	for page := 0; page < opts.MaxPages; page++ {
		query := url.Values{}
		query.Set("limit", strconv.Itoa(opts.PageLimit))
		query.Set("offset", strconv.Itoa(offset))
		query.Set("active", "true")
		query.Set("closed", "false")
		query.Set("order", "volume24hr")
		query.Set("ascending", "false")

		body, err := client.doWithRetry(ctx, "GET", "/markets", query)
		if err != nil {
			return nil, fmt.Errorf("get markets: %w", err)
		}

		items, err := extractMarketItems(body)
		if err != nil {
			return nil, fmt.Errorf("parse markets page: %w", err)
		}
		if len(items) == 0 {
			break
		}

		for _, item := range items {
			meta, keys := polymarketMarketMeta(item)
			var categories []string
			if meta.Category != nil && *meta.Category != "" {
				categories = []string{*meta.Category}
			}
			if !opts.Filter.Passes(meta.TextBlob, categories, nil, nil) {
				continue
			}
			for _, key := range keys {
				if key != "" {
					catalog[key] = meta
				}
			}
		}

		offset += opts.PageLimit
	}

	return catalog, nil
}

// extractMarketItems accepts either a bare JSON array or an object
// with a "markets"/"data"/"results" list, matching Gamma's observed
// response shapes.
func extractMarketItems(body []byte) ([]map[string]any, error) {
	var asArray []map[string]any
	if err := json.Unmarshal(body, &asArray); err == nil {
		return asArray, nil
	}

	var asObject map[string]any
	if err := json.Unmarshal(body, &asObject); err != nil {
		return nil, err
	}
	for _, key := range []string{"markets", "data", "results"} {
		if raw, ok := asObject[key]; ok {
			encoded, err := json.Marshal(raw)
			if err != nil {
				continue
			}
			var items []map[string]any
			if err := json.Unmarshal(encoded, &items); err == nil {
				return items, nil
			}
		}
	}
	return nil, nil
}

func polymarketMarketMeta(item map[string]any) (model.MarketMeta, []string) {
	label := firstStringField(item, "question", "title", "slug")
	subtitle := firstStringField(item, "description")
	category := firstStringField(item, "category")

	volume := firstFloatField(item, "volume", "volumeNum", "volume24hr")
	var volumePtr *float64
	if volume != nil {
		volumePtr = volume
	}
	var categoryPtr *string
	if category != "" {
		categoryPtr = &category
	}

	meta := model.MarketMeta{
		Label:    label,
		TextBlob: strings.ToLower(strings.TrimSpace(label + " " + subtitle + " " + category)),
		Volume:   volumePtr,
		Category: categoryPtr,
	}

	keys := parseClobTokenIDs(item)
	if condID := firstStringField(item, "conditionId", "condition_id"); condID != "" {
		keys = append(keys, condID)
	}
	if slug := firstStringField(item, "slug"); slug != "" {
		keys = append(keys, slug)
	}
	return meta, keys
}

// parseClobTokenIDs mirrors the upstream ingest service's
// parse_clob_token_ids/split_yes_no_token_ids: the field may already be
// a JSON array, or a JSON-encoded string holding one.
func parseClobTokenIDs(item map[string]any) []string {
	raw, ok := item["clobTokenIds"]
	if !ok {
		raw, ok = item["clob_token_ids"]
		if !ok {
			return nil
		}
	}

	switch v := raw.(type) {
	case []any:
		return stringifyAll(v)
	case string:
		var decoded []any
		if err := json.Unmarshal([]byte(v), &decoded); err != nil {
			return nil
		}
		return stringifyAll(decoded)
	default:
		return nil
	}
}

func stringifyAll(values []any) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			out = append(out, s)
			continue
		}
		out = append(out, fmt.Sprint(v))
	}
	return out
}

func firstStringField(item map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := item[key]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

func firstFloatField(item map[string]any, keys ...string) *float64 {
	for _, key := range keys {
		v, ok := item[key]
		if !ok {
			continue
		}
		switch val := v.(type) {
		case float64:
			return &val
		case string:
			parsed, err := strconv.ParseFloat(val, 64)
			if err == nil {
				return &parsed
			}
		}
	}
	return nil
}
