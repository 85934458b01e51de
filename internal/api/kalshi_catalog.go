package api

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/rickgao/whaleflow/internal/classify"
	"github.com/rickgao/whaleflow/internal/model"
)

// KalshiMarket is the subset of Kalshi's /markets response this
// service needs to classify and label trades.
type KalshiMarket struct {
	Ticker      string `json:"ticker"`
	EventTicker string `json:"event_ticker"`
	Title       string `json:"title"`
	Subtitle    string `json:"subtitle"`
	Volume      int64  `json:"volume"`
}

type kalshiMarketsResponse struct {
	Markets []KalshiMarket `json:"markets"`
	Cursor  string         `json:"cursor"`
}

// KalshiEvent carries the category used to enrich market metadata;
// Kalshi markets don't carry a category themselves, only their parent
// event does.
type KalshiEvent struct {
	EventTicker string `json:"event_ticker"`
	Category    string `json:"category"`
}

type kalshiEventsResponse struct {
	Events []KalshiEvent `json:"events"`
	Cursor string        `json:"cursor"`
}

// FetchKalshiCatalog paginates through every open market and its
// parent events, returning a MarketMeta keyed by market ticker.
// Markets failing filter are excluded from the result, restricting
// the event universe the classifier sees per spec §4.2.
func FetchKalshiCatalog(ctx context.Context, client *Client, filter classify.FilterConfig) (map[string]model.MarketMeta, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultPaginationTimeout)
		defer cancel()
	}

	categoryByEvent, err := fetchKalshiEventCategories(ctx, client)
	if err != nil {
		return nil, fmt.Errorf("fetch kalshi events: %w", err)
	}

	catalog := make(map[string]model.MarketMeta)
	cursor := ""
	for {
		query := url.Values{}
		query.Set("limit", "1000")
		query.Set("status", "open")
		if cursor != "" {
			query.Set("cursor", cursor)
		}

		var resp kalshiMarketsResponse
		if err := client.get(ctx, "/markets", query, &resp); err != nil {
			return nil, fmt.Errorf("get markets: %w", err)
		}

		for _, m := range resp.Markets {
			volume := float64(m.Volume)
			category := categoryByEvent[m.EventTicker]
			var categoryPtr *string
			var categories []string
			if category != "" {
				categoryPtr = &category
				categories = []string{category}
			}
			textBlob := strings.ToLower(strings.TrimSpace(m.Title + " " + m.Subtitle))
			if !filter.Passes(textBlob, categories, nil, nil) {
				continue
			}
			catalog[m.Ticker] = model.MarketMeta{
				Label:    m.Title,
				TextBlob: textBlob,
				Volume:   &volume,
				Category: categoryPtr,
			}
		}

		if resp.Cursor == "" {
			break
		}
		cursor = resp.Cursor
	}

	return catalog, nil
}

func fetchKalshiEventCategories(ctx context.Context, client *Client) (map[string]string, error) {
	categories := make(map[string]string)
	cursor := ""
	for {
		query := url.Values{}
		query.Set("limit", "200")
		if cursor != "" {
			query.Set("cursor", cursor)
		}

		var resp kalshiEventsResponse
		if err := client.get(ctx, "/events", query, &resp); err != nil {
			return nil, err
		}

		for _, e := range resp.Events {
			categories[e.EventTicker] = e.Category
		}

		if resp.Cursor == "" {
			break
		}
		cursor = resp.Cursor
	}
	return categories, nil
}
