package polymarket

import (
	"context"
	"encoding/json"
	"strconv"
	"time"
)

func sleepOrDone(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		d = time.Millisecond
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

// extractListItems accepts either a bare JSON array or an object
// carrying the items under one of keys, mirroring the Gamma API's
// observed response shapes.
func extractListItems(body []byte, keys ...string) []map[string]any {
	var asArray []map[string]any
	if err := json.Unmarshal(body, &asArray); err == nil {
		return asArray
	}

	var asObject map[string]any
	if err := json.Unmarshal(body, &asObject); err != nil {
		return nil
	}
	for _, key := range keys {
		raw, ok := asObject[key]
		if !ok {
			continue
		}
		encoded, err := json.Marshal(raw)
		if err != nil {
			continue
		}
		var items []map[string]any
		if err := json.Unmarshal(encoded, &items); err == nil {
			return items
		}
	}
	return nil
}
