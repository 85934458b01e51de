package kalshi

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/rickgao/whaleflow/internal/auth"
	"github.com/rickgao/whaleflow/internal/connection"
	"github.com/rickgao/whaleflow/internal/model"
	"github.com/rickgao/whaleflow/internal/normalize"
)

// TradeHandler receives every trade the adapter extracts from the
// wire, already converted to the canonical record.
type TradeHandler func(model.Trade)

// WSConfig configures the websocket trade subscription.
type WSConfig struct {
	URL           string
	Channels      []string
	MarketTickers []string

	PingInterval time.Duration
	PingTimeout  time.Duration
	ReconnectMin time.Duration
	ReconnectMax time.Duration
}

// WSAdapter is the long-running websocket trade subscription per
// spec §4.5.4: resolve auth headers, connect, subscribe, parse
// inbound frames, reconnect with exponential backoff on failure.
type WSAdapter struct {
	cfg     WSConfig
	creds   *auth.Credentials
	handler TradeHandler
	logger  *slog.Logger

	// onReconnect, if set, is called once per reconnect attempt for
	// metrics instrumentation; nil is a valid no-op.
	onReconnect func()
}

func NewWSAdapter(cfg WSConfig, creds *auth.Credentials, handler TradeHandler, logger *slog.Logger) *WSAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &WSAdapter{cfg: cfg, creds: creds, handler: handler, logger: logger}
}

// OnReconnect registers a callback invoked before each (re)connect
// attempt, for reconnect-count instrumentation.
func (a *WSAdapter) OnReconnect(fn func()) {
	a.onReconnect = fn
}

// Run blocks until ctx is cancelled, reconnecting with exponential
// backoff between [ReconnectMin, ReconnectMax] on every failure and
// resetting to ReconnectMin after a successful connect.
func (a *WSAdapter) Run(ctx context.Context) error {
	backoff := a.cfg.ReconnectMin

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if a.creds == nil {
			a.logger.Warn("kalshi websocket credentials missing; set KALSHI_ACCESS_KEY/KALSHI_PRIVATE_KEY")
			if !sleepOrDone(ctx, 30*time.Second) {
				return nil
			}
			continue
		}

		if a.onReconnect != nil {
			a.onReconnect()
		}

		connected, err := a.runOnce(ctx)
		if connected {
			backoff = a.cfg.ReconnectMin
		}
		if err != nil {
			a.logger.Warn("kalshi websocket error, reconnecting", "error", err, "delay", backoff)
			if !sleepOrDone(ctx, backoff) {
				return nil
			}
			backoff *= 2
			if backoff > a.cfg.ReconnectMax {
				backoff = a.cfg.ReconnectMax
			}
			continue
		}
		backoff = a.cfg.ReconnectMin
	}
}

// runOnce reports whether the connection was established, along with
// the error that ended it (nil on cancellation).
func (a *WSAdapter) runOnce(ctx context.Context) (bool, error) {
	clientCfg := connection.DefaultClientConfig()
	clientCfg.URL = a.cfg.URL
	clientCfg.Signer = a.creds
	if a.cfg.PingTimeout > 0 {
		clientCfg.PingTimeout = a.cfg.PingTimeout
	}

	conn := connection.NewClient(clientCfg, a.logger)
	if err := conn.Connect(ctx); err != nil {
		return false, err
	}
	defer conn.Close()

	if err := a.subscribe(conn); err != nil {
		return true, err
	}

	for {
		select {
		case <-ctx.Done():
			return true, nil
		case err := <-conn.Errors():
			return true, err
		case msg := <-conn.Messages():
			for _, raw := range extractWSTrades(msg.Data) {
				a.handler(normalize.Trade(model.PlatformKalshi, raw))
			}
		}
	}
}

func (a *WSAdapter) subscribe(conn connection.Client) error {
	params := connection.SubscribeParams{Channels: a.cfg.Channels}
	switch len(a.cfg.MarketTickers) {
	case 0:
	case 1:
		params.MarketTicker = a.cfg.MarketTickers[0]
	default:
		params.MarketTickers = a.cfg.MarketTickers
	}

	payload, err := json.Marshal(connection.Command{ID: 1, Cmd: "subscribe", Params: params})
	if err != nil {
		return err
	}
	return conn.Send(payload)
}

func sleepOrDone(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// extractWSTrades parses one websocket frame into zero or more raw
// trade records, ignoring non-trade message types and dropping
// unparseable frames.
func extractWSTrades(data []byte) []normalize.Raw {
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil
	}

	msgType := lowerTrim(firstNonEmpty(payload, "type", "channel"))
	if msgType != "" && msgType != "trade" && msgType != "trades" {
		return nil
	}

	raw := firstAny(payload, "data", "trade", "trades", "payload")
	switch v := raw.(type) {
	case map[string]any:
		return []normalize.Raw{normalize.Raw(v)}
	case []any:
		out := make([]normalize.Raw, 0, len(v))
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				out = append(out, normalize.Raw(m))
			}
		}
		return out
	default:
		return nil
	}
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
