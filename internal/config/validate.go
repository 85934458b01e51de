package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are
// internally consistent. It never mutates c.
func (c *Config) Validate() error {
	if !c.EnablePolymarket && !c.EnableKalshi {
		return errors.New("at least one of ENABLE_POLYMARKET, ENABLE_KALSHI must be true")
	}

	if c.EnableKalshi && c.Kalshi.WSEnabled {
		if err := c.Kalshi.validateSigning(); err != nil {
			return err
		}
	}

	if c.Detectors.ZScoreMinSamples < 1 {
		return errors.New("detectors.zscore_min_samples must be >= 1")
	}
	if c.Detectors.SweepMinTrades < 1 {
		return errors.New("detectors.sweep_min_trades must be >= 1")
	}

	switch c.Store.Mode {
	case "memory", "embedded", "server":
	default:
		return fmt.Errorf("store.mode must be one of memory, embedded, server, got %q", c.Store.Mode)
	}
	if c.Store.Mode == "server" {
		if err := c.Store.Postgres.validate("store.postgres"); err != nil {
			return err
		}
	}
	if c.Store.Mode == "embedded" && c.Store.TradeDBPath == "" {
		return errors.New("store.trade_db_path is required when store.mode is embedded")
	}
	if c.Store.Redis.Enabled && c.Store.Redis.Addr == "" {
		return errors.New("store.redis.addr is required when store.redis.enabled is true")
	}

	if c.Metrics.Port < 1 || c.Metrics.Port > 65535 {
		return fmt.Errorf("metrics.port must be between 1 and 65535, got %d", c.Metrics.Port)
	}

	if c.HTTP.Timeout <= 0 {
		return errors.New("http.timeout must be > 0")
	}

	return nil
}

// validateSigning checks the signing algorithm hint (if any) is one
// auth.ResolveSigningAlgo understands, and that credentials are
// present whenever the websocket adapter is enabled.
func (k *KalshiConfig) validateSigning() error {
	if k.AccessKey == "" || k.PrivateKey == "" {
		return errors.New("kalshi.access_key and kalshi.private_key are required when kalshi.ws_enabled is true")
	}
	switch k.SigningAlgo {
	case "", "rsa-pss", "rsa_pss", "rsapss", "ed25519", "hmac-sha256", "hmac_sha256":
		return nil
	default:
		return fmt.Errorf("kalshi.signing_algo %q is not one of rsa-pss, ed25519, hmac-sha256", k.SigningAlgo)
	}
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
