package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// PolymarketL2Credentials signs Polymarket CLOB requests under the L2
// (API key) authentication scheme: HMAC-SHA256 over
// timestamp+method+path+body, keyed by a base64 (or raw) secret.
type PolymarketL2Credentials struct {
	APIKey     string
	Secret     string
	Passphrase string
	Path       string
}

// SignWebSocket satisfies connection.Signer, producing the same
// Poly-Api-* headers the upstream ingest service attaches to its
// RTDS/CLOB dial when L2 signing is enabled.
func (c *PolymarketL2Credentials) SignWebSocket() (map[string]string, error) {
	if c.APIKey == "" || c.Secret == "" || c.Passphrase == "" {
		return map[string]string{}, nil
	}

	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	signature, err := signPolymarketMessage(timestamp, "GET", c.Path, "", c.Secret)
	if err != nil {
		return nil, fmt.Errorf("sign polymarket request: %w", err)
	}

	return map[string]string{
		"Poly-Api-Key":        c.APIKey,
		"Poly-Api-Passphrase": c.Passphrase,
		"Poly-Api-Timestamp":  timestamp,
		"Poly-Api-Signature":  signature,
	}, nil
}

func signPolymarketMessage(timestamp, method, path, body, secret string) (string, error) {
	key := decodePolymarketSecret(secret)
	prehash := timestamp + strings.ToUpper(method) + path + body
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(prehash))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}

// decodePolymarketSecret decodes secret as base64, falling back to
// its raw UTF-8 bytes when it isn't valid base64, matching the
// upstream ingest service's decode-or-raw behavior.
func decodePolymarketSecret(secret string) []byte {
	cleaned := strings.TrimSpace(secret)
	if decoded, err := base64.StdEncoding.DecodeString(cleaned); err == nil {
		return decoded
	}
	return []byte(cleaned)
}
