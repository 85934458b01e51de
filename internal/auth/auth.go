// Package auth provides venue request signing: Kalshi's three
// signature algorithms (RSA-PSS, Ed25519, HMAC-SHA256) in this file,
// and Polymarket's L2 API-key HMAC scheme in polymarket.go.
package auth

import (
	"crypto"
	"crypto/ed25519"
	"crypto/hmac"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"os"
	"strings"
	"time"
)

// Algo identifies which signature scheme a set of credentials uses.
type Algo string

const (
	AlgoRSAPSS     Algo = "rsa-pss"
	AlgoEd25519    Algo = "ed25519"
	AlgoHMACSHA256 Algo = "hmac-sha256"
)

// Credentials holds the API key ID and the key material needed to
// sign requests under Algo. Exactly one of RSAKey, Ed25519Key, or
// HMACSecret is populated, matching Algo.
type Credentials struct {
	KeyID      string
	Algo       Algo
	RSAKey     *rsa.PrivateKey
	Ed25519Key ed25519.PrivateKey
	HMACSecret []byte
}

// LoadCredentials builds credentials from a key ID, a raw key string
// (PEM for RSA, hex/base64 for Ed25519, or a plain secret for HMAC),
// and an algorithm hint. An empty hint auto-detects RSA-PSS from PEM
// markers or key length and otherwise defaults to Ed25519, matching
// the upstream ingest service's resolution order.
func LoadCredentials(keyID, rawKey, algoHint string) (*Credentials, error) {
	if keyID == "" {
		return nil, fmt.Errorf("API key ID is required")
	}
	if rawKey == "" {
		return nil, fmt.Errorf("private key material is required")
	}

	algo := ResolveSigningAlgo(algoHint, rawKey)

	creds := &Credentials{KeyID: keyID, Algo: algo}
	switch algo {
	case AlgoRSAPSS:
		key, err := ParseRSAPrivateKey([]byte(rawKey))
		if err != nil {
			return nil, fmt.Errorf("parse RSA private key: %w", err)
		}
		creds.RSAKey = key
	case AlgoEd25519:
		seed, err := DecodePrivateKeyMaterial(rawKey)
		if err != nil {
			return nil, fmt.Errorf("decode ed25519 key: %w", err)
		}
		switch len(seed) {
		case ed25519.SeedSize:
			creds.Ed25519Key = ed25519.NewKeyFromSeed(seed)
		case ed25519.PrivateKeySize:
			creds.Ed25519Key = ed25519.PrivateKey(seed)
		default:
			return nil, fmt.Errorf("ed25519 key material has unexpected length %d", len(seed))
		}
	case AlgoHMACSHA256:
		creds.HMACSecret = []byte(rawKey)
	default:
		return nil, fmt.Errorf("unsupported signing algorithm %q", algo)
	}

	return creds, nil
}

// LoadCredentialsFromFile reads rawKey from a file path, e.g. a PEM
// file on disk for RSA-PSS deployments.
func LoadCredentialsFromFile(keyID, path, algoHint string) (*Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}
	return LoadCredentials(keyID, string(data), algoHint)
}

// ResolveSigningAlgo mirrors the upstream ingest service's algorithm
// selection: an explicit rsa-pss/ed25519/hmac-sha256 hint wins unless
// an ed25519 hint is paired with key material that is clearly RSA, in
// which case RSA-PSS overrides it. An empty hint falls back to
// RSA-PSS when the key material looks like RSA, and Ed25519
// otherwise.
func ResolveSigningAlgo(hint, rawKey string) Algo {
	cleaned := strings.ToLower(strings.TrimSpace(hint))
	switch cleaned {
	case "rsa-pss", "rsa_pss", "rsapss":
		return AlgoRSAPSS
	case "hmac-sha256", "hmac_sha256":
		return AlgoHMACSHA256
	case "ed25519":
		if LooksLikeRSAPrivateKey(rawKey) {
			return AlgoRSAPSS
		}
		return AlgoEd25519
	}
	if LooksLikeRSAPrivateKey(rawKey) {
		return AlgoRSAPSS
	}
	return AlgoEd25519
}

// LooksLikeRSAPrivateKey heuristically detects RSA key material: a
// PEM header, or a key longer than a typical raw Ed25519/HMAC secret.
func LooksLikeRSAPrivateKey(rawKey string) bool {
	cleaned := strings.TrimSpace(rawKey)
	if strings.Contains(cleaned, "BEGIN RSA PRIVATE KEY") || strings.Contains(cleaned, "BEGIN PRIVATE KEY") {
		return true
	}
	compact := strings.Join(strings.Fields(cleaned), "")
	return len(compact) > 128
}

// DecodePrivateKeyMaterial decodes a raw key string that may be
// hex-encoded (optionally 0x-prefixed) or base64-encoded, trying hex
// first as the upstream ingest service does.
func DecodePrivateKeyMaterial(rawKey string) ([]byte, error) {
	cleaned := strings.TrimSpace(rawKey)
	cleaned = strings.TrimPrefix(cleaned, "0x")
	if decoded, err := hex.DecodeString(cleaned); err == nil {
		return decoded, nil
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(rawKey), ""))
	if err != nil {
		return nil, fmt.Errorf("key material is neither hex nor base64: %w", err)
	}
	return decoded, nil
}

// ParseRSAPrivateKey accepts both PKCS#8 and PKCS#1 PEM encodings.
func ParseRSAPrivateKey(data []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("failed to decode PEM block")
	}

	if key, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("key is not an RSA private key")
		}
		return rsaKey, nil
	}

	rsaKey, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return rsaKey, nil
}

// LoadPrivateKey is kept for callers that only ever deal with RSA-PSS
// key files.
func LoadPrivateKey(path string) (*rsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}
	return ParseRSAPrivateKey(data)
}

// SignRequest generates authentication headers for a Kalshi API request.
// For WebSocket connections, method should be "GET" and path should be "/trade-api/ws/v2".
func (c *Credentials) SignRequest(method, path string) (headers map[string]string, err error) {
	timestampMs := time.Now().UnixMilli()

	signature, err := c.generateSignature(timestampMs, method, path)
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"KALSHI-ACCESS-KEY":       c.KeyID,
		"KALSHI-ACCESS-TIMESTAMP": fmt.Sprintf("%d", timestampMs),
		"KALSHI-ACCESS-SIGNATURE": signature,
	}, nil
}

// generateSignature signs timestamp_ms + method + path under c.Algo.
func (c *Credentials) generateSignature(timestampMs int64, method, path string) (string, error) {
	message := fmt.Sprintf("%d%s%s", timestampMs, method, path)

	switch c.Algo {
	case AlgoHMACSHA256:
		mac := hmac.New(sha256.New, c.HMACSecret)
		mac.Write([]byte(message))
		return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil

	case AlgoEd25519:
		if c.Ed25519Key == nil {
			return "", fmt.Errorf("ed25519 algo selected but no key loaded")
		}
		signature := ed25519.Sign(c.Ed25519Key, []byte(message))
		return base64.StdEncoding.EncodeToString(signature), nil

	case AlgoRSAPSS:
		if c.RSAKey == nil {
			return "", fmt.Errorf("rsa-pss algo selected but no key loaded")
		}
		hashed := sha256.Sum256([]byte(message))
		signature, err := rsa.SignPSS(
			rand.Reader,
			c.RSAKey,
			crypto.SHA256,
			hashed[:],
			&rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthAuto},
		)
		if err != nil {
			return "", fmt.Errorf("sign message: %w", err)
		}
		return base64.StdEncoding.EncodeToString(signature), nil

	default:
		return "", fmt.Errorf("unsupported signing algorithm %q", c.Algo)
	}
}

// WebSocketPath is the path used for WebSocket signature generation.
const WebSocketPath = "/trade-api/ws/v2"

// SignWebSocket generates authentication headers specifically for WebSocket connections.
func (c *Credentials) SignWebSocket() (headers map[string]string, err error) {
	return c.SignRequest("GET", WebSocketPath)
}
