package auth

import "testing"

func TestPolymarketL2Credentials_SignWebSocket(t *testing.T) {
	creds := &PolymarketL2Credentials{
		APIKey:     "key-123",
		Secret:     "c2VjcmV0LWJ5dGVz", // base64("secret-bytes")
		Passphrase: "pass-456",
		Path:       "/ws/market",
	}

	headers, err := creds.SignWebSocket()
	if err != nil {
		t.Fatalf("SignWebSocket failed: %v", err)
	}

	if headers["Poly-Api-Key"] != "key-123" {
		t.Errorf("Poly-Api-Key = %q, want %q", headers["Poly-Api-Key"], "key-123")
	}
	if headers["Poly-Api-Passphrase"] != "pass-456" {
		t.Errorf("Poly-Api-Passphrase = %q, want %q", headers["Poly-Api-Passphrase"], "pass-456")
	}
	if headers["Poly-Api-Timestamp"] == "" {
		t.Error("Poly-Api-Timestamp is empty")
	}
	if !isValidBase64(headers["Poly-Api-Signature"]) {
		t.Errorf("Poly-Api-Signature is not valid base64: %q", headers["Poly-Api-Signature"])
	}
}

func TestPolymarketL2Credentials_SignWebSocketMissingFieldsNoOps(t *testing.T) {
	creds := &PolymarketL2Credentials{}
	headers, err := creds.SignWebSocket()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(headers) != 0 {
		t.Errorf("expected no headers when credentials are incomplete, got %+v", headers)
	}
}

func TestDecodePolymarketSecretFallsBackToRawUTF8(t *testing.T) {
	got := decodePolymarketSecret("not-valid-base64!!!")
	if string(got) != "not-valid-base64!!!" {
		t.Errorf("expected raw UTF-8 fallback, got %q", got)
	}
}

func TestDecodePolymarketSecretDecodesBase64(t *testing.T) {
	got := decodePolymarketSecret("c2VjcmV0LWJ5dGVz")
	if string(got) != "secret-bytes" {
		t.Errorf("expected decoded secret-bytes, got %q", got)
	}
}
