package api

import (
	"log/slog"
	"net/http"
	"time"
)

// Signer produces per-request authentication headers. *auth.Credentials
// satisfies this via SignRequest(method, path).
type Signer interface {
	SignRequest(method, path string) (map[string]string, error)
}

// Client is a generic REST client shared by both venues' catalog
// fetchers: retrying GETs against a base URL with an optional signer
// for venues that require request authentication.
type Client struct {
	baseURL    string
	signer     Signer
	httpClient *http.Client
	logger     *slog.Logger

	maxRetries   int
	retryBackoff time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a new REST client. signer may be nil for
// unauthenticated public endpoints (e.g. Polymarket's Gamma API).
func NewClient(baseURL string, signer Signer, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: baseURL,
		signer:  signer,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:       slog.Default(),
		maxRetries:   3,
		retryBackoff: time.Second,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithRetries sets the retry configuration.
func WithRetries(max int, backoff time.Duration) ClientOption {
	return func(c *Client) {
		c.maxRetries = max
		c.retryBackoff = backoff
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// DefaultPaginationTimeout bounds a full-catalog paginated fetch when
// the caller's context carries no deadline.
const DefaultPaginationTimeout = 10 * time.Minute
