package helius

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"
)

// Default configuration values.
const (
	DefaultBaseURL   = "https://api.helius.xyz"
	DefaultTimeout   = 20 * time.Second
	DefaultPageLimit = 1000

	// maxErrorBodyLog bounds how much of an error body reaches the logs.
	maxErrorBodyLog = 200
)

// Client talks to the enhanced-transactions HTTP endpoint. A call makes
// exactly one HTTP request; retry policy lives in the ingestion driver so
// retries compete fairly for work-queue slots.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *log.Logger
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithBaseURL overrides the provider base URL (used by tests).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithTimeout sets the per-call HTTP timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *log.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a new enhanced-transactions client.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: DefaultTimeout},
		logger:  log.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetTransactions fetches one page of parsed transactions for a wallet,
// newest first. before requests transactions strictly older than that
// signature; empty means the newest page. limit caps the page size.
func (c *Client) GetTransactions(ctx context.Context, wallet, before string, limit int) (*Page, error) {
	if limit <= 0 {
		limit = DefaultPageLimit
	}

	q := url.Values{}
	q.Set("api-key", c.apiKey)
	q.Set("maxSupportedTransactionVersion", "0")
	q.Set("limit", fmt.Sprintf("%d", limit))
	if before != "" {
		q.Set("before", before)
	}

	endpoint := fmt.Sprintf("%s/v0/addresses/%s/transactions?%s", c.baseURL, url.PathEscape(wallet), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		truncated := string(body)
		if len(truncated) > maxErrorBodyLog {
			truncated = truncated[:maxErrorBodyLog]
		}
		c.logger.Printf("provider status=%d body=%q", resp.StatusCode, truncated)

		var env errorEnvelope
		_ = json.Unmarshal(body, &env)
		return nil, mapError(resp.StatusCode, env, truncated)
	}

	// Decode leniently: keep the raw message of every item so unknown
	// fields survive into opaque persistence.
	var rawItems []json.RawMessage
	if err := json.Unmarshal(body, &rawItems); err != nil {
		return nil, fmt.Errorf("unmarshal transactions: %w", err)
	}

	page := &Page{Items: make([]*EnhancedTransaction, 0, len(rawItems))}
	for _, raw := range rawItems {
		var tx EnhancedTransaction
		if err := json.Unmarshal(raw, &tx); err != nil {
			return nil, fmt.Errorf("unmarshal transaction: %w", err)
		}
		if tx.Signature == "" {
			continue
		}
		tx.Raw = raw
		page.Items = append(page.Items, &tx)
	}

	if n := len(page.Items); n > 0 {
		page.NextBefore = page.Items[n-1].Signature
	}

	return page, nil
}
