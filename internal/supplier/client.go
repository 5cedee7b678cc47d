package supplier

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	domain "github.com/uniqmaker/api/internal/domain"
	"github.com/uniqmaker/api/internal/platform/config"
)

const (
	apiKeyHeader       = "x-Gateway-APIKey"
	defaultFetchLimit  = 32 << 20 // 32 MiB cap on a single feed body
	defaultHTTPTimeout = 15 * time.Second
)

// feedPaths maps each feed to its versioned path on the gateway.
var feedPaths = map[domain.FeedKey]string{
	domain.FeedProducts:       "products/2.0",
	domain.FeedStock:          "stock/2.0",
	domain.FeedPriceList:      "pricelist/2.0",
	domain.FeedPrintPriceList: "printpricelist/2.0",
	domain.FeedPrintData:      "printdata/1.0",
}

// StatusError reports a non-2xx gateway response for a feed.
type StatusError struct {
	Feed       domain.FeedKey
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("supplier: feed %s returned status %d", e.Feed, e.StatusCode)
}

// Client fetches raw feed payloads from the supplier gateway.
type Client struct {
	baseURL    string
	apiKey     string
	language   string
	maxBody    int64
	httpClient *http.Client
}

// Option customises the client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client, primarily for tests.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithMaxBodySize overrides the response body cap.
func WithMaxBodySize(limit int64) Option {
	return func(c *Client) {
		if limit > 0 {
			c.maxBody = limit
		}
	}
}

// NewClient constructs a gateway client from configuration.
func NewClient(cfg config.SupplierConfig, opts ...Option) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("supplier: base url is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}

	client := &Client{
		baseURL:    baseURL,
		apiKey:     strings.TrimSpace(cfg.APIKey),
		language:   strings.TrimSpace(cfg.Language),
		maxBody:    defaultFetchLimit,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// Fetch retrieves the raw payload for a single feed. The body is returned
// verbatim; callers decide how to persist or decode it.
func (c *Client) Fetch(ctx context.Context, feed domain.FeedKey) ([]byte, error) {
	if c == nil || c.httpClient == nil {
		return nil, errors.New("supplier: client not initialised")
	}
	path, ok := feedPaths[feed]
	if !ok {
		return nil, fmt.Errorf("supplier: unknown feed %q", feed)
	}

	endpoint := c.baseURL + "/" + path
	if feed == domain.FeedProducts && c.language != "" {
		endpoint += "?language=" + url.QueryEscape(c.language)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("supplier: build request for feed %s: %w", feed, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("supplier: fetch feed %s: %w", feed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Feed: feed, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody))
	if err != nil {
		return nil, fmt.Errorf("supplier: read feed %s body: %w", feed, err)
	}
	return body, nil
}
