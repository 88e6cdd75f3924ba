// Package eodhd fetches daily end-of-day prices from the EODHD REST API.
package eodhd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://eodhd.com/api"
	DefaultTimeout = 30 * time.Second

	// defaultInterval keeps us under the free plan's burst allowance
	defaultInterval = 200 * time.Millisecond

	isoDate = "2006-01-02"
)

// EODRow is one day of the /eod endpoint
type EODRow struct {
	Date          string  `json:"date"`
	Open          float64 `json:"open"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Close         float64 `json:"close"`
	AdjustedClose float64 `json:"adjusted_close"`
	Volume        int64   `json:"volume"`
}

// Client calls EODHD. Requests are spaced by a limiter shared by all callers.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
	logger  arbor.ILogger
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithBaseURL points the client at another host, used by tests
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithHTTPClient replaces the HTTP client
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		if httpClient != nil {
			c.http = httpClient
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger arbor.ILogger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithMinInterval spaces requests at least interval apart
func WithMinInterval(interval time.Duration) ClientOption {
	return func(c *Client) {
		if interval > 0 {
			c.limiter = rate.NewLimiter(rate.Every(interval), 1)
		}
	}
}

// NewClient creates an EODHD client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: DefaultTimeout},
		limiter: rate.NewLimiter(rate.Every(defaultInterval), 1),
		logger:  arbor.NewLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// EOD returns ascending daily rows for symbol (e.g. "AAPL.US"). Zero from/to are left open.
func (c *Client) EOD(ctx context.Context, symbol string, from, to time.Time) ([]EODRow, error) {
	query := url.Values{"period": {"d"}, "order": {"a"}}
	if !from.IsZero() {
		query.Set("from", from.Format(isoDate))
	}
	if !to.IsZero() {
		query.Set("to", to.Format(isoDate))
	}

	var rows []EODRow
	if err := c.fetch(ctx, "/eod/"+url.PathEscape(symbol), query, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Client) fetch(ctx context.Context, path string, query url.Values, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("eodhd limiter: %w", err)
	}

	query.Set("api_token", c.apiKey)
	query.Set("fmt", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build eodhd request: %w", err)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("eodhd %s: %w", path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug().
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("EODHD request")

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return &RateLimitError{RetryAfter: retryAfter(resp.Header.Get("Retry-After"))}
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{Status: resp.StatusCode, Body: string(body), Path: path}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode eodhd %s: %w", path, err)
	}
	return nil
}
