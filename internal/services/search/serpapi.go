// Package search plans outlet-scoped news queries against the SerpAPI Google engine.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stockstory/internal/interfaces"
	"github.com/ternarybob/stockstory/internal/models"
)

const (
	// DefaultBaseURL is the SerpAPI JSON search endpoint
	DefaultBaseURL = "https://serpapi.com/search.json"

	// DefaultTimeout is the default HTTP timeout
	DefaultTimeout = 30 * time.Second
)

// APIError is a non-200 response from SerpAPI
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("serpapi error (status %d): %s", e.StatusCode, e.Message)
}

// RateLimited reports whether SerpAPI throttled the request
func (e *APIError) RateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

type serpResponse struct {
	Error          string                    `json:"error"`
	OrganicResults []interfaces.SearchResult `json:"organic_results"`
}

// SerpClient implements interfaces.SearchBackend over SerpAPI
type SerpClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     arbor.ILogger
}

// SerpOption configures the SerpClient
type SerpOption func(*SerpClient)

// WithBaseURL sets a custom base URL
func WithBaseURL(baseURL string) SerpOption {
	return func(c *SerpClient) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(httpClient *http.Client) SerpOption {
	return func(c *SerpClient) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) SerpOption {
	return func(c *SerpClient) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// NewSerpClient creates a SerpAPI client
func NewSerpClient(apiKey string, logger arbor.ILogger, opts ...SerpOption) *SerpClient {
	c := &SerpClient{
		baseURL:    DefaultBaseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search runs one Google query with an optional custom date range filter
func (c *SerpClient) Search(ctx context.Context, query interfaces.SearchQuery) ([]interfaces.SearchResult, error) {
	params := url.Values{}
	params.Set("engine", "google")
	params.Set("q", query.Q)
	params.Set("api_key", c.apiKey)
	params.Set("hl", "en")
	params.Set("gl", "us")
	if query.Num > 0 {
		params.Set("num", strconv.Itoa(query.Num))
	}
	if tbs := dateFilter(query.DateMin, query.DateMax); tbs != "" {
		params.Set("tbs", tbs)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().
		Str("query", query.Q).
		Str("tbs", params.Get("tbs")).
		Msg("SerpAPI request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &APIError{StatusCode: resp.StatusCode, Message: string(body)}
	}

	var result serpResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if result.Error != "" && len(result.OrganicResults) == 0 {
		// SerpAPI reports "no results" as an error string with a 200 status
		c.logger.Debug().Str("query", query.Q).Str("error", result.Error).Msg("SerpAPI returned no results")
		return nil, nil
	}

	return result.OrganicResults, nil
}

// dateFilter builds the Google custom date range parameter
func dateFilter(from, to time.Time) string {
	if from.IsZero() && to.IsZero() {
		return ""
	}
	tbs := "cdr:1"
	if !from.IsZero() {
		tbs += ",cd_min:" + from.Format(models.DateLayout)
	}
	if !to.IsZero() {
		tbs += ",cd_max:" + to.Format(models.DateLayout)
	}
	return tbs
}
