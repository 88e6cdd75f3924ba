package eodhd

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// APIError is a non-200, non-429 reply from EODHD
type APIError struct {
	Status int
	Body   string
	Path   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("eodhd %s: HTTP %d: %s", e.Path, e.Status, strings.TrimSpace(e.Body))
}

// RateLimitError is an HTTP 429 reply. The segmenter retries these.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("eodhd rate limited, retry in %s", e.RetryAfter)
}

// RateLimited satisfies interfaces.RateLimited
func (e *RateLimitError) RateLimited() bool { return true }

// retryAfter reads a Retry-After header in seconds, defaulting to one second
func retryAfter(header string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(header))
	if err != nil || secs <= 0 {
		return time.Second
	}
	return time.Duration(secs) * time.Second
}
