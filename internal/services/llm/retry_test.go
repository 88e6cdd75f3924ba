package llm

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsRateLimitError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"gemini 429", errors.New("Error 429, Status: RESOURCE_EXHAUSTED"), true},
		{"claude rate limit", errors.New(`{"type":"rate_limit_error"}`), true},
		{"claude overloaded", errors.New(`{"type":"overloaded_error"}`), true},
		{"quota", errors.New("quota exceeded"), true},
		{"other", errors.New("connection refused"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRateLimitError(tt.err))
		})
	}
}

func TestExtractRetryDelay(t *testing.T) {
	err := errors.New("Error 429, Message: slow down. Please retry in 45.5s., Status: RESOURCE_EXHAUSTED")
	assert.Equal(t, 45500*time.Millisecond, ExtractRetryDelay(err))
	assert.Equal(t, time.Duration(0), ExtractRetryDelay(errors.New("no delay here")))
	assert.Equal(t, time.Duration(0), ExtractRetryDelay(nil))
}

func TestBackoff(t *testing.T) {
	c := NewDefaultRetryConfig()
	limited := errors.New("429 too many requests")

	assert.Equal(t, 5*time.Second, c.Backoff(0, limited))
	assert.Equal(t, 10*time.Second, c.Backoff(1, limited))
	assert.Equal(t, 20*time.Second, c.Backoff(2, limited))
	assert.Equal(t, 60*time.Second, c.Backoff(5, limited), "capped at MaxBackoff")

	other := errors.New("boom")
	assert.Equal(t, 2*time.Second, c.Backoff(0, other))
	assert.Equal(t, 4*time.Second, c.Backoff(1, other))

	withDelay := errors.New("429 Please retry in 3s")
	assert.Equal(t, 4*time.Second, c.Backoff(0, withDelay))
}
