package interfaces

import (
	"context"
	"time"

	"github.com/ternarybob/stockstory/internal/models"
)

// PriceProvider returns daily OHLCV rows for a symbol between two dates (inclusive).
// Rate-limit failures must be distinguishable via errors.As on *eodhd.RateLimitError
// or via IsRateLimited.
type PriceProvider interface {
	DailyBars(ctx context.Context, symbol string, from, to time.Time) ([]models.PriceBar, error)
}

// RateLimited is implemented by provider errors that signal upstream throttling
type RateLimited interface {
	RateLimited() bool
}

// SearchQuery is a domain-scoped query with a date window
type SearchQuery struct {
	Q       string
	Num     int
	DateMin time.Time
	DateMax time.Time
}

// SearchResult is a ranked title/URL pair returned by the search backend
type SearchResult struct {
	Position int    `json:"position"`
	Title    string `json:"title"`
	Link     string `json:"link"`
}

// SearchBackend issues domain-scoped queries
type SearchBackend interface {
	Search(ctx context.Context, query SearchQuery) ([]SearchResult, error)
}
