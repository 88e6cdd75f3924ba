// Package ledger keeps process-wide token usage totals.
package ledger

import (
	"math"
	"sync/atomic"
	"unicode/utf8"

	"github.com/ternarybob/stockstory/internal/models"
)

// Ledger holds running input/output token totals. Totals only grow until Reset.
type Ledger struct {
	input  atomic.Int64
	output atomic.Int64
}

// New creates an empty ledger
func New() *Ledger {
	return &Ledger{}
}

// Add accumulates token counts. Negative counts are ignored.
func (l *Ledger) Add(inputTokens, outputTokens int64) {
	if inputTokens > 0 {
		l.input.Add(inputTokens)
	}
	if outputTokens > 0 {
		l.output.Add(outputTokens)
	}
}

// Totals returns the current totals
func (l *Ledger) Totals() models.Usage {
	return models.Usage{
		InputTokens:  l.input.Load(),
		OutputTokens: l.output.Load(),
	}
}

// Reset zeroes both totals. Operator action only.
func (l *Ledger) Reset() {
	l.input.Store(0)
	l.output.Store(0)
}

// EstimateTokens approximates a token count as one token per four characters, rounded up
func EstimateTokens(text string) int64 {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	return int64(math.Ceil(float64(n) / 4))
}
