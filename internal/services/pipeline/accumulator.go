package pipeline

import (
	"sync"

	"github.com/ternarybob/stockstory/internal/models"
)

// Accumulator is the ordered list of weekly summaries published by one run.
// The caller owns it; it is safe to read while a run appends.
type Accumulator struct {
	mu        sync.RWMutex
	summaries []models.WeeklySummary
}

// NewAccumulator creates an empty accumulator
func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// Append adds a summary at the end
func (a *Accumulator) Append(summary models.WeeklySummary) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.summaries = append(a.summaries, summary)
}

// Summaries returns a copy in publish order
func (a *Accumulator) Summaries() []models.WeeklySummary {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]models.WeeklySummary(nil), a.summaries...)
}

// Len returns the number of summaries published so far
func (a *Accumulator) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.summaries)
}

// Remove drops the summary for dateRange and reports whether one was found
func (a *Accumulator) Remove(dateRange string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, s := range a.summaries {
		if s.DateRange == dateRange {
			a.summaries = append(a.summaries[:i], a.summaries[i+1:]...)
			return true
		}
	}
	return false
}
