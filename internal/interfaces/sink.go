package interfaces

import (
	"context"

	"github.com/ternarybob/stockstory/internal/models"
)

// SummarySink receives each WeeklySummary as soon as its range is published.
// Delivery is at-most-once; implementations drop subscribers that fail and do not retry.
type SummarySink interface {
	Publish(ctx context.Context, summary models.WeeklySummary) error
}

// NopSink discards every summary
type NopSink struct{}

func (NopSink) Publish(context.Context, models.WeeklySummary) error { return nil }
