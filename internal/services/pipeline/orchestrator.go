// Package pipeline runs the per-week analysis for a company: for each date range it
// searches the outlets, scrapes and ranks the coverage, summarizes it and publishes
// the summary, strictly one range after another.
package pipeline

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stockstory/internal/interfaces"
	"github.com/ternarybob/stockstory/internal/models"
)

// Planner finds article candidates for one date range, keyed by outlet domain
type Planner interface {
	PlanRange(ctx context.Context, company string, r models.DateRange) (map[string][]models.ArticleCandidate, error)
}

// Aggregator scrapes candidates and returns the successful articles
type Aggregator interface {
	Aggregate(ctx context.Context, candidates map[string][]models.ArticleCandidate) []models.Article
}

// Ranker orders and trims articles by relevance
type Ranker interface {
	Rank(ctx context.Context, articles []models.Article) ([]models.RankedArticle, error)
}

// Summarizer writes the weekly summary for a range
type Summarizer interface {
	Summarize(ctx context.Context, label string, ranked []models.RankedArticle) models.WeeklySummary
}

// StateObserver is notified of every state a range enters
type StateObserver func(dateRange string, state models.PipelineState)

// RunObserver is told when a run starts and finishes
type RunObserver interface {
	RunStarted(company string, ranges []models.DateRange)
	RunFinished(err error)
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithObserver registers a state observer
func WithObserver(observer StateObserver) Option {
	return func(o *Orchestrator) {
		o.observers = append(o.observers, observer)
	}
}

// WithRunObserver registers a run observer
func WithRunObserver(observer RunObserver) Option {
	return func(o *Orchestrator) {
		o.runObservers = append(o.runObservers, observer)
	}
}

// Orchestrator drives the stages for each date range in order
type Orchestrator struct {
	planner      Planner
	aggregator   Aggregator
	ranker       Ranker
	summarizer   Summarizer
	sink         interfaces.SummarySink
	guard        *Guard
	observers    []StateObserver
	runObservers []RunObserver
	logger       arbor.ILogger
}

// NewOrchestrator creates an orchestrator. A nil sink discards summaries.
func NewOrchestrator(
	planner Planner,
	aggregator Aggregator,
	ranker Ranker,
	summarizer Summarizer,
	sink interfaces.SummarySink,
	logger arbor.ILogger,
	opts ...Option,
) *Orchestrator {
	if sink == nil {
		sink = interfaces.NopSink{}
	}
	o := &Orchestrator{
		planner:    planner,
		aggregator: aggregator,
		ranker:     ranker,
		summarizer: summarizer,
		sink:       sink,
		guard:      NewGuard(),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// RunSession is Run guarded so a session has at most one run at a time.
// A concurrent call for the same session fails fast with ErrRunInProgress and
// never calls newAcc, so the accumulator of the run in flight stays in place.
func (o *Orchestrator) RunSession(ctx context.Context, sessionID, company string, ranges []models.DateRange, newAcc func() *Accumulator) (string, error) {
	release, err := o.guard.TryAcquire(sessionID)
	if err != nil {
		o.logger.Warn().Str("session_id", sessionID).Msg("Rejected concurrent story run")
		return "", err
	}
	defer release()

	return o.Run(ctx, company, ranges, newAcc())
}

// Run processes ranges in order. Every range yields exactly one summary, appended to acc
// and published to the sink, failed ones included. On cancellation the remaining ranges
// are skipped and ctx.Err() is returned; summaries already appended stay in acc.
func (o *Orchestrator) Run(ctx context.Context, company string, ranges []models.DateRange, acc *Accumulator) (msg string, err error) {
	for _, observer := range o.runObservers {
		observer.RunStarted(company, ranges)
	}
	defer func() {
		for _, observer := range o.runObservers {
			observer.RunFinished(err)
		}
	}()

	o.logger.Info().
		Str("company", company).
		Int("ranges", len(ranges)).
		Msg("Starting weekly summarization")

	for i, r := range ranges {
		if err := ctx.Err(); err != nil {
			o.logger.Warn().Int("completed", i).Int("ranges", len(ranges)).Msg("Summarization cancelled")
			return "", err
		}

		summary, err := o.runRange(ctx, company, r)
		if err != nil {
			o.logger.Warn().Err(err).Str("date_range", r.Label()).Msg("Summarization cancelled")
			return "", err
		}

		acc.Append(summary)
		o.transition(summary.DateRange, models.StatePublished)

		if err := o.sink.Publish(ctx, summary); err != nil {
			o.logger.Warn().Err(err).Str("date_range", summary.DateRange).Msg("Summary delivery failed")
		}

		o.logger.Info().
			Str("date_range", summary.DateRange).
			Bool("success", summary.Success).
			Str("message", summary.Message).
			Msg("Weekly summary published")
	}

	return fmt.Sprintf("Completed summarization for %d date range(s).", len(ranges)), nil
}

// runRange moves one range from PENDING to SUMMARIZING. The only error is ctx cancellation.
func (o *Orchestrator) runRange(ctx context.Context, company string, r models.DateRange) (models.WeeklySummary, error) {
	label := r.Label()
	o.transition(label, models.StatePending)

	o.transition(label, models.StateQuerying)
	candidates, err := o.planner.PlanRange(ctx, company, r)
	if err != nil {
		if ctx.Err() != nil {
			return models.WeeklySummary{}, ctx.Err()
		}
		o.logger.Warn().Err(err).Str("date_range", label).Msg("Search failed, continuing with no candidates")
		candidates = nil
	}

	o.transition(label, models.StateScraping)
	articles := o.aggregator.Aggregate(ctx, candidates)
	if err := ctx.Err(); err != nil {
		return models.WeeklySummary{}, err
	}

	o.transition(label, models.StateRanking)
	ranked, err := o.ranker.Rank(ctx, articles)
	if err != nil {
		if ctx.Err() != nil {
			return models.WeeklySummary{}, ctx.Err()
		}
		o.logger.Warn().Err(err).Str("date_range", label).Msg("Ranking failed, summarizing nothing")
		ranked = nil
	}

	o.transition(label, models.StateSummarizing)
	summary := o.summarizer.Summarize(ctx, label, ranked)
	if err := ctx.Err(); err != nil {
		return models.WeeklySummary{}, err
	}
	summary.DateRange = label

	return summary, nil
}

func (o *Orchestrator) transition(label string, state models.PipelineState) {
	o.logger.Debug().Str("date_range", label).Str("state", string(state)).Msg("Pipeline state")
	for _, observe := range o.observers {
		observe(label, state)
	}
}
