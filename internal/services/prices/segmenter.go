// Package prices turns daily price series into weekly bars, flags weeks of significant
// movement and maps them to Monday-Friday date ranges.
package prices

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stockstory/internal/interfaces"
	"github.com/ternarybob/stockstory/internal/models"
)

// DefaultThreshold is the default significance threshold in percent
const DefaultThreshold = 2.0

// DefaultBackoff is the wait schedule between rate-limited fetch attempts
var DefaultBackoff = []time.Duration{5 * time.Second, 10 * time.Second, 20 * time.Second}

// Segmenter fetches daily prices and derives weekly bars and significant weeks
type Segmenter struct {
	provider  interfaces.PriceProvider
	logger    arbor.ILogger
	threshold float64
	backoff   []time.Duration
}

// Option configures a Segmenter
type Option func(*Segmenter)

// WithThreshold sets the significance threshold in percent
func WithThreshold(pct float64) Option {
	return func(s *Segmenter) {
		if pct >= 0 {
			s.threshold = pct
		}
	}
}

// WithBackoff sets the retry schedule. Its length is the number of retries.
func WithBackoff(backoff []time.Duration) Option {
	return func(s *Segmenter) {
		if backoff != nil {
			s.backoff = backoff
		}
	}
}

// NewSegmenter creates a Segmenter over a daily price provider
func NewSegmenter(provider interfaces.PriceProvider, logger arbor.ILogger, opts ...Option) *Segmenter {
	s := &Segmenter{
		provider:  provider,
		logger:    logger,
		threshold: DefaultThreshold,
		backoff:   DefaultBackoff,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Threshold returns the configured significance threshold in percent
func (s *Segmenter) Threshold() float64 {
	return s.threshold
}

// WeeklyBars fetches daily bars for symbol and resamples them to Friday-ending weeks
func (s *Segmenter) WeeklyBars(ctx context.Context, symbol string, start, end time.Time) ([]models.PriceBar, error) {
	if start.After(end) {
		return nil, &InvalidRangeError{Start: start, End: end}
	}

	daily, err := s.fetch(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}
	if len(daily) == 0 {
		return nil, &NoDataError{Symbol: symbol, Start: start, End: end}
	}

	weekly := ResampleWeekly(daily)
	s.logger.Debug().
		Str("symbol", symbol).
		Int("daily_bars", len(daily)).
		Int("weekly_bars", len(weekly)).
		Msg("Resampled daily prices to weekly bars")

	return weekly, nil
}

// SignificantWeeks returns the weeks whose close moved more than the threshold
func (s *Segmenter) SignificantWeeks(ctx context.Context, symbol string, start, end time.Time) ([]models.SignificantWeek, error) {
	weekly, err := s.WeeklyBars(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}

	weeks := FlagSignificant(weekly, s.threshold)
	s.logger.Info().
		Str("symbol", symbol).
		Float64("threshold", s.threshold).
		Int("weeks", len(weekly)).
		Int("significant", len(weeks)).
		Msg("Significant weeks detected")

	return weeks, nil
}

// fetch calls the provider, retrying only rate-limit failures on the backoff schedule
func (s *Segmenter) fetch(ctx context.Context, symbol string, start, end time.Time) ([]models.PriceBar, error) {
	for attempt := 0; ; attempt++ {
		bars, err := s.provider.DailyBars(ctx, symbol, start, end)
		if err == nil {
			return bars, nil
		}
		if !isRateLimited(err) || attempt >= len(s.backoff) {
			return nil, err
		}

		wait := s.backoff[attempt]
		s.logger.Warn().
			Str("symbol", symbol).
			Int("attempt", attempt+1).
			Dur("backoff", wait).
			Msg("Price provider rate limited, retrying")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
}

func isRateLimited(err error) bool {
	var rl interfaces.RateLimited
	return errors.As(err, &rl) && rl.RateLimited()
}

// ResampleWeekly buckets daily bars into weeks ending on Friday. Weekend bars roll
// forward into the following week. Weeks without bars produce no output.
func ResampleWeekly(daily []models.PriceBar) []models.PriceBar {
	sorted := make([]models.PriceBar, len(daily))
	copy(sorted, daily)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	var weekly []models.PriceBar
	for _, bar := range sorted {
		friday := weekEnding(bar.Date)

		if n := len(weekly); n > 0 && weekly[n-1].Date.Equal(friday) {
			w := &weekly[n-1]
			w.High = math.Max(w.High, bar.High)
			w.Low = math.Min(w.Low, bar.Low)
			w.Close = bar.Close
			w.Volume += bar.Volume
			continue
		}

		weekly = append(weekly, models.PriceBar{
			Date:   friday,
			Open:   bar.Open,
			High:   bar.High,
			Low:    bar.Low,
			Close:  bar.Close,
			Volume: bar.Volume,
		})
	}
	return weekly
}

// FlagSignificant computes week-over-week close changes and keeps the weeks with
// abs(change) strictly above threshold. The first week has no prior close and is never flagged.
func FlagSignificant(weekly []models.PriceBar, threshold float64) []models.SignificantWeek {
	var out []models.SignificantWeek
	for i := 1; i < len(weekly); i++ {
		prev := weekly[i-1].Close
		if prev == 0 {
			continue
		}
		pct := (weekly[i].Close - prev) / prev * 100
		if math.Abs(pct) > threshold {
			out = append(out, models.SignificantWeek{PriceBar: weekly[i], PctChange: pct})
		}
	}
	return out
}

// weekEnding returns the Friday on or after t, at midnight in t's location
func weekEnding(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	offset := (int(time.Friday) - int(day.Weekday()) + 7) % 7
	return day.AddDate(0, 0, offset)
}
