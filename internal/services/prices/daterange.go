package prices

import (
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/stockstory/internal/models"
)

// WeekRange returns the Monday-Friday window of the week containing date.
// Saturday and Sunday map back to the Monday of the same ISO week.
func WeekRange(date time.Time) models.DateRange {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	offset := isoWeekdayOffset(day)
	monday := day.AddDate(0, 0, -offset)
	return models.DateRange{
		Start: monday,
		End:   monday.AddDate(0, 0, 4),
	}
}

// BuildDateRanges maps flagged weeks to date ranges, preserving detection order
func BuildDateRanges(weeks []models.SignificantWeek) []models.DateRange {
	ranges := make([]models.DateRange, 0, len(weeks))
	for _, w := range weeks {
		ranges = append(ranges, WeekRange(w.Date))
	}
	return ranges
}

// ParseDateRangeLabel parses "MM/DD/YYYY to MM/DD/YYYY"
func ParseDateRangeLabel(label string) (models.DateRange, error) {
	parts := strings.Split(label, " to ")
	if len(parts) != 2 {
		return models.DateRange{}, fmt.Errorf("date range %q must look like MM/DD/YYYY to MM/DD/YYYY", label)
	}

	start, err := time.Parse(models.DateLayout, strings.TrimSpace(parts[0]))
	if err != nil {
		return models.DateRange{}, fmt.Errorf("invalid start date in %q: %w", label, err)
	}
	end, err := time.Parse(models.DateLayout, strings.TrimSpace(parts[1]))
	if err != nil {
		return models.DateRange{}, fmt.Errorf("invalid end date in %q: %w", label, err)
	}
	if start.After(end) {
		return models.DateRange{}, &InvalidRangeError{Start: start, End: end}
	}

	return models.DateRange{Start: start, End: end}, nil
}

// ParseDateRangeLabels parses a list of labels, failing on the first malformed entry
func ParseDateRangeLabels(labels []string) ([]models.DateRange, error) {
	ranges := make([]models.DateRange, 0, len(labels))
	for _, label := range labels {
		r, err := ParseDateRangeLabel(label)
		if err != nil {
			return nil, err
		}
		ranges = append(ranges, r)
	}
	return ranges, nil
}

var dateLayouts = []string{
	"2006-01-02",
	models.DateLayout,
	"2006/01/02",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
}

// ParseDate accepts ISO (2025-08-01), MM/DD/YYYY and a few written forms
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

// ParsePeriod parses a start and end date and checks their order
func ParsePeriod(start, end string) (time.Time, time.Time, error) {
	from, err := ParseDate(start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := ParseDate(end)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if from.After(to) {
		return time.Time{}, time.Time{}, &InvalidRangeError{Start: from, End: to}
	}
	return from, to, nil
}

// isoWeekdayOffset returns 0 for Monday through 6 for Sunday
func isoWeekdayOffset(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}
