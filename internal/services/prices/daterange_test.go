package prices

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/stockstory/internal/models"
)

func TestWeekRange_EveryWeekday(t *testing.T) {
	// 2025-02-17 is a Monday; include the following Saturday and Sunday
	for i := 0; i < 7; i++ {
		date := day("2025-02-17").AddDate(0, 0, i)
		t.Run(date.Weekday().String(), func(t *testing.T) {
			r := WeekRange(date)
			assert.Equal(t, time.Monday, r.Start.Weekday())
			assert.Equal(t, time.Friday, r.End.Weekday())
			assert.Equal(t, 4*24*time.Hour, r.End.Sub(r.Start))
			assert.Equal(t, "02/17/2025 to 02/21/2025", r.Label())
		})
	}
}

func TestWeekRange_Idempotent(t *testing.T) {
	dates := []time.Time{
		day("2024-12-31"),
		day("2025-01-05"),
		time.Date(2025, 3, 14, 15, 30, 0, 0, time.UTC),
	}
	for _, d := range dates {
		first := WeekRange(d)
		assert.Equal(t, first, WeekRange(first.Start))
		assert.Equal(t, first, WeekRange(first.End))
	}
}

func TestWeekRange_AcrossYearBoundary(t *testing.T) {
	r := WeekRange(day("2025-01-01"))
	assert.Equal(t, "12/30/2024 to 01/03/2025", r.Label())
}

func TestBuildDateRanges_PreservesOrder(t *testing.T) {
	weeks := []models.SignificantWeek{
		{PriceBar: models.PriceBar{Date: day("2025-03-07")}},
		{PriceBar: models.PriceBar{Date: day("2025-02-21")}},
	}
	ranges := BuildDateRanges(weeks)
	require.Len(t, ranges, 2)
	assert.Equal(t, "03/03/2025 to 03/07/2025", ranges[0].Label())
	assert.Equal(t, "02/17/2025 to 02/21/2025", ranges[1].Label())
}

func TestParseDateRangeLabel(t *testing.T) {
	r, err := ParseDateRangeLabel("02/17/2025 to 02/21/2025")
	require.NoError(t, err)
	assert.Equal(t, day("2025-02-17"), r.Start)
	assert.Equal(t, day("2025-02-21"), r.End)

	for _, bad := range []string{"", "02/17/2025", "2025-02-17 to 2025-02-21", "02/21/2025 to 02/17/2025"} {
		_, err := ParseDateRangeLabel(bad)
		assert.Error(t, err, bad)
	}

	_, err = ParseDateRangeLabel("02/21/2025 to 02/17/2025")
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestParseDateRangeLabels(t *testing.T) {
	ranges, err := ParseDateRangeLabels([]string{"02/17/2025 to 02/21/2025", "03/03/2025 to 03/07/2025"})
	require.NoError(t, err)
	assert.Len(t, ranges, 2)

	_, err = ParseDateRangeLabels([]string{"02/17/2025 to 02/21/2025", "junk"})
	assert.Error(t, err)
}

func TestParseDate(t *testing.T) {
	want := day("2025-08-01")
	for _, in := range []string{"2025-08-01", "08/01/2025", "2025/08/01", "Aug 1, 2025", "August 1, 2025", " 1 Aug 2025 "} {
		got, err := ParseDate(in)
		require.NoError(t, err, in)
		assert.True(t, want.Equal(got), in)
	}

	_, err := ParseDate("last quarter")
	assert.Error(t, err)
}

func TestParsePeriod(t *testing.T) {
	from, to, err := ParsePeriod("2025-08-01", "11/30/2025")
	require.NoError(t, err)
	assert.Equal(t, day("2025-08-01"), from)
	assert.Equal(t, day("2025-11-30"), to)

	_, _, err = ParsePeriod("2025-11-30", "2025-08-01")
	assert.ErrorIs(t, err, ErrInvalidRange)
}
