package prices

import (
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/stockstory/internal/models"
)

var (
	// ErrInvalidRange matches any *InvalidRangeError
	ErrInvalidRange = errors.New("invalid date range")

	// ErrNoData matches any *NoDataError
	ErrNoData = errors.New("no price data")
)

// InvalidRangeError is returned when the start date is after the end date
type InvalidRangeError struct {
	Start time.Time
	End   time.Time
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid date range: start %s is after end %s",
		e.Start.Format(models.DateLayout), e.End.Format(models.DateLayout))
}

func (e *InvalidRangeError) Is(target error) bool {
	return target == ErrInvalidRange
}

// NoDataError is returned when the provider has no rows for the symbol and range
type NoDataError struct {
	Symbol string
	Start  time.Time
	End    time.Time
}

func (e *NoDataError) Error() string {
	return fmt.Sprintf("no price data for %s between %s and %s",
		e.Symbol, e.Start.Format(models.DateLayout), e.End.Format(models.DateLayout))
}

func (e *NoDataError) Is(target error) bool {
	return target == ErrNoData
}
