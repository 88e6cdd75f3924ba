package models

import "time"

// DateLayout is the MM/DD/YYYY layout used for date-range labels and search date filters
const DateLayout = "01/02/2006"

// PriceBar is one OHLCV bar. Weekly bars are labelled with the Friday that closes the week.
type PriceBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// SignificantWeek is a weekly bar whose close moved more than the configured threshold.
// PctChange is in percent units (6.0 means +6%).
type SignificantWeek struct {
	PriceBar
	PctChange float64 `json:"pct_change"`
}

// DateRange is the Monday-Friday calendar window of one flagged week
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// StartString returns the start date as MM/DD/YYYY
func (r DateRange) StartString() string {
	return r.Start.Format(DateLayout)
}

// EndString returns the end date as MM/DD/YYYY
func (r DateRange) EndString() string {
	return r.End.Format(DateLayout)
}

// Label returns "MM/DD/YYYY to MM/DD/YYYY"
func (r DateRange) Label() string {
	return r.StartString() + " to " + r.EndString()
}
