package eodhd

import (
	"context"
	"time"

	"github.com/ternarybob/stockstory/internal/interfaces"
	"github.com/ternarybob/stockstory/internal/models"
)

// PriceProvider serves daily bars from EODHD
type PriceProvider struct {
	client *Client
}

// NewPriceProvider wraps a client as interfaces.PriceProvider
func NewPriceProvider(client *Client) interfaces.PriceProvider {
	return &PriceProvider{client: client}
}

// DailyBars returns ascending daily bars between from and to (inclusive).
// Rows whose date cannot be parsed are dropped.
func (p *PriceProvider) DailyBars(ctx context.Context, symbol string, from, to time.Time) ([]models.PriceBar, error) {
	rows, err := p.client.EOD(ctx, symbol, from, to)
	if err != nil {
		return nil, err
	}

	bars := make([]models.PriceBar, 0, len(rows))
	for _, row := range rows {
		date, err := time.Parse(isoDate, row.Date)
		if err != nil {
			continue
		}
		bars = append(bars, models.PriceBar{
			Date:   date,
			Open:   row.Open,
			High:   row.High,
			Low:    row.Low,
			Close:  row.Close,
			Volume: row.Volume,
		})
	}
	return bars, nil
}
