package prices

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stockstory/internal/common"
	"github.com/ternarybob/stockstory/internal/interfaces"
)

const tickerSystemPrompt = `You will be given a company name. Reply with the stock ticker of the company only, with no other words.
Use EXCHANGE:CODE when the primary listing is outside the US (for example NSE:INFY).

Example:
the company is Amazon
AMZN`

// TickerResolver maps a company name to its ticker via the completion service
type TickerResolver struct {
	completion interfaces.CompletionService
	logger     arbor.ILogger
}

// NewTickerResolver creates a TickerResolver
func NewTickerResolver(completion interfaces.CompletionService, logger arbor.ILogger) *TickerResolver {
	return &TickerResolver{completion: completion, logger: logger}
}

// Resolve returns the parsed ticker for company
func (r *TickerResolver) Resolve(ctx context.Context, company string) (common.Ticker, error) {
	company = strings.TrimSpace(company)
	if company == "" {
		return common.Ticker{}, fmt.Errorf("company name is required")
	}

	resp, err := r.completion.Complete(ctx, interfaces.UserPrompt(tickerSystemPrompt, "the company is "+company))
	if err != nil {
		return common.Ticker{}, fmt.Errorf("ticker lookup for %s failed: %w", company, err)
	}

	raw := cleanTickerReply(resp.Text)
	ticker := common.ParseTicker(raw)
	if ticker.Code == "" {
		return common.Ticker{}, fmt.Errorf("ticker lookup for %s returned no ticker", company)
	}

	r.logger.Info().
		Str("company", company).
		Str("ticker", ticker.String()).
		Msg("Resolved ticker")

	return ticker, nil
}

// cleanTickerReply keeps the first token of the first non-empty line, without quotes or backticks
func cleanTickerReply(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.Trim(strings.TrimSpace(line), "`\"'*.")
		if line == "" {
			continue
		}
		if fields := strings.Fields(line); len(fields) > 0 {
			return strings.ToUpper(fields[0])
		}
	}
	return ""
}
