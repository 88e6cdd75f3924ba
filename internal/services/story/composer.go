// Package story composes the final single-paragraph stock narrative from the ordered
// weekly summaries of one pipeline run.
package story

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stockstory/internal/interfaces"
	"github.com/ternarybob/stockstory/internal/models"
)

// ErrNoSummaries is returned when there is nothing to compose
var ErrNoSummaries = errors.New("no weekly summaries to compose")

var provenancePattern = regexp.MustCompile(`🔗 \*\*Referenced URLs:\*\*\n(?:• .+\n?)+`)

const systemPrompt = `You are a financial content writer trained in the writing styles of Reuters, Capital Group and the Wall Street Journal.

Write a single-paragraph stock story summarizing a company's performance over the period, using the highlights of the weeks where the stock moved notably. The highlights are short summaries of news events and market reactions.

Guidelines:
- Open with one or two sentences on what the company does, its sector or specialization, and the tone of the period.
- Narrate the weeks chronologically from early to late, using cause-and-effect phrasing to show how events affected performance or sentiment.
- Do not include any numbers or percentages such as revenue, income, stock changes or headcounts. Use qualitative phrases like "saw gains", "boosted sentiment" or "weighed on shares".
- Keep a neutral, investor-oriented tone without hype, jargon or speculation. Prefer short declarative sentences with fluid transitions.
- Optionally close with a forward-looking note on investor outlook, strategic positioning or unresolved risks, only if it emerges naturally from the inputs.

Return only the paragraph.`

// Source is the ordered summary list of one run
type Source interface {
	Summaries() []models.WeeklySummary
}

// Composer writes the narrative for an accumulated run
type Composer struct {
	completion interfaces.CompletionService
	logger     arbor.ILogger
}

// NewComposer creates a story composer
func NewComposer(completion interfaces.CompletionService, logger arbor.ILogger) *Composer {
	return &Composer{completion: completion, logger: logger}
}

// StripProvenance removes the referenced-URL block and trims the result
func StripProvenance(text string) string {
	return strings.TrimSpace(provenancePattern.ReplaceAllString(text, ""))
}

// BuildInput renders successful summaries, in order, as "Week: <range>\nSummary: <text>"
// blocks separated by blank lines. Provenance blocks are stripped.
func BuildInput(summaries []models.WeeklySummary) string {
	blocks := make([]string, 0, len(summaries))
	for _, s := range summaries {
		if !s.Success {
			continue
		}
		blocks = append(blocks, fmt.Sprintf("Week: %s\nSummary: %s", s.DateRange, StripProvenance(s.Summary)))
	}
	return strings.Join(blocks, "\n\n")
}

// Compose returns the model's narrative verbatim
func (c *Composer) Compose(ctx context.Context, source Source) (string, error) {
	input := BuildInput(source.Summaries())
	if input == "" {
		return "", ErrNoSummaries
	}

	resp, err := c.completion.Complete(ctx, interfaces.UserPrompt(systemPrompt, input))
	if err != nil {
		return "", fmt.Errorf("failed to compose stock story: %w", err)
	}

	c.logger.Info().Int("input_chars", len(input)).Int("story_chars", len(resp.Text)).Msg("Stock story composed")
	return resp.Text, nil
}
