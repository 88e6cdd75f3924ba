// Package summary turns a week's ranked articles into a short investor-focused summary
// headed by the list of source URLs.
package summary

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stockstory/internal/interfaces"
	"github.com/ternarybob/stockstory/internal/models"
)

const (
	// ProvenanceHeader opens the block of source URLs placed ahead of every summary
	ProvenanceHeader = "🔗 **Referenced URLs:**"

	MsgNoArticles = "no articles to summarize"
	MsgGenerated  = "Weekly summary generated successfully."

	DefaultSummaryWords = 100
)

const systemPromptFormat = `You are a financial analyst. Read the following articles and write a concise, factual, investor-focused summary of the key financial and business developments, under %d words.

Focus on material, stock-relevant information: financial metrics discussed, guidance updates, executive changes, regulatory issues, major deals, market trends and macroeconomic influences that directly or indirectly affect the company's stock or investor sentiment.

Leave out generic background and non-material details. Do not include numbers or percentages describing changes in the stock price or forecasted changes in the stock price.`

// Summarizer produces one WeeklySummary per date range
type Summarizer struct {
	completion interfaces.CompletionService
	words      int
	logger     arbor.ILogger
}

// NewSummarizer creates a summarizer; words caps the summary length requested from the model
func NewSummarizer(completion interfaces.CompletionService, words int, logger arbor.ILogger) *Summarizer {
	if words <= 0 {
		words = DefaultSummaryWords
	}
	return &Summarizer{
		completion: completion,
		words:      words,
		logger:     logger,
	}
}

// Summarize writes the summary for label from the ranked articles. Failures, including
// an empty article list, are reported through Success=false; it never panics.
func (s *Summarizer) Summarize(ctx context.Context, label string, ranked []models.RankedArticle) (result models.WeeklySummary) {
	result = models.WeeklySummary{DateRange: label}

	if len(ranked) == 0 {
		result.Message = MsgNoArticles
		return result
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Str("date_range", label).Str("panic", fmt.Sprintf("%v", r)).Msg("Summarization panicked")
			result = models.WeeklySummary{
				DateRange: label,
				Message:   fmt.Sprintf("Error generating weekly summary: %v", r),
			}
		}
	}()

	var content strings.Builder
	urls := make([]string, 0, len(ranked))
	for _, a := range ranked {
		fmt.Fprintf(&content, "Title: %s\nContent: %s\n\n", a.Title, a.Content)
		urls = append(urls, a.URL)
	}

	req := interfaces.UserPrompt(
		fmt.Sprintf(systemPromptFormat, s.words),
		fmt.Sprintf("Generate a concise summary for the week %s based on the following articles:\n\n%s", label, content.String()),
	)

	resp, err := s.completion.Complete(ctx, req)
	if err == nil && strings.TrimSpace(resp.Text) == "" {
		err = errors.New("empty completion")
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("date_range", label).Msg("Weekly summary failed")
		result.Message = fmt.Sprintf("Error generating weekly summary: %v", err)
		return result
	}

	result.Summary = ProvenanceBlock(urls) + "\n\n" + strings.TrimSpace(resp.Text)
	result.Success = true
	result.Message = MsgGenerated

	s.logger.Info().
		Str("date_range", label).
		Int("articles", len(ranked)).
		Msg("Weekly summary generated")

	return result
}

// ProvenanceBlock renders the header followed by one bullet per URL
func ProvenanceBlock(urls []string) string {
	var b strings.Builder
	b.WriteString(ProvenanceHeader)
	for _, u := range urls {
		b.WriteString("\n• ")
		b.WriteString(u)
	}
	return b.String()
}
