package tools

import (
	"fmt"
	"strings"

	"github.com/ternarybob/stockstory/internal/common"
	"github.com/ternarybob/stockstory/internal/models"
	"github.com/ternarybob/stockstory/internal/services/story"
)

func formatWeeks(ticker common.Ticker, weeks []models.SignificantWeek, ranges []models.DateRange, threshold float64) string {
	if len(weeks) == 0 {
		return fmt.Sprintf("No weeks moved more than %.1f%% for %s in this period.", threshold, ticker.String())
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Weeks with significant movement for %s (threshold %.1f%%):\n", ticker.String(), threshold)
	for _, w := range weeks {
		fmt.Fprintf(&b, "- Week ending %s: %+.2f%% (close %.2f)\n", w.Date.Format(models.DateLayout), w.PctChange, w.Close)
	}
	b.WriteString("\nDate ranges:\n")
	for _, r := range ranges {
		fmt.Fprintf(&b, "- %s\n", r.Label())
	}
	return strings.TrimRight(b.String(), "\n")
}

// formatSummaryStatus lists each range with its outcome but not the summary text
func formatSummaryStatus(summaries []models.WeeklySummary) string {
	var b strings.Builder
	for _, s := range summaries {
		status := "summarized"
		if !s.Success {
			status = "no summary: " + s.Message
		}
		fmt.Fprintf(&b, "- %s: %s\n", s.DateRange, status)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatSummaries(summaries []models.WeeklySummary) string {
	var b strings.Builder
	for i, s := range summaries {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "### %s\n", s.DateRange)
		if s.Success {
			b.WriteString(story.StripProvenance(s.Summary))
		} else {
			b.WriteString("_" + s.Message + "_")
		}
	}
	return b.String()
}

func formatUsage(u models.Usage) string {
	return fmt.Sprintf("Input tokens: %d\nOutput tokens: %d\nTotal tokens: %d", u.InputTokens, u.OutputTokens, u.Total())
}
