// Package tools exposes the stock story workflow as named tools: ticker lookup,
// significant-week detection, per-week summarization and story composition. The
// conversational agent and the MCP server share the same tool set.
package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stockstory/internal/common"
	"github.com/ternarybob/stockstory/internal/models"
	"github.com/ternarybob/stockstory/internal/services/pipeline"
	"github.com/ternarybob/stockstory/internal/services/prices"
	"github.com/ternarybob/stockstory/internal/services/story"
)

const (
	ToolGetTicker        = "get_ticker_symbol"
	ToolSignificantWeeks = "find_significant_weeks"
	ToolSummarize        = "summarize_date_ranges"
	ToolListSummaries    = "list_weekly_summaries"
	ToolRemoveSummary    = "remove_weekly_summary"
	ToolGenerateStory    = "generate_stock_story"
	ToolGetUsage         = "get_usage"
	ToolResetUsage       = "reset_usage"
)

// ErrUnknownTool is returned for tool names outside the set
var ErrUnknownTool = errors.New("unknown tool")

// TickerResolver maps a company name to its ticker
type TickerResolver interface {
	Resolve(ctx context.Context, company string) (common.Ticker, error)
}

// WeekFinder flags weeks with significant price moves
type WeekFinder interface {
	SignificantWeeks(ctx context.Context, symbol string, start, end time.Time) ([]models.SignificantWeek, error)
	Threshold() float64
}

// StoryRunner runs the weekly summarization for one session
type StoryRunner interface {
	RunSession(ctx context.Context, sessionID, company string, ranges []models.DateRange, newAcc func() *pipeline.Accumulator) (string, error)
}

// StoryComposer writes the final narrative
type StoryComposer interface {
	Compose(ctx context.Context, source story.Source) (string, error)
}

// UsageLedger reports and resets token usage
type UsageLedger interface {
	Totals() models.Usage
	Reset()
}

// Toolset executes tools against the pipeline services. It keeps one summary
// accumulator per session; composing a story discards it.
type Toolset struct {
	resolver TickerResolver
	weeks    WeekFinder
	runner   StoryRunner
	composer StoryComposer
	usage    UsageLedger
	logger   arbor.ILogger

	mu           sync.Mutex
	accumulators map[string]*pipeline.Accumulator
}

// NewToolset creates a tool set over the given services
func NewToolset(
	resolver TickerResolver,
	weeks WeekFinder,
	runner StoryRunner,
	composer StoryComposer,
	usage UsageLedger,
	logger arbor.ILogger,
) *Toolset {
	return &Toolset{
		resolver:     resolver,
		weeks:        weeks,
		runner:       runner,
		composer:     composer,
		usage:        usage,
		logger:       logger,
		accumulators: make(map[string]*pipeline.Accumulator),
	}
}

// Accumulator returns the session's current summaries, or nil if none were produced
func (t *Toolset) Accumulator(sessionID string) *pipeline.Accumulator {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.accumulators[sessionID]
}

func (t *Toolset) startAccumulator(sessionID string) *pipeline.Accumulator {
	t.mu.Lock()
	defer t.mu.Unlock()
	acc := pipeline.NewAccumulator()
	t.accumulators[sessionID] = acc
	return acc
}

func (t *Toolset) discardAccumulator(sessionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.accumulators, sessionID)
}

// ListTools returns the tool definitions
func (t *Toolset) ListTools() []Tool {
	return []Tool{
		{
			Name:        ToolGetTicker,
			Description: "Look up the stock ticker symbol for a company name",
			InputSchema: schema(map[string]interface{}{
				"company": stringProp("Company name, e.g. Amazon"),
			}, "company"),
		},
		{
			Name: ToolSignificantWeeks,
			Description: fmt.Sprintf("Fetch weekly prices for a ticker and list the weeks whose close moved more than %.1f%% "+
				"from the previous week, with their Monday-Friday date ranges", t.weeks.Threshold()),
			InputSchema: schema(map[string]interface{}{
				"ticker":     stringProp("Ticker symbol, optionally exchange qualified (AMZN, NASDAQ:AMZN, INFY.NS)"),
				"start_date": stringProp("Start date (YYYY-MM-DD or MM/DD/YYYY)"),
				"end_date":   stringProp("End date (YYYY-MM-DD or MM/DD/YYYY)"),
			}, "ticker", "start_date", "end_date"),
		},
		{
			Name: ToolSummarize,
			Description: "Search the news outlets for each date range in order, scrape and rank the articles, " +
				"and produce one summary per week. Summaries stream to live clients as they complete. " +
				"Replaces any summaries from an earlier call in this session.",
			InputSchema: schema(map[string]interface{}{
				"company": stringProp("Company name used in the news search"),
				"date_ranges": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Date ranges formatted \"MM/DD/YYYY to MM/DD/YYYY\"",
				},
			}, "company", "date_ranges"),
		},
		{
			Name:        ToolListSummaries,
			Description: "List the weekly summaries produced so far in this session",
			InputSchema: schema(map[string]interface{}{}),
		},
		{
			Name:        ToolRemoveSummary,
			Description: "Remove one weekly summary from this session before the story is generated",
			InputSchema: schema(map[string]interface{}{
				"date_range": stringProp("Date range of the summary to drop, \"MM/DD/YYYY to MM/DD/YYYY\""),
			}, "date_range"),
		},
		{
			Name:        ToolGenerateStory,
			Description: "Compose the final single-paragraph stock story from this session's weekly summaries",
			InputSchema: schema(map[string]interface{}{}),
		},
		{
			Name:        ToolGetUsage,
			Description: "Report the token usage accumulated by the pipeline tools",
			InputSchema: schema(map[string]interface{}{}),
		},
		{
			Name:        ToolResetUsage,
			Description: "Reset the accumulated token usage counters",
			InputSchema: schema(map[string]interface{}{}),
		},
	}
}

// CallTool executes the named tool for a session
func (t *Toolset) CallTool(ctx context.Context, sessionID, name string, args map[string]interface{}) (*ToolResult, error) {
	t.logger.Debug().Str("tool", name).Str("session_id", sessionID).Msg("Calling tool")

	switch name {
	case ToolGetTicker:
		return t.getTicker(ctx, args)
	case ToolSignificantWeeks:
		return t.significantWeeks(ctx, args)
	case ToolSummarize:
		return t.summarize(ctx, sessionID, args)
	case ToolListSummaries:
		return t.listSummaries(sessionID), nil
	case ToolRemoveSummary:
		return t.removeSummary(sessionID, args)
	case ToolGenerateStory:
		return t.generateStory(ctx, sessionID)
	case ToolGetUsage:
		return &ToolResult{Text: formatUsage(t.usage.Totals())}, nil
	case ToolResetUsage:
		t.usage.Reset()
		t.logger.Info().Msg("Token usage reset")
		return &ToolResult{Text: "Token usage counters reset."}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
}

func (t *Toolset) getTicker(ctx context.Context, args map[string]interface{}) (*ToolResult, error) {
	company, err := requireString(args, "company")
	if err != nil {
		return nil, err
	}
	ticker, err := t.resolver.Resolve(ctx, company)
	if err != nil {
		return nil, err
	}
	return &ToolResult{Text: ticker.String()}, nil
}

func (t *Toolset) significantWeeks(ctx context.Context, args map[string]interface{}) (*ToolResult, error) {
	raw, err := requireString(args, "ticker")
	if err != nil {
		return nil, err
	}
	startArg, err := requireString(args, "start_date")
	if err != nil {
		return nil, err
	}
	endArg, err := requireString(args, "end_date")
	if err != nil {
		return nil, err
	}

	start, end, err := prices.ParsePeriod(startArg, endArg)
	if err != nil {
		return nil, err
	}

	ticker := common.ParseTicker(raw)
	weeks, err := t.weeks.SignificantWeeks(ctx, ticker.EODHDSymbol(), start, end)
	if err != nil {
		return nil, err
	}

	return &ToolResult{Text: formatWeeks(ticker, weeks, prices.BuildDateRanges(weeks), t.weeks.Threshold())}, nil
}

func (t *Toolset) summarize(ctx context.Context, sessionID string, args map[string]interface{}) (*ToolResult, error) {
	company, err := requireString(args, "company")
	if err != nil {
		return nil, err
	}
	labels := stringSlice(args, "date_ranges")
	if len(labels) == 0 {
		return nil, errors.New("date_ranges is required")
	}
	ranges, err := prices.ParseDateRangeLabels(labels)
	if err != nil {
		return nil, err
	}

	var acc *pipeline.Accumulator
	msg, err := t.runner.RunSession(ctx, sessionID, company, ranges, func() *pipeline.Accumulator {
		acc = t.startAccumulator(sessionID)
		return acc
	})
	if err != nil {
		return nil, err
	}

	return &ToolResult{Text: msg + "\n\n" + formatSummaryStatus(acc.Summaries())}, nil
}

func (t *Toolset) listSummaries(sessionID string) *ToolResult {
	acc := t.Accumulator(sessionID)
	if acc == nil || acc.Len() == 0 {
		return &ToolResult{Text: "No weekly summaries yet."}
	}
	return &ToolResult{Text: formatSummaries(acc.Summaries())}
}

func (t *Toolset) removeSummary(sessionID string, args map[string]interface{}) (*ToolResult, error) {
	label, err := requireString(args, "date_range")
	if err != nil {
		return nil, err
	}
	acc := t.Accumulator(sessionID)
	if acc == nil || !acc.Remove(label) {
		return nil, fmt.Errorf("no summary for %s", label)
	}
	return &ToolResult{Text: fmt.Sprintf("Removed the summary for %s. %d summaries remain.", label, acc.Len())}, nil
}

func (t *Toolset) generateStory(ctx context.Context, sessionID string) (*ToolResult, error) {
	acc := t.Accumulator(sessionID)
	if acc == nil {
		return nil, story.ErrNoSummaries
	}

	narrative, err := t.composer.Compose(ctx, acc)
	if err != nil {
		return nil, err
	}
	t.discardAccumulator(sessionID)

	return &ToolResult{Text: narrative, Story: narrative}, nil
}

func schema(properties map[string]interface{}, required ...string) map[string]interface{} {
	s := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func stringProp(description string) map[string]interface{} {
	return map[string]interface{}{"type": "string", "description": description}
}

func requireString(args map[string]interface{}, key string) (string, error) {
	v, _ := args[key].(string)
	v = strings.TrimSpace(v)
	if v == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return v, nil
}

// stringSlice reads an array argument. A single string is split on newlines and semicolons.
func stringSlice(args map[string]interface{}, key string) []string {
	var out []string
	switch v := args[key].(type) {
	case []string:
		out = append(out, v...)
	case []interface{}:
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
	case string:
		out = strings.FieldsFunc(v, func(r rune) bool { return r == '\n' || r == ';' })
	}

	cleaned := out[:0]
	for _, s := range out {
		if s = strings.TrimSpace(s); s != "" {
			cleaned = append(cleaned, s)
		}
	}
	return cleaned
}
