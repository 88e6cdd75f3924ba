package pipeline_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stockstory/internal/interfaces"
	"github.com/ternarybob/stockstory/internal/models"
	"github.com/ternarybob/stockstory/internal/services/aggregator"
	"github.com/ternarybob/stockstory/internal/services/ledger"
	"github.com/ternarybob/stockstory/internal/services/pipeline"
	"github.com/ternarybob/stockstory/internal/services/ranking"
	"github.com/ternarybob/stockstory/internal/services/scraper"
	"github.com/ternarybob/stockstory/internal/services/search"
	"github.com/ternarybob/stockstory/internal/services/story"
	"github.com/ternarybob/stockstory/internal/services/summary"
)

type outletBackend struct {
	links map[string]interfaces.SearchResult
}

func (b *outletBackend) Search(ctx context.Context, q interfaces.SearchQuery) ([]interfaces.SearchResult, error) {
	for domain, res := range b.links {
		if strings.HasSuffix(q.Q, "site:"+domain) {
			return []interfaces.SearchResult{res}, nil
		}
	}
	return nil, nil
}

type staticPage struct {
	pages map[string]string
}

func (p *staticPage) Load(ctx context.Context, url string) (string, error) {
	return p.pages[url], nil
}

func (p *staticPage) Close() {}

type staticOpener struct {
	page *staticPage
}

func (o *staticOpener) Open(ctx context.Context, baseURL string, cookies []models.Cookie) (scraper.Page, error) {
	return o.page, nil
}

// scriptedCompletion answers ranking, summary and story prompts with fixed text
type scriptedCompletion struct {
	mu    sync.Mutex
	calls []*interfaces.CompletionRequest
}

func (c *scriptedCompletion) Complete(ctx context.Context, req *interfaces.CompletionRequest) (*interfaces.CompletionResponse, error) {
	c.mu.Lock()
	c.calls = append(c.calls, req)
	c.mu.Unlock()

	switch {
	case strings.Contains(req.System, "ranking news articles"):
		return &interfaces.CompletionResponse{Text: "```json\n[{\"index\":1,\"score\":6},{\"index\":2,\"score\":9}]\n```"}, nil
	case strings.Contains(req.System, "investor-focused summary"):
		return &interfaces.CompletionResponse{Text: "Acme's quarterly results beat expectations as its chief executive stepped down."}, nil
	default:
		return &interfaces.CompletionResponse{Text: "Acme, an industrial supplier, drew investor attention in February."}, nil
	}
}

type sinkRecorder struct {
	published []models.WeeklySummary
}

func (s *sinkRecorder) Publish(ctx context.Context, summary models.WeeklySummary) error {
	s.published = append(s.published, summary)
	return nil
}

func TestPipeline_EndToEndSingleWeek(t *testing.T) {
	logger := arbor.NewLogger()
	const (
		wsjURL     = "https://www.wsj.com/articles/acme-results"
		ftURL      = "https://www.ft.com/content/acme-ceo"
		reutersURL = "https://www.reuters.com/business/acme-outlook"
	)

	backend := &outletBackend{links: map[string]interfaces.SearchResult{
		"wsj.com":     {Position: 1, Title: "Acme results beat", Link: wsjURL},
		"ft.com":      {Position: 1, Title: "Acme chief executive steps down", Link: ftURL},
		"reuters.com": {Position: 1, Title: "Acme outlook", Link: reutersURL},
	}}
	planner := search.NewPlanner(backend, search.PlannerConfig{Num: 2, Domains: []string{"wsj.com", "ft.com", "reuters.com"}}, logger)

	page := &staticPage{pages: map[string]string{
		wsjURL:     `<html><body><p class="css-1akm6h5-Paragraph e1e4oisd0">Acme reported quarterly profit above estimates.</p></body></html>`,
		ftURL:      `<html><body><article><p>Acme's chief executive announced his departure.</p></article></body></html>`,
		reutersURL: `<html><body><article></article></body></html>`,
	}}
	usage := ledger.New()
	registry := scraper.NewRegistry(&staticOpener{page: page}, scraper.NewCookieStore(""), usage, logger)

	completion := &scriptedCompletion{}
	sink := &sinkRecorder{}

	orchestrator := pipeline.NewOrchestrator(
		planner,
		aggregator.NewAggregator(registry, logger),
		ranking.NewRanker(completion, ranking.Config{}, logger),
		summary.NewSummarizer(completion, 100, logger),
		sink,
		logger,
	)

	start := time.Date(2025, time.February, 17, 0, 0, 0, 0, time.UTC)
	ranges := []models.DateRange{{Start: start, End: start.AddDate(0, 0, 4)}}
	acc := pipeline.NewAccumulator()

	msg, err := orchestrator.Run(context.Background(), "Acme", ranges, acc)
	require.NoError(t, err)
	assert.Equal(t, "Completed summarization for 1 date range(s).", msg)

	require.Len(t, sink.published, 1)
	got := sink.published[0]
	assert.Equal(t, "02/17/2025 to 02/21/2025", got.DateRange)
	assert.True(t, got.Success)
	assert.Equal(t,
		"🔗 **Referenced URLs:**\n• "+wsjURL+"\n• "+ftURL+"\n\nAcme's quarterly results beat expectations as its chief executive stepped down.",
		got.Summary)
	assert.NotContains(t, got.Summary, reutersURL)
	assert.Equal(t, []models.WeeklySummary{got}, acc.Summaries())

	// ranking saw the two scraped articles in sorted-domain order
	rankPrompt := completion.calls[0].Messages[0].Content
	assert.Contains(t, rankPrompt, "1. Title: Acme chief executive steps down")
	assert.Contains(t, rankPrompt, "2. Title: Acme results beat")
	assert.Positive(t, usage.Totals().Total())

	narrative, err := story.NewComposer(completion, logger).Compose(context.Background(), acc)
	require.NoError(t, err)
	assert.Equal(t, "Acme, an industrial supplier, drew investor attention in February.", narrative)

	storyInput := completion.calls[len(completion.calls)-1].Messages[0].Content
	assert.Equal(t, "Week: 02/17/2025 to 02/21/2025\nSummary: Acme's quarterly results beat expectations as its chief executive stepped down.", storyInput)
}
