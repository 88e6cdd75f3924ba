package search

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stockstory/internal/interfaces"
	"github.com/ternarybob/stockstory/internal/models"
)

type fakeBackend struct {
	mu      sync.Mutex
	queries []interfaces.SearchQuery
	results map[string][]interfaces.SearchResult
	errs    map[string]error
}

func (f *fakeBackend) Search(ctx context.Context, q interfaces.SearchQuery) ([]interfaces.SearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	if err := f.errs[q.Q]; err != nil {
		return nil, err
	}
	return f.results[q.Q], nil
}

var feb17 = models.DateRange{
	Start: time.Date(2025, 2, 17, 0, 0, 0, 0, time.UTC),
	End:   time.Date(2025, 2, 21, 0, 0, 0, 0, time.UTC),
}

var mar03 = models.DateRange{
	Start: time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC),
	End:   time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC),
}

func TestFilterResults_DedupAndDomain(t *testing.T) {
	results := []interfaces.SearchResult{
		{Title: "A", Link: "https://www.wsj.com/a"},
		{Title: "A again", Link: "https://www.wsj.com/a"},
		{Title: "Off domain", Link: "https://notwsj.com/b"},
		{Title: "Missing link"},
		{Title: "B", Link: "https://wsj.com/b"},
	}

	out := FilterResults(results, "wsj.com", 0)
	require.Len(t, out, 2)
	assert.Equal(t, "https://www.wsj.com/a", out[0].URL)
	assert.Equal(t, "https://wsj.com/b", out[1].URL)

	seen := map[string]bool{}
	for _, c := range out {
		assert.False(t, seen[c.URL], "duplicate url %s", c.URL)
		seen[c.URL] = true
		assert.Equal(t, "wsj.com", c.Site)
	}
}

func TestFilterResults_Limit(t *testing.T) {
	results := []interfaces.SearchResult{
		{Title: "1", Link: "https://ft.com/1"},
		{Title: "2", Link: "https://ft.com/2"},
		{Title: "3", Link: "https://ft.com/3"},
	}
	assert.Len(t, FilterResults(results, "ft.com", 2), 2)
}

func TestPlanner_PlanOrderAndQueries(t *testing.T) {
	backend := &fakeBackend{results: map[string][]interfaces.SearchResult{
		`intitle:"Tesla" site:wsj.com`: {{Title: "WSJ Tesla", Link: "https://www.wsj.com/tesla"}},
	}}
	planner := NewPlanner(backend, PlannerConfig{Num: 2, Domains: []string{"wsj.com", "https://www.ft.com/"}}, arbor.NewLogger())

	out, err := planner.Plan(context.Background(), "Tesla", []models.DateRange{feb17, mar03})
	require.NoError(t, err)
	require.Len(t, out, 4)

	assert.Equal(t, "wsj.com", out[0].Site)
	assert.Equal(t, "02/17/2025 to 02/21/2025", out[0].DateRange)
	assert.Equal(t, "wsj.com", out[1].Site)
	assert.Equal(t, "03/03/2025 to 03/07/2025", out[1].DateRange)
	assert.Equal(t, "ft.com", out[2].Site)
	require.Len(t, out[0].Articles, 1)

	require.Len(t, backend.queries, 4)
	assert.Equal(t, `intitle:"Tesla" site:ft.com`, backend.queries[2].Q)
	assert.Equal(t, 2, backend.queries[0].Num)
	assert.Equal(t, feb17.Start, backend.queries[0].DateMin)
	assert.Equal(t, feb17.End, backend.queries[0].DateMax)
}

func TestPlanner_PlanRangeToleratesBackendErrors(t *testing.T) {
	backend := &fakeBackend{
		results: map[string][]interfaces.SearchResult{
			`intitle:"Tesla" site:reuters.com`: {{Title: "R", Link: "https://www.reuters.com/r"}},
		},
		errs: map[string]error{`intitle:"Tesla" site:wsj.com`: errors.New("503")},
	}
	planner := NewPlanner(backend, PlannerConfig{Domains: []string{"wsj.com", "reuters.com", "ft.com"}}, arbor.NewLogger())

	out, err := planner.PlanRange(context.Background(), "Tesla", feb17)
	require.NoError(t, err)
	assert.Len(t, out, 1)
	assert.Len(t, out["reuters.com"], 1)
	assert.Len(t, backend.queries, 3)
}

func TestPlanner_PausesBetweenPairs(t *testing.T) {
	backend := &fakeBackend{}
	pause := 30 * time.Millisecond
	planner := NewPlanner(backend, PlannerConfig{Pause: pause, Domains: []string{"wsj.com", "ft.com", "reuters.com"}}, arbor.NewLogger())

	start := time.Now()
	_, err := planner.PlanRange(context.Background(), "Tesla", feb17)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 2*pause-5*time.Millisecond)
}

func TestPlanner_CancelledContext(t *testing.T) {
	backend := &fakeBackend{}
	planner := NewPlanner(backend, PlannerConfig{Pause: time.Hour, Domains: []string{"wsj.com", "ft.com"}}, arbor.NewLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := planner.PlanRange(ctx, "Tesla", feb17)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, backend.queries)
}
