// Package ranking scores scraped articles for how well they explain recent stock
// movement and keeps the most relevant unique ones.
package ranking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stockstory/internal/interfaces"
	"github.com/ternarybob/stockstory/internal/models"
)

// ErrRankingParse marks completion output that could not be read as a score list.
// Rank logs it and falls back to discovery order; it is never returned.
var ErrRankingParse = errors.New("ranking output could not be parsed")

const (
	DefaultTopN         = 4
	DefaultExcerptChars = 500

	maxScore = 10
)

const systemPrompt = `You are a financial analyst ranking news articles by their relevance to recent stock price movements of a specific company.

Judge each article only by whether it explains recent stock-price movement or investor sentiment.

Relevant:
- Earnings announcements or financial results
- Strategic business decisions such as mergers, acquisitions, cost-cutting or leadership changes
- Regulatory approvals, fines or legal actions with market implications
- Market expansion, new operational territories or restructuring
- Macroeconomic or industry shifts directly tied to the company

Not relevant:
- Product announcements or launches without clear stock market impact
- Lifestyle content, branding or marketing updates
- Speculative long-term plans with no current investor or market reaction
- Non-financial partnerships, media reviews or entertainment events

Score each article from 1 to 10, where 10 directly explains the stock movement and 1 is unrelated to the company, its stock or its investors.

Respond with a JSON array only, no commentary, echoing each article's number:
[{"index": 1, "title": "<title of article 1>", "score": <1-10>}]`

// Config controls how many articles survive ranking and how much of each is shown to the model
type Config struct {
	TopN         int
	ExcerptChars int
}

// Ranker orders articles by completion-assigned relevance
type Ranker struct {
	completion interfaces.CompletionService
	config     Config
	logger     arbor.ILogger
}

// NewRanker creates a ranker. Zero config values take the defaults.
func NewRanker(completion interfaces.CompletionService, config Config, logger arbor.ILogger) *Ranker {
	if config.TopN <= 0 {
		config.TopN = DefaultTopN
	}
	if config.ExcerptChars <= 0 {
		config.ExcerptChars = DefaultExcerptChars
	}
	return &Ranker{
		completion: completion,
		config:     config,
		logger:     logger,
	}
}

// Rank scores articles and returns at most TopN with unique content, ordered by score
// descending and then by discovery order. When scoring fails the first TopN articles
// are returned unscored. The only error is ctx cancellation.
func (r *Ranker) Rank(ctx context.Context, articles []models.Article) ([]models.RankedArticle, error) {
	if len(articles) == 0 {
		return []models.RankedArticle{}, nil
	}

	ranked := make([]models.RankedArticle, len(articles))
	for i, a := range articles {
		ranked[i] = models.RankedArticle{Article: a, Index: i}
	}

	resp, err := r.completion.Complete(ctx, interfaces.UserPrompt(systemPrompt, r.buildPrompt(articles)))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		r.logger.Warn().Err(err).Int("articles", len(articles)).Msg("Ranking completion failed, keeping discovery order")
		return r.top(ranked), nil
	}

	scores, err := parseScores(resp.Text)
	if err != nil {
		r.logger.Warn().
			Err(fmt.Errorf("%w: %v", ErrRankingParse, err)).
			Str("reply", truncate(resp.Text, 200)).
			Msg("Keeping discovery order")
		return r.top(ranked), nil
	}

	unmatched := assignScores(ranked, scores)
	if unmatched > 0 {
		r.logger.Debug().Int("unmatched", unmatched).Msg("Articles without a score were assigned 0")
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Index < ranked[j].Index
	})

	result := r.top(ranked)
	r.logger.Debug().
		Int("articles", len(articles)).
		Int("kept", len(result)).
		Msg("Articles ranked")
	return result, nil
}

func (r *Ranker) buildPrompt(articles []models.Article) string {
	var b strings.Builder
	b.WriteString("Rate the following articles:\n\n")
	for i, a := range articles {
		fmt.Fprintf(&b, "%d. Title: %s\nContent: %s\n\n", i+1, a.Title, truncate(a.Content, r.config.ExcerptChars))
	}
	return b.String()
}

// top drops articles whose trimmed content was already seen and keeps the first TopN
func (r *Ranker) top(ranked []models.RankedArticle) []models.RankedArticle {
	seen := make(map[string]bool, len(ranked))
	out := make([]models.RankedArticle, 0, r.config.TopN)
	for _, a := range ranked {
		key := strings.TrimSpace(a.Content)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, a)
		if len(out) == r.config.TopN {
			break
		}
	}
	return out
}

type scoreEntry struct {
	Index any    `json:"index"`
	Title string `json:"title"`
	Score any    `json:"score"`
}

// assignScores matches each entry by its echoed 1-based index, then by exact title.
// Each article takes at most one score; it returns how many articles stayed unscored.
func assignScores(ranked []models.RankedArticle, scores []scoreEntry) int {
	assigned := make([]bool, len(ranked))

	for _, s := range scores {
		score, ok := toInt(s.Score)
		if !ok {
			continue
		}
		score = clamp(score)

		if idx, ok := toInt(s.Index); ok && idx >= 1 && idx <= len(ranked) && !assigned[idx-1] {
			ranked[idx-1].Score = score
			assigned[idx-1] = true
			continue
		}

		for i := range ranked {
			if !assigned[i] && s.Title != "" && ranked[i].Title == s.Title {
				ranked[i].Score = score
				assigned[i] = true
				break
			}
		}
	}

	unmatched := 0
	for _, ok := range assigned {
		if !ok {
			unmatched++
		}
	}
	return unmatched
}

// parseScores reads the model reply as a JSON array, repairing it or reading it as
// hjson when strict decoding fails.
func parseScores(text string) ([]scoreEntry, error) {
	text = stripFences(text)
	if start, end := strings.Index(text, "["), strings.LastIndex(text, "]"); start >= 0 && end > start {
		text = text[start : end+1]
	}
	if text == "" {
		return nil, errors.New("empty reply")
	}

	var scores []scoreEntry
	err := json.Unmarshal([]byte(text), &scores)
	if err == nil {
		return scores, nil
	}

	if repaired, repairErr := jsonrepair.RepairJSON(text); repairErr == nil {
		scores = nil
		if json.Unmarshal([]byte(repaired), &scores) == nil {
			return scores, nil
		}
	}

	scores = nil
	if hjsonErr := hjson.Unmarshal([]byte(text), &scores); hjsonErr == nil {
		return scores, nil
	}

	return nil, err
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx >= 0 {
			s = s[idx+1:]
		} else {
			s = strings.TrimLeft(s, "`")
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n + 0.5), true
	case float32:
		return int(n + 0.5), true
	case int:
		return n, true
	case int64:
		return int(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return int(f + 0.5), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return int(f + 0.5), true
	}
	return 0, false
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > maxScore {
		return maxScore
	}
	return score
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
