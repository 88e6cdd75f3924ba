package search

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stockstory/internal/common"
	"github.com/ternarybob/stockstory/internal/interfaces"
	"github.com/ternarybob/stockstory/internal/models"
	"golang.org/x/time/rate"
)

// RangeCandidates holds the candidates found for one outlet and date range
type RangeCandidates struct {
	DateRange string                    `json:"date_range"`
	Site      string                    `json:"site"`
	Articles  []models.ArticleCandidate `json:"articles"`
}

// PlannerConfig controls the planner
type PlannerConfig struct {
	Num     int
	Pause   time.Duration
	Domains []string
}

// Planner issues one outlet-scoped query per (outlet, date range) pair
type Planner struct {
	backend interfaces.SearchBackend
	logger  arbor.ILogger
	num     int
	domains []string
	limiter *rate.Limiter
}

// NewPlanner creates a Planner. Pairs are spaced at least config.Pause apart.
func NewPlanner(backend interfaces.SearchBackend, config PlannerConfig, logger arbor.ILogger) *Planner {
	num := config.Num
	if num <= 0 {
		num = 2
	}

	limit := rate.Inf
	if config.Pause > 0 {
		limit = rate.Every(config.Pause)
	}

	domains := make([]string, 0, len(config.Domains))
	for _, d := range config.Domains {
		if nd := common.NormalizeDomain(d); nd != "" {
			domains = append(domains, nd)
		}
	}

	return &Planner{
		backend: backend,
		logger:  logger,
		num:     num,
		domains: domains,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Domains returns the allow-listed outlet domains
func (p *Planner) Domains() []string {
	return append([]string(nil), p.domains...)
}

// BuildQuery returns the outlet-restricted title query for company
func BuildQuery(company, domain string) string {
	return fmt.Sprintf("intitle:%q site:%s", company, domain)
}

// Plan searches every outlet for every range. Outlets form the outer loop.
func (p *Planner) Plan(ctx context.Context, company string, ranges []models.DateRange) ([]RangeCandidates, error) {
	var out []RangeCandidates
	for _, domain := range p.domains {
		for _, r := range ranges {
			articles, err := p.searchPair(ctx, company, domain, r)
			if err != nil {
				return out, err
			}
			out = append(out, RangeCandidates{DateRange: r.Label(), Site: domain, Articles: articles})
		}
	}
	return out, nil
}

// PlanRange searches every outlet for one range and returns candidates keyed by domain
func (p *Planner) PlanRange(ctx context.Context, company string, r models.DateRange) (map[string][]models.ArticleCandidate, error) {
	out := make(map[string][]models.ArticleCandidate, len(p.domains))
	for _, domain := range p.domains {
		articles, err := p.searchPair(ctx, company, domain, r)
		if err != nil {
			return out, err
		}
		if len(articles) > 0 {
			out[domain] = articles
		}
	}
	return out, nil
}

// searchPair runs one (outlet, range) query. Only ctx errors are returned;
// backend failures are logged and yield no candidates.
func (p *Planner) searchPair(ctx context.Context, company, domain string, r models.DateRange) ([]models.ArticleCandidate, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("search pause wait: %w", err)
	}

	query := interfaces.SearchQuery{
		Q:       BuildQuery(company, domain),
		Num:     p.num,
		DateMin: r.Start,
		DateMax: r.End,
	}

	results, err := p.backend.Search(ctx, query)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		p.logger.Warn().
			Err(err).
			Str("site", domain).
			Str("date_range", r.Label()).
			Msg("Search failed for outlet")
		return nil, nil
	}

	candidates := FilterResults(results, domain, p.num)
	p.logger.Info().
		Str("site", domain).
		Str("date_range", r.Label()).
		Int("results", len(results)).
		Int("candidates", len(candidates)).
		Msg("Outlet search complete")

	return candidates, nil
}

// FilterResults keeps the first limit results, drops results that are not on domain
// or lack a title or link, and removes duplicate URLs.
func FilterResults(results []interfaces.SearchResult, domain string, limit int) []models.ArticleCandidate {
	if limit <= 0 {
		limit = math.MaxInt
	}

	seen := make(map[string]bool)
	var out []models.ArticleCandidate
	for i, res := range results {
		if i >= limit {
			break
		}
		if res.Title == "" || res.Link == "" {
			continue
		}
		if !common.URLBelongsToDomain(res.Link, domain) || seen[res.Link] {
			continue
		}
		seen[res.Link] = true
		out = append(out, models.ArticleCandidate{Title: res.Title, URL: res.Link, Site: domain})
	}
	return out
}
