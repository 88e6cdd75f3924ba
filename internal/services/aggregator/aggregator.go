// Package aggregator fans one date range's article candidates out to the outlet
// scrape adapters and collects the articles that scraped successfully.
package aggregator

import (
	"context"
	"sort"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stockstory/internal/interfaces"
	"github.com/ternarybob/stockstory/internal/models"
)

// Aggregator dispatches candidates to the adapter registered for their outlet
type Aggregator struct {
	scrapers interfaces.ScraperRegistry
	logger   arbor.ILogger
}

// NewAggregator creates an aggregator over the given adapter registry
func NewAggregator(scrapers interfaces.ScraperRegistry, logger arbor.ILogger) *Aggregator {
	return &Aggregator{
		scrapers: scrapers,
		logger:   logger,
	}
}

// Aggregate scrapes every candidate and returns the successful articles. Domains are
// processed in sorted order; batch adapters receive their whole list in one call.
// Failed scrapes are logged and skipped. On cancellation the articles gathered so far
// are returned.
func (a *Aggregator) Aggregate(ctx context.Context, candidates map[string][]models.ArticleCandidate) []models.Article {
	domains := make([]string, 0, len(candidates))
	for domain := range candidates {
		domains = append(domains, domain)
	}
	sort.Strings(domains)

	var articles []models.Article
	for _, domain := range domains {
		if ctx.Err() != nil {
			a.logger.Debug().Str("site", domain).Msg("Aggregation cancelled")
			break
		}

		list := candidates[domain]
		if len(list) == 0 {
			continue
		}

		results := a.scrapeDomain(ctx, domain, list)

		kept := 0
		for _, res := range results {
			if !res.Success || res.Content == "" {
				a.logger.Warn().
					Str("site", domain).
					Str("url", res.URL).
					Str("message", res.Message).
					Msg("Skipping article")
				continue
			}
			articles = append(articles, res.Article(domain))
			kept++
		}

		a.logger.Info().
			Str("site", domain).
			Int("candidates", len(list)).
			Int("scraped", kept).
			Msg("Outlet aggregated")
	}

	return articles
}

func (a *Aggregator) scrapeDomain(ctx context.Context, domain string, list []models.ArticleCandidate) []models.ScrapeResult {
	scraper := a.scrapers.For(domain)

	if batch, ok := scraper.(interfaces.BatchScraper); ok {
		return batch.ScrapeBatch(ctx, list)
	}

	results := make([]models.ScrapeResult, 0, len(list))
	for _, c := range list {
		if ctx.Err() != nil {
			break
		}
		results = append(results, scraper.Scrape(ctx, c.URL, c.Title))
	}
	return results
}
