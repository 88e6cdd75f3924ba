package interfaces

import (
	"context"

	"github.com/ternarybob/stockstory/internal/models"
)

// Scraper is the per-outlet capability. Implementations never return errors;
// every failure surfaces as ScrapeResult.Success=false with a readable Message.
type Scraper interface {
	Domain() string
	Scrape(ctx context.Context, url, title string) models.ScrapeResult
}

// BatchScraper is implemented by adapters that reuse one browser session across a batch
type BatchScraper interface {
	Scraper
	ScrapeBatch(ctx context.Context, candidates []models.ArticleCandidate) []models.ScrapeResult
}

// ScraperRegistry resolves the adapter for an outlet domain
type ScraperRegistry interface {
	For(domain string) Scraper
}
