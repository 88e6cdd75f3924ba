// Package scraper holds the per-outlet article scrape adapters. Each adapter loads
// the outlet's stored cookies, renders the article in a shared ChromeDP browser and
// extracts body text with outlet-specific selectors before falling back to generic
// paragraph and readability extraction.
package scraper

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stockstory/internal/interfaces"
	"github.com/ternarybob/stockstory/internal/models"
	"github.com/ternarybob/stockstory/internal/services/ledger"
)

const (
	msgScraped = "Article successfully scraped!"
	msgNoText  = "No visible text found in the article."
)

// outlet describes one publication's scrape behaviour
type outlet struct {
	domain  string
	baseURL string
	extract extractFunc
}

var builtinOutlets = []outlet{
	{domain: "wsj.com", baseURL: "https://www.wsj.com", extract: extractWSJ},
	{domain: "ft.com", baseURL: "https://www.ft.com", extract: extractFT},
	{domain: "reuters.com", baseURL: "https://www.reuters.com", extract: extractReuters},
	{domain: "economictimes.indiatimes.com", baseURL: "https://economictimes.indiatimes.com/", extract: extractEconomicTimes},
	{domain: "timesofindia.indiatimes.com", baseURL: "https://timesofindia.indiatimes.com/", extract: extractTimesOfIndia},
}

// batchDomains lists outlets scraped as one batch in a single tab
var batchDomains = map[string]bool{"reuters.com": true}

// Adapter scrapes one article per browser tab
type Adapter struct {
	outlet  outlet
	opener  PageOpener
	cookies *CookieStore
	usage   interfaces.UsageRecorder
	logger  arbor.ILogger
}

// Domain returns the outlet domain served by the adapter
func (a *Adapter) Domain() string {
	return a.outlet.domain
}

// Scrape renders url and extracts its text. It never panics or returns an error;
// failures are reported in the result.
func (a *Adapter) Scrape(ctx context.Context, url, title string) (result models.ScrapeResult) {
	defer func() {
		if r := recover(); r != nil {
			result = failure(url, title, fmt.Errorf("panic: %v", r))
		}
	}()

	page, err := a.open(ctx)
	if err != nil {
		return failure(url, title, err)
	}
	defer page.Close()

	return a.scrapePage(ctx, page, url, title)
}

func (a *Adapter) open(ctx context.Context) (Page, error) {
	cookies, err := a.cookies.Load(a.outlet.domain)
	if err != nil {
		a.logger.Warn().Err(err).Str("site", a.outlet.domain).Msg("Continuing without cookies")
	}
	return a.opener.Open(ctx, a.outlet.baseURL, cookies)
}

func (a *Adapter) scrapePage(ctx context.Context, page Page, url, title string) models.ScrapeResult {
	html, err := page.Load(ctx, url)
	if err != nil {
		a.logger.Warn().Err(err).Str("url", url).Msg("Article load failed")
		return failure(url, title, err)
	}

	text := ExtractText(html, a.outlet.extract)
	if a.usage != nil {
		a.usage.Add(ledger.EstimateTokens(url), ledger.EstimateTokens(text))
	}

	if strings.TrimSpace(text) == "" {
		a.logger.Debug().Str("url", url).Msg("No article text extracted")
		return models.ScrapeResult{URL: url, Title: title, Success: false, Message: msgNoText}
	}

	a.logger.Debug().
		Str("url", url).
		Int("chars", len(text)).
		Msg("Article scraped")

	return models.ScrapeResult{URL: url, Title: title, Content: text, Success: true, Message: msgScraped}
}

func failure(url, title string, err error) models.ScrapeResult {
	return models.ScrapeResult{
		URL:     url,
		Title:   title,
		Success: false,
		Message: fmt.Sprintf("Error occurred: %v", err),
	}
}

// BatchAdapter reuses one tab for every article of a batch
type BatchAdapter struct {
	*Adapter
}

// ScrapeBatch scrapes candidates in order within one tab. The result has one entry
// per candidate attempted; cancellation stops the batch early.
func (a *BatchAdapter) ScrapeBatch(ctx context.Context, candidates []models.ArticleCandidate) (results []models.ScrapeResult) {
	if len(candidates) == 0 {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic: %v", r)
			for _, c := range candidates[len(results):] {
				results = append(results, failure(c.URL, c.Title, err))
			}
		}
	}()

	page, err := a.open(ctx)
	if err != nil {
		results = make([]models.ScrapeResult, 0, len(candidates))
		for _, c := range candidates {
			results = append(results, failure(c.URL, c.Title, err))
		}
		return results
	}
	defer page.Close()

	for _, c := range candidates {
		if ctx.Err() != nil {
			break
		}
		results = append(results, a.scrapePage(ctx, page, c.URL, c.Title))
	}

	a.logger.Info().
		Str("site", a.outlet.domain).
		Int("requested", len(candidates)).
		Int("attempted", len(results)).
		Msg("Batch scrape complete")

	return results
}
