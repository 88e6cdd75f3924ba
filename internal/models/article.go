package models

// ArticleCandidate is a search hit for one outlet and date range. Content is fetched later.
type ArticleCandidate struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Site  string `json:"site"`
}

// Article is a successfully scraped article.
// URL is the dedup key within a single query; an empty Content means the article is absent.
type Article struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
	Site    string `json:"site"`
}

// HasContent reports whether the article carries any usable text
func (a Article) HasContent() bool {
	for _, r := range a.Content {
		if r != ' ' && r != '\n' && r != '\t' && r != '\r' {
			return true
		}
	}
	return false
}

// RankedArticle is an Article with its relevance score (0-10).
// Index is the discovery order and breaks score ties.
type RankedArticle struct {
	Article
	Score int `json:"score"`
	Index int `json:"index"`
}

// ScrapeResult is the uniform output of every scrape adapter.
// Failures are reported through Success and Message, never as errors.
type ScrapeResult struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Article converts a successful scrape into an Article for the given site
func (r ScrapeResult) Article(site string) Article {
	return Article{
		Title:   r.Title,
		URL:     r.URL,
		Content: r.Content,
		Site:    site,
	}
}

// Cookie is one entry of a stored per-outlet credential file
type Cookie struct {
	Name           string   `json:"name"`
	Value          string   `json:"value"`
	Domain         string   `json:"domain"`
	Path           string   `json:"path"`
	Secure         bool     `json:"secure"`
	HTTPOnly       bool     `json:"httpOnly"`
	ExpirationDate *float64 `json:"expirationDate,omitempty"`
}
