package scraper

import (
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stockstory/internal/common"
	"github.com/ternarybob/stockstory/internal/interfaces"
)

// Registry resolves the scrape adapter for an outlet domain. Domains without a
// dedicated adapter get a generic one that relies on the fallback extraction only.
type Registry struct {
	opener  PageOpener
	cookies *CookieStore
	usage   interfaces.UsageRecorder
	logger  arbor.ILogger

	mu       sync.Mutex
	adapters map[string]interfaces.Scraper
}

// NewRegistry creates a registry with the built-in outlet adapters
func NewRegistry(opener PageOpener, cookies *CookieStore, usage interfaces.UsageRecorder, logger arbor.ILogger) *Registry {
	r := &Registry{
		opener:   opener,
		cookies:  cookies,
		usage:    usage,
		logger:   logger,
		adapters: make(map[string]interfaces.Scraper),
	}
	for _, o := range builtinOutlets {
		r.adapters[o.domain] = r.newAdapter(o)
	}
	return r
}

func (r *Registry) newAdapter(o outlet) interfaces.Scraper {
	a := &Adapter{
		outlet:  o,
		opener:  r.opener,
		cookies: r.cookies,
		usage:   r.usage,
		logger:  r.logger,
	}
	if batchDomains[o.domain] {
		return &BatchAdapter{Adapter: a}
	}
	return a
}

// Register adds or replaces the adapter for its domain
func (r *Registry) Register(s interfaces.Scraper) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[common.NormalizeDomain(s.Domain())] = s
}

// For returns the adapter for domain
func (r *Registry) For(domain string) interfaces.Scraper {
	domain = common.NormalizeDomain(domain)

	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.adapters[domain]; ok {
		return s
	}

	s := r.newAdapter(outlet{domain: domain, baseURL: "https://" + domain})
	r.adapters[domain] = s
	return s
}
