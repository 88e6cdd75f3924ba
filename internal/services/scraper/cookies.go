package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stockstory/internal/common"
	"github.com/ternarybob/stockstory/internal/models"
)

// CookieStore reads per-outlet cookie sets from <dir>/<domain>.json
type CookieStore struct {
	dir string
}

// NewCookieStore creates a CookieStore rooted at dir
func NewCookieStore(dir string) *CookieStore {
	return &CookieStore{dir: dir}
}

// Load returns the cookies stored for domain. A missing file yields no cookies.
// Entries without a domain or path default to the outlet domain and "/".
func (s *CookieStore) Load(domain string) ([]models.Cookie, error) {
	domain = common.NormalizeDomain(domain)
	if s.dir == "" || domain == "" {
		return nil, nil
	}

	var data []byte
	for _, name := range []string{domain + ".json", "www." + domain + ".json"} {
		b, err := os.ReadFile(filepath.Join(s.dir, name))
		if err == nil {
			data = b
			break
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read cookies for %s: %w", domain, err)
		}
	}
	if data == nil {
		return nil, nil
	}

	var raw []models.Cookie
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse cookies for %s: %w", domain, err)
	}

	cookies := make([]models.Cookie, 0, len(raw))
	for _, c := range raw {
		if c.Name == "" {
			continue
		}
		if c.Domain == "" {
			c.Domain = "." + domain
		}
		if c.Path == "" {
			c.Path = "/"
		}
		cookies = append(cookies, c)
	}
	return cookies, nil
}

// InjectCookies sets each cookie in the current tab. Cookies the browser rejects are logged and skipped.
func InjectCookies(cookies []models.Cookie, logger arbor.ILogger) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		for _, c := range cookies {
			params := network.SetCookie(c.Name, c.Value).
				WithDomain(c.Domain).
				WithPath(c.Path).
				WithSecure(c.Secure).
				WithHTTPOnly(c.HTTPOnly)
			if c.ExpirationDate != nil {
				expires := cdp.TimeSinceEpoch(time.Unix(int64(*c.ExpirationDate), 0))
				params = params.WithExpires(&expires)
			}
			if err := params.Do(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				logger.Warn().
					Err(err).
					Str("cookie", c.Name).
					Str("domain", c.Domain).
					Msg("Failed to set cookie")
			}
		}
		return nil
	})
}
