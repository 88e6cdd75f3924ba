package common

import (
	"net/url"
	"strings"
)

// NormalizeDomain lowercases a domain and strips scheme, "www." and any path.
// Example: "https://www.WSJ.com/news" -> "wsj.com"
func NormalizeDomain(domain string) string {
	d := strings.ToLower(strings.TrimSpace(domain))
	if strings.Contains(d, "://") {
		if u, err := url.Parse(d); err == nil {
			d = u.Host
		}
	}
	if idx := strings.IndexAny(d, "/?#"); idx >= 0 {
		d = d[:idx]
	}
	if idx := strings.LastIndex(d, ":"); idx >= 0 {
		d = d[:idx]
	}
	return strings.TrimPrefix(d, "www.")
}

// HostOf returns the normalized host of a URL, or "" when it cannot be parsed.
func HostOf(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return ""
	}
	return NormalizeDomain(u.Host)
}

// URLBelongsToDomain reports whether the URL's host is the domain or one of its subdomains.
// "markets.ft.com" belongs to "ft.com"; "notft.com" does not.
func URLBelongsToDomain(rawURL, domain string) bool {
	host := HostOf(rawURL)
	d := NormalizeDomain(domain)
	if host == "" || d == "" {
		return false
	}
	return host == d || strings.HasSuffix(host, "."+d)
}
