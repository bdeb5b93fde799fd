package websearch

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/hyperjump/kotae/internal/models"
)

// HostFilter drops results whose host matches any of a set of glob patterns,
// e.g. "*.pinterest.com" or "www.youtube.com".
type HostFilter struct {
	patterns []string
}

// NewHostFilter validates and lowercases patterns.
func NewHostFilter(patterns []string) (*HostFilter, error) {
	f := &HostFilter{}
	for _, p := range patterns {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid host pattern %q", p)
		}
		f.patterns = append(f.patterns, p)
	}
	return f, nil
}

// Excluded reports whether link's host matches a pattern. Unparseable links are excluded.
func (f *HostFilter) Excluded(link string) bool {
	u, err := url.Parse(link)
	if err != nil || u.Hostname() == "" {
		return true
	}
	host := strings.ToLower(u.Hostname())
	for _, p := range f.patterns {
		if ok, _ := doublestar.Match(p, host); ok {
			return true
		}
	}
	return false
}

// Apply returns the results that are not excluded, keeping their order.
func (f *HostFilter) Apply(results []models.WebResult) []models.WebResult {
	out := make([]models.WebResult, 0, len(results))
	for _, r := range results {
		if !f.Excluded(r.Link) {
			out = append(out, r)
		}
	}
	return out
}

// Limit truncates results to at most n entries. n <= 0 keeps everything.
func Limit(results []models.WebResult, n int) []models.WebResult {
	if n > 0 && len(results) > n {
		return results[:n]
	}
	return results
}
