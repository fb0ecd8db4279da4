// Package source scrapes the origin manga site into the normalized data
// model. Extraction is organized as ordered selector cascades driven by the
// site profile; every strategy is a pure document-to-values function so the
// cascades stay independently testable.
package source

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/andrei/mangabridge/internal/fetch"
)

// ParseError reports a page whose structure was unrecognizable even after
// every fallback selector ran.
type ParseError struct {
	URL    string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %s", e.URL, e.Reason)
}

type Site struct {
	profile Profile
	fetcher *fetch.Client
}

func NewSite(profile Profile, fetcher *fetch.Client) *Site {
	if fetcher == nil {
		fetcher = fetch.NewClient(fetch.DefaultTimeout)
	}
	return &Site{profile: profile, fetcher: fetcher}
}

func (s *Site) DetailURL(slug string) string {
	return s.profile.BaseURL + strings.ReplaceAll(s.profile.DetailPath, "{slug}", url.PathEscape(slug))
}

func (s *Site) homeURL() string {
	return s.profile.BaseURL + s.profile.HomePath
}

func (s *Site) genreURL(genre string, page int) string {
	path := strings.ReplaceAll(s.profile.GenrePath, "{genre}", url.PathEscape(genre))
	path = strings.ReplaceAll(path, "{page}", fmt.Sprintf("%d", page))
	return s.profile.BaseURL + path
}

// absoluteURL resolves raw against the page it was scraped from, falling
// back to the site base for bare paths.
func (s *Site) absoluteURL(pageURL string, raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "//") {
		return "https:" + trimmed
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return ""
	}
	if parsed.IsAbs() {
		return parsed.String()
	}

	base, err := url.Parse(pageURL)
	if err != nil || !base.IsAbs() {
		base, err = url.Parse(s.profile.BaseURL)
		if err != nil {
			return trimmed
		}
	}
	return base.ResolveReference(parsed).String()
}
