package source

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	scriptArrayPattern = regexp.MustCompile(`\[\s*(?:"(?:https?:)?//[^"]*"\s*,?\s*)+\]`)
	imageURLPattern    = regexp.MustCompile(`(?i)https?://[^\s"'<>\\)]+\.(?:jpe?g|png|webp|gif)`)
	imageExtPattern    = regexp.MustCompile(`(?i)\.(?:jpe?g|png|webp|gif)(?:$|\?)`)
)

var lazyAttrs = []string{"data-src", "data-lazy-src"}

// ReaderPages extracts a chapter's ordered image URLs. Zero results is not
// an error: the resolver treats an empty list as "this page hides its images
// from a non-JS fetch" and moves on to reconstruction.
func (s *Site) ReaderPages(ctx context.Context, readerURL string) ([]string, error) {
	body, err := s.fetcher.FetchHTML(ctx, readerURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return []string{}, nil
	}

	return s.pagesFromDocument(ctx, doc, readerURL, true), nil
}

// pagesFromDocument runs the strategy cascade: each strategy is attempted
// only when every prior one produced nothing.
func (s *Site) pagesFromDocument(ctx context.Context, doc *goquery.Document, pageURL string, followIframe bool) []string {
	strategies := []func() []string{
		func() []string { return collectImages(doc, s.profile.Selectors.ReaderImages) },
		func() []string { return collectContainerImages(doc, s.profile.Selectors.ReaderContainers) },
		func() []string { return collectNoscriptImages(doc) },
		func() []string {
			if !followIframe {
				return nil
			}
			return s.collectIframeImages(ctx, doc, pageURL)
		},
		func() []string { return collectScriptImages(doc) },
		func() []string { return collectImages(doc, []string{"img"}) },
	}

	for _, strategy := range strategies {
		if urls := strategy(); len(urls) > 0 {
			return s.finalize(pageURL, urls)
		}
	}

	return []string{}
}

// finalize resolves every URL to absolute form and deduplicates keeping the
// first occurrence: page order is reading order and must survive dedup.
func (s *Site) finalize(pageURL string, urls []string) []string {
	out := make([]string, 0, len(urls))
	seen := make(map[string]struct{}, len(urls))
	for _, raw := range urls {
		resolved := s.absoluteURL(pageURL, raw)
		if resolved == "" {
			continue
		}
		if _, exists := seen[resolved]; exists {
			continue
		}
		seen[resolved] = struct{}{}
		out = append(out, resolved)
	}
	return out
}

// imageURL reads a single img-like element, preferring lazy-load attributes
// over src and taking the first entry of comma-separated source sets.
func imageURL(img *goquery.Selection) string {
	for _, attr := range lazyAttrs {
		if value, ok := img.Attr(attr); ok && strings.TrimSpace(value) != "" {
			return firstSourceCandidate(value)
		}
	}
	if value, ok := img.Attr("src"); ok {
		return firstSourceCandidate(value)
	}
	return ""
}

func firstSourceCandidate(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if strings.Contains(trimmed, ",") {
		trimmed = strings.TrimSpace(strings.SplitN(trimmed, ",", 2)[0])
	}
	// srcset entries may carry a width descriptor after the URL.
	if fields := strings.Fields(trimmed); len(fields) > 0 {
		return fields[0]
	}
	return ""
}

func collectImages(doc *goquery.Document, selectors []string) []string {
	for _, selector := range selectors {
		urls := make([]string, 0, 16)
		doc.Find(selector).Each(func(_ int, img *goquery.Selection) {
			if raw := imageURL(img); raw != "" {
				urls = append(urls, raw)
			}
		})
		if len(urls) > 0 {
			return urls
		}
	}
	return nil
}

func collectContainerImages(doc *goquery.Document, selectors []string) []string {
	for _, selector := range selectors {
		urls := make([]string, 0, 16)
		doc.Find(selector).Find("img").Each(func(_ int, img *goquery.Selection) {
			if raw := imageURL(img); raw != "" {
				urls = append(urls, raw)
			}
		})
		if len(urls) > 0 {
			return urls
		}
	}
	return nil
}

// collectNoscriptImages reads noscript fallback blocks, which some readers
// use to keep real markup away from script-disabled clients. Depending on
// how the document was parsed the block's content may be child elements or
// raw text, so both are tried.
func collectNoscriptImages(doc *goquery.Document) []string {
	urls := make([]string, 0, 8)
	doc.Find("noscript").Each(func(_ int, block *goquery.Selection) {
		block.Find("img").Each(func(_ int, img *goquery.Selection) {
			if raw := imageURL(img); raw != "" {
				urls = append(urls, raw)
			}
		})
		if block.Children().Length() == 0 {
			inner, err := goquery.NewDocumentFromReader(strings.NewReader(block.Text()))
			if err != nil {
				return
			}
			inner.Find("img").Each(func(_ int, img *goquery.Selection) {
				if raw := imageURL(img); raw != "" {
					urls = append(urls, raw)
				}
			})
		}
	})
	return urls
}

// collectIframeImages follows an embedded iframe one level deep and scans
// the framed document with the same cascade.
func (s *Site) collectIframeImages(ctx context.Context, doc *goquery.Document, pageURL string) []string {
	src, ok := doc.Find("iframe[src]").First().Attr("src")
	if !ok {
		return nil
	}

	frameURL := s.absoluteURL(pageURL, src)
	if frameURL == "" {
		return nil
	}

	body, err := s.fetcher.FetchHTML(ctx, frameURL)
	if err != nil {
		return nil
	}
	frameDoc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil
	}

	return s.pagesFromDocument(ctx, frameDoc, frameURL, false)
}

// collectScriptImages sniffs inline scripts for embedded URL arrays and, as
// a weaker signal, bare image URLs. Malformed JSON and partial matches are
// swallowed, never surfaced.
func collectScriptImages(doc *goquery.Document) []string {
	urls := make([]string, 0, 16)
	doc.Find("script").Each(func(_ int, script *goquery.Selection) {
		content := script.Text()
		for _, match := range scriptArrayPattern.FindAllString(content, -1) {
			var candidates []string
			if err := json.Unmarshal([]byte(match), &candidates); err != nil {
				continue
			}
			for _, candidate := range candidates {
				if imageExtPattern.MatchString(candidate) {
					urls = append(urls, candidate)
				}
			}
		}
	})
	if len(urls) > 0 {
		return urls
	}

	doc.Find("script").Each(func(_ int, script *goquery.Selection) {
		urls = append(urls, imageURLPattern.FindAllString(script.Text(), -1)...)
	})
	return urls
}
