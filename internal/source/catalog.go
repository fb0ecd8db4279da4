package source

import (
	"context"
	"regexp"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/andrei/mangabridge/internal/models"
	"github.com/andrei/mangabridge/internal/textutil"
)

var latestChapterTextPattern = regexp.MustCompile(`(?i)(?:ch(?:apter)?\.?\s*)0*([0-9]+(?:[.\-][0-9]+)?)`)

// Home scrapes the landing page into its featured and latest sections.
func (s *Site) Home(ctx context.Context) (*models.HomePage, error) {
	pageURL := s.homeURL()
	body, err := s.fetcher.FetchHTML(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, &ParseError{URL: pageURL, Reason: "invalid html"}
	}

	return &models.HomePage{
		Featured: s.catalogEntries(doc, pageURL, s.profile.Selectors.FeaturedItems),
		Latest:   s.catalogEntries(doc, pageURL, s.profile.Selectors.CatalogItems),
	}, nil
}

// Genre scrapes one or more listing pages of a genre. When pages > 1 the
// requests run concurrently and a failed page contributes nothing instead of
// failing the batch.
func (s *Site) Genre(ctx context.Context, genre string, page int, pages int) ([]models.CatalogPage, error) {
	genre = textutil.SanitizeSlug(genre)
	if page < 1 {
		page = 1
	}
	if pages < 1 {
		pages = 1
	}

	results := make([]*models.CatalogPage, pages)
	var wg sync.WaitGroup
	for offset := 0; offset < pages; offset++ {
		wg.Add(1)
		go func(offset int) {
			defer wg.Done()
			entries, err := s.genrePage(ctx, genre, page+offset)
			if err != nil {
				return
			}
			results[offset] = &models.CatalogPage{Genre: genre, Page: page + offset, Entries: entries}
		}(offset)
	}
	wg.Wait()

	out := make([]models.CatalogPage, 0, pages)
	for _, result := range results {
		if result != nil {
			out = append(out, *result)
		}
	}
	return out, nil
}

func (s *Site) genrePage(ctx context.Context, genre string, page int) ([]models.CatalogEntry, error) {
	pageURL := s.genreURL(genre, page)
	body, err := s.fetcher.FetchHTML(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, &ParseError{URL: pageURL, Reason: "invalid html"}
	}

	return s.catalogEntries(doc, pageURL, s.profile.Selectors.CatalogItems), nil
}

func (s *Site) catalogEntries(doc *goquery.Document, pageURL string, selectors []string) []models.CatalogEntry {
	for _, selector := range selectors {
		entries := make([]models.CatalogEntry, 0, 24)
		doc.Find(selector).Each(func(_ int, item *goquery.Selection) {
			if entry, ok := s.parseCatalogItem(item, pageURL); ok {
				entries = append(entries, entry)
			}
		})
		if len(entries) > 0 {
			return entries
		}
	}
	return []models.CatalogEntry{}
}

func (s *Site) parseCatalogItem(item *goquery.Selection, pageURL string) (models.CatalogEntry, bool) {
	anchor := item.Find("a[href]").First()
	href, ok := anchor.Attr("href")
	if !ok {
		return models.CatalogEntry{}, false
	}

	slug := slugFromPath(href)
	if slug == "" {
		return models.CatalogEntry{}, false
	}

	title := textutil.CleanText(item.Find("h3, h4, .title").First().Text())
	if title == "" {
		if attr, hasAttr := anchor.Attr("title"); hasAttr {
			title = textutil.CleanText(attr)
		}
	}
	if title == "" {
		title = textutil.PrettifySlug(slug)
	}

	entry := models.CatalogEntry{Slug: slug, Title: title}

	if raw := imageURL(item.Find("img").First()); raw != "" {
		cover := s.absoluteURL(pageURL, raw)
		entry.Cover = &cover
	}
	if match := latestChapterTextPattern.FindStringSubmatch(item.Text()); match != nil {
		latest := textutil.NormalizeChapterToken(match[1])
		entry.LatestChapter = &latest
	}

	return entry, true
}

func slugFromPath(href string) string {
	trimmed := strings.TrimSpace(href)
	if trimmed == "" {
		return ""
	}
	trimmed = strings.SplitN(trimmed, "?", 2)[0]
	trimmed = strings.Trim(trimmed, "/")
	segments := strings.Split(trimmed, "/")
	if len(segments) == 0 {
		return ""
	}
	return textutil.SanitizeSlug(segments[len(segments)-1])
}
