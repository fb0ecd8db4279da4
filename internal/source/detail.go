package source

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andrei/mangabridge/internal/models"
	"github.com/andrei/mangabridge/internal/textutil"
)

var (
	readerParamPattern  = regexp.MustCompile(`(?i)Chapter=([0-9]+(?:\.[0-9]+)?),([A-Za-z0-9_-]+)`)
	chapterHrefPattern  = regexp.MustCompile(`(?i)chapter[-_/]?0*([0-9]+(?:[.\-][0-9]+)?)`)
	chapterLabelPattern = regexp.MustCompile(`(?i)^(?:ch(?:apter)?\.?\s*)?0*([0-9]+(?:[.\-][0-9]+)?)\b`)
)

// MangaDetail scrapes a manga's detail page into structured metadata and a
// deduplicated, newest-first chapter list.
func (s *Site) MangaDetail(ctx context.Context, slug string) (*models.MangaDetail, error) {
	slug = textutil.SanitizeSlug(slug)
	pageURL := s.DetailURL(slug)

	body, err := s.fetcher.FetchHTML(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, &ParseError{URL: pageURL, Reason: "invalid html"}
	}

	title := firstText(doc, s.profile.Selectors.Title)
	if title == "" {
		// A page without even a generic h1 is not a detail page at all.
		return nil, &ParseError{URL: pageURL, Reason: "no title found"}
	}

	detail := &models.MangaDetail{
		Slug:        slug,
		Title:       title,
		Description: s.extractDescription(doc),
		Genres:      textList(doc, s.profile.Selectors.Genres),
		Chapters:    s.extractChapters(doc, pageURL),
	}

	if cover := s.extractCover(doc, pageURL); cover != "" {
		detail.Cover = &cover
	}
	if uid := harvestInternalID(doc); uid != "" {
		detail.InternalID = &uid
	}

	return detail, nil
}

func (s *Site) extractDescription(doc *goquery.Document) string {
	if description := firstText(doc, s.profile.Selectors.Description); description != "" {
		return description
	}
	content, _ := doc.Find(`meta[name="description"]`).Attr("content")
	return textutil.CleanText(content)
}

func (s *Site) extractCover(doc *goquery.Document, pageURL string) string {
	for _, selector := range s.profile.Selectors.Cover {
		raw := imageURL(doc.Find(selector).First())
		if raw != "" {
			return s.absoluteURL(pageURL, raw)
		}
	}
	return ""
}

// harvestInternalID scans every reader-style link for the Chapter=<num>,<token>
// query pair and keeps the token of the last occurrence, matching how the
// origin orders its own markup.
func harvestInternalID(doc *goquery.Document) string {
	uid := ""
	doc.Find("a[href]").Each(func(_ int, anchor *goquery.Selection) {
		href, _ := anchor.Attr("href")
		if match := readerParamPattern.FindStringSubmatch(href); match != nil {
			uid = match[2]
		}
	})
	return uid
}

func (s *Site) extractChapters(doc *goquery.Document, pageURL string) []models.Chapter {
	anchors := make([]*goquery.Selection, 0, 64)
	for _, selector := range s.profile.Selectors.Chapters {
		doc.Find(selector).Each(func(_ int, anchor *goquery.Selection) {
			anchors = append(anchors, anchor)
		})
		if len(anchors) > 0 {
			break
		}
	}

	// Only when the primary selectors find nothing at all: scan every
	// anchor for reader-link shapes.
	if len(anchors) == 0 {
		doc.Find("a[href]").Each(func(_ int, anchor *goquery.Selection) {
			href, _ := anchor.Attr("href")
			if readerParamPattern.MatchString(href) || chapterHrefPattern.MatchString(href) {
				anchors = append(anchors, anchor)
			}
		})
	}

	chapters := make([]models.Chapter, 0, len(anchors))
	positionByLink := make(map[string]int, len(anchors))
	for index, anchor := range anchors {
		chapter, ok := s.parseChapterAnchor(anchor, pageURL, index)
		if !ok {
			continue
		}
		if position, exists := positionByLink[chapter.Link]; exists {
			chapters[position] = chapter
			continue
		}
		positionByLink[chapter.Link] = len(chapters)
		chapters = append(chapters, chapter)
	}

	models.SortChapters(chapters)
	return chapters
}

func (s *Site) parseChapterAnchor(anchor *goquery.Selection, pageURL string, index int) (models.Chapter, bool) {
	href, _ := anchor.Attr("href")
	link := s.absoluteURL(pageURL, href)
	if link == "" {
		return models.Chapter{}, false
	}

	text := textutil.CleanText(anchor.Text())

	internalID := ""
	id := ""
	if match := readerParamPattern.FindStringSubmatch(href); match != nil {
		id = match[1]
		internalID = match[2]
	}
	if id == "" {
		if match := chapterHrefPattern.FindStringSubmatch(href); match != nil {
			id = match[1]
		}
	}
	if id == "" {
		if match := chapterLabelPattern.FindStringSubmatch(text); match != nil {
			id = match[1]
		}
	}
	if id == "" {
		// Positional placeholder keeps unparseable entries addressable.
		id = strconv.Itoa(index + 1)
	}
	id = textutil.NormalizeChapterToken(id)

	chapter := models.Chapter{
		ID:         id,
		InternalID: internalID,
		Title:      text,
		Link:       link,
	}
	if value, ok := textutil.ParseChapterValue(id); ok {
		chapter.Num = &value
	}
	if chapter.Title == "" {
		chapter.Title = "Chapter " + id
	}

	return chapter, true
}

func firstText(doc *goquery.Document, selectors []string) string {
	for _, selector := range selectors {
		if text := textutil.CleanText(doc.Find(selector).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

func textList(doc *goquery.Document, selectors []string) []string {
	for _, selector := range selectors {
		values := make([]string, 0, 8)
		doc.Find(selector).Each(func(_ int, item *goquery.Selection) {
			if text := textutil.CleanText(item.Text()); text != "" {
				values = append(values, text)
			}
		})
		if len(values) > 0 {
			return values
		}
	}
	return []string{}
}
