package resolve

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/andrei/mangabridge/internal/models"
)

type fakeSource struct {
	detail      *models.MangaDetail
	detailErr   error
	pagesByLink map[string][]string
	pagesErr    error
	readerCalls int
}

func (s *fakeSource) MangaDetail(_ context.Context, _ string) (*models.MangaDetail, error) {
	if s.detailErr != nil {
		return nil, s.detailErr
	}
	return s.detail, nil
}

func (s *fakeSource) ReaderPages(_ context.Context, readerURL string) ([]string, error) {
	s.readerCalls++
	if s.pagesErr != nil {
		return nil, s.pagesErr
	}
	return s.pagesByLink[readerURL], nil
}

type fakeEngine struct {
	count int
	ok    bool
}

func (e *fakeEngine) PageCount(_ context.Context, _ string, _ string, _ string) (int, bool) {
	return e.count, e.ok
}

func (e *fakeEngine) PageList(uid string, mangaName string, chapter string, count int) []string {
	pages := make([]string, 0, count)
	for page := 1; page <= count; page++ {
		pages = append(pages, fmt.Sprintf("https://cdn.example.com/users/%s/%s/%s/HD/%d.webp", uid, mangaName, chapter, page))
	}
	return pages
}

type memoryCache struct {
	entries map[string]*models.ReaderResult
	puts    int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string]*models.ReaderResult{}}
}

func (c *memoryCache) GetReader(slug string, chapterToken string) (*models.ReaderResult, error) {
	return c.entries[slug+"|"+chapterToken], nil
}

func (c *memoryCache) PutReader(slug string, chapterToken string, result *models.ReaderResult) error {
	c.puts++
	c.entries[slug+"|"+chapterToken] = result
	return nil
}

func numPtr(value float64) *float64 {
	return &value
}

func demoDetail() *models.MangaDetail {
	uid := "tok1"
	return &models.MangaDetail{
		Slug:       "demo",
		Title:      "Demo Manga",
		InternalID: &uid,
		Chapters: []models.Chapter{
			{ID: "5", Num: numPtr(5), Title: "Chapter 5", Link: "https://origin.example.com/read/demo/5"},
			{ID: "1.34", Num: numPtr(1.34), Title: "Chapter 1.34", Link: "https://origin.example.com/read/demo/1.34"},
			{ID: "special", Num: nil, Title: "Omake special edition", Link: "https://origin.example.com/read/demo/sp"},
		},
	}
}

func twelvePages() []string {
	pages := make([]string, 0, 12)
	for page := 1; page <= 12; page++ {
		pages = append(pages, fmt.Sprintf("https://origin.example.com/img/%d.jpg", page))
	}
	return pages
}

func TestResolveValidation(t *testing.T) {
	resolver := NewResolver(&fakeSource{detail: demoDetail()}, &fakeEngine{}, nil, nil)

	var validationErr *ValidationError
	if _, err := resolver.Resolve(context.Background(), "", "5"); !errors.As(err, &validationErr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if _, err := resolver.Resolve(context.Background(), "demo", "  "); !errors.As(err, &validationErr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
}

func TestResolveExplicit(t *testing.T) {
	source := &fakeSource{
		detail: demoDetail(),
		pagesByLink: map[string][]string{
			"https://origin.example.com/read/demo/5": twelvePages(),
		},
	}
	resolver := NewResolver(source, &fakeEngine{}, nil, nil)

	result, err := resolver.Resolve(context.Background(), "demo", "5")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	if result.Method != models.MethodExplicit {
		t.Fatalf("method = %q", result.Method)
	}
	if result.PageCount == nil || *result.PageCount != 12 {
		t.Fatalf("pageCount = %v", result.PageCount)
	}
	if len(result.Pages) != 12 || result.Pages[0] != "https://origin.example.com/img/1.jpg" {
		t.Fatalf("pages = %v", result.Pages)
	}
	if result.MatchedChapter == nil || result.MatchedChapter.ID != "5" {
		t.Fatalf("matchedChapter = %+v", result.MatchedChapter)
	}
}

func TestResolveTokenNormalizationSelectsSameChapter(t *testing.T) {
	source := &fakeSource{detail: demoDetail()}
	resolver := NewResolver(source, &fakeEngine{count: 4, ok: true}, nil, nil)

	dotted, err := resolver.Resolve(context.Background(), "demo", "1.34")
	if err != nil {
		t.Fatalf("resolve 1.34 failed: %v", err)
	}
	underscored, err := resolver.Resolve(context.Background(), "demo", "1_34")
	if err != nil {
		t.Fatalf("resolve 1_34 failed: %v", err)
	}
	hyphenated, err := resolver.Resolve(context.Background(), "demo", "1-34")
	if err != nil {
		t.Fatalf("resolve 1-34 failed: %v", err)
	}

	for _, result := range []*models.ReaderResult{dotted, underscored, hyphenated} {
		if result.MatchedChapter == nil || result.MatchedChapter.ID != "1.34" {
			t.Fatalf("matchedChapter = %+v", result.MatchedChapter)
		}
	}
}

func TestResolveNumericEpsilonMatch(t *testing.T) {
	detail := demoDetail()
	detail.Chapters[0].ID = "005" // exact string match will miss "5"
	detail.Chapters[0].Num = numPtr(5.0000001)
	source := &fakeSource{
		detail: detail,
		pagesByLink: map[string][]string{
			"https://origin.example.com/read/demo/5": twelvePages(),
		},
	}
	resolver := NewResolver(source, &fakeEngine{}, nil, nil)

	result, err := resolver.Resolve(context.Background(), "demo", "5")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if result.MatchedChapter == nil || result.MatchedChapter.ID != "005" {
		t.Fatalf("matchedChapter = %+v", result.MatchedChapter)
	}
}

func TestResolveTitleSubstringMatch(t *testing.T) {
	source := &fakeSource{
		detail: demoDetail(),
		pagesByLink: map[string][]string{
			"https://origin.example.com/read/demo/sp": {"https://origin.example.com/img/sp1.jpg"},
		},
	}
	resolver := NewResolver(source, &fakeEngine{}, nil, nil)

	result, err := resolver.Resolve(context.Background(), "demo", "special")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if result.MatchedChapter == nil || result.MatchedChapter.ID != "special" {
		t.Fatalf("matchedChapter = %+v", result.MatchedChapter)
	}
}

func TestResolveFallbackDiscovered(t *testing.T) {
	// Chapter 99 is absent from the list; discovery reports 8 pages.
	source := &fakeSource{detail: demoDetail()}
	resolver := NewResolver(source, &fakeEngine{count: 8, ok: true}, nil, nil)

	result, err := resolver.Resolve(context.Background(), "demo", "99")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	if result.Method != models.MethodFallbackDiscovered {
		t.Fatalf("method = %q", result.Method)
	}
	if result.PageCount == nil || *result.PageCount != 8 {
		t.Fatalf("pageCount = %v", result.PageCount)
	}
	if len(result.Pages) != 8 {
		t.Fatalf("pages = %d", len(result.Pages))
	}
	if result.MatchedChapter != nil {
		t.Fatalf("matchedChapter should be nil, got %+v", result.MatchedChapter)
	}
}

func TestResolveEmptyExplicitFallsThrough(t *testing.T) {
	// The chapter link exists but its reader page yields nothing.
	source := &fakeSource{detail: demoDetail(), pagesByLink: map[string][]string{}}
	resolver := NewResolver(source, &fakeEngine{count: 8, ok: true}, nil, nil)

	result, err := resolver.Resolve(context.Background(), "demo", "5")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if result.Method != models.MethodFallbackDiscovered {
		t.Fatalf("method = %q", result.Method)
	}
	if result.MatchedChapter == nil || result.MatchedChapter.ID != "5" {
		t.Fatalf("matchedChapter = %+v", result.MatchedChapter)
	}
}

func TestResolveFallbackGuess(t *testing.T) {
	source := &fakeSource{detail: demoDetail()}
	resolver := NewResolver(source, &fakeEngine{ok: false}, nil, nil)

	result, err := resolver.Resolve(context.Background(), "demo", "99")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	if result.Method != models.MethodFallbackGuess {
		t.Fatalf("method = %q", result.Method)
	}
	if result.PageCount != nil {
		t.Fatalf("guess must not claim a verified pageCount, got %v", result.PageCount)
	}
	if len(result.Pages) != guessPageCount {
		t.Fatalf("pages = %d, want %d", len(result.Pages), guessPageCount)
	}
}

func TestResolveNoLinkNoUIDFails(t *testing.T) {
	detail := demoDetail()
	detail.InternalID = nil
	source := &fakeSource{detail: detail}
	resolver := NewResolver(source, &fakeEngine{count: 8, ok: true}, nil, nil)

	_, err := resolver.Resolve(context.Background(), "demo", "99")
	var resolutionErr *ResolutionError
	if !errors.As(err, &resolutionErr) {
		t.Fatalf("expected *ResolutionError, got %v", err)
	}
}

func TestResolveDetailErrorPropagates(t *testing.T) {
	source := &fakeSource{detailErr: errors.New("origin down")}
	resolver := NewResolver(source, &fakeEngine{}, nil, nil)

	if _, err := resolver.Resolve(context.Background(), "demo", "5"); err == nil {
		t.Fatal("expected detail error to propagate")
	}
}

func TestResolveUsesCache(t *testing.T) {
	source := &fakeSource{
		detail: demoDetail(),
		pagesByLink: map[string][]string{
			"https://origin.example.com/read/demo/5": twelvePages(),
		},
	}
	store := newMemoryCache()
	resolver := NewResolver(source, &fakeEngine{}, store, nil)

	first, err := resolver.Resolve(context.Background(), "demo", "5")
	if err != nil {
		t.Fatalf("first resolve failed: %v", err)
	}
	second, err := resolver.Resolve(context.Background(), "demo", "5")
	if err != nil {
		t.Fatalf("second resolve failed: %v", err)
	}

	if store.puts != 1 {
		t.Fatalf("puts = %d, want 1", store.puts)
	}
	if source.readerCalls != 1 {
		t.Fatalf("readerCalls = %d, want 1 (second hit served from cache)", source.readerCalls)
	}
	if first.Method != second.Method || len(first.Pages) != len(second.Pages) {
		t.Fatal("cached result diverged from the original")
	}
}

func TestResolveIdempotent(t *testing.T) {
	source := &fakeSource{
		detail: demoDetail(),
		pagesByLink: map[string][]string{
			"https://origin.example.com/read/demo/5": twelvePages(),
		},
	}
	resolver := NewResolver(source, &fakeEngine{}, nil, nil)

	first, err := resolver.Resolve(context.Background(), "demo", "5")
	if err != nil {
		t.Fatalf("first resolve failed: %v", err)
	}
	second, err := resolver.Resolve(context.Background(), "demo", "5")
	if err != nil {
		t.Fatalf("second resolve failed: %v", err)
	}

	if first.Method != second.Method {
		t.Fatalf("methods diverged: %q vs %q", first.Method, second.Method)
	}
	for index := range first.Pages {
		if first.Pages[index] != second.Pages[index] {
			t.Fatalf("page order diverged at %d", index)
		}
	}
}
