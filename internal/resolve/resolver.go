// Package resolve orchestrates chapter resolution: match the requested
// chapter against the scraped chapter list, try explicit page extraction,
// and degrade to CDN pattern reconstruction when the reader page hides its
// images from a non-JS fetch. Trading precision for availability here is the
// system's central design decision.
package resolve

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/andrei/mangabridge/internal/models"
	"github.com/andrei/mangabridge/internal/textutil"
)

const (
	// guessPageCount is the fixed page list length emitted when even the
	// existence probe failed; the result is explicitly flagged unverified.
	guessPageCount = 25

	chapterEpsilon = 1e-6
)

// ValidationError rejects malformed caller input before any remote call.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// ResolutionError is the terminal failure: every strategy ran and none
// produced usable pages. It is distinct from a transport failure so callers
// can tell "genuinely not there" from "origin was down".
type ResolutionError struct {
	Slug    string
	Chapter string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("could not extract pages for %s chapter %s", e.Slug, e.Chapter)
}

type Source interface {
	MangaDetail(ctx context.Context, slug string) (*models.MangaDetail, error)
	ReaderPages(ctx context.Context, readerURL string) ([]string, error)
}

type Discoverer interface {
	PageCount(ctx context.Context, uid string, mangaName string, chapter string) (int, bool)
	PageList(uid string, mangaName string, chapter string, count int) []string
}

// Cache is an optional collaborator; a nil cache disables it. Implementations
// own the TTL policy.
type Cache interface {
	GetReader(slug string, chapterToken string) (*models.ReaderResult, error)
	PutReader(slug string, chapterToken string, result *models.ReaderResult) error
}

type Resolver struct {
	source Source
	engine Discoverer
	cache  Cache
	logger *slog.Logger
}

func NewResolver(source Source, engine Discoverer, cache Cache, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{source: source, engine: engine, cache: cache, logger: logger}
}

// Resolve maps (slug, chapterToken) to an ordered page list.
func (r *Resolver) Resolve(ctx context.Context, slug string, chapterToken string) (*models.ReaderResult, error) {
	slug = textutil.SanitizeSlug(slug)
	token := textutil.NormalizeChapterToken(chapterToken)
	if slug == "" {
		return nil, &ValidationError{Reason: "slug is required"}
	}
	if token == "" {
		return nil, &ValidationError{Reason: "chapter is required"}
	}

	if cached := r.cacheGet(slug, token); cached != nil {
		return cached, nil
	}

	detail, err := r.source.MangaDetail(ctx, slug)
	if err != nil {
		return nil, err
	}

	matched := matchChapter(detail.Chapters, token)

	if matched != nil {
		pages, extractErr := r.source.ReaderPages(ctx, matched.Link)
		if extractErr != nil {
			r.logger.Warn("explicit extraction failed", "slug", slug, "chapter", token, "error", extractErr)
		}
		if len(pages) > 0 {
			count := len(pages)
			result := &models.ReaderResult{
				Method:         models.MethodExplicit,
				Pages:          pages,
				PageCount:      &count,
				MatchedChapter: matched,
			}
			r.cachePut(slug, token, result)
			return result, nil
		}
	}

	uid := ""
	if matched != nil && matched.InternalID != "" {
		uid = matched.InternalID
	} else if detail.InternalID != nil {
		uid = *detail.InternalID
	}
	// No uid means the CDN pattern has no key to build from; guessing a
	// default uid produces plausible-looking dead links, so refuse instead.
	if uid == "" {
		return nil, &ResolutionError{Slug: slug, Chapter: token}
	}

	mangaName := detail.Title
	if strings.TrimSpace(mangaName) == "" {
		mangaName = slug
	}

	result := &models.ReaderResult{MatchedChapter: matched}
	if count, ok := r.engine.PageCount(ctx, uid, mangaName, token); ok {
		result.Method = models.MethodFallbackDiscovered
		result.Pages = r.engine.PageList(uid, mangaName, token, count)
		result.PageCount = &count
	} else {
		result.Method = models.MethodFallbackGuess
		result.Pages = r.engine.PageList(uid, mangaName, token, guessPageCount)
	}

	r.cachePut(slug, token, result)
	return result, nil
}

// matchChapter applies the matching ladder: exact ID, numeric equality
// within epsilon, then substring containment in the display title.
func matchChapter(chapters []models.Chapter, token string) *models.Chapter {
	for index := range chapters {
		if chapters[index].ID == token {
			return &chapters[index]
		}
	}

	if value, ok := textutil.ParseChapterValue(token); ok {
		for index := range chapters {
			if chapters[index].Num != nil && math.Abs(*chapters[index].Num-value) <= chapterEpsilon {
				return &chapters[index]
			}
		}
	}

	for index := range chapters {
		if strings.Contains(chapters[index].Title, token) {
			return &chapters[index]
		}
	}

	return nil
}

func (r *Resolver) cacheGet(slug string, token string) *models.ReaderResult {
	if r.cache == nil {
		return nil
	}
	result, err := r.cache.GetReader(slug, token)
	if err != nil {
		r.logger.Warn("reader cache read failed", "slug", slug, "chapter", token, "error", err)
		return nil
	}
	return result
}

func (r *Resolver) cachePut(slug string, token string, result *models.ReaderResult) {
	if r.cache == nil {
		return
	}
	if err := r.cache.PutReader(slug, token, result); err != nil {
		r.logger.Warn("reader cache write failed", "slug", slug, "chapter", token, "error", err)
	}
}
