package models

import "sort"

const (
	MethodExplicit           = "explicit"
	MethodFallbackDiscovered = "fallback-discovered"
	MethodFallbackGuess      = "fallback-guess"
)

// Chapter is one entry of a manga's chapter list. ID is the chapter
// identifier as it appears on the source ("1.34" style decimals included);
// Num is its parsed numeric value, nil when the identifier is not numeric.
// Link is the absolute reader URL and acts as the dedup key.
type Chapter struct {
	ID         string   `json:"chapterId"`
	Num        *float64 `json:"chapterNum,omitempty"`
	InternalID string   `json:"internalId,omitempty"`
	Title      string   `json:"title"`
	Link       string   `json:"link"`
}

type MangaDetail struct {
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Cover       *string   `json:"cover"`
	Genres      []string  `json:"genres"`
	InternalID  *string   `json:"internalId,omitempty"`
	Chapters    []Chapter `json:"chapters"`
}

// ReaderResult is the outcome of resolving one chapter to an ordered page
// list. PageCount is set only when the count was observed (explicit
// extraction or a verified discovery), never for a guess.
type ReaderResult struct {
	Method         string   `json:"method"`
	Pages          []string `json:"pages"`
	PageCount      *int     `json:"pageCount,omitempty"`
	MatchedChapter *Chapter `json:"matchedChapter,omitempty"`
}

type CatalogEntry struct {
	Slug          string  `json:"slug"`
	Title         string  `json:"title"`
	Cover         *string `json:"cover,omitempty"`
	LatestChapter *string `json:"latestChapter,omitempty"`
}

type HomePage struct {
	Featured []CatalogEntry `json:"featured"`
	Latest   []CatalogEntry `json:"latest"`
}

type CatalogPage struct {
	Genre   string         `json:"genre,omitempty"`
	Page    int            `json:"page"`
	Entries []CatalogEntry `json:"entries"`
}

// SortChapters orders newest first: descending numeric value, chapters
// without a numeric value last, equal values broken by descending
// lexicographic ID.
func SortChapters(chapters []Chapter) {
	sort.SliceStable(chapters, func(i, j int) bool {
		left, right := chapters[i], chapters[j]
		switch {
		case left.Num != nil && right.Num != nil:
			if *left.Num != *right.Num {
				return *left.Num > *right.Num
			}
			return left.ID > right.ID
		case left.Num != nil:
			return true
		case right.Num != nil:
			return false
		default:
			return left.ID > right.ID
		}
	})
}
