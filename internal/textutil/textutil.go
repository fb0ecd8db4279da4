package textutil

import (
	"html"
	"regexp"
	"strconv"
	"strings"
)

var (
	slugSegmentPattern = regexp.MustCompile(`[A-Za-z0-9_-]+`)
	htmlTagPattern     = regexp.MustCompile(`(?is)<[^>]+>`)
	// Includes unicode spaces: entity unescaping turns &nbsp; into U+00A0,
	// which `\s` alone does not match.
	whitespacePattern = regexp.MustCompile(`[\s\p{Zs}]+`)
)

var chapterTokenReplacer = strings.NewReplacer("_", ".", "-", ".")

// SanitizeSlug reduces raw user or anchor input to the character class the
// source site accepts in manga paths. Runs of disallowed characters collapse
// into a single hyphen.
func SanitizeSlug(raw string) string {
	segments := slugSegmentPattern.FindAllString(strings.TrimSpace(raw), -1)
	return strings.Join(segments, "-")
}

// NormalizeChapterToken folds underscore and hyphen separators into dots so
// "1_34", "1-34" and "1.34" all name the same chapter.
func NormalizeChapterToken(raw string) string {
	return chapterTokenReplacer.Replace(strings.TrimSpace(raw))
}

// ParseChapterValue parses a normalized chapter token into its numeric value.
func ParseChapterValue(token string) (float64, bool) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

func PrettifySlug(slug string) string {
	trimmed := strings.TrimSpace(slug)
	if trimmed == "" {
		return "Untitled"
	}

	trimmed = strings.ReplaceAll(trimmed, "-", " ")
	trimmed = strings.ReplaceAll(trimmed, "_", " ")
	parts := strings.Fields(trimmed)
	for index := range parts {
		if len(parts[index]) == 0 {
			continue
		}
		parts[index] = strings.ToUpper(parts[index][:1]) + parts[index][1:]
	}
	return strings.Join(parts, " ")
}

func CleanText(raw string) string {
	text := htmlTagPattern.ReplaceAllString(raw, " ")
	text = html.UnescapeString(text)
	text = whitespacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
