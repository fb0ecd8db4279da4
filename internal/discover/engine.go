package discover

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// MaxPages caps the exponential probe. A chapter longer than this saturates
// to the cap instead of probing forever.
const MaxPages = 2000

type Prober interface {
	Exists(ctx context.Context, endpoint string) bool
}

// Engine reconstructs how many sequentially numbered pages a chapter has on
// the image CDN. Correctness rests on existence being monotonic in the page
// number: pages 1..N respond, N+1.. do not. A host that serves placeholder
// images for out-of-range pages would defeat the probe; that limitation is
// accepted and documented rather than worked around.
type Engine struct {
	prober   Prober
	cdnHost  string
	maxPages int
}

func NewEngine(prober Prober, cdnHost string) *Engine {
	return &Engine{
		prober:   prober,
		cdnHost:  strings.TrimSpace(cdnHost),
		maxPages: MaxPages,
	}
}

// PageURL builds the CDN address of a single page. The manga name keeps its
// spaces as underscores before path escaping; the layout is fixed by the
// image host and must not drift.
func (e *Engine) PageURL(uid string, mangaName string, chapter string, page int) string {
	encodedName := url.PathEscape(strings.ReplaceAll(strings.TrimSpace(mangaName), " ", "_"))
	return fmt.Sprintf("https://%s/users/%s/%s/%s/HD/%d.webp", e.cdnHost, url.PathEscape(uid), encodedName, url.PathEscape(chapter), page)
}

// PageList materializes the ordered page URLs for a known or assumed count.
func (e *Engine) PageList(uid string, mangaName string, chapter string, count int) []string {
	pages := make([]string, 0, count)
	for page := 1; page <= count; page++ {
		pages = append(pages, e.PageURL(uid, mangaName, chapter, page))
	}
	return pages
}

// PageCount finds the exact highest existing page number via exponential
// probing followed by a binary search on the open interval. It fails closed:
// when page 1 itself is absent the pattern cannot be trusted at all and the
// second return is false.
func (e *Engine) PageCount(ctx context.Context, uid string, mangaName string, chapter string) (int, bool) {
	if !e.prober.Exists(ctx, e.PageURL(uid, mangaName, chapter, 1)) {
		return 0, false
	}

	low := 1
	high := 1
	for high < e.maxPages {
		next := high * 2
		if next > e.maxPages {
			next = e.maxPages
		}
		if !e.prober.Exists(ctx, e.PageURL(uid, mangaName, chapter, next)) {
			low = high
			high = next
			break
		}
		low = next
		high = next
	}

	// Saturation: the cap itself still exists, so the true count may be
	// larger. Report the cap rather than an exact boundary.
	if low == high {
		return high, true
	}

	for high-low > 1 {
		mid := low + (high-low)/2
		if e.prober.Exists(ctx, e.PageURL(uid, mangaName, chapter, mid)) {
			low = mid
		} else {
			high = mid
		}
	}

	return low, true
}
