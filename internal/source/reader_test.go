package source

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/andrei/mangabridge/internal/fetch"
)

func TestReaderPagesDirectImagesPreserveOrder(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/read/demo/1", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`
<html><body>
  <img class="chapter-img" src="/pages/a.jpg">
  <img class="chapter-img" data-src="/pages/b.jpg" src="/static/loading.gif">
  <img class="chapter-img" data-lazy-src="/pages/c.jpg,/pages/c-small.jpg">
  <img class="chapter-img" src="/pages/a.jpg">
</body></html>`))
	})

	site, server := newTestSite(t, mux)

	pages, err := site.ReaderPages(context.Background(), server.URL+"/read/demo/1")
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}

	want := []string{
		server.URL + "/pages/a.jpg",
		server.URL + "/pages/b.jpg",
		server.URL + "/pages/c.jpg",
	}
	if len(pages) != len(want) {
		t.Fatalf("pages = %v, want %v", pages, want)
	}
	for index := range want {
		if pages[index] != want[index] {
			t.Fatalf("pages = %v, want %v", pages, want)
		}
	}
}

func TestReaderPagesContainerStrategy(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/read/demo/2", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`
<html><body>
  <div id="divImage">
    <img src="/pages/1.png">
    <img src="/pages/2.png">
  </div>
  <img src="/decor/banner.png">
</body></html>`))
	})

	site, server := newTestSite(t, mux)

	pages, err := site.ReaderPages(context.Background(), server.URL+"/read/demo/2")
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("pages = %v, want the two container images only", pages)
	}
}

func TestReaderPagesNoscriptStrategy(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/read/demo/3", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`
<html><body>
  <div id="app"></div>
  <noscript><img src="/pages/ns1.jpg"><img src="/pages/ns2.jpg"></noscript>
</body></html>`))
	})

	site, server := newTestSite(t, mux)

	pages, err := site.ReaderPages(context.Background(), server.URL+"/read/demo/3")
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("pages = %v, want 2 noscript images", pages)
	}
	if pages[0] != server.URL+"/pages/ns1.jpg" {
		t.Fatalf("pages[0] = %q", pages[0])
	}
}

func TestReaderPagesIframeStrategySingleLevel(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/read/demo/4", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body><iframe src="/embed/demo/4"></iframe></body></html>`))
	})
	mux.HandleFunc("/embed/demo/4", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`
<html><body>
  <img class="chapter-img" src="/pages/f1.webp">
  <img class="chapter-img" src="/pages/f2.webp">
</body></html>`))
	})

	site, server := newTestSite(t, mux)

	pages, err := site.ReaderPages(context.Background(), server.URL+"/read/demo/4")
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("pages = %v, want 2 framed images", pages)
	}
	if pages[0] != server.URL+"/pages/f1.webp" {
		t.Fatalf("pages[0] = %q", pages[0])
	}
}

func TestReaderPagesScriptArrayStrategy(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/read/demo/5", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`
<html><body>
<script>
  var pages = ["https://img.example.com/p1.webp", "https://img.example.com/p2.webp"];
  var junk = ["not", "urls"];
</script>
</body></html>`))
	})

	site, server := newTestSite(t, mux)

	pages, err := site.ReaderPages(context.Background(), server.URL+"/read/demo/5")
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("pages = %v, want 2 script urls", pages)
	}
	if pages[0] != "https://img.example.com/p1.webp" || pages[1] != "https://img.example.com/p2.webp" {
		t.Fatalf("pages = %v", pages)
	}
}

func TestReaderPagesScriptLooseURLStrategy(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/read/demo/6", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`
<html><body>
<script>
  loadPage('https://img.example.com/solo.jpeg');
</script>
</body></html>`))
	})

	site, server := newTestSite(t, mux)

	pages, err := site.ReaderPages(context.Background(), server.URL+"/read/demo/6")
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if len(pages) != 1 || pages[0] != "https://img.example.com/solo.jpeg" {
		t.Fatalf("pages = %v", pages)
	}
}

func TestReaderPagesEmptyIsNotAnError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/read/demo/7", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body><p>rendered by javascript</p></body></html>`))
	})

	site, server := newTestSite(t, mux)

	pages, err := site.ReaderPages(context.Background(), server.URL+"/read/demo/7")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pages) != 0 {
		t.Fatalf("pages = %v, want none", pages)
	}
}

func TestReaderPagesFetchErrorPropagates(t *testing.T) {
	mux := http.NewServeMux()
	site, server := newTestSite(t, mux)

	_, err := site.ReaderPages(context.Background(), server.URL+"/read/missing")
	var fetchErr *fetch.Error
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected *fetch.Error, got %v", err)
	}
}
