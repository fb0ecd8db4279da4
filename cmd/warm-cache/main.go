// Command warm-cache prefetches manga details for a list of slugs so the
// first reader request does not pay the scrape cost.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/andrei/mangabridge/internal/cache"
	"github.com/andrei/mangabridge/internal/config"
	"github.com/andrei/mangabridge/internal/database"
	"github.com/andrei/mangabridge/internal/fetch"
	"github.com/andrei/mangabridge/internal/source"
)

func main() {
	var timeoutSeconds int
	flag.IntVar(&timeoutSeconds, "timeout", 30, "Per-slug fetch timeout in seconds.")
	flag.Parse()

	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	slog.SetDefault(slog.New(handler))

	slugs := flag.Args()
	if len(slugs) == 0 {
		slog.Error("usage: warm-cache [-timeout seconds] slug [slug...]")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := database.Open(cfg.SQLitePath)
	if err != nil {
		slog.Error("failed to open sqlite", "path", cfg.SQLitePath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.ApplyMigrations(db); err != nil {
		slog.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	profile := source.DefaultProfile(cfg.SourceBaseURL)
	if cfg.SiteProfilePath != "" {
		profile, err = source.LoadProfile(cfg.SiteProfilePath, cfg.SourceBaseURL)
		if err != nil {
			slog.Error("failed to load site profile", "error", err)
			os.Exit(1)
		}
	}

	site := source.NewSite(profile, fetch.NewClient(time.Duration(cfg.FetchTimeoutSeconds)*time.Second))
	store := cache.NewStore(db, time.Duration(cfg.CacheTTLMinutes)*time.Minute)

	warmed := 0
	for _, slug := range slugs {
		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSeconds)*time.Second)
		detail, fetchErr := site.MangaDetail(ctx, slug)
		cancel()

		if fetchErr != nil {
			slog.Warn("fetch failed", "slug", slug, "error", fetchErr)
			continue
		}
		if err := store.PutMangaDetail(detail); err != nil {
			slog.Warn("cache write failed", "slug", slug, "error", err)
			continue
		}

		slog.Info("cached", "slug", detail.Slug, "title", detail.Title, "chapters", len(detail.Chapters))
		warmed++
	}

	slog.Info("done", "requested", len(slugs), "warmed", warmed)
	if warmed == 0 {
		os.Exit(1)
	}
}
