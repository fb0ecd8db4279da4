// Command prune-cache deletes cache rows past their TTL. Meant for cron on
// deployments that keep polling disabled.
package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/andrei/mangabridge/internal/cache"
	"github.com/andrei/mangabridge/internal/config"
	"github.com/andrei/mangabridge/internal/database"
)

func main() {
	var ttlMinutes int
	flag.IntVar(&ttlMinutes, "ttl", 0, "Override TTL in minutes. Zero uses CACHE_TTL_MINUTES from the environment.")
	flag.Parse()

	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	slog.SetDefault(slog.New(handler))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if ttlMinutes <= 0 {
		ttlMinutes = cfg.CacheTTLMinutes
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

	store := cache.NewStore(db, time.Duration(ttlMinutes)*time.Minute)
	pruned, err := store.PruneExpired()
	if err != nil {
		slog.Error("prune failed", "error", err)
		os.Exit(1)
	}

	slog.Info("prune complete", "rows", pruned, "ttlMinutes", ttlMinutes)
}
