package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andrei/mangabridge/internal/cache"
	"github.com/andrei/mangabridge/internal/config"
	"github.com/andrei/mangabridge/internal/database"
	"github.com/andrei/mangabridge/internal/discover"
	"github.com/andrei/mangabridge/internal/fetch"
	apihttp "github.com/andrei/mangabridge/internal/http"
	"github.com/andrei/mangabridge/internal/notifications"
	"github.com/andrei/mangabridge/internal/resolve"
	"github.com/andrei/mangabridge/internal/scheduler"
	"github.com/andrei/mangabridge/internal/source"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})
	logger := slog.New(handler)
	slog.SetDefault(logger)

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
			slog.Error("failed to load site profile", "path", cfg.SiteProfilePath, "error", err)
			os.Exit(1)
		}
	}

	fetcher := fetch.NewClient(time.Duration(cfg.FetchTimeoutSeconds) * time.Second)
	prober := fetch.NewProber(time.Duration(cfg.ProbeTimeoutSeconds) * time.Second)
	site := source.NewSite(profile, fetcher)
	engine := discover.NewEngine(prober, cfg.CDNHost)
	store := cache.NewStore(db, time.Duration(cfg.CacheTTLMinutes)*time.Minute)
	resolver := resolve.NewResolver(site, engine, store, logger)

	app := apihttp.NewServer(cfg, db, site, resolver, store)

	var notifier notifications.Notifier = notifications.NoopNotifier{}
	if cfg.WebhookURL != "" {
		webhook, webhookErr := notifications.NewWebhookNotifier(cfg.WebhookURL)
		if webhookErr != nil {
			slog.Warn("webhook notifier disabled", "error", webhookErr)
		} else {
			notifier = webhook
		}
	}

	pollerCtx, pollerCancel := context.WithCancel(context.Background())
	poller := scheduler.NewPoller(
		store,
		site,
		notifier,
		scheduler.PollerConfig{
			Interval: time.Duration(cfg.PollingMinutes) * time.Minute,
		},
		slog.Default(),
	)
	if cfg.PollingEnabled {
		poller.Start(pollerCtx)
	}

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server stopped", "error", err)
		}
	}()

	slog.Info("api started", "port", cfg.Port, "env", cfg.Environment, "source", cfg.SourceBaseURL)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	slog.Info("shutting down")
	pollerCancel()
	if cfg.PollingEnabled {
		poller.StopWait(3 * time.Second)
	}
	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}
}
