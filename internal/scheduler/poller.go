// Package scheduler keeps the cache warm: every interval it re-scrapes the
// manga details already present in the cache, announces new chapter heads,
// and prunes rows past their TTL.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/andrei/mangabridge/internal/models"
	"github.com/andrei/mangabridge/internal/notifications"
)

type refreshStore interface {
	ListCachedSlugs() ([]string, error)
	GetMangaDetail(slug string) (*models.MangaDetail, error)
	PutMangaDetail(detail *models.MangaDetail) error
	PruneExpired() (int64, error)
}

type detailSource interface {
	MangaDetail(ctx context.Context, slug string) (*models.MangaDetail, error)
}

type Poller struct {
	store    refreshStore
	source   detailSource
	notifier notifications.Notifier
	interval time.Duration
	logger   *slog.Logger
	stopCh   chan struct{}
}

type PollerConfig struct {
	Interval time.Duration
}

func NewPoller(store refreshStore, source detailSource, notifier notifications.Notifier, cfg PollerConfig, logger *slog.Logger) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	if notifier == nil {
		notifier = notifications.NoopNotifier{}
	}

	return &Poller{
		store:    store,
		source:   source,
		notifier: notifier,
		interval: cfg.Interval,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

func (p *Poller) Start(ctx context.Context) {
	p.logger.Info("poller started", "interval", p.interval.String())
	ticker := time.NewTicker(p.interval)
	go func() {
		defer ticker.Stop()
		if err := p.RunOnce(ctx); err != nil {
			p.logger.Warn("poller initial run failed", "error", err)
		}
		for {
			select {
			case <-ctx.Done():
				p.logger.Info("poller stopped")
				close(p.stopCh)
				return
			case <-ticker.C:
				if err := p.RunOnce(ctx); err != nil {
					p.logger.Warn("poller cycle failed", "error", err)
				}
			}
		}
	}()
}

func (p *Poller) StopWait(timeout time.Duration) {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	select {
	case <-p.stopCh:
	case <-time.After(timeout):
	}
}

// RunOnce refreshes every cached manga. Failures are isolated per slug: one
// unreachable detail page must not starve the rest of the cycle.
func (p *Poller) RunOnce(ctx context.Context) error {
	slugs, err := p.store.ListCachedSlugs()
	if err != nil {
		return fmt.Errorf("list cached slugs: %w", err)
	}

	for _, slug := range slugs {
		previous, err := p.store.GetMangaDetail(slug)
		if err != nil {
			p.logger.Warn("read cached detail failed", "slug", slug, "error", err)
		}

		requestCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		fresh, refreshErr := p.source.MangaDetail(requestCtx, slug)
		cancel()

		if refreshErr != nil {
			p.logger.Warn("poll refresh failed", "slug", slug, "error", refreshErr)
			continue
		}

		if head, isNew := newChapterHead(previous, fresh); isNew {
			message := notifications.NewChapter(fresh.Title, slug, head.ID)
			if err := p.notifier.Notify(ctx, message); err != nil {
				p.logger.Warn("chapter notification failed", "slug", slug, "error", err)
			}
		}

		if err := p.store.PutMangaDetail(fresh); err != nil {
			p.logger.Warn("poll cache update failed", "slug", slug, "error", err)
		}
	}

	pruned, err := p.store.PruneExpired()
	if err != nil {
		p.logger.Warn("cache prune failed", "error", err)
	} else if pruned > 0 {
		p.logger.Debug("cache pruned", "rows", pruned)
	}

	return nil
}

// newChapterHead reports whether the freshly scraped chapter list leads with
// a chapter the cached copy did not have. Chapter lists are newest-first.
func newChapterHead(previous *models.MangaDetail, fresh *models.MangaDetail) (*models.Chapter, bool) {
	if fresh == nil || len(fresh.Chapters) == 0 {
		return nil, false
	}
	head := &fresh.Chapters[0]

	if previous == nil || len(previous.Chapters) == 0 {
		return head, false
	}
	previousHead := previous.Chapters[0]

	if head.Num != nil && previousHead.Num != nil {
		return head, *head.Num > *previousHead.Num
	}
	return head, head.ID != previousHead.ID && head.Link != previousHead.Link
}
