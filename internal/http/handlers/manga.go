package handlers

import (
	"log/slog"

	"github.com/andrei/mangabridge/internal/cache"
	"github.com/andrei/mangabridge/internal/models"
	"github.com/andrei/mangabridge/internal/source"
	"github.com/andrei/mangabridge/internal/textutil"
	"github.com/gofiber/fiber/v2"
)

type MangaHandler struct {
	site  *source.Site
	store *cache.Store
}

// NewMangaHandler serves manga detail pages; store may be nil to disable
// caching.
func NewMangaHandler(site *source.Site, store *cache.Store) *MangaHandler {
	return &MangaHandler{site: site, store: store}
}

func (h *MangaHandler) Get(c *fiber.Ctx) error {
	slug := textutil.SanitizeSlug(c.Params("slug"))
	if slug == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "slug is required"})
	}

	if cached := h.cachedDetail(slug); cached != nil {
		return c.JSON(cached)
	}

	detail, err := h.site.MangaDetail(c.Context(), slug)
	if err != nil {
		return respondError(c, err)
	}

	if h.store != nil {
		if err := h.store.PutMangaDetail(detail); err != nil {
			slog.Warn("manga cache write failed", "slug", slug, "error", err)
		}
	}

	return c.JSON(detail)
}

func (h *MangaHandler) cachedDetail(slug string) *models.MangaDetail {
	if h.store == nil {
		return nil
	}
	detail, err := h.store.GetMangaDetail(slug)
	if err != nil {
		slog.Warn("manga cache read failed", "slug", slug, "error", err)
		return nil
	}
	return detail
}
