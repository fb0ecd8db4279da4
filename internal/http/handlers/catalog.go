package handlers

import (
	"github.com/andrei/mangabridge/internal/source"
	"github.com/gofiber/fiber/v2"
)

const maxGenrePages = 5

type CatalogHandler struct {
	site *source.Site
}

func NewCatalogHandler(site *source.Site) *CatalogHandler {
	return &CatalogHandler{site: site}
}

func (h *CatalogHandler) Home(c *fiber.Ctx) error {
	home, err := h.site.Home(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(home)
}

func (h *CatalogHandler) Genre(c *fiber.Ctx) error {
	genre := c.Params("genre")
	if genre == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "genre is required"})
	}

	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	pages := c.QueryInt("pages", 1)
	if pages < 1 {
		pages = 1
	}
	if pages > maxGenrePages {
		pages = maxGenrePages
	}

	listing, err := h.site.Genre(c.Context(), genre, page, pages)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"genre": genre, "pages": listing})
}
