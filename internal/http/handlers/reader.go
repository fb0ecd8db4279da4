package handlers

import (
	"github.com/andrei/mangabridge/internal/resolve"
	"github.com/gofiber/fiber/v2"
)

type ReaderHandler struct {
	resolver *resolve.Resolver
}

func NewReaderHandler(resolver *resolve.Resolver) *ReaderHandler {
	return &ReaderHandler{resolver: resolver}
}

func (h *ReaderHandler) Get(c *fiber.Ctx) error {
	result, err := h.resolver.Resolve(c.Context(), c.Params("slug"), c.Params("chapter"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}
