package handlers

import (
	"errors"

	"github.com/andrei/mangabridge/internal/fetch"
	"github.com/andrei/mangabridge/internal/resolve"
	"github.com/andrei/mangabridge/internal/source"
	"github.com/gofiber/fiber/v2"
)

// respondError maps the scraping error taxonomy onto HTTP statuses. A
// ResolutionError deliberately gets its own status so clients can tell
// "the content genuinely is not there" from a transient origin failure.
func respondError(c *fiber.Ctx, err error) error {
	var validationErr *resolve.ValidationError
	if errors.As(err, &validationErr) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": validationErr.Error()})
	}

	var resolutionErr *resolve.ResolutionError
	if errors.As(err, &resolutionErr) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"message": resolutionErr.Error()})
	}

	var fetchErr *fetch.Error
	if errors.As(err, &fetchErr) {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"message": "origin fetch failed"})
	}

	var parseErr *source.ParseError
	if errors.As(err, &parseErr) {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"message": "origin page unrecognized"})
	}

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "internal error"})
}
