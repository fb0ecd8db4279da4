package http

import (
	"database/sql"

	"github.com/andrei/mangabridge/internal/cache"
	"github.com/andrei/mangabridge/internal/config"
	"github.com/andrei/mangabridge/internal/http/handlers"
	"github.com/andrei/mangabridge/internal/resolve"
	"github.com/andrei/mangabridge/internal/source"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func NewServer(cfg config.Config, db *sql.DB, site *source.Site, resolver *resolve.Resolver, store *cache.Store) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: cfg.AppName,
	})

	app.Use(recover.New())

	health := handlers.NewHealthHandler(db)
	catalog := handlers.NewCatalogHandler(site)
	manga := handlers.NewMangaHandler(site, store)
	reader := handlers.NewReaderHandler(resolver)

	// Health stays outside the secret gate so probes work unauthenticated.
	app.Get("/health", health.Check)
	app.Get("/v1/health", health.Check)

	v1 := app.Group("/v1", apiKeyGate(cfg.APISecret))
	v1.Get("/home", catalog.Home)
	v1.Get("/genres/:genre", catalog.Genre)
	v1.Get("/manga/:slug", manga.Get)
	v1.Get("/manga/:slug/chapters/:chapter", reader.Get)

	return app
}

// apiKeyGate is the static shared-secret gate: with no secret configured the
// API is open, otherwise every gated route requires the matching header.
func apiKeyGate(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if secret == "" {
			return c.Next()
		}
		if c.Get("X-Api-Key") != secret {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "invalid api key"})
		}
		return c.Next()
	}
}
