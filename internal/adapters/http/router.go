package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/isstrack/internal/pkg/metrics"
)

const requestTimeout = 15 * time.Second

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New())

	// Propagate request ID into slog context
	app.Use(RequestIDLogMiddleware())

	app.Use(AccessLogMiddleware())

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())

	// Health & readiness (no timeout, fast internal checks)
	app.Get("/health", HealthHandler(deps))
	app.Get("/ready", ReadyHandler(deps))

	// Ephemeris API. A cold cache fetches the feed inside the request, hence the timeout.
	app.Get("/epochs", timeout.NewWithContext(ListEpochsHandler(deps), requestTimeout))
	app.Get("/epochs/:epoch", timeout.NewWithContext(GetEpochHandler(deps), requestTimeout))
	app.Get("/epochs/:epoch/speed", timeout.NewWithContext(EpochSpeedHandler(deps), requestTimeout))
	app.Get("/epochs/:epoch/location", timeout.NewWithContext(EpochLocationHandler(deps), requestTimeout))
	app.Get("/now", timeout.NewWithContext(NowHandler(deps), requestTimeout))
	app.Get("/metadata", timeout.NewWithContext(MetadataHandler(deps), requestTimeout))
	app.Get("/header", timeout.NewWithContext(HeaderHandler(deps), requestTimeout))
	app.Get("/comment", timeout.NewWithContext(CommentsHandler(deps), requestTimeout))

	app.Post("/graphql", GraphQLHandler(deps))

	// API documentation (Swagger UI)
	SetupDocs(app)

	if deps.NATS != nil {
		app.Use("/ws", func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		})
		app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
	}
}
