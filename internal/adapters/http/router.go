package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/pokemap/internal/pkg/metrics"
)

const requestTimeout = 15 * time.Second

// SetupRoutes registers the viewer, REST, GraphQL and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	if deps.Sessions == nil {
		deps.Sessions = NewSessions()
	}

	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	// Response compression (gzip)
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	// Request ID
	app.Use(requestid.New())

	// Propagate request ID into slog context
	app.Use(RequestIDLogMiddleware())

	// Access logs (structured HTTP request logging)
	app.Use(AccessLogMiddleware())

	// Rate limiting: 240 requests per minute per IP. Panning a map is chatty.
	app.Use(limiter.New(limiter.Config{
		Max:        240,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, 429, "rate_limited", "too many requests, please try again later")
		},
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == "/ws"
		},
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	// Cache-Control defaults and weak ETags
	app.Use(CachingMiddleware())

	// Health & readiness (no timeout, fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	// REST API v1
	v1 := app.Group("/v1")
	v1.Get("/sightings", timeout.NewWithContext(ListSightingsHandler(deps), requestTimeout))
	v1.Get("/sightings/window", timeout.NewWithContext(SightingWindowHandler(deps), requestTimeout))
	v1.Get("/sightings/:id", timeout.NewWithContext(GetSightingHandler(deps), requestTimeout))
	v1.Get("/sightings/:id/icon", SightingIconHandler(deps))

	// GraphQL
	app.Post("/graphql", GraphQLHandler(deps))

	// API documentation (Swagger UI)
	SetupDocs(app, deps.DocsPath)

	// Browser map
	app.Get("/", ViewerHandler())

	// WebSocket map sessions
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(MapSessionHandler(deps)))
}
