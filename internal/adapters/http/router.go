package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/diavlos/boatzone/internal/gateway"
	"github.com/diavlos/boatzone/internal/pkg/metrics"
)

// SetupRoutes registers all REST, GraphQL, and WebSocket routes, with the
// asset gateway as the catch-all for everything the API does not claim.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	// Response compression (gzip)
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed, // Balance speed vs compression ratio
	}))

	// Request ID
	app.Use(requestid.New())

	// Propagate request ID into slog context
	app.Use(RequestIDLogMiddleware())

	// Access logs (structured HTTP request logging)
	app.Use(AccessLogMiddleware())

	// Rate limiting: 240 requests per minute per IP. Position updates at
	// 2/s plus asset fetches fit well under this.
	app.Use(limiter.New(limiter.Config{
		Max:        240,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(429).JSON(fiber.Map{
				"error":   "rate limit exceeded",
				"message": "too many requests, please try again later",
			})
		},
		SkipFailedRequests: false,
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	// ETag for conditional caching
	app.Use(ETagMiddleware())

	// Default Cache-Control headers
	app.Use(CachingMiddleware())

	// Health & readiness (no timeout — fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	// REST API v1 — 15s per-request timeout
	v1 := app.Group("/v1")
	v1.Post("/sessions", timeout.NewWithContext(InitSessionHandler(deps), 15*time.Second))
	v1.Post("/sessions/:sessionID/position", timeout.NewWithContext(UpdatePositionHandler(deps), 15*time.Second))
	v1.Post("/sessions/:sessionID/heartbeat", timeout.NewWithContext(HeartbeatHandler(deps), 15*time.Second))
	v1.Post("/sessions/:sessionID/emergency", timeout.NewWithContext(EmergencyHandler(deps), 15*time.Second))
	v1.Get("/sessions/:sessionID/track", timeout.NewWithContext(SessionTrackHandler(deps), 15*time.Second))
	v1.Get("/sessions/:sessionID/notifications", timeout.NewWithContext(UserNotificationsHandler(deps), 15*time.Second))
	v1.Get("/users/active", timeout.NewWithContext(ActiveUsersHandler(deps), 15*time.Second))
	v1.Get("/zone", ZoneHandler(deps))
	v1.Get("/places", timeout.NewWithContext(ListPlacesHandler(deps), 15*time.Second))
	v1.Get("/places/nearby", timeout.NewWithContext(NearbyPlacesHandler(deps), 15*time.Second))
	v1.Get("/places/:id", timeout.NewWithContext(GetPlaceHandler(deps), 15*time.Second))
	v1.Post("/places", timeout.NewWithContext(UpsertPlaceHandler(deps), 15*time.Second))
	v1.Get("/notifications", timeout.NewWithContext(ListNotificationsHandler(deps), 15*time.Second))
	v1.Post("/notifications", timeout.NewWithContext(BroadcastNotificationHandler(deps), 15*time.Second))
	v1.Post("/notifications/:id/read", timeout.NewWithContext(MarkNotificationReadHandler(deps), 15*time.Second))
	v1.Get("/push/key", VAPIDKeyHandler(deps))
	v1.Post("/push/subscriptions", timeout.NewWithContext(SubscribePushHandler(deps), 15*time.Second))
	v1.Delete("/push/subscriptions", timeout.NewWithContext(UnsubscribePushHandler(deps), 15*time.Second))
	v1.Get("/stats", timeout.NewWithContext(StatsHandler(deps), 15*time.Second))

	// GraphQL
	app.Post("/graphql", GraphQLHandler(deps))

	// API documentation (Swagger UI)
	SetupDocs(app)

	// WebSocket
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))

	// Asset gateway: every path the API does not own is routed through the
	// cache-aware gateway in front of the app shell.
	if deps.Gateway != nil {
		app.Use(gateway.Handler(deps.Gateway))
	}
}
