package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CachingMiddleware sets Cache-Control headers on GET responses based on endpoint.
// Adds sensible defaults if not already set by the handler.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		// Only set on GET requests
		if c.Method() != "GET" {
			return err
		}

		// Handlers that set their own policy win, e.g. the VAPID key's
		// day-long max-age.
		if existing := c.GetRespHeader(fiber.HeaderCacheControl); existing != "" {
			return err
		}

		path := c.Path()
		var ttl string

		// Default cache times by endpoint pattern
		switch {
		case path == "/v1/health" || path == "/v1/ready":
			ttl = "public, max-age=10" // Very short for system checks

		case path == "/metrics":
			ttl = "no-cache" // Metrics are real-time

		case path == "/graphql":
			ttl = "private, max-age=0" // GraphQL varies wildly

		case path == "/v1/zone":
			ttl = "public, max-age=3600" // The allowed area almost never changes

		case strings.HasPrefix(path, "/v1/places"):
			ttl = "public, max-age=300" // POI catalogue is nearly static

		case strings.HasPrefix(path, "/v1/users/active"):
			ttl = "no-store" // Live positions must never be cached

		case strings.HasPrefix(path, "/v1/sessions/"):
			ttl = "no-store" // Per-session data is live

		case path == "/v1/stats":
			ttl = "public, max-age=60" // Row counts: 1 min

		case strings.HasPrefix(path, "/v1/"):
			ttl = "public, max-age=60" // Conservative default for API endpoints
		}

		if ttl != "" {
			c.Set("Cache-Control", ttl)
		}

		return err
	}
}
