package gateway

import (
	"github.com/gofiber/fiber/v2"

	"github.com/diavlos/boatzone/internal/pkg/metrics"
)

// Handler binds the router to Fiber as a catch-all for PWA traffic. API
// routes must be registered first; anything unresolved lands here. Bypass
// outcomes fall through to the next handler (404 in practice, since
// cross-origin requests never reach this server's listener).
func Handler(r *Router) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req := Request{
			Method:   c.Method(),
			Host:     c.Hostname(),
			Path:     c.Path(),
			Accept:   c.Get(fiber.HeaderAccept),
			Navigate: c.Get("Sec-Fetch-Mode") == "navigate",
		}

		result := r.Route(c.UserContext(), req)
		metrics.GatewayRequests.WithLabelValues(result.Outcome.String()).Inc()

		if result.Outcome == OutcomeBypass {
			return c.Next()
		}

		res := result.Response
		for key, values := range res.Header {
			for _, v := range values {
				c.Set(key, v)
			}
		}
		if result.Outcome == OutcomeCache || result.Outcome == OutcomeShell {
			c.Set("X-Served-From", "cache")
		}
		return c.Status(res.StatusCode).Send(res.Body)
	}
}
