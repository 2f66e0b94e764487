package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/mlopezgez/group-habits-tracking/internal/metrics"
)

// Healthz reports whether the database answers a ping.
//
// Route: GET /healthz
func (h *Handler) Healthz(c *fiber.Ctx) error {
	if !h.healthy(c.UserContext()) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status":   "unavailable",
			"database": "down",
		})
	}
	return c.JSON(fiber.Map{"status": "ok", "database": "up"})
}

// Metrics exposes the Prometheus registry.
//
// Route: GET /metrics
func (h *Handler) Metrics() fiber.Handler {
	return adaptor.HTTPHandler(metrics.Handler())
}
