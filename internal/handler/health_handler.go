package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// Pinger is an interface for health check ping operations.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

// Ping calls f.
func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthHandler handles health check requests.
type HealthHandler struct {
	db    Pinger
	redis Pinger
}

// NewHealthHandler creates a HealthHandler. redis may be nil when realtime events are off.
func NewHealthHandler(db Pinger, redis Pinger) *HealthHandler {
	return &HealthHandler{db: db, redis: redis}
}

// Check pings the database and, when configured, redis.
// The database is required; a redis failure only degrades realtime delivery.
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	if err := h.db.Ping(c.Context()); err != nil {
		log.Error().Err(err).Msg("health check failed: database unreachable")
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "unhealthy",
			"error":  "database connection failed",
		})
	}

	if h.redis != nil {
		if err := h.redis.Ping(c.Context()); err != nil {
			log.Warn().Err(err).Msg("health check: redis unreachable")
			return c.JSON(fiber.Map{"status": "degraded", "redis": "unreachable"})
		}
	}

	return c.JSON(fiber.Map{
		"status": "healthy",
	})
}
