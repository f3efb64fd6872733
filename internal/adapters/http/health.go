package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/pokemap/internal/adapters/valkey"
)

// HealthHandler returns a basic liveness check.
func HealthHandler(deps *Dependencies) fiber.Handler {
	startedAt := time.Now()

	return func(c *fiber.Ctx) error {
		sessions := 0
		if deps.Sessions != nil {
			sessions = deps.Sessions.Len()
		}
		return c.JSON(fiber.Map{
			"status":   "healthy",
			"uptime":   time.Since(startedAt).String(),
			"version":  "dev",
			"sessions": sessions,
		})
	}
}

// ReadyHandler checks the data API breaker, NATS and cache connectivity.
// NATS and the cache are optional; only a broken configured dependency or an
// open breaker fails readiness.
func ReadyHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
		defer cancel()

		checks := make(map[string]string)
		allOK := true

		// Data API
		if deps.Breaker != nil {
			state := deps.Breaker.State()
			checks["data_api"] = state
			if state == "open" {
				allOK = false
			}
		} else {
			checks["data_api"] = "unguarded"
		}

		// NATS
		if deps.NATS != nil {
			if deps.NATS.IsConnected() {
				checks["nats"] = "ok"
			} else {
				checks["nats"] = "disconnected"
				allOK = false
			}
		} else {
			checks["nats"] = "not configured"
		}

		// Valkey cache
		if deps.Cache != nil {
			_, err := deps.Cache.Get(ctx, "__health_check__")
			if err != nil && !valkey.IsMiss(err) {
				checks["cache"] = "error: " + err.Error()
				allOK = false
			} else {
				checks["cache"] = "ok"
			}
		} else {
			checks["cache"] = "not configured"
		}

		status := "ready"
		code := 200
		if !allOK {
			status = "not ready"
			code = 503
		}

		return c.Status(code).JSON(fiber.Map{
			"status": status,
			"checks": checks,
		})
	}
}
