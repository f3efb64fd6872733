package http

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
)

// quietPaths are polled by probes and scrapers; only failures are logged.
var quietPaths = map[string]bool{
	"/metrics":   true,
	"/v1/health": true,
	"/v1/ready":  true,
}

// AccessLogMiddleware logs one structured record per request. 4xx responses
// log at warn, 5xx and handler errors at error.
func AccessLogMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		method, path := c.Method(), c.Path()

		err := c.Next()

		status := c.Response().StatusCode()
		level := slog.LevelInfo
		switch {
		case err != nil || status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		case quietPaths[path]:
			return nil
		}

		attrs := []slog.Attr{
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
			slog.Int("bytes_out", len(c.Response().Body())),
		}
		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
		}

		LoggerFromCtx(c.UserContext()).LogAttrs(c.UserContext(), level, method+" "+path, attrs...)
		return err
	}
}
