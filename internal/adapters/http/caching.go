package http

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// cacheControlFor picks the Cache-Control value for a GET path.
func cacheControlFor(path string) string {
	switch {
	case path == "/v1/health" || path == "/v1/ready":
		return "no-cache"
	case path == "/metrics", path == "/graphql", path == "/ws":
		return "no-store"
	case strings.HasSuffix(path, "/icon"):
		return "public, max-age=86400" // icon locations never change
	case strings.HasPrefix(path, "/v1/sightings/window"):
		return "public, max-age=15"
	case strings.HasPrefix(path, "/v1/sightings/"):
		return "public, max-age=600" // detail records, same as the detail cache TTL
	case path == "/v1/sightings":
		return "public, max-age=15" // sightings move quickly
	case path == "/" || strings.HasPrefix(path, "/docs"):
		return "public, max-age=300"
	}
	return ""
}

// CachingMiddleware sets Cache-Control on GET responses the handler left
// alone and tags successful bodies with a weak ETag, answering 304 when the
// client already has it.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		if err != nil || c.Method() != fiber.MethodGet {
			return err
		}

		if c.GetRespHeader(fiber.HeaderCacheControl) == "" {
			if ttl := cacheControlFor(c.Path()); ttl != "" {
				c.Set(fiber.HeaderCacheControl, ttl)
			}
		}

		if c.Response().StatusCode() != fiber.StatusOK {
			return nil
		}
		body := c.Response().Body()
		if len(body) == 0 {
			return nil
		}

		h := sha256.Sum256(body)
		etag := `W/"` + hex.EncodeToString(h[:8]) + `"`
		c.Set(fiber.HeaderETag, etag)

		if c.Get(fiber.HeaderIfNoneMatch) == etag {
			c.Status(fiber.StatusNotModified)
			c.Response().ResetBody()
		}
		return nil
	}
}
