package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CachingMiddleware sets Cache-Control on successful GET responses that the
// handler left alone. A state vector never changes once published, so epoch
// lookups cache longer than the collection listing. Locations are the
// exception: their geoposition comes from a live geocoder and may be a
// temporary "Unknown", so clients revalidate against the ETag.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		if c.Method() != fiber.MethodGet || c.Response().StatusCode() != fiber.StatusOK {
			return err
		}
		if existing := c.Response().Header.Peek(fiber.HeaderCacheControl); len(existing) > 0 {
			return err
		}

		path := c.Path()
		var ttl string

		switch {
		case path == "/health" || path == "/ready":
			ttl = "no-cache"

		case path == "/metrics":
			ttl = "no-cache"

		case strings.HasPrefix(path, "/epochs/") && strings.HasSuffix(path, "/location"):
			ttl = "no-cache"

		case strings.HasPrefix(path, "/epochs/"):
			ttl = "public, max-age=3600"

		case path == "/epochs":
			ttl = "public, max-age=300"

		case path == "/metadata" || path == "/header" || path == "/comment":
			ttl = "public, max-age=3600"

		case strings.HasPrefix(path, "/docs"):
			ttl = "public, max-age=86400"
		}

		if ttl != "" {
			c.Set(fiber.HeaderCacheControl, ttl)
		}

		return err
	}
}
