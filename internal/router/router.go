// Package router registers the HTTP API on an Echo instance.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/Ashwinpatel7/Eazyvenue/internal/handler"
)

// Middlewares groups the Redis-backed middleware applied to the API. Nil
// fields are skipped.
type Middlewares struct {
	// Cache serves repeated venue reads.
	Cache echo.MiddlewareFunc
	// Invalidate purges cached reads after a successful write.
	Invalidate echo.MiddlewareFunc
	// RateLimit throttles writes per client.
	RateLimit echo.MiddlewareFunc
}

func (m Middlewares) reads() []echo.MiddlewareFunc {
	return compact(m.Cache)
}

// writes limits first so rejected requests never purge the cache.
func (m Middlewares) writes() []echo.MiddlewareFunc {
	return compact(m.RateLimit, m.Invalidate)
}

func compact(mws ...echo.MiddlewareFunc) []echo.MiddlewareFunc {
	out := make([]echo.MiddlewareFunc, 0, len(mws))
	for _, mw := range mws {
		if mw != nil {
			out = append(out, mw)
		}
	}
	return out
}

// RegisterRoutes registers routes that carry no domain state. Currently it
// exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}
