package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/swing-festival-finder/internal/middleware"
)

// RegisterPublic registers the read-only browse endpoints. Guests and
// signed-in users get the same bodies, so responses are cached in Redis
// after the rate limiter has run. Middleware is attached per route: a
// group-level Use would install a catch-all under /api that shadows the
// member routes.
func RegisterPublic(e *echo.Echo, d Deps) {
	mw := []echo.MiddlewareFunc{
		middleware.OptionalAuth(d.Sessions),
		middleware.RateLimit(d.RateLimit, d.Redis),
		middleware.Cache(d.Cache, d.Redis),
	}
	g := e.Group("/api")

	g.GET("/events", d.Events.List, mw...)
	g.GET("/events/:id", d.Events.Get, mw...)
	g.GET("/events/:id/schema", d.Events.Schema, mw...)

	g.GET("/teachers", d.Teachers.List, mw...)
	g.GET("/teachers/:id", d.Teachers.Get, mw...)
	g.GET("/musicians", d.Musicians.List, mw...)
	g.GET("/musicians/:id", d.Musicians.Get, mw...)

	g.GET("/search", d.Search.Search, mw...)
}
