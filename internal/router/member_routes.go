package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/swing-festival-finder/internal/middleware"
)

// RegisterMember registers endpoints that need a signed-in user. Event
// submission additionally requires a verified e-mail address.
func RegisterMember(e *echo.Echo, d Deps) {
	mw := []echo.MiddlewareFunc{
		middleware.RequireAuth(d.Sessions),
		middleware.RateLimit(d.RateLimit, d.Redis),
	}
	g := e.Group("/api")

	g.POST("/events", d.Events.Create, append(mw, middleware.RequireVerified())...)

	g.GET("/follows", d.Follows.List, mw...)
	g.POST("/follows", d.Follows.Create, mw...)
	g.DELETE("/follows/:type/:id", d.Follows.Delete, mw...)

	g.GET("/notifications", d.Notifications.List, mw...)
	g.POST("/notifications/read-all", d.Notifications.MarkAllRead, mw...)
	g.POST("/notifications/:id/read", d.Notifications.MarkRead, mw...)
}
