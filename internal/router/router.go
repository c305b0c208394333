// Package router wires handlers and middleware onto an echo instance.
package router

import (
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/swing-festival-finder/internal/config"
	"github.com/iliyamo/swing-festival-finder/internal/handler"
	"github.com/iliyamo/swing-festival-finder/internal/metrics"
	"github.com/iliyamo/swing-festival-finder/internal/middleware"
	"github.com/iliyamo/swing-festival-finder/internal/response"
)

// Deps is everything the routes need. Redis may be nil, in which case
// caching and rate limiting are disabled.
type Deps struct {
	Log            *zap.Logger
	Metrics        *metrics.Metrics
	Gatherer       prometheus.Gatherer
	Redis          *redis.Client
	Cache          config.CacheConfig
	RateLimit      config.RateLimitConfig
	RequestTimeout time.Duration
	Sessions       middleware.SessionParser

	Events        *handler.EventHandler
	Teachers      *handler.PerformerHandler
	Musicians     *handler.PerformerHandler
	Search        *handler.SearchHandler
	Auth          *handler.AuthHandler
	Follows       *handler.FollowHandler
	Notifications *handler.NotificationHandler
}

// New builds the echo instance with global middleware and every route.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = response.ErrorHandler(d.Log)

	e.Use(middleware.RequestID())
	e.Use(middleware.Observe(d.Log, d.Metrics))
	e.Use(echomw.Recover())
	e.Use(echomw.BodyLimit("1M"))
	if d.RequestTimeout > 0 {
		e.Use(echomw.ContextTimeout(d.RequestTimeout))
	}

	RegisterRoutes(e, d.Gatherer)
	RegisterPublic(e, d)
	RegisterAuth(e, d)
	RegisterMember(e, d)
	return e
}

// RegisterRoutes registers the operational endpoints: the health check
// used by load balancers and the Prometheus scrape endpoint.
func RegisterRoutes(e *echo.Echo, g prometheus.Gatherer) {
	e.GET("/healthz", handler.Health)
	if g != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(g, promhttp.HandlerOpts{})))
	}
}

// RegisterAuth registers /api/auth. The session route reads an optional
// bearer token and is never cached.
func RegisterAuth(e *echo.Echo, d Deps) {
	g := e.Group("/api/auth", middleware.RateLimit(d.RateLimit, d.Redis))
	g.POST("/register", d.Auth.Register)
	g.POST("/login", d.Auth.Login)
	g.POST("/refresh", d.Auth.Refresh)
	g.POST("/logout", d.Auth.Logout)
	g.POST("/verify", d.Auth.Verify)
	g.GET("/session", d.Auth.Session, middleware.OptionalAuth(d.Sessions))
}
