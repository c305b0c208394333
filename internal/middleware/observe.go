package middleware

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/swing-festival-finder/internal/metrics"
)

// RequestID reuses a caller supplied X-Request-Id or generates a UUID,
// and echoes it on the response.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get(echo.HeaderXRequestID)
			if id == "" || len(id) > 128 {
				id = uuid.NewString()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, id)
			return next(c)
		}
	}
}

// status resolves the code that will be (or was) written for err.
func status(c echo.Context, err error) int {
	if err != nil && !c.Response().Committed {
		c.Error(err)
	}
	return c.Response().Status
}

// Observe logs every request with zap and records it in m. Errors are
// handed to echo's error handler here so the logged status matches what
// the client receives.
func Observe(log *zap.Logger, m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			code := status(c, err)
			took := time.Since(start)

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			m.ObserveRequest(c.Request().Method, route, code, took)

			fields := []zap.Field{
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
				zap.String("route", route),
				zap.Int("status", code),
				zap.Duration("latency", took),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			}
			switch {
			case code >= 500:
				log.Error("request", fields...)
			case code >= 400:
				log.Warn("request", fields...)
			default:
				log.Info("request", fields...)
			}
			return nil
		}
	}
}
