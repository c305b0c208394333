package response

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/swing-festival-finder/internal/apperr"
)

// ErrorHandler returns an echo.HTTPErrorHandler that renders errors with
// the envelope. Internal failures are logged and replaced by a generic
// message so no database or driver detail reaches the client.
func ErrorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status, msg := classify(err)
		if status >= http.StatusInternalServerError {
			log.Error("request failed",
				zap.Error(err),
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)
		}
		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(status)
		} else {
			werr = c.JSON(status, Failure(msg))
		}
		if werr != nil {
			log.Warn("write error response", zap.Error(werr))
		}
	}
}

func classify(err error) (int, string) {
	if e, ok := apperr.As(err); ok {
		return e.Kind.Status(), e.Public()
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Code >= http.StatusInternalServerError {
			return he.Code, "internal server error"
		}
		return he.Code, fmt.Sprint(he.Message)
	}
	return http.StatusInternalServerError, "internal server error"
}
