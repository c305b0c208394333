package middleware

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/swing-festival-finder/internal/apperr"
	"github.com/iliyamo/swing-festival-finder/internal/model"
)

const sessionKey = "session"

// SessionParser validates an access token.
type SessionParser interface {
	Parse(raw string) (model.Session, error)
}

// BearerToken returns the token of an "Authorization: Bearer" header.
func BearerToken(c echo.Context) (string, bool) {
	h := c.Request().Header.Get(echo.HeaderAuthorization)
	if len(h) < 7 || !strings.EqualFold(h[:7], "Bearer ") {
		return "", false
	}
	raw := strings.TrimSpace(h[7:])
	return raw, raw != ""
}

// RequireAuth rejects requests without a valid access token and stores
// the session for handlers.
func RequireAuth(p SessionParser) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := BearerToken(c)
			if !ok {
				return apperr.Unauthorized("missing bearer token")
			}
			s, err := p.Parse(raw)
			if err != nil {
				return apperr.Unauthorized("invalid token")
			}
			c.Set(sessionKey, s)
			return next(c)
		}
	}
}

// OptionalAuth attaches the session when a valid token is present and
// otherwise lets the request through anonymously.
func OptionalAuth(p SessionParser) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if raw, ok := BearerToken(c); ok {
				if s, err := p.Parse(raw); err == nil {
					c.Set(sessionKey, s)
				}
			}
			return next(c)
		}
	}
}

// RequireVerified only admits users who confirmed their e-mail. It must
// run after RequireAuth.
func RequireVerified() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			s, ok := SessionFrom(c)
			if !ok {
				return apperr.Unauthorized("missing bearer token")
			}
			if !s.User.Verified {
				return apperr.Forbidden("email address not verified")
			}
			return next(c)
		}
	}
}

// SessionFrom returns the session stored by RequireAuth or OptionalAuth.
func SessionFrom(c echo.Context) (model.Session, bool) {
	s, ok := c.Get(sessionKey).(model.Session)
	return s, ok
}

// userKey identifies the caller for rate limiting.
func userKey(c echo.Context) string {
	if s, ok := SessionFrom(c); ok {
		return strconv.FormatUint(s.User.ID, 10)
	}
	return "anon"
}
