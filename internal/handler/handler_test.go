package handler

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/swing-festival-finder/internal/auth"
	"github.com/iliyamo/swing-festival-finder/internal/middleware"
	"github.com/iliyamo/swing-festival-finder/internal/model"
	"github.com/iliyamo/swing-festival-finder/internal/response"
)

var issuer = auth.NewIssuer("handler-test-secret", time.Hour)

func newEcho() *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = response.ErrorHandler(zap.NewNop())
	return e
}

var requireAuth = middleware.RequireAuth(issuer)

func tokenFor(t *testing.T, id uint64, verified bool) string {
	t.Helper()
	tok, err := issuer.Issue(model.SessionUser{ID: id, Email: "user@example.com", Verified: verified})
	require.NoError(t, err)
	return tok.Token
}

func call(e *echo.Echo, method, target, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Data    json.RawMessage `json:"data"`
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, data any) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

type published struct {
	queue string
	msg   any
}

type fakePublisher struct {
	mu   sync.Mutex
	sent []published
	err  error
}

func (p *fakePublisher) Publish(_ context.Context, queue string, msg any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, published{queue, msg})
	return p.err
}
