package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/swing-festival-finder/internal/apperr"
	"github.com/iliyamo/swing-festival-finder/internal/pagination"
)

type festival struct {
	Name   string   `json:"name"`
	Styles []string `json:"styles"`
	Days   int      `json:"days"`
}

func TestSuccessRoundTrip(t *testing.T) {
	in := []festival{
		{Name: "Herräng Dance Camp", Styles: []string{"lindy hop", "solo jazz"}, Days: 35},
		{Name: "Blues Shout", Styles: []string{"blues"}, Days: 3},
	}
	raw, err := json.Marshal(Success(in, "ok"))
	require.NoError(t, err)

	var out Envelope[[]festival]
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, in, out.Data)
	assert.True(t, out.Success)
	assert.Equal(t, "ok", out.Message)
	assert.Empty(t, out.Error)

	ts, err := time.Parse(time.RFC3339Nano, out.Timestamp)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), ts, time.Minute)
}

func TestFailureHasNullData(t *testing.T) {
	raw, err := json.Marshal(Failure("event not found"))
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.Nil(t, m["data"])
	assert.Contains(t, m, "data")
	assert.Equal(t, false, m["success"])
	assert.Equal(t, "event not found", m["error"])
	assert.NotContains(t, m, "message")
}

func TestRestamp(t *testing.T) {
	old := []byte(`{"data":{"id":1},"success":true,"timestamp":"2020-01-01T00:00:00.000Z"}`)
	var out Envelope[map[string]int]
	require.NoError(t, json.Unmarshal(Restamp(old), &out))
	assert.Equal(t, map[string]int{"id": 1}, out.Data)
	assert.True(t, out.Success)
	ts, err := time.Parse(time.RFC3339Nano, out.Timestamp)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), ts, time.Minute)

	for _, raw := range []string{`plain text`, `{"data":1}`, `[1,2]`} {
		assert.Equal(t, raw, string(Restamp([]byte(raw))))
	}
}

func TestPageBody(t *testing.T) {
	body := Page("events", []string{"a"}, pagination.Calculate(1, 1, 10))
	assert.Equal(t, []string{"a"}, body["events"])
	assert.Equal(t, 1, body["pagination"].(pagination.Meta).TotalPages)
}

func serveError(t *testing.T, err error) (*httptest.ResponseRecorder, Envelope[any]) {
	t.Helper()
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler(zap.NewNop())
	e.GET("/x", func(c echo.Context) error { return err })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

	var env Envelope[any]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env
}

func TestErrorHandlerValidation(t *testing.T) {
	rec, env := serveError(t, apperr.Validation("page", "must be a positive integer"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "page: must be a positive integer", env.Error)
}

func TestErrorHandlerHidesInternalDetail(t *testing.T) {
	rec, env := serveError(t, errors.New("Error 1146: Table 'finder.events' doesn't exist"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal server error", env.Error)
	assert.NotContains(t, rec.Body.String(), "1146")
}

func TestErrorHandlerKeepsEchoStatus(t *testing.T) {
	rec, env := serveError(t, echo.NewHTTPError(http.StatusMethodNotAllowed, "Method Not Allowed"))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "Method Not Allowed", env.Error)
}

func TestErrorHandlerUnknownRoute(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler(zap.NewNop())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var env Envelope[any]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.False(t, env.Success)
}
