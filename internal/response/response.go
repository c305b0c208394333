// Package response implements the uniform JSON envelope returned by every
// API endpoint and the echo error handler that renders failures with it.
package response

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/swing-festival-finder/internal/pagination"
)

// TimestampLayout is ISO-8601 UTC with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Envelope wraps every response body.
type Envelope[T any] struct {
	Data      T      `json:"data"`
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
	Timestamp string `json:"timestamp"`
}

func timestamp() string {
	return time.Now().UTC().Format(TimestampLayout)
}

// Success builds a successful envelope around data.
func Success[T any](data T, message string) Envelope[T] {
	return Envelope[T]{Data: data, Success: true, Message: message, Timestamp: timestamp()}
}

// Failure builds an error envelope. Data is rendered as null.
func Failure(errMsg string) Envelope[any] {
	return Envelope[any]{Success: false, Error: errMsg, Timestamp: timestamp()}
}

// OK writes a 200 envelope.
func OK[T any](c echo.Context, data T) error {
	return c.JSON(http.StatusOK, Success(data, ""))
}

// Created writes a 201 envelope with a message.
func Created[T any](c echo.Context, data T, message string) error {
	return c.JSON(http.StatusCreated, Success(data, message))
}

// Page is the body of every list endpoint: the items under a
// resource-specific key plus pagination metadata.
func Page(key string, items any, meta pagination.Meta) map[string]any {
	return map[string]any{key: items, "pagination": meta}
}

// Restamp replaces the timestamp of an encoded envelope with the current
// time. Bodies that are not an envelope are returned unchanged.
func Restamp(body []byte) []byte {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return body
	}
	if _, ok := fields["timestamp"]; !ok {
		return body
	}
	ts, err := json.Marshal(timestamp())
	if err != nil {
		return body
	}
	fields["timestamp"] = ts
	out, err := json.Marshal(fields)
	if err != nil {
		return body
	}
	return out
}
