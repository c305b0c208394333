// Package handler holds the echo HTTP handlers. Handlers depend on the
// small interfaces declared next to them, return errors instead of writing
// failures themselves, and leave rendering to response.ErrorHandler.
package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/swing-festival-finder/internal/apperr"
	"github.com/iliyamo/swing-festival-finder/internal/middleware"
	"github.com/iliyamo/swing-festival-finder/internal/model"
	"github.com/iliyamo/swing-festival-finder/internal/repository"
)

// storeErr maps repository sentinels to API errors. what names the
// resource in not-found messages.
func storeErr(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return apperr.NotFound(what)
	case errors.Is(err, repository.ErrForbidden):
		return apperr.Forbidden(what + " belongs to another user")
	case errors.Is(err, repository.ErrEmailExists):
		return apperr.Conflict("email already registered")
	case errors.Is(err, repository.ErrSlugExists):
		return apperr.Conflict("an event with this slug already exists")
	case errors.Is(err, repository.ErrAlreadyFollowing):
		return apperr.Conflict("already following")
	case errors.Is(err, repository.ErrUnknownReference):
		return apperr.Validation("body", "references an unknown venue, teacher or musician")
	}
	return apperr.Internal(err)
}

// idParam parses a positive numeric path parameter.
func idParam(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Validation(name, "must be a positive integer")
	}
	return id, nil
}

// idOrSlug splits a path value into a numeric id or a slug.
func idOrSlug(v string) (uint64, string) {
	v = strings.TrimSpace(v)
	if id, err := strconv.ParseUint(v, 10, 64); err == nil && id > 0 {
		return id, ""
	}
	return 0, strings.ToLower(v)
}

// currentUser returns the authenticated user; routes using it sit behind
// middleware.RequireAuth.
func currentUser(c echo.Context) (model.SessionUser, error) {
	s, ok := middleware.SessionFrom(c)
	if !ok {
		return model.SessionUser{}, apperr.Unauthorized("missing bearer token")
	}
	return s.User, nil
}

// bind decodes the JSON body, reporting malformed input as a validation
// error on "body".
func bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return apperr.Validation("body", "malformed JSON")
	}
	return nil
}
