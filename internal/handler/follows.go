package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/swing-festival-finder/internal/apperr"
	"github.com/iliyamo/swing-festival-finder/internal/model"
	"github.com/iliyamo/swing-festival-finder/internal/pagination"
	"github.com/iliyamo/swing-festival-finder/internal/repository"
	"github.com/iliyamo/swing-festival-finder/internal/response"
	"github.com/iliyamo/swing-festival-finder/internal/search"
)

// FollowStore is the follow persistence used by FollowHandler.
type FollowStore interface {
	TargetExists(ctx context.Context, t repository.Target) (bool, error)
	Create(ctx context.Context, userID uint64, t repository.Target) (model.Follow, error)
	Delete(ctx context.Context, userID uint64, t repository.Target) error
	List(ctx context.Context, userID uint64, kind model.TargetType, page pagination.Request) ([]model.Follow, int64, error)
}

type FollowHandler struct {
	Follows FollowStore
}

type followReq struct {
	TargetType string `json:"targetType"`
	TargetID   uint64 `json:"targetId"`
}

func parseTarget(kind string, id uint64) (repository.Target, error) {
	t, ok := model.ParseTargetType(kind)
	if !ok {
		return repository.Target{}, apperr.Validation("targetType", "must be one of event, teacher, musician")
	}
	if id == 0 {
		return repository.Target{}, apperr.Validation("targetId", "must be a positive integer")
	}
	return repository.Target{Type: t, ID: id}, nil
}

// List serves GET /api/follows?type=.
func (h *FollowHandler) List(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	page, err := search.ParsePage(c.QueryParams())
	if err != nil {
		return err
	}
	var kind model.TargetType
	if raw := strings.TrimSpace(c.QueryParam("type")); raw != "" {
		var ok bool
		if kind, ok = model.ParseTargetType(raw); !ok {
			return apperr.Validation("type", "must be one of event, teacher, musician")
		}
	}
	items, total, err := h.Follows.List(c.Request().Context(), user.ID, kind, page)
	if err != nil {
		return storeErr(err, "follow")
	}
	return response.OK(c, response.Page("follows", items, pagination.For(page, total)))
}

// Create serves POST /api/follows.
func (h *FollowHandler) Create(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req followReq
	if err := bind(c, &req); err != nil {
		return err
	}
	t, err := parseTarget(req.TargetType, req.TargetID)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	ok, err := h.Follows.TargetExists(ctx, t)
	if err != nil {
		return apperr.Internal(err)
	}
	if !ok {
		return apperr.NotFound(strings.ToLower(string(t.Type)))
	}
	f, err := h.Follows.Create(ctx, user.ID, t)
	if err != nil {
		return storeErr(err, "follow")
	}
	return response.Created(c, f, "following")
}

// Delete serves DELETE /api/follows/:type/:id.
func (h *FollowHandler) Delete(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	t, err := parseTarget(c.Param("type"), id)
	if err != nil {
		return err
	}
	if err := h.Follows.Delete(c.Request().Context(), user.ID, t); err != nil {
		return storeErr(err, "follow")
	}
	return c.NoContent(http.StatusNoContent)
}
