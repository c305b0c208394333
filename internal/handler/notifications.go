package handler

import (
	"context"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/swing-festival-finder/internal/apperr"
	"github.com/iliyamo/swing-festival-finder/internal/model"
	"github.com/iliyamo/swing-festival-finder/internal/pagination"
	"github.com/iliyamo/swing-festival-finder/internal/response"
	"github.com/iliyamo/swing-festival-finder/internal/search"
)

// NotificationStore is the notification persistence used by
// NotificationHandler.
type NotificationStore interface {
	List(ctx context.Context, userID uint64, unreadOnly bool, page pagination.Request) ([]model.Notification, int64, error)
	MarkRead(ctx context.Context, userID, id uint64) error
	MarkAllRead(ctx context.Context, userID uint64) (int64, error)
}

type NotificationHandler struct {
	Notifications NotificationStore
}

// List serves GET /api/notifications?unread=true.
func (h *NotificationHandler) List(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	page, err := search.ParsePage(c.QueryParams())
	if err != nil {
		return err
	}
	unread := false
	if raw := strings.TrimSpace(c.QueryParam("unread")); raw != "" {
		if unread, err = strconv.ParseBool(raw); err != nil {
			return apperr.Validation("unread", "must be true or false")
		}
	}
	items, total, err := h.Notifications.List(c.Request().Context(), user.ID, unread, page)
	if err != nil {
		return storeErr(err, "notification")
	}
	return response.OK(c, response.Page("notifications", items, pagination.For(page, total)))
}

// MarkRead serves POST /api/notifications/:id/read.
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.Notifications.MarkRead(c.Request().Context(), user.ID, id); err != nil {
		return storeErr(err, "notification")
	}
	return response.OK(c, map[string]any{"id": id, "read": true})
}

// MarkAllRead serves POST /api/notifications/read-all.
func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	n, err := h.Notifications.MarkAllRead(c.Request().Context(), user.ID)
	if err != nil {
		return apperr.Internal(err)
	}
	return response.OK(c, map[string]int64{"updated": n})
}
