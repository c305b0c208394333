package handler

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/swing-festival-finder/internal/apperr"
	"github.com/iliyamo/swing-festival-finder/internal/model"
	"github.com/iliyamo/swing-festival-finder/internal/pagination"
	"github.com/iliyamo/swing-festival-finder/internal/response"
	"github.com/iliyamo/swing-festival-finder/internal/search"
)

const (
	quickSearchDefault = 5
	quickSearchMax     = 20
)

// SearchHandler serves the combined quick search used by the search box.
type SearchHandler struct {
	Events    EventStore
	Teachers  PerformerStore
	Musicians PerformerStore
}

type quickResults struct {
	Events    []model.Event     `json:"events"`
	Teachers  []model.Performer `json:"teachers"`
	Musicians []model.Performer `json:"musicians"`
}

// Search serves GET /api/search?q=&limit=, returning the first matches of
// each kind. Only upcoming events are considered.
func (h *SearchHandler) Search(c echo.Context) error {
	term := strings.TrimSpace(c.QueryParam("q"))
	if term == "" {
		return apperr.Validation("q", "must not be empty")
	}
	limit := quickSearchDefault
	if raw := strings.TrimSpace(c.QueryParam("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return apperr.Validation("limit", "must be a positive integer")
		}
		limit = min(n, quickSearchMax)
	}
	page := pagination.Request{Page: 1, Limit: limit}
	ctx := c.Request().Context()

	events, _, err := h.Events.Search(ctx, search.EventQuery{
		Filters: search.Filters{Query: term, When: search.WindowUpcoming},
		Page:    page,
	})
	if err != nil {
		return storeErr(err, "event")
	}
	pq := search.PerformerQuery{PerformerFilters: search.PerformerFilters{Query: term}, Page: page}
	teachers, _, err := h.Teachers.Search(ctx, pq)
	if err != nil {
		return storeErr(err, "teacher")
	}
	musicians, _, err := h.Musicians.Search(ctx, pq)
	if err != nil {
		return storeErr(err, "musician")
	}
	return response.OK(c, quickResults{Events: events, Teachers: teachers, Musicians: musicians})
}
