package handler

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/swing-festival-finder/internal/metrics"
	"github.com/iliyamo/swing-festival-finder/internal/model"
	"github.com/iliyamo/swing-festival-finder/internal/pagination"
	"github.com/iliyamo/swing-festival-finder/internal/response"
	"github.com/iliyamo/swing-festival-finder/internal/search"
)

// PerformerStore reads teacher or musician profiles.
type PerformerStore interface {
	Kind() model.PerformerKind
	Search(ctx context.Context, q search.PerformerQuery) ([]model.Performer, int64, error)
	GetByID(ctx context.Context, id uint64) (model.Performer, error)
	GetBySlug(ctx context.Context, slug string) (model.Performer, error)
}

// EventLister finds the upcoming events of a performer.
type EventLister interface {
	ListForPerformer(ctx context.Context, kind model.PerformerKind, performerID uint64, limit int) ([]model.Event, error)
}

// upcomingLimit caps the events embedded in a profile.
const upcomingLimit = 20

// PerformerHandler serves /api/teachers or /api/musicians. Resource is
// the plural key used in list bodies.
type PerformerHandler struct {
	Performers PerformerStore
	Events     EventLister
	Metrics    *metrics.Metrics
	Resource   string
}

type performerDetail struct {
	model.Performer
	UpcomingEvents []model.Event `json:"upcomingEvents"`
}

func (h *PerformerHandler) List(c echo.Context) error {
	q, err := search.ParsePerformerQuery(c.QueryParams())
	if err != nil {
		return err
	}
	items, total, err := h.Performers.Search(c.Request().Context(), q)
	if err != nil {
		return storeErr(err, "performer")
	}
	h.Metrics.SearchResults(h.Resource, len(items))
	return response.OK(c, response.Page(h.Resource, items, pagination.For(q.Page, total)))
}

// Get returns a profile by id or slug with its upcoming events.
func (h *PerformerHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()
	what := "teacher"
	if h.Performers.Kind() == model.KindMusician {
		what = "musician"
	}

	id, slug := idOrSlug(c.Param("id"))
	var (
		p   model.Performer
		err error
	)
	if id > 0 {
		p, err = h.Performers.GetByID(ctx, id)
	} else {
		p, err = h.Performers.GetBySlug(ctx, slug)
	}
	if err != nil {
		return storeErr(err, what)
	}

	events, err := h.Events.ListForPerformer(ctx, p.Kind, p.ID, upcomingLimit)
	if err != nil {
		return storeErr(err, what)
	}
	return response.OK(c, performerDetail{Performer: p, UpcomingEvents: events})
}
