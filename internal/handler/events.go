package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/swing-festival-finder/internal/apperr"
	"github.com/iliyamo/swing-festival-finder/internal/metrics"
	"github.com/iliyamo/swing-festival-finder/internal/model"
	"github.com/iliyamo/swing-festival-finder/internal/pagination"
	"github.com/iliyamo/swing-festival-finder/internal/queue"
	"github.com/iliyamo/swing-festival-finder/internal/repository"
	"github.com/iliyamo/swing-festival-finder/internal/response"
	"github.com/iliyamo/swing-festival-finder/internal/search"
	"github.com/iliyamo/swing-festival-finder/internal/seo"
)

// EventStore is the event persistence used by EventHandler.
type EventStore interface {
	Search(ctx context.Context, q search.EventQuery) ([]model.Event, int64, error)
	GetByID(ctx context.Context, id uint64) (model.Event, error)
	GetBySlug(ctx context.Context, slug string) (model.Event, error)
	Create(ctx context.Context, in repository.NewEvent) (model.Event, error)
}

type EventHandler struct {
	Events  EventStore
	Queue   queue.Publisher
	Metrics *metrics.Metrics
	SiteURL string
}

// List serves GET /api/events.
func (h *EventHandler) List(c echo.Context) error {
	q, err := search.ParseEventQuery(c.QueryParams())
	if err != nil {
		return err
	}
	events, total, err := h.Events.Search(c.Request().Context(), q)
	if err != nil {
		return storeErr(err, "event")
	}
	h.Metrics.SearchResults("events", len(events))
	return response.OK(c, response.Page("events", events, pagination.For(q.Page, total)))
}

// Get serves GET /api/events/:id where :id is a numeric id or a slug.
func (h *EventHandler) Get(c echo.Context) error {
	e, err := h.lookup(c)
	if err != nil {
		return err
	}
	return response.OK(c, e)
}

// Schema serves the schema.org DanceEvent document of an event.
func (h *EventHandler) Schema(c echo.Context) error {
	e, err := h.lookup(c)
	if err != nil {
		return err
	}
	body, err := json.Marshal(seo.DanceEvent(e, h.SiteURL))
	if err != nil {
		return apperr.Internal(err)
	}
	return c.Blob(http.StatusOK, seo.ContentType, body)
}

func (h *EventHandler) lookup(c echo.Context) (model.Event, error) {
	ctx := c.Request().Context()
	id, slug := idOrSlug(c.Param("id"))
	var (
		e   model.Event
		err error
	)
	if id > 0 {
		e, err = h.Events.GetByID(ctx, id)
	} else {
		e, err = h.Events.GetBySlug(ctx, slug)
	}
	return e, storeErr(err, "event")
}

type createEventReq struct {
	Name        string           `json:"name"`
	Slug        string           `json:"slug"`
	Description string           `json:"description"`
	Style       string           `json:"style"`
	City        string           `json:"city"`
	Country     string           `json:"country"`
	VenueID     *uint64          `json:"venueId"`
	StartDate   string           `json:"startDate"`
	EndDate     string           `json:"endDate"`
	Price       *decimal.Decimal `json:"price"`
	Currency    string           `json:"currency"`
	Website     string           `json:"website"`
	ImageURL    string           `json:"imageUrl"`
	TeacherIDs  []uint64         `json:"teacherIds"`
	MusicianIDs []uint64         `json:"musicianIds"`
}

func (r createEventReq) validate(createdBy uint64) (repository.NewEvent, error) {
	in := repository.NewEvent{
		Name:        strings.TrimSpace(r.Name),
		Description: strings.TrimSpace(r.Description),
		Style:       strings.TrimSpace(r.Style),
		City:        strings.TrimSpace(r.City),
		Country:     strings.TrimSpace(r.Country),
		VenueID:     r.VenueID,
		Price:       r.Price,
		Currency:    strings.ToUpper(strings.TrimSpace(r.Currency)),
		Website:     strings.TrimSpace(r.Website),
		ImageURL:    strings.TrimSpace(r.ImageURL),
		TeacherIDs:  r.TeacherIDs,
		MusicianIDs: r.MusicianIDs,
		CreatedBy:   createdBy,
	}
	if in.Name == "" {
		return in, apperr.Validation("name", "is required")
	}
	start, ok := search.ParseTime(r.StartDate)
	if !ok {
		return in, apperr.Validation("startDate", "must be an ISO-8601 date")
	}
	end, ok := search.ParseTime(r.EndDate)
	if !ok {
		return in, apperr.Validation("endDate", "must be an ISO-8601 date")
	}
	if end.Before(start) {
		return in, apperr.Validation("endDate", "must not be before startDate")
	}
	in.StartDate, in.EndDate = start, end
	if in.Price != nil && in.Price.IsNegative() {
		return in, apperr.Validation("price", "must not be negative")
	}
	if in.Currency != "" && len(in.Currency) != 3 {
		return in, apperr.Validation("currency", "must be a three-letter ISO code")
	}

	in.Slug = Slugify(r.Slug)
	if in.Slug == "" {
		year := start.Format("2006")
		base := truncateSlug(Slugify(in.Name), maxSlugLen-len(year)-1)
		in.Slug = strings.TrimLeft(base+"-"+year, "-")
	}
	if in.Slug == "" {
		return in, apperr.Validation("slug", "cannot be derived from name")
	}
	return in, nil
}

// Create serves POST /api/events. The new event is announced on the
// event.created queue; a broker failure does not fail the request.
func (h *EventHandler) Create(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req createEventReq
	if err := bind(c, &req); err != nil {
		return err
	}
	in, err := req.validate(user.ID)
	if err != nil {
		return err
	}

	e, err := h.Events.Create(c.Request().Context(), in)
	if err != nil {
		return storeErr(err, "event")
	}

	msg := queue.EventCreated{
		EventID:     e.ID,
		Slug:        e.Slug,
		Name:        e.Name,
		City:        e.City,
		Country:     e.Country,
		StartDate:   e.StartDate,
		TeacherIDs:  performerIDs(e.Teachers),
		MusicianIDs: performerIDs(e.Musicians),
		CreatedBy:   user.ID,
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request().Context()), 5*time.Second)
	defer cancel()
	_ = h.Queue.Publish(ctx, queue.EventCreatedQueue, msg)

	return response.Created(c, e, "event created")
}

func performerIDs(ps []model.Performer) []uint64 {
	ids := make([]uint64, len(ps))
	for i, p := range ps {
		ids[i] = p.ID
	}
	return ids
}
