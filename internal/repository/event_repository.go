package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/swing-festival-finder/internal/model"
	"github.com/iliyamo/swing-festival-finder/internal/search"
)

// NewEvent is the input of EventRepo.Create.
type NewEvent struct {
	Slug        string
	Name        string
	Description string
	Style       string
	City        string
	Country     string
	VenueID     *uint64
	StartDate   time.Time
	EndDate     time.Time
	Price       *decimal.Decimal
	Currency    string
	Website     string
	ImageURL    string
	TeacherIDs  []uint64
	MusicianIDs []uint64
	CreatedBy   uint64
}

// EventRepo manages persistence for events and their line-ups.
type EventRepo struct {
	db *sql.DB
}

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

const eventSelect = `SELECT
		e.id, e.slug, e.name, e.description, e.style, e.city, e.country,
		e.start_date, e.end_date, e.price, e.currency, e.website, e.image_url,
		e.created_by, e.created_at, e.updated_at,
		v.id, COALESCE(v.name, ''), COALESCE(v.address, ''), COALESCE(v.city, ''),
		COALESCE(v.country, ''), COALESCE(v.latitude, 0), COALESCE(v.longitude, 0)
	FROM events e
	LEFT JOIN venues v ON v.id = e.venue_id`

const eventOrder = " ORDER BY e.start_date ASC, e.id ASC"

func scanEvent(sc interface{ Scan(...any) error }) (model.Event, error) {
	var (
		e         model.Event
		price     decimal.NullDecimal
		createdBy sql.NullInt64
		venueID   sql.NullInt64
		v         model.Venue
	)
	err := sc.Scan(
		&e.ID, &e.Slug, &e.Name, &e.Description, &e.Style, &e.City, &e.Country,
		&e.StartDate, &e.EndDate, &price, &e.Currency, &e.Website, &e.ImageURL,
		&createdBy, &e.CreatedAt, &e.UpdatedAt,
		&venueID, &v.Name, &v.Address, &v.City, &v.Country, &v.Latitude, &v.Longitude,
	)
	if err != nil {
		return model.Event{}, err
	}
	if price.Valid {
		p := price.Decimal
		e.Price = &p
	}
	if createdBy.Valid {
		id := uint64(createdBy.Int64)
		e.CreatedBy = &id
	}
	if venueID.Valid {
		v.ID = uint64(venueID.Int64)
		e.Venue = &v
	}
	e.Teachers = []model.Performer{}
	e.Musicians = []model.Performer{}
	return e, nil
}

// Search returns one page of events matching q ordered by start date,
// plus the total number of matches across all pages.
func (r *EventRepo) Search(ctx context.Context, q search.EventQuery) ([]model.Event, int64, error) {
	cond := search.BuildEventConditions(q.Filters)

	var total int64
	countSQL := `SELECT COUNT(*)
		FROM events e
		LEFT JOIN venues v ON v.id = e.venue_id
		WHERE ` + cond.Where()
	if err := r.db.QueryRowContext(ctx, countSQL, cond.Args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []model.Event{}, 0, nil
	}

	dataSQL := eventSelect + " WHERE " + cond.Where() + eventOrder + " LIMIT ? OFFSET ?"
	args := append(append([]any{}, cond.Args...), q.Page.Limit, q.Page.Offset())
	events, err := r.query(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

// GetByID loads an event with venue and line-up; ErrNotFound when missing.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (model.Event, error) {
	return r.getOne(ctx, "e.id = ?", id)
}

// GetBySlug loads an event by slug; ErrNotFound when missing.
func (r *EventRepo) GetBySlug(ctx context.Context, slug string) (model.Event, error) {
	return r.getOne(ctx, "e.slug = ?", slug)
}

// ListForPerformer returns up to limit upcoming events the performer is
// booked for.
func (r *EventRepo) ListForPerformer(ctx context.Context, kind model.PerformerKind, performerID uint64, limit int) ([]model.Event, error) {
	t := teacherTable
	if kind == model.KindMusician {
		t = musicianTable
	}
	q := eventSelect + `
	JOIN ` + t.link + ` l ON l.event_id = e.id
	WHERE l.` + t.fk + ` = ? AND e.end_date >= UTC_TIMESTAMP()` + eventOrder + " LIMIT ?"
	return r.query(ctx, q, performerID, limit)
}

// Create inserts the event and its line-up in a single transaction and
// returns the stored row. A taken slug yields ErrSlugExists, an unknown
// venue or performer id ErrUnknownReference.
func (r *EventRepo) Create(ctx context.Context, in NewEvent) (model.Event, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Event{}, err
	}
	defer tx.Rollback()

	var price any
	if in.Price != nil {
		price = in.Price.String()
	}
	var venue any
	if in.VenueID != nil {
		venue = *in.VenueID
	}
	currency := in.Currency
	if currency == "" {
		currency = "EUR"
	}

	res, err := tx.ExecContext(ctx, `INSERT INTO events
		(slug, name, description, style, city, country, venue_id, start_date, end_date,
		 price, currency, website, image_url, created_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.Slug, in.Name, in.Description, in.Style, in.City, in.Country, venue,
		in.StartDate.UTC(), in.EndDate.UTC(), price, currency, in.Website, in.ImageURL, in.CreatedBy,
	)
	if err != nil {
		return model.Event{}, mapWriteErr(err, ErrSlugExists)
	}
	id64, err := res.LastInsertId()
	if err != nil {
		return model.Event{}, err
	}
	id := uint64(id64)

	if err := linkPerformers(ctx, tx, teacherTable, id, in.TeacherIDs); err != nil {
		return model.Event{}, err
	}
	if err := linkPerformers(ctx, tx, musicianTable, id, in.MusicianIDs); err != nil {
		return model.Event{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Event{}, err
	}
	return r.GetByID(ctx, id)
}

func linkPerformers(ctx context.Context, tx *sql.Tx, t performerTable, eventID uint64, ids []uint64) error {
	q := "INSERT IGNORE INTO " + t.link + " (event_id, " + t.fk + ") VALUES (?, ?)"
	for _, pid := range ids {
		if _, err := tx.ExecContext(ctx, q, eventID, pid); err != nil {
			return mapWriteErr(err, nil)
		}
	}
	return nil
}

func (r *EventRepo) getOne(ctx context.Context, where string, arg any) (model.Event, error) {
	events, err := r.query(ctx, eventSelect+" WHERE "+where+" LIMIT 1", arg)
	if err != nil {
		return model.Event{}, err
	}
	if len(events) == 0 {
		return model.Event{}, ErrNotFound
	}
	return events[0], nil
}

// query runs an event select and attaches teachers and musicians with one
// extra query per performer kind.
func (r *EventRepo) query(ctx context.Context, q string, args ...any) ([]model.Event, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	events := []model.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	if len(events) == 0 {
		return events, nil
	}
	ids := make([]uint64, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}
	teachers, err := loadForEvents(ctx, r.db, teacherTable, ids)
	if err != nil {
		return nil, err
	}
	musicians, err := loadForEvents(ctx, r.db, musicianTable, ids)
	if err != nil {
		return nil, err
	}
	for i := range events {
		if ps, ok := teachers[events[i].ID]; ok {
			events[i].Teachers = ps
		}
		if ps, ok := musicians[events[i].ID]; ok {
			events[i].Musicians = ps
		}
	}
	return events, nil
}
