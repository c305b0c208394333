package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/swing-festival-finder/internal/model"
	"github.com/iliyamo/swing-festival-finder/internal/search"
)

// performerTable describes where one kind of performer lives and how it
// is linked to events.
type performerTable struct {
	kind  model.PerformerKind
	table string // teachers | musicians
	link  string // event_teachers | event_musicians
	fk    string // teacher_id | musician_id
}

var (
	teacherTable  = performerTable{kind: model.KindTeacher, table: "teachers", link: "event_teachers", fk: "teacher_id"}
	musicianTable = performerTable{kind: model.KindMusician, table: "musicians", link: "event_musicians", fk: "musician_id"}
)

const performerColumns = "p.id, p.slug, p.name, p.bio, p.city, p.country, p.image_url, p.website"

func (t performerTable) scan(sc interface{ Scan(...any) error }, extra ...any) (model.Performer, error) {
	p := model.Performer{Kind: t.kind}
	dest := append(extra, &p.ID, &p.Slug, &p.Name, &p.Bio, &p.City, &p.Country, &p.ImageURL, &p.Website)
	err := sc.Scan(dest...)
	return p, err
}

// PerformerRepo reads teacher or musician profiles. Both tables share a
// layout so a single implementation serves both.
type PerformerRepo struct {
	db *sql.DB
	t  performerTable
}

func NewTeacherRepo(db *sql.DB) *PerformerRepo  { return &PerformerRepo{db: db, t: teacherTable} }
func NewMusicianRepo(db *sql.DB) *PerformerRepo { return &PerformerRepo{db: db, t: musicianTable} }

// Kind reports which performers this repository serves.
func (r *PerformerRepo) Kind() model.PerformerKind { return r.t.kind }

// Search returns one page of performers ordered by name plus the total
// number of matches.
func (r *PerformerRepo) Search(ctx context.Context, q search.PerformerQuery) ([]model.Performer, int64, error) {
	cond := search.BuildPerformerConditions(q.PerformerFilters)

	var total int64
	countSQL := "SELECT COUNT(*) FROM " + r.t.table + " p WHERE " + cond.Where()
	if err := r.db.QueryRowContext(ctx, countSQL, cond.Args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dataSQL := "SELECT " + performerColumns + " FROM " + r.t.table + " p WHERE " + cond.Where() +
		" ORDER BY p.name ASC, p.id ASC LIMIT ? OFFSET ?"
	args := append(append([]any{}, cond.Args...), q.Page.Limit, q.Page.Offset())

	rows, err := r.db.QueryContext(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.Performer, 0, q.Page.Limit)
	for rows.Next() {
		p, err := r.t.scan(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// GetByID fetches a performer; ErrNotFound when missing.
func (r *PerformerRepo) GetByID(ctx context.Context, id uint64) (model.Performer, error) {
	return r.getBy(ctx, "p.id = ?", id)
}

// GetBySlug fetches a performer by slug; ErrNotFound when missing.
func (r *PerformerRepo) GetBySlug(ctx context.Context, slug string) (model.Performer, error) {
	return r.getBy(ctx, "p.slug = ?", slug)
}

func (r *PerformerRepo) getBy(ctx context.Context, where string, arg any) (model.Performer, error) {
	q := "SELECT " + performerColumns + " FROM " + r.t.table + " p WHERE " + where + " LIMIT 1"
	p, err := r.t.scan(r.db.QueryRowContext(ctx, q, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Performer{}, ErrNotFound
	}
	return p, err
}

// loadForEvents returns the performers of kind t linked to each event id.
func loadForEvents(ctx context.Context, db *sql.DB, t performerTable, eventIDs []uint64) (map[uint64][]model.Performer, error) {
	out := make(map[uint64][]model.Performer, len(eventIDs))
	if len(eventIDs) == 0 {
		return out, nil
	}
	q := "SELECT l.event_id, " + performerColumns + " FROM " + t.link + " l JOIN " + t.table +
		" p ON p.id = l." + t.fk + " WHERE l.event_id IN (" + search.Placeholders(len(eventIDs)) +
		") ORDER BY p.name ASC"
	args := make([]any, len(eventIDs))
	for i, id := range eventIDs {
		args[i] = id
	}
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var eventID uint64
		p, err := t.scan(rows, &eventID)
		if err != nil {
			return nil, err
		}
		out[eventID] = append(out[eventID], p)
	}
	return out, rows.Err()
}
