package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/swing-festival-finder/internal/model"
	"github.com/iliyamo/swing-festival-finder/internal/pagination"
	"github.com/iliyamo/swing-festival-finder/internal/search"
)

var eventCols = []string{
	"id", "slug", "name", "description", "style", "city", "country",
	"start_date", "end_date", "price", "currency", "website", "image_url",
	"created_by", "created_at", "updated_at",
	"v_id", "v_name", "v_address", "v_city", "v_country", "v_lat", "v_lng",
}

var perfCols = []string{"event_id", "id", "slug", "name", "bio", "city", "country", "image_url", "website"}

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func addEvent(rows *sqlmock.Rows, id int64, slug string, price any, venue any) *sqlmock.Rows {
	return rows.AddRow(id, slug, "Festival "+slug, "desc", "Lindy Hop", "Berlin", "Germany",
		day("2027-05-01"), day("2027-05-04"), price, "EUR", "", "",
		nil, day("2026-01-01"), day("2026-01-01"),
		venue, "Hall", "Street 1", "Berlin", "Germany", 52.5, 13.4)
}

func TestEventSearchEmptySkipsPageQuery(t *testing.T) {
	db, mock := newMock(t)
	repo := NewEventRepo(db)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM events e LEFT JOIN venues v`).
		WithArgs("%stockholm%").
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(0))

	q := search.EventQuery{
		Filters: search.Filters{Location: &search.Location{City: "Stockholm"}},
		Page:    pagination.Request{Page: 1, Limit: 10},
	}
	events, total, err := repo.Search(context.Background(), q)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.NotNil(t, events)
	assert.Empty(t, events)
}

func TestEventSearchLoadsLineUp(t *testing.T) {
	db, mock := newMock(t)
	repo := NewEventRepo(db)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM events e`).
		WithArgs("%berlin%").
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(12))

	rows := sqlmock.NewRows(eventCols)
	addEvent(rows, 1, "lindy-shock", "85.50", 7)
	addEvent(rows, 2, "berlin-blues", nil, nil)
	mock.ExpectQuery(`FROM events e LEFT JOIN venues v ON v.id = e.venue_id WHERE LOWER\(e.city\) LIKE \? ORDER BY e.start_date ASC, e.id ASC LIMIT \? OFFSET \?`).
		WithArgs("%berlin%", 5, 5).
		WillReturnRows(rows)

	mock.ExpectQuery(`FROM event_teachers l JOIN teachers p ON p.id = l.teacher_id WHERE l.event_id IN \(\?,\?\)`).
		WithArgs(1, 2).
		WillReturnRows(sqlmock.NewRows(perfCols).
			AddRow(1, 10, "frida-segerdahl", "Frida", "", "", "", "", "").
			AddRow(1, 11, "skye-humphries", "Skye", "", "", "", "", ""))
	mock.ExpectQuery(`FROM event_musicians l JOIN musicians p ON p.id = l.musician_id`).
		WithArgs(1, 2).
		WillReturnRows(sqlmock.NewRows(perfCols))

	q := search.EventQuery{
		Filters: search.Filters{Location: &search.Location{City: "Berlin"}},
		Page:    pagination.Request{Page: 2, Limit: 5},
	}
	events, total, err := repo.Search(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, int64(12), total)
	require.Len(t, events, 2)

	first := events[0]
	require.NotNil(t, first.Price)
	assert.True(t, decimal.RequireFromString("85.5").Equal(*first.Price))
	require.NotNil(t, first.Venue)
	assert.Equal(t, uint64(7), first.Venue.ID)
	require.Len(t, first.Teachers, 2)
	assert.Equal(t, model.KindTeacher, first.Teachers[0].Kind)
	assert.Equal(t, "frida-segerdahl", first.Teachers[0].Slug)
	assert.NotNil(t, first.Musicians)
	assert.Empty(t, first.Musicians)

	second := events[1]
	assert.Nil(t, second.Price)
	assert.Nil(t, second.Venue)
	assert.Empty(t, second.Teachers)
}

func TestEventGetBySlugNotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`WHERE e.slug = \? LIMIT 1`).
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows(eventCols))

	_, err := NewEventRepo(db).GetBySlug(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEventCreate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewEventRepo(db)
	price := decimal.RequireFromString("120")

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO events`).
		WithArgs("snowball-2027", "Snowball", "", "Lindy Hop", "Stockholm", "Sweden", nil,
			day("2027-12-27"), day("2027-12-31"), "120", "SEK", "", "", 3).
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectExec(`INSERT IGNORE INTO event_teachers \(event_id, teacher_id\)`).
		WithArgs(42, 10).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT IGNORE INTO event_musicians \(event_id, musician_id\)`).
		WithArgs(42, 20).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	mock.ExpectQuery(`WHERE e.id = \? LIMIT 1`).
		WithArgs(42).
		WillReturnRows(addEvent(sqlmock.NewRows(eventCols), 42, "snowball-2027", "120.00", nil))
	mock.ExpectQuery(`FROM event_teachers`).WithArgs(42).
		WillReturnRows(sqlmock.NewRows(perfCols).AddRow(42, 10, "t", "T", "", "", "", "", ""))
	mock.ExpectQuery(`FROM event_musicians`).WithArgs(42).
		WillReturnRows(sqlmock.NewRows(perfCols).AddRow(42, 20, "m", "M", "", "", "", "", ""))

	e, err := repo.Create(context.Background(), NewEvent{
		Slug: "snowball-2027", Name: "Snowball", Style: "Lindy Hop",
		City: "Stockholm", Country: "Sweden",
		StartDate: day("2027-12-27"), EndDate: day("2027-12-31"),
		Price: &price, Currency: "SEK",
		TeacherIDs: []uint64{10}, MusicianIDs: []uint64{20},
		CreatedBy: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(42), e.ID)
	assert.Len(t, e.Teachers, 1)
	assert.Len(t, e.Musicians, 1)
}

func TestEventCreateDuplicateSlug(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO events`).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	mock.ExpectRollback()

	_, err := NewEventRepo(db).Create(context.Background(), NewEvent{
		Slug: "dup", Name: "Dup", StartDate: day("2027-01-01"), EndDate: day("2027-01-02"),
	})
	assert.ErrorIs(t, err, ErrSlugExists)
}

func TestEventCreateUnknownPerformer(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO events`).WillReturnResult(sqlmock.NewResult(5, 1))
	mock.ExpectExec(`INSERT IGNORE INTO event_teachers`).
		WillReturnError(&mysql.MySQLError{Number: 1452, Message: "foreign key"})
	mock.ExpectRollback()

	_, err := NewEventRepo(db).Create(context.Background(), NewEvent{
		Slug: "x", Name: "X", StartDate: day("2027-01-01"), EndDate: day("2027-01-02"),
		TeacherIDs: []uint64{999},
	})
	assert.ErrorIs(t, err, ErrUnknownReference)
}

func TestEventListForPerformer(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`JOIN event_musicians l ON l.event_id = e.id WHERE l.musician_id = \? AND e.end_date >= UTC_TIMESTAMP\(\)`).
		WithArgs(20, 3).
		WillReturnRows(sqlmock.NewRows(eventCols))

	events, err := NewEventRepo(db).ListForPerformer(context.Background(), model.KindMusician, 20, 3)
	require.NoError(t, err)
	assert.Empty(t, events)
}
