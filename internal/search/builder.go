package search

import (
	"strings"
)

// Conditions is a parameterised WHERE fragment. Clauses are combined with
// AND; Args line up with the ? placeholders in order.
type Conditions struct {
	Clauses []string
	Args    []any
}

// Where renders the clauses. No clauses means no constraint.
func (c Conditions) Where() string {
	if len(c.Clauses) == 0 {
		return "1=1"
	}
	return strings.Join(c.Clauses, " AND ")
}

func (c *Conditions) add(clause string, args ...any) {
	c.Clauses = append(c.Clauses, clause)
	c.Args = append(c.Args, args...)
}

// Contains adds a case-insensitive substring match of term against any of
// the columns, OR-ed together.
func (c *Conditions) Contains(term string, columns ...string) {
	if term == "" || len(columns) == 0 {
		return
	}
	pattern := LikePattern(term)
	ors := make([]string, len(columns))
	args := make([]any, len(columns))
	for i, col := range columns {
		ors[i] = "LOWER(" + col + ") LIKE ?"
		args[i] = pattern
	}
	clause := ors[0]
	if len(ors) > 1 {
		clause = "(" + strings.Join(ors, " OR ") + ")"
	}
	c.add(clause, args...)
}

// LikePattern lower-cases term, escapes LIKE wildcards and wraps it in %.
func LikePattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(term)) + "%"
}

// EventSearchColumns are matched by the free-text query.
var EventSearchColumns = []string{"e.name", "e.description", "e.city", "e.country", "e.style"}

// BuildEventConditions translates event filters. Columns are qualified
// with the aliases used by the event repository: e for events and v for
// the LEFT JOINed venue.
func BuildEventConditions(f Filters) Conditions {
	var c Conditions
	c.Contains(f.Query, EventSearchColumns...)
	c.Contains(f.Style, "e.style")

	if loc := f.Location; loc != nil {
		c.Contains(loc.City, "e.city")
		c.Contains(loc.Country, "e.country")
		if loc.Center != nil && loc.Radius > 0 {
			c.add("ST_Distance_Sphere(POINT(v.longitude, v.latitude), POINT(?, ?)) <= ?",
				loc.Center.Lng, loc.Center.Lat, loc.Radius*1000)
		}
	}

	if dr := f.DateRange; dr != nil {
		if dr.Start != nil {
			c.add("e.start_date >= ?", *dr.Start)
		}
		if dr.End != nil {
			c.add("e.end_date <= ?", *dr.End)
		}
	}

	if pr := f.PriceRange; pr != nil {
		if pr.Min != nil {
			c.add("e.price >= ?", pr.Min.String())
		}
		if pr.Max != nil {
			c.add("e.price <= ?", pr.Max.String())
		}
	}

	if len(f.Teachers) > 0 {
		c.add(`EXISTS (SELECT 1 FROM event_teachers et JOIN teachers t ON t.id = et.teacher_id
			WHERE et.event_id = e.id AND t.slug IN (`+Placeholders(len(f.Teachers))+`))`, strArgs(f.Teachers)...)
	}
	if len(f.Musicians) > 0 {
		c.add(`EXISTS (SELECT 1 FROM event_musicians em JOIN musicians m ON m.id = em.musician_id
			WHERE em.event_id = e.id AND m.slug IN (`+Placeholders(len(f.Musicians))+`))`, strArgs(f.Musicians)...)
	}

	switch f.When {
	case WindowUpcoming:
		c.add("e.end_date >= UTC_TIMESTAMP()")
	case WindowPast:
		c.add("e.end_date < UTC_TIMESTAMP()")
	}
	return c
}

// PerformerSearchColumns are matched by the free-text query on teachers
// and musicians.
var PerformerSearchColumns = []string{"p.name", "p.bio", "p.city", "p.country"}

// BuildPerformerConditions translates teacher/musician filters; p is the
// performer table alias.
func BuildPerformerConditions(f PerformerFilters) Conditions {
	var c Conditions
	c.Contains(f.Query, PerformerSearchColumns...)
	c.Contains(f.City, "p.city")
	c.Contains(f.Country, "p.country")
	return c
}

// Placeholders returns n comma separated ? markers.
func Placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func strArgs(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
