// Package search turns raw query strings into validated filter values and
// translates those filters into SQL WHERE conditions for the repositories.
package search

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/swing-festival-finder/internal/pagination"
)

// TimeWindow restricts events relative to the current time.
type TimeWindow string

const (
	WindowAny      TimeWindow = "any"
	WindowUpcoming TimeWindow = "upcoming"
	WindowPast     TimeWindow = "past"
)

// DateRange bounds are inclusive; either may be nil.
type DateRange struct {
	Start *time.Time
	End   *time.Time
}

type Coordinates struct {
	Lat float64
	Lng float64
}

// Location narrows by place. Radius is in kilometres and is only set
// together with Center.
type Location struct {
	City    string
	Country string
	Radius  float64
	Center  *Coordinates
}

// PriceRange bounds are inclusive; either may be nil.
type PriceRange struct {
	Min *decimal.Decimal
	Max *decimal.Decimal
}

// Filters narrows an event listing. The zero value matches everything.
type Filters struct {
	Query      string
	Style      string
	DateRange  *DateRange
	Location   *Location
	Teachers   []string
	Musicians  []string
	PriceRange *PriceRange
	When       TimeWindow
}

// EventQuery is a validated GET /api/events request.
type EventQuery struct {
	Filters
	Page pagination.Request
}

// PerformerFilters narrows teacher and musician listings.
type PerformerFilters struct {
	Query   string
	City    string
	Country string
}

// PerformerQuery is a validated GET /api/teachers or /api/musicians request.
type PerformerQuery struct {
	PerformerFilters
	Page pagination.Request
}
