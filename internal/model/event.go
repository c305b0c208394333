package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event is a dance festival, exchange or workshop weekend. It maps to a
// row in the `events` table; Venue, Teachers and Musicians are loaded
// from their own tables.
//
// Fields:
//
//	Slug      – unique URL-friendly name, used as an alternative key.
//	Style     – free text such as "Lindy Hop, Balboa" or "Blues".
//	StartDate – first day of the festival (UTC).
//	EndDate   – last day of the festival (UTC), never before StartDate.
//	Price     – cheapest full pass in Currency; nil when unknown.
//	CreatedBy – user who submitted the event; nil for imported rows.
type Event struct {
	ID          uint64           `json:"id"`          // events.id
	Slug        string           `json:"slug"`        // events.slug
	Name        string           `json:"name"`        // events.name
	Description string           `json:"description"` // events.description
	Style       string           `json:"style"`       // events.style
	City        string           `json:"city"`        // events.city
	Country     string           `json:"country"`     // events.country
	StartDate   time.Time        `json:"startDate"`   // events.start_date
	EndDate     time.Time        `json:"endDate"`     // events.end_date
	Price       *decimal.Decimal `json:"price"`       // events.price (nullable)
	Currency    string           `json:"currency"`    // events.currency
	Website     string           `json:"website"`     // events.website
	ImageURL    string           `json:"imageUrl"`    // events.image_url
	Venue       *Venue           `json:"venue"`
	Teachers    []Performer      `json:"teachers"`
	Musicians   []Performer      `json:"musicians"`
	CreatedBy   *uint64          `json:"-"`         // events.created_by (nullable)
	CreatedAt   time.Time        `json:"createdAt"` // events.created_at
	UpdatedAt   time.Time        `json:"updatedAt"` // events.updated_at
}

// Venue is where an event takes place. Latitude/Longitude feed the
// radius search.
type Venue struct {
	ID        uint64  `json:"id"`
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	City      string  `json:"city"`
	Country   string  `json:"country"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}
