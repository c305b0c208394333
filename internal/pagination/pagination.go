// Package pagination computes page windows and page metadata for list
// endpoints. Everything here is pure.
package pagination

import "math"

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
	// MaxPage keeps (MaxPage-1)*MaxLimit within int on every platform.
	MaxPage      = math.MaxInt32 / MaxLimit
)

// Request is a validated page window. Page and Limit are always >= 1.
type Request struct {
	Page  int
	Limit int
}

// Offset returns the number of rows to skip.
func (r Request) Offset() int {
	if r.Page < 1 {
		return 0
	}
	return (r.Page - 1) * r.Limit
}

// Meta describes where a page sits in the full result set.
type Meta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
	HasNext    bool  `json:"hasNext"`
	HasPrev    bool  `json:"hasPrev"`
}

// Calculate derives Meta from the total row count. A non-positive limit
// yields zero pages.
func Calculate(total int64, page, limit int) Meta {
	if total < 0 {
		total = 0
	}
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Meta{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}

// For is Calculate for a Request.
func For(r Request, total int64) Meta {
	return Calculate(total, r.Page, r.Limit)
}
