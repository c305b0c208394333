package search

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/swing-festival-finder/internal/apperr"
	"github.com/iliyamo/swing-festival-finder/internal/pagination"
)

// MaxRadiusKm is the largest accepted search radius.
const MaxRadiusKm = 20000

// ParsePage reads page and limit. Missing values fall back to the
// defaults, limit is clamped to pagination.MaxLimit and anything that is
// not a positive integer is a validation error. Pages beyond
// pagination.MaxPage are rejected so the row offset cannot overflow.
func ParsePage(q url.Values) (pagination.Request, error) {
	page, err := positiveInt(q, "page", pagination.DefaultPage)
	if err != nil {
		return pagination.Request{}, err
	}
	if page > pagination.MaxPage {
		return pagination.Request{}, apperr.Validation("page", "is too large")
	}
	limit, err := positiveInt(q, "limit", pagination.DefaultLimit)
	if err != nil {
		return pagination.Request{}, err
	}
	if limit > pagination.MaxLimit {
		limit = pagination.MaxLimit
	}
	return pagination.Request{Page: page, Limit: limit}, nil
}

// ParseEventQuery validates the query string of an event listing.
// Unknown keys are ignored.
func ParseEventQuery(q url.Values) (EventQuery, error) {
	var out EventQuery
	page, err := ParsePage(q)
	if err != nil {
		return out, err
	}
	out.Page = page

	out.Query = text(q, "search", "q", "query")
	out.Style = text(q, "style")

	if out.DateRange, err = parseDateRange(q); err != nil {
		return out, err
	}
	if out.Location, err = parseLocation(q); err != nil {
		return out, err
	}
	if out.PriceRange, err = parsePriceRange(q); err != nil {
		return out, err
	}
	out.Teachers = list(q, "teachers")
	out.Musicians = list(q, "musicians")

	switch w := TimeWindow(strings.ToLower(text(q, "time"))); w {
	case "", WindowAny:
		out.When = WindowAny
	case WindowUpcoming, WindowPast:
		out.When = w
	default:
		return out, apperr.Validation("time", "must be one of any, upcoming, past")
	}
	return out, nil
}

// ParsePerformerQuery validates the query string of a teacher or musician
// listing.
func ParsePerformerQuery(q url.Values) (PerformerQuery, error) {
	page, err := ParsePage(q)
	if err != nil {
		return PerformerQuery{}, err
	}
	return PerformerQuery{
		PerformerFilters: PerformerFilters{
			Query:   text(q, "search", "q", "query"),
			City:    text(q, "city"),
			Country: text(q, "country"),
		},
		Page: page,
	}, nil
}

// ParseTime accepts RFC 3339 timestamps (with or without fractional
// seconds) and bare YYYY-MM-DD dates, which mean midnight UTC.
func ParseTime(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func parseDateRange(q url.Values) (*DateRange, error) {
	var dr DateRange
	if s := text(q, "startDate"); s != "" {
		t, ok := ParseTime(s)
		if !ok {
			return nil, apperr.Validation("startDate", "must be an ISO-8601 date")
		}
		dr.Start = &t
	}
	if s := text(q, "endDate"); s != "" {
		t, ok := ParseTime(s)
		if !ok {
			return nil, apperr.Validation("endDate", "must be an ISO-8601 date")
		}
		dr.End = &t
	}
	if dr.Start == nil && dr.End == nil {
		return nil, nil
	}
	if dr.Start != nil && dr.End != nil && dr.End.Before(*dr.Start) {
		return nil, apperr.Validation("endDate", "must not be before startDate")
	}
	return &dr, nil
}

func parseLocation(q url.Values) (*Location, error) {
	loc := Location{City: text(q, "city"), Country: text(q, "country")}

	rawRadius, rawLat, rawLng := text(q, "radius"), text(q, "lat"), text(q, "lng")
	if rawRadius != "" {
		r, err := strconv.ParseFloat(rawRadius, 64)
		if err != nil || !(r > 0 && r <= MaxRadiusKm) {
			return nil, apperr.Validation("radius", "must be a number between 0 and 20000")
		}
		if rawLat == "" || rawLng == "" {
			return nil, apperr.Validation("radius", "requires lat and lng")
		}
		lat, err := strconv.ParseFloat(rawLat, 64)
		if err != nil || !(lat >= -90 && lat <= 90) {
			return nil, apperr.Validation("lat", "must be between -90 and 90")
		}
		lng, err := strconv.ParseFloat(rawLng, 64)
		if err != nil || !(lng >= -180 && lng <= 180) {
			return nil, apperr.Validation("lng", "must be between -180 and 180")
		}
		loc.Radius = r
		loc.Center = &Coordinates{Lat: lat, Lng: lng}
	}

	if loc.City == "" && loc.Country == "" && loc.Center == nil {
		return nil, nil
	}
	return &loc, nil
}

func parsePriceRange(q url.Values) (*PriceRange, error) {
	var pr PriceRange
	for _, f := range []struct {
		key string
		dst **decimal.Decimal
	}{{"minPrice", &pr.Min}, {"maxPrice", &pr.Max}} {
		s := text(q, f.key)
		if s == "" {
			continue
		}
		d, err := decimal.NewFromString(s)
		if err != nil || d.IsNegative() {
			return nil, apperr.Validation(f.key, "must be a non-negative number")
		}
		*f.dst = &d
	}
	if pr.Min == nil && pr.Max == nil {
		return nil, nil
	}
	if pr.Min != nil && pr.Max != nil && pr.Min.GreaterThan(*pr.Max) {
		return nil, apperr.Validation("maxPrice", "must not be less than minPrice")
	}
	return &pr, nil
}

func positiveInt(q url.Values, key string, def int) (int, error) {
	s := strings.TrimSpace(q.Get(key))
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, apperr.Validation(key, "must be a positive integer")
	}
	return n, nil
}

// text returns the first non-empty trimmed value among keys.
func text(q url.Values, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(q.Get(k)); v != "" {
			return v
		}
	}
	return ""
}

// list accepts both repeated keys and comma separated values; duplicates
// and blanks are dropped and order is kept.
func list(q url.Values, key string) []string {
	var out []string
	seen := map[string]bool{}
	for _, raw := range q[key] {
		for _, p := range strings.Split(raw, ",") {
			p = strings.ToLower(strings.TrimSpace(p))
			if p == "" || seen[p] {
				continue
			}
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}
