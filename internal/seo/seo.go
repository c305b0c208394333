// Package seo renders schema.org structured data for event pages.
package seo

import (
	"strings"

	"github.com/iliyamo/swing-festival-finder/internal/model"
)

// ContentType of a rendered Document.
const ContentType = "application/ld+json"

const dateLayout = "2006-01-02"

// Document is a schema.org DanceEvent.
type Document struct {
	Context             string   `json:"@context"`
	Type                string   `json:"@type"`
	Name                string   `json:"name"`
	Description         string   `json:"description,omitempty"`
	URL                 string   `json:"url"`
	Image               string   `json:"image,omitempty"`
	StartDate           string   `json:"startDate"`
	EndDate             string   `json:"endDate"`
	EventStatus         string   `json:"eventStatus"`
	EventAttendanceMode string   `json:"eventAttendanceMode"`
	Location            *Place   `json:"location,omitempty"`
	Performer           []Person `json:"performer,omitempty"`
	Offers              *Offer   `json:"offers,omitempty"`
	SameAs              string   `json:"sameAs,omitempty"`
}

type Place struct {
	Type    string          `json:"@type"`
	Name    string          `json:"name,omitempty"`
	Address PostalAddress   `json:"address"`
	Geo     *GeoCoordinates `json:"geo,omitempty"`
}

type PostalAddress struct {
	Type            string `json:"@type"`
	StreetAddress   string `json:"streetAddress,omitempty"`
	AddressLocality string `json:"addressLocality,omitempty"`
	AddressCountry  string `json:"addressCountry,omitempty"`
}

type GeoCoordinates struct {
	Type      string  `json:"@type"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type Person struct {
	Type string `json:"@type"`
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

type Offer struct {
	Type          string `json:"@type"`
	Price         string `json:"price"`
	PriceCurrency string `json:"priceCurrency"`
	URL           string `json:"url"`
}

// DanceEvent builds the document for e. siteURL is the public origin
// used for canonical links; a trailing slash is ignored.
func DanceEvent(e model.Event, siteURL string) Document {
	base := strings.TrimRight(siteURL, "/")
	url := base + "/events/" + e.Slug

	doc := Document{
		Context:             "https://schema.org",
		Type:                "DanceEvent",
		Name:                e.Name,
		Description:         e.Description,
		URL:                 url,
		Image:               e.ImageURL,
		StartDate:           e.StartDate.UTC().Format(dateLayout),
		EndDate:             e.EndDate.UTC().Format(dateLayout),
		EventStatus:         "https://schema.org/EventScheduled",
		EventAttendanceMode: "https://schema.org/OfflineEventAttendanceMode",
		SameAs:              e.Website,
	}

	addr := PostalAddress{Type: "PostalAddress", AddressLocality: e.City, AddressCountry: e.Country}
	place := &Place{Type: "Place", Address: addr}
	if v := e.Venue; v != nil {
		place.Name = v.Name
		place.Address.StreetAddress = v.Address
		if v.City != "" {
			place.Address.AddressLocality = v.City
		}
		if v.Country != "" {
			place.Address.AddressCountry = v.Country
		}
		if v.Latitude != 0 || v.Longitude != 0 {
			place.Geo = &GeoCoordinates{Type: "GeoCoordinates", Latitude: v.Latitude, Longitude: v.Longitude}
		}
	}
	if place.Name != "" || place.Address.AddressLocality != "" || place.Address.AddressCountry != "" {
		doc.Location = place
	}

	for _, p := range e.Teachers {
		doc.Performer = append(doc.Performer, Person{Type: "Person", Name: p.Name, URL: base + "/teachers/" + p.Slug})
	}
	for _, p := range e.Musicians {
		doc.Performer = append(doc.Performer, Person{Type: "Person", Name: p.Name, URL: base + "/musicians/" + p.Slug})
	}

	if e.Price != nil {
		doc.Offers = &Offer{
			Type:          "Offer",
			Price:         e.Price.StringFixed(2),
			PriceCurrency: e.Currency,
			URL:           url,
		}
	}
	return doc
}
