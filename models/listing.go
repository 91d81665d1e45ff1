package models

import (
	"time"

	"bds_scrooper/normalize"
)

const DefaultContact = "Liên hệ"

type Location struct {
	Address  string `json:"address,omitempty"`
	District string `json:"district,omitempty"`
	City     string `json:"city,omitempty"`
}

type Contact struct {
	Phone string `json:"phone"`
}

// Listing is one scraped property record.
type Listing struct {
	ID             string    `json:"id,omitempty"`
	Title          string    `json:"title"`
	PriceText      string    `json:"price_text,omitempty"`
	PriceNumber    *float64  `json:"price_number,omitempty"`
	AreaM2         *float64  `json:"area_m2,omitempty"`
	Bedrooms       *int      `json:"bedrooms,omitempty"`
	Location       Location  `json:"location"`
	Contact        Contact   `json:"contact"`
	SourceURL      string    `json:"source_url"`
	SourcePlatform string    `json:"source_platform"`
	PropertyType   string    `json:"property_type,omitempty"`
	ScrapedAt      time.Time `json:"scraped_at"`
}

// SetPrice stores the raw price text and derives the numeric price. The
// number stays nil for negotiable or non-positive prices.
func (l *Listing) SetPrice(text string) {
	l.PriceText = text
	l.PriceNumber = nil
	if v, ok := normalize.Price(text); ok {
		l.PriceNumber = &v
	}
}
