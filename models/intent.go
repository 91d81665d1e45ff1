package models

import (
	"fmt"
	"strings"
)

const (
	IntentBuy  = "mua"
	IntentRent = "thuê"

	DefaultCity = "Hà Nội"
)

// SearchIntent is the structured form of a free-text search. It is built
// once per search and passed by value.
type SearchIntent struct {
	PropertyType string   `json:"property_type,omitempty"`
	City         string   `json:"city"`
	District     string   `json:"district,omitempty"`
	Ward         string   `json:"ward,omitempty"`
	Street       string   `json:"street,omitempty"`
	PriceMin     *int64   `json:"price_min,omitempty"`
	PriceMax     *int64   `json:"price_max,omitempty"`
	PriceText    string   `json:"price_text,omitempty"`
	AreaMin      *float64 `json:"area_min,omitempty"`
	AreaMax      *float64 `json:"area_max,omitempty"`
	Bedrooms     *int     `json:"bedrooms,omitempty"`
	Bathrooms    *int     `json:"bathrooms,omitempty"`
	Features     []string `json:"features,omitempty"`
	Keywords     []string `json:"keywords,omitempty"`
	Requirements []string `json:"requirements,omitempty"`
	Intent       string   `json:"intent"`
}

func NewSearchIntent() SearchIntent {
	return SearchIntent{City: DefaultCity, Intent: IntentBuy}
}

func (i SearchIntent) IsRent() bool {
	return i.Intent == IntentRent
}

// Normalize fills defaults and coerces the transaction intent into one of
// the two known values.
func (i SearchIntent) Normalize() SearchIntent {
	if strings.TrimSpace(i.City) == "" {
		i.City = DefaultCity
	}
	switch strings.ToLower(strings.TrimSpace(i.Intent)) {
	case IntentRent, "thue", "cho thuê", "cho thue", "rent":
		i.Intent = IntentRent
	default:
		i.Intent = IntentBuy
	}
	return i
}

// SearchQuery renders the intent back into a Vietnamese query string.
func (i SearchIntent) SearchQuery() string {
	var parts []string

	if i.IsRent() {
		parts = append(parts, "cho thuê")
	} else {
		parts = append(parts, "mua bán")
	}
	if i.PropertyType != "" {
		parts = append(parts, i.PropertyType)
	}
	if i.Bedrooms != nil {
		parts = append(parts, fmt.Sprintf("%d phòng ngủ", *i.Bedrooms))
	}
	if i.District != "" {
		parts = append(parts, i.District)
	}
	if i.City != "" && i.City != DefaultCity {
		parts = append(parts, i.City)
	}

	switch {
	case i.PriceText != "":
		parts = append(parts, i.PriceText)
	case i.PriceMin != nil && i.PriceMax != nil:
		parts = append(parts, fmt.Sprintf("%.1f tỷ - %.1f tỷ", float64(*i.PriceMin)/1e9, float64(*i.PriceMax)/1e9))
	}

	return strings.Join(parts, " ")
}
