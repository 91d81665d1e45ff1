package services

import (
	"fmt"
	"log/slog"
	"strings"

	"bds_scrooper/location"
	"bds_scrooper/models"
)

const (
	priceMaxBuffer = 1.1
	priceMinBuffer = 0.9
)

var (
	apartmentTypes    = []string{"chung cư", "căn hộ", "chung cu", "can ho", "apartment"}
	apartmentKeywords = []string{
		"chung cư", "căn hộ", "chung cu", "can ho", "ccmn", "cc mini",
		"apartment", "penthouse", "duplex", "studio", "officetel",
	}
	landKeywords = []string{"đất", "dat", "lô", "thổ cư", "tho cu", "nền", "nen"}
)

// IntentFilter drops listings that contradict a search intent. Missing
// listing data for a field the intent requires counts as a mismatch.
type IntentFilter struct {
	logger *slog.Logger
}

func NewIntentFilter(logger *slog.Logger) *IntentFilter {
	if logger == nil {
		logger = slog.Default()
	}
	return &IntentFilter{logger: logger.With("component", "filter")}
}

// Filter returns the listings that match intent, in their original order.
func (f *IntentFilter) Filter(listings []models.Listing, intent models.SearchIntent) []models.Listing {
	kept := make([]models.Listing, 0, len(listings))
	for _, l := range listings {
		if reason, rejected := RejectReason(l, intent); rejected {
			f.logger.Debug("listing rejected", "url", l.SourceURL, "reason", reason)
			continue
		}
		kept = append(kept, l)
	}
	f.logger.Info("filtered listings", "kept", len(kept), "total", len(listings))
	return kept
}

// RejectReason reports why l does not match intent. The bool is false when
// the listing passes every check.
func RejectReason(l models.Listing, intent models.SearchIntent) (string, bool) {
	if l.PriceNumber != nil {
		price := *l.PriceNumber
		if intent.PriceMax != nil && price > float64(*intent.PriceMax)*priceMaxBuffer {
			return fmt.Sprintf("price %.0f above max %d", price, *intent.PriceMax), true
		}
		if intent.PriceMin != nil && price < float64(*intent.PriceMin)*priceMinBuffer {
			return fmt.Sprintf("price %.0f below min %d", price, *intent.PriceMin), true
		}
	}

	if city := l.Location.City; city != "" && intent.City != "" {
		if !strings.EqualFold(city, intent.City) && !location.SameCity(city, intent.City) {
			return fmt.Sprintf("city %s, want %s", city, intent.City), true
		}
	}

	if intent.District != "" {
		if l.Location.District == "" {
			return "listing has no district", true
		}
		if !sameDistrict(l.Location.District, intent.District) {
			return fmt.Sprintf("district %s, want %s", l.Location.District, intent.District), true
		}
	}

	if intent.Bedrooms != nil {
		if l.Bedrooms == nil {
			return "listing has no bedroom count", true
		}
		if *l.Bedrooms != *intent.Bedrooms {
			return fmt.Sprintf("%d bedrooms, want %d", *l.Bedrooms, *intent.Bedrooms), true
		}
	}

	title := strings.ToLower(l.Title)
	switch {
	case isApartmentType(intent.PropertyType) && !containsAny(title, apartmentKeywords):
		return "title is not an apartment", true
	case isLandType(intent.PropertyType) && !containsAny(title, landKeywords):
		return "title is not land", true
	}
	return "", false
}

// sameDistrict compares district names without their administrative
// prefix. Numbered districts must match exactly so that "Quận 1" does not
// accept "Quận 10".
func sameDistrict(a, b string) bool {
	x, y := location.StripAdminPrefix(a), location.StripAdminPrefix(b)
	if location.IsNumeric(x) || location.IsNumeric(y) {
		return x == y
	}
	return strings.Contains(x, y) || strings.Contains(y, x)
}

func isApartmentType(propertyType string) bool {
	return containsAny(strings.ToLower(propertyType), apartmentTypes)
}

func isLandType(propertyType string) bool {
	pt := strings.ToLower(propertyType)
	return strings.Contains(pt, "đất") && !strings.Contains(pt, "nhà đất")
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if location.ContainsWord(text, kw) {
			return true
		}
	}
	return false
}
