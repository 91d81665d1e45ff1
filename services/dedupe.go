package services

import (
	"bds_scrooper/identity"
	"bds_scrooper/models"
)

// Dedupe drops listings whose URL or title prefix was already seen,
// keeping the first occurrence. Listings with neither are always kept.
func Dedupe(listings []models.Listing) []models.Listing {
	seenURLs := make(map[string]bool)
	seenTitles := make(map[string]bool)
	out := make([]models.Listing, 0, len(listings))

	for _, l := range listings {
		url := l.SourceURL
		title := identity.TitleKey(l.Title)
		if url == "" && title == "" {
			out = append(out, l)
			continue
		}
		if (url != "" && seenURLs[url]) || (title != "" && seenTitles[title]) {
			continue
		}
		if url != "" {
			seenURLs[url] = true
		}
		if title != "" {
			seenTitles[title] = true
		}
		out = append(out, l)
	}
	return out
}
