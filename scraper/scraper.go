package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"bds_scrooper/browser"
	"bds_scrooper/config"
	"bds_scrooper/models"
)

// Scraper turns a search intent into listings from one classifieds site.
type Scraper interface {
	ID() string
	Scrape(ctx context.Context, intent models.SearchIntent) ([]models.Listing, error)
}

// ListingFilter narrows extracted listings to those matching the intent.
type ListingFilter interface {
	Filter(listings []models.Listing, intent models.SearchIntent) []models.Listing
}

// PageArchiver keeps rendered pages that yielded no candidates.
type PageArchiver interface {
	ArchivePage(ctx context.Context, platform, pageURL, markup string) (string, error)
}

type Options struct {
	// MaxSteps bounds how many result pages one Scrape call visits.
	MaxSteps      int
	InterURLDelay time.Duration
	Archiver      PageArchiver
	Logger        *slog.Logger
	Sleep         func(ctx context.Context, d time.Duration) error
}

func NewScraper(cfg *config.PlatformConfig, renderer browser.Renderer, filter ListingFilter, opts Options) (Scraper, error) {
	var build urlBuilder
	switch cfg.Handler {
	case "batdongsan":
		build = batdongsanURL
	case "chotot":
		build = chototURL
	case "mogi":
		build = mogiURL
	default:
		return nil, fmt.Errorf("platform %s: unknown handler %q", cfg.ID, cfg.Handler)
	}
	return newPlatform(cfg, build, renderer, filter, opts)
}

// NewScrapers builds one scraper per configured platform.
func NewScrapers(platforms map[string]*config.PlatformConfig, renderer browser.Renderer, filter ListingFilter, opts Options) (map[string]Scraper, error) {
	out := make(map[string]Scraper, len(platforms))
	for id, cfg := range platforms {
		s, err := NewScraper(cfg, renderer, filter, opts)
		if err != nil {
			return nil, err
		}
		out[id] = s
	}
	return out, nil
}
