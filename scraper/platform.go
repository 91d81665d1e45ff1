package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"bds_scrooper/browser"
	"bds_scrooper/config"
	"bds_scrooper/location"
	"bds_scrooper/models"
)

// urlBuilder renders the results URL for one page (1-based) of a search.
type urlBuilder func(cfg *config.PlatformConfig, intent models.SearchIntent, page int) string

// platform is the shared scrape loop: build URL, render, extract, filter.
// Platform files only contribute their URL scheme.
type platform struct {
	cfg       *config.PlatformConfig
	build     urlBuilder
	renderer  browser.Renderer
	filter    ListingFilter
	extractor *extractor
	opts      Options
	logger    *slog.Logger
}

func newPlatform(cfg *config.PlatformConfig, build urlBuilder, renderer browser.Renderer, filter ListingFilter, opts Options) (*platform, error) {
	if renderer == nil {
		return nil, fmt.Errorf("platform %s: no renderer", cfg.ID)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepCtx
	}
	if opts.MaxSteps < 1 {
		opts.MaxSteps = 1
	}

	logger := opts.Logger.With("component", "scraper", "platform", cfg.ID)
	ex, err := newExtractor(cfg, logger)
	if err != nil {
		return nil, err
	}

	return &platform{
		cfg:       cfg,
		build:     build,
		renderer:  renderer,
		filter:    filter,
		extractor: ex,
		opts:      opts,
		logger:    logger,
	}, nil
}

func (p *platform) ID() string {
	return p.cfg.ID
}

func (p *platform) Scrape(ctx context.Context, intent models.SearchIntent) ([]models.Listing, error) {
	limit := p.cfg.MaxListings
	if limit <= 0 {
		limit = defaultMaxListings
	}

	seen := make(map[string]bool)
	var listings []models.Listing

	for page := 1; page <= p.opts.MaxSteps && len(listings) < limit; page++ {
		if page > 1 {
			if err := p.opts.Sleep(ctx, p.opts.InterURLDelay); err != nil {
				return nil, err
			}
		}

		pageURL := p.build(p.cfg, intent, page)
		p.logger.Info("navigating", "url", pageURL, "page", page)

		markup, err := p.renderer.Render(ctx, pageURL)
		if err != nil {
			if page == 1 {
				return nil, err
			}
			p.logger.Warn("pagination stopped", "page", page, "error", err)
			break
		}

		found, candidates, err := p.extractor.Extract(markup, seen, limit-len(listings))
		if err != nil {
			return nil, fmt.Errorf("extract %s: %w", pageURL, err)
		}
		if candidates == 0 {
			p.archive(ctx, pageURL, markup)
		}
		if len(found) == 0 {
			break
		}
		listings = append(listings, found...)
	}

	p.logger.Info("extracted listings", "count", len(listings))
	if p.filter == nil {
		return listings, nil
	}
	return p.filter.Filter(listings, intent), nil
}

func (p *platform) archive(ctx context.Context, pageURL, markup string) {
	if p.opts.Archiver == nil {
		return
	}
	key, err := p.opts.Archiver.ArchivePage(ctx, p.cfg.ID, pageURL, markup)
	if err != nil {
		p.logger.Warn("archive empty page failed", "url", pageURL, "error", err)
		return
	}
	p.logger.Info("archived empty page", "url", pageURL, "key", key)
}

// firstPropertyType returns the first of several "|"-joined types.
func firstPropertyType(propertyType string) string {
	first, _, _ := strings.Cut(propertyType, "|")
	return strings.TrimSpace(first)
}

// categorySlug maps a property type onto the platform's category path
// segment, preferring an exact key and then the longest contained key.
func categorySlug(cfg *config.PlatformConfig, propertyType string) string {
	pt := strings.ToLower(firstPropertyType(propertyType))
	if pt == "" {
		return cfg.DefaultCategory
	}
	if slug, ok := cfg.CategorySlugs[pt]; ok {
		return slug
	}

	best, bestLen := "", 0
	for key, slug := range cfg.CategorySlugs {
		if len(key) > bestLen && location.ContainsWord(pt, key) {
			best, bestLen = slug, len(key)
		}
	}
	if best == "" {
		return cfg.DefaultCategory
	}
	return best
}

func regionSlug(cfg *config.PlatformConfig, city string) string {
	if city == "" {
		return cfg.DefaultRegion
	}
	if slug, ok := cfg.RegionSlugs[strings.ToLower(location.CanonicalCity(city))]; ok {
		return slug
	}
	return cfg.DefaultRegion
}

// districtSlug looks the district up in the platform table. Unknown
// districts get a plain slug when allowGuess is set.
func districtSlug(cfg *config.PlatformConfig, district string, allowGuess bool) string {
	if district == "" {
		return ""
	}
	canonical := location.CanonicalDistrict(district)
	if slug, ok := cfg.DistrictSlugs[strings.ToLower(canonical)]; ok {
		return slug
	}
	if !allowGuess {
		return ""
	}
	return location.Slugify(location.StripAdminPrefix(district))
}

func transactionSlug(cfg *config.PlatformConfig, intent models.SearchIntent) string {
	key := models.IntentBuy
	if intent.IsRent() {
		key = models.IntentRent
	}
	return cfg.TransactionSlugs[key]
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
