package scraper

import (
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"

	"bds_scrooper/config"
	"bds_scrooper/document"
	"bds_scrooper/identity"
	"bds_scrooper/location"
	"bds_scrooper/models"
	"bds_scrooper/normalize"
)

const defaultMaxListings = 5

type extractor struct {
	cfg      *config.PlatformConfig
	origin   *url.URL
	site     string
	excluded []*regexp.Regexp
	logger   *slog.Logger
	now      func() time.Time
}

func newExtractor(cfg *config.PlatformConfig, logger *slog.Logger) (*extractor, error) {
	origin, err := url.Parse(cfg.Origin)
	if err != nil || origin.Host == "" {
		return nil, fmt.Errorf("platform %s: invalid origin %q", cfg.ID, cfg.Origin)
	}

	e := &extractor{
		cfg:    cfg,
		origin: origin,
		site:   identity.DetectPlatform(origin.Host),
		logger: logger,
		now:    time.Now,
	}
	for _, pattern := range cfg.ExcludedPaths {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("platform %s: excluded path %q: %w", cfg.ID, pattern, err)
		}
		e.excluded = append(e.excluded, re)
	}
	return e, nil
}

// Extract pulls up to limit listings out of a rendered results page. URLs
// already in seen (keyed by identity.NormalizeURL) are skipped and new ones
// are added to it. The second
// return is the number of candidate fragments examined.
func (e *extractor) Extract(markup string, seen map[string]bool, limit int) ([]models.Listing, int, error) {
	doc, err := document.Parse(markup)
	if err != nil {
		return nil, 0, err
	}

	candidates, selector := e.candidates(doc)
	e.logger.Debug("scanning candidates", "count", len(candidates), "selector", selector)

	var listings []models.Listing
	for _, frag := range candidates {
		if len(listings) >= limit {
			break
		}
		if isContainer(frag, selector) {
			continue
		}
		listing, ok := e.safeListing(frag)
		if !ok {
			continue
		}
		key := identity.NormalizeURL(listing.SourceURL)
		if seen[key] {
			continue
		}
		seen[key] = true
		listings = append(listings, listing)
	}
	return listings, len(candidates), nil
}

func (e *extractor) candidates(doc *document.Document) ([]*document.Fragment, string) {
	selector := strings.Join(e.cfg.CandidateSelectors, ", ")
	var found []*document.Fragment
	if selector != "" {
		found = doc.FindAll(selector)
	}
	if len(found) < e.cfg.MinCandidates && e.cfg.FallbackSelector != "" {
		e.logger.Debug("structure unclear, using fallback selector", "found", len(found))
		return doc.FindAll(e.cfg.FallbackSelector), e.cfg.FallbackSelector
	}
	return found, selector
}

// isContainer reports whether frag wraps two or more listing-shaped
// candidates, as result lists and page wrappers do.
func isContainer(frag *document.Fragment, selector string) bool {
	nested := 0
	for _, inner := range frag.FindAll(selector) {
		if inner.Find("a[href]") != nil && priceRe.MatchString(inner.Text()) {
			nested++
			if nested > 1 {
				return true
			}
		}
	}
	return false
}

func (e *extractor) safeListing(frag *document.Fragment) (listing models.Listing, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Debug("candidate skipped", "panic", r)
			ok = false
		}
	}()
	return e.listing(frag)
}

func (e *extractor) listing(frag *document.Fragment) (models.Listing, bool) {
	link := frag.Find("a[href]")
	if link == nil {
		return models.Listing{}, false
	}
	text := frag.Text()
	price := priceRe.FindString(text)
	if price == "" {
		return models.Listing{}, false
	}

	href, _ := link.Attr("href")
	sourceURL, ok := e.resolve(href)
	if !ok {
		return models.Listing{}, false
	}

	title := link.Text()
	if title == "" {
		if v, ok := link.Attr("title"); ok {
			title = strings.TrimSpace(v)
		}
	}
	if title == "" {
		if h := frag.Find(e.titleSelector()); h != nil {
			title = h.Text()
		}
	}
	if title == "" {
		e.logger.Debug("candidate without title", "url", sourceURL)
		return models.Listing{}, false
	}

	listing := models.Listing{
		ID:             identity.ListingID(sourceURL),
		Title:          title,
		SourceURL:      sourceURL,
		SourcePlatform: e.cfg.ID,
		Contact:        models.Contact{Phone: models.DefaultContact},
		ScrapedAt:      e.now().UTC(),
	}
	listing.SetPrice(price)

	if m := areaRe.FindStringSubmatch(text); m != nil {
		if v, ok := normalize.Number(m[1]); ok {
			listing.AreaM2 = &v
		}
	}
	if m := bedroomRe.FindStringSubmatch(text); m != nil {
		if n, ok := normalize.Number(m[1]); ok && n > 0 {
			beds := int(n)
			listing.Bedrooms = &beds
		}
	}
	if phone := phoneRe.FindString(text); phone != "" {
		listing.Contact.Phone = phone
	}

	listing.Location = e.location(frag, text)
	return listing, true
}

func (e *extractor) titleSelector() string {
	if e.cfg.TitleSelector != "" {
		return e.cfg.TitleSelector
	}
	return "h3"
}

// location reads the district from the dedicated location element when the
// platform has one, falling back to the whole fragment text.
func (e *extractor) location(frag *document.Fragment, text string) models.Location {
	var loc models.Location
	if e.cfg.LocationSelector != "" {
		if el := frag.Find(e.cfg.LocationSelector); el != nil {
			loc.Address = el.Text()
			loc.District = location.ExtractDistrict(loc.Address)
		}
	}
	if loc.District == "" {
		loc.District = location.ExtractDistrict(text)
	}

	loc.City = location.DetectCity(loc.Address)
	if loc.City == "" {
		loc.City = location.DetectCity(text)
	}
	if loc.City == "" && loc.District != "" {
		loc.City = location.CityOf(loc.District)
	}
	return loc
}

// resolve makes href absolute against the platform origin and rejects
// non-listing pages and links that lead to other sites.
func (e *extractor) resolve(href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
		return "", false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	abs := e.origin.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return "", false
	}

	for _, re := range e.excluded {
		if re.MatchString(abs.Path) {
			return "", false
		}
	}
	if abs.Host != e.origin.Host && identity.DetectPlatform(abs.Host) != e.site {
		return "", false
	}
	return abs.String(), true
}
