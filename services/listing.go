package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"bds_scrooper/identity"
	"bds_scrooper/models"
	"bds_scrooper/storage"
)

// Column limit shared by title, address and URL.
const maxFieldRunes = 490

var ErrNoVectorIndex = errors.New("vector index not configured")

type ListingStore interface {
	UpsertListing(ctx context.Context, l *models.Listing) (bool, error)
}

type VectorIndex interface {
	Index(ctx context.Context, listings []models.Listing) (int, error)
	SemanticSearch(ctx context.Context, query string, filters storage.VectorFilters, limit int) ([]models.Listing, error)
}

type ListingPublisher interface {
	PublishListing(ctx context.Context, l models.Listing, isNew bool) error
}

// ListingService fans persisted listings out to the store, the vector
// index and the event exchange. Each collaborator is optional.
type ListingService struct {
	store     ListingStore
	index     VectorIndex
	publisher ListingPublisher
	logger    *slog.Logger
}

func NewListingService(store ListingStore, index VectorIndex, publisher ListingPublisher, logger *slog.Logger) *ListingService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ListingService{
		store:     store,
		index:     index,
		publisher: publisher,
		logger:    logger.With("component", "listings"),
	}
}

type PersistStats struct {
	Saved     int
	New       int
	Indexed   int
	Published int
}

// Persist stores listings and returns what was done. A listing that fails
// to save is skipped; the errors are joined into the returned error.
func (s *ListingService) Persist(ctx context.Context, listings []models.Listing) (PersistStats, error) {
	var stats PersistStats
	var errs []error
	saved := make([]models.Listing, 0, len(listings))

	for _, raw := range listings {
		l := PrepareListing(raw)

		isNew := false
		if s.store != nil {
			var err error
			isNew, err = s.store.UpsertListing(ctx, &l)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if isNew {
				stats.New++
			}
		}
		stats.Saved++
		saved = append(saved, l)

		if s.publisher != nil {
			if err := s.publisher.PublishListing(ctx, l, isNew); err != nil {
				s.logger.Warn("publish listing failed", "id", l.ID, "error", err)
			} else {
				stats.Published++
			}
		}
	}

	if s.index != nil && s.store != nil && len(saved) > 0 {
		n, err := s.index.Index(ctx, saved)
		if err != nil {
			s.logger.Warn("index listings failed", "error", err)
		}
		stats.Indexed = n
	}

	return stats, errors.Join(errs...)
}

// Recall looks up stored listings semantically close to query, narrowed by
// the intent's structured fields.
func (s *ListingService) Recall(ctx context.Context, query string, intent models.SearchIntent, limit int) ([]models.Listing, error) {
	if s.index == nil {
		return nil, ErrNoVectorIndex
	}
	listings, err := s.index.SemanticSearch(ctx, query, FiltersFromIntent(intent), limit)
	if err != nil {
		return nil, fmt.Errorf("recall %q: %w", query, err)
	}
	return listings, nil
}

func FiltersFromIntent(intent models.SearchIntent) storage.VectorFilters {
	f := storage.VectorFilters{
		PropertyType: firstType(intent.PropertyType),
		District:     intent.District,
		Bedrooms:     intent.Bedrooms,
	}
	if intent.PriceMin != nil {
		v := float64(*intent.PriceMin)
		f.PriceMin = &v
	}
	if intent.PriceMax != nil {
		v := float64(*intent.PriceMax)
		f.PriceMax = &v
	}
	return f
}

// PrepareListing fills the ID and clips fields to the column limit.
func PrepareListing(l models.Listing) models.Listing {
	if l.ID == "" && l.SourceURL != "" {
		l.ID = identity.ListingID(l.SourceURL)
	}
	l.Title = clip(l.Title, maxFieldRunes)
	l.Location.Address = clip(l.Location.Address, maxFieldRunes)
	l.SourceURL = clip(l.SourceURL, maxFieldRunes)
	return l
}

func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func firstType(propertyType string) string {
	first, _, _ := strings.Cut(propertyType, "|")
	return strings.TrimSpace(first)
}
