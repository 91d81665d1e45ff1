package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bds_scrooper/models"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Pool() *pgxpool.Pool {
	return s.pool
}

// Migrate creates the listings table with an embedding column of the given
// dimension.
func (s *PostgresStore) Migrate(ctx context.Context, embeddingDims int) error {
	schema := fmt.Sprintf(`
		CREATE EXTENSION IF NOT EXISTS vector;

		CREATE TABLE IF NOT EXISTS listings (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			price_text TEXT,
			price_number DOUBLE PRECISION,
			area_m2 DOUBLE PRECISION,
			bedrooms INTEGER,
			address TEXT,
			district TEXT,
			city TEXT,
			contact_phone TEXT,
			source_url TEXT NOT NULL,
			source_platform TEXT NOT NULL,
			property_type TEXT,
			scraped_at TIMESTAMPTZ,
			embedding vector(%d),
			indexed_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_listings_unindexed ON listings(scraped_at) WHERE indexed_at IS NULL;
		CREATE INDEX IF NOT EXISTS idx_listings_district ON listings(district);
		CREATE INDEX IF NOT EXISTS idx_listings_platform ON listings(source_platform);
	`, embeddingDims)

	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// =============================================================================
// Listings
// =============================================================================

const listingColumns = `id, title, price_text, price_number, area_m2, bedrooms, address, district, city,
	contact_phone, source_url, source_platform, property_type, scraped_at`

// UpsertListing inserts or refreshes a listing by ID and reports whether the
// row is new. A re-scrape clears indexed_at so the listing is re-embedded.
func (s *PostgresStore) UpsertListing(ctx context.Context, l *models.Listing) (bool, error) {
	query := `
		INSERT INTO listings (` + listingColumns + `, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			price_text = EXCLUDED.price_text,
			price_number = EXCLUDED.price_number,
			area_m2 = COALESCE(EXCLUDED.area_m2, listings.area_m2),
			bedrooms = COALESCE(EXCLUDED.bedrooms, listings.bedrooms),
			address = COALESCE(EXCLUDED.address, listings.address),
			district = COALESCE(EXCLUDED.district, listings.district),
			city = COALESCE(EXCLUDED.city, listings.city),
			contact_phone = EXCLUDED.contact_phone,
			property_type = COALESCE(EXCLUDED.property_type, listings.property_type),
			scraped_at = EXCLUDED.scraped_at,
			indexed_at = CASE WHEN listings.title IS DISTINCT FROM EXCLUDED.title THEN NULL ELSE listings.indexed_at END,
			updated_at = NOW()
		RETURNING (xmax = 0)`

	var inserted bool
	err := s.pool.QueryRow(ctx, query,
		l.ID, l.Title, nullText(l.PriceText), l.PriceNumber, l.AreaM2, l.Bedrooms,
		nullText(l.Location.Address), nullText(l.Location.District), nullText(l.Location.City),
		nullText(l.Contact.Phone), l.SourceURL, l.SourcePlatform, nullText(l.PropertyType), l.ScrapedAt,
	).Scan(&inserted)
	if err != nil {
		return false, fmt.Errorf("upsert listing %s: %w", l.ID, err)
	}
	return inserted, nil
}

// UnindexedListings returns listings that have no embedding yet, oldest first.
func (s *PostgresStore) UnindexedListings(ctx context.Context, limit int) ([]models.Listing, error) {
	query := `
		SELECT ` + listingColumns + `
		FROM listings
		WHERE indexed_at IS NULL
		ORDER BY scraped_at NULLS LAST
		LIMIT $1`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	return collectListings(rows)
}

func collectListings(rows pgx.Rows) ([]models.Listing, error) {
	defer rows.Close()

	var listings []models.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, *l)
	}
	return listings, rows.Err()
}

func scanListing(row pgx.Row) (*models.Listing, error) {
	var l models.Listing
	var priceText, address, district, city, phone, propertyType *string
	var scrapedAt *time.Time

	err := row.Scan(
		&l.ID, &l.Title, &priceText, &l.PriceNumber, &l.AreaM2, &l.Bedrooms,
		&address, &district, &city, &phone, &l.SourceURL, &l.SourcePlatform, &propertyType, &scrapedAt,
	)
	if err != nil {
		return nil, err
	}

	l.PriceText = deref(priceText)
	l.Location = models.Location{Address: deref(address), District: deref(district), City: deref(city)}
	l.Contact = models.Contact{Phone: deref(phone)}
	l.PropertyType = deref(propertyType)
	if scrapedAt != nil {
		l.ScrapedAt = *scrapedAt
	}
	return &l, nil
}

func nullText(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
