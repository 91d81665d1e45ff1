package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"bds_scrooper/llm"
	"bds_scrooper/models"
)

// VectorFilters narrows a semantic search. Zero values are ignored.
type VectorFilters struct {
	PropertyType   string
	District       string
	PriceMin       *float64
	PriceMax       *float64
	Bedrooms       *int
	SourcePlatform string
}

// VectorIndex stores listing embeddings next to the listing rows and
// answers nearest-neighbour queries with pgvector's cosine distance.
type VectorIndex struct {
	pool     *pgxpool.Pool
	embedder llm.Embedder
	logger   *slog.Logger
}

func NewVectorIndex(store *PostgresStore, embedder llm.Embedder, logger *slog.Logger) *VectorIndex {
	if logger == nil {
		logger = slog.Default()
	}
	return &VectorIndex{
		pool:     store.Pool(),
		embedder: embedder,
		logger:   logger.With("component", "vector"),
	}
}

// Index embeds the listings and stores their vectors. It returns how many
// rows were updated.
func (v *VectorIndex) Index(ctx context.Context, listings []models.Listing) (int, error) {
	if len(listings) == 0 {
		return 0, nil
	}

	texts := make([]string, len(listings))
	for i, l := range listings {
		texts[i] = EmbeddingText(l)
	}
	vectors, err := v.embedder.Embed(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed listings: %w", err)
	}
	if len(vectors) != len(listings) {
		return 0, fmt.Errorf("embed listings: got %d vectors for %d listings", len(vectors), len(listings))
	}

	batch := &pgx.Batch{}
	for i, l := range listings {
		batch.Queue(`UPDATE listings SET embedding = $1, indexed_at = NOW() WHERE id = $2`,
			pgvector.NewVector(vectors[i]), l.ID)
	}

	br := v.pool.SendBatch(ctx, batch)
	defer br.Close()

	indexed := 0
	var errs []error
	for _, l := range listings {
		tag, err := br.Exec()
		if err != nil {
			errs = append(errs, fmt.Errorf("index %s: %w", l.ID, err))
			continue
		}
		indexed += int(tag.RowsAffected())
	}
	v.logger.Info("indexed listings", "count", indexed)
	return indexed, errors.Join(errs...)
}

// SemanticSearch returns the listings closest to query that pass filters.
func (v *VectorIndex) SemanticSearch(ctx context.Context, query string, filters VectorFilters, limit int) ([]models.Listing, error) {
	vectors, err := v.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("embed query: no vector returned")
	}

	where, args := filters.clauses(2)
	args = append([]any{pgvector.NewVector(vectors[0])}, args...)
	args = append(args, limit)

	sql := fmt.Sprintf(`
		SELECT %s
		FROM listings
		WHERE %s
		ORDER BY embedding <=> $1
		LIMIT $%d`, listingColumns, where, len(args))

	rows, err := v.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("semantic search: %w", err)
	}
	return collectListings(rows)
}

func (f VectorFilters) clauses(argIndex int) (string, []any) {
	where := []string{"embedding IS NOT NULL"}
	var args []any

	add := func(clause string, arg any) {
		where = append(where, fmt.Sprintf(clause, argIndex))
		args = append(args, arg)
		argIndex++
	}

	if f.PropertyType != "" {
		add("property_type ILIKE $%d", "%"+f.PropertyType+"%")
	}
	if f.District != "" {
		add("district ILIKE $%d", "%"+f.District+"%")
	}
	if f.PriceMin != nil {
		add("price_number >= $%d", *f.PriceMin)
	}
	if f.PriceMax != nil {
		add("price_number <= $%d", *f.PriceMax)
	}
	if f.Bedrooms != nil {
		add("bedrooms = $%d", *f.Bedrooms)
	}
	if f.SourcePlatform != "" {
		add("source_platform = $%d", f.SourcePlatform)
	}
	return strings.Join(where, " AND "), args
}

// EmbeddingText is the text a listing is embedded from.
func EmbeddingText(l models.Listing) string {
	parts := []string{l.Title}
	for _, s := range []string{l.PropertyType, l.PriceText, l.Location.Address, l.Location.District, l.Location.City} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	if l.AreaM2 != nil {
		parts = append(parts, fmt.Sprintf("%.0f m²", *l.AreaM2))
	}
	if l.Bedrooms != nil {
		parts = append(parts, fmt.Sprintf("%d phòng ngủ", *l.Bedrooms))
	}
	return strings.Join(parts, " | ")
}
