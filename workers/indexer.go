package workers

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"bds_scrooper/models"
)

// DefaultIndexInterval replaces a non-positive Run interval.
const DefaultIndexInterval = 5 * time.Minute

type UnindexedSource interface {
	UnindexedListings(ctx context.Context, limit int) ([]models.Listing, error)
}

type ListingIndexer interface {
	Index(ctx context.Context, listings []models.Listing) (int, error)
}

// IndexWorker embeds stored listings that have no vector yet. It runs on
// an interval and can be triggered early.
type IndexWorker struct {
	source    UnindexedSource
	index     ListingIndexer
	batchSize int
	logger    *slog.Logger
	logFunc   LogFunc
	triggerCh chan struct{}
	mu        sync.Mutex
}

func NewIndexWorker(source UnindexedSource, index ListingIndexer, batchSize int, logger *slog.Logger) *IndexWorker {
	if batchSize <= 0 {
		batchSize = 20
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &IndexWorker{
		source:    source,
		index:     index,
		batchSize: batchSize,
		logger:    logger.With("component", "indexer"),
		logFunc:   NoOpLogger,
		triggerCh: make(chan struct{}, 1),
	}
}

func (w *IndexWorker) SetLogFunc(fn LogFunc) {
	if fn != nil {
		w.logFunc = fn
	}
}

// Trigger causes the worker to run immediately
func (w *IndexWorker) Trigger() {
	select {
	case w.triggerCh <- struct{}{}:
	default:
	}
}

// RunOnce indexes a single batch and returns how many listings were
// embedded. Concurrent calls are serialised.
func (w *IndexWorker) RunOnce(ctx context.Context) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	listings, err := w.source.UnindexedListings(ctx, w.batchSize)
	if err != nil {
		return 0, fmt.Errorf("load unindexed listings: %w", err)
	}
	if len(listings) == 0 {
		return 0, nil
	}

	n, err := w.index.Index(ctx, listings)
	if err != nil {
		w.logFunc(models.LogLevelError, "indexer", fmt.Sprintf("Indexed %d of %d listings: %v", n, len(listings), err))
		return n, err
	}
	w.logFunc(models.LogLevelInfo, "indexer", fmt.Sprintf("Indexed %d listings", n))
	return n, nil
}

// Run drains the backlog every interval until ctx ends.
func (w *IndexWorker) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		w.logger.Warn("invalid index interval, using default", "interval", interval, "default", DefaultIndexInterval)
		interval = DefaultIndexInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("index worker stopping")
			return
		case <-ticker.C:
			w.drain(ctx)
		case <-w.triggerCh:
			w.drain(ctx)
		}
	}
}

// drain keeps indexing full batches so a large backlog clears in one tick.
func (w *IndexWorker) drain(ctx context.Context) {
	total := 0
	for ctx.Err() == nil {
		n, err := w.RunOnce(ctx)
		total += n
		if err != nil {
			w.logger.Warn("index batch failed", "error", err)
			break
		}
		if n < w.batchSize {
			break
		}
	}
	if total > 0 {
		w.logger.Info("index pass finished", "indexed", total)
	}
}
