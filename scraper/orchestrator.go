package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"bds_scrooper/config"
	"bds_scrooper/models"
	"bds_scrooper/services"
)

type IntentParser interface {
	Parse(ctx context.Context, query string) models.SearchIntent
}

type Limiter interface {
	Wait(ctx context.Context) (time.Duration, error)
}

// RunRecorder keeps the per-platform run history and log lines.
type RunRecorder interface {
	CreateRun(run *models.ScrapeRun) (int64, error)
	UpdateRun(run *models.ScrapeRun) error
	Log(runID *int64, level models.LogLevel, message, platform string) error
}

type ResultCache interface {
	GetResult(ctx context.Context, key string) (*models.SearchResult, error)
	SetResult(ctx context.Context, key string, result *models.SearchResult) error
}

// ListingSink stores the listings a search produced.
type ListingSink interface {
	Persist(ctx context.Context, listings []models.Listing) (services.PersistStats, error)
}

type Indexer interface {
	RunOnce(ctx context.Context) (int, error)
}

// ProgressFunc receives coarse progress updates, percent in [0, 100].
type ProgressFunc func(percent int, message string)

type SearchOptions struct {
	MaxResults int
	Platforms  []string
	// Intent skips query parsing and the result cache when set.
	Intent   *models.SearchIntent
	Progress ProgressFunc
}

type Orchestrator struct {
	cfg      *config.Config
	scrapers map[string]Scraper
	parser   IntentParser
	limiter  Limiter
	recorder RunRecorder
	logger   *slog.Logger
	sleep    func(ctx context.Context, d time.Duration) error
	paused   atomic.Bool

	cache   ResultCache
	sink    ListingSink
	indexer Indexer
}

func NewOrchestrator(cfg *config.Config, scrapers map[string]Scraper, parser IntentParser, limiter Limiter, recorder RunRecorder, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		cfg:      cfg,
		scrapers: scrapers,
		parser:   parser,
		limiter:  limiter,
		recorder: recorder,
		logger:   logger.With("component", "orchestrator"),
		sleep:    sleepCtx,
	}
}

// SetServices wires the optional cache, persistence and indexing layers.
func (o *Orchestrator) SetServices(cache ResultCache, sink ListingSink, indexer Indexer) {
	o.cache = cache
	o.sink = sink
	o.indexer = indexer
}

// Search runs one query across the requested platforms in sequence. It
// always returns a result; failures are reported in result.Errors.
func (o *Orchestrator) Search(ctx context.Context, query string, opts SearchOptions) (result models.SearchResult) {
	start := time.Now()
	result = models.SearchResult{
		Listings:        []models.Listing{},
		SourcesSearched: []string{},
		Errors:          []string{},
	}
	progress := opts.Progress
	if progress == nil {
		progress = func(int, string) {}
	}

	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("search panicked", "query", query, "panic", r, "stack", string(debug.Stack()))
			result.Errors = append(result.Errors, fmt.Sprintf("search failed: %v", r))
		}
		result.TotalFound = len(result.Listings)
		result.ExecutionTimeMS = time.Since(start).Milliseconds()
		o.logger.Info("search completed", "query", query, "found", result.TotalFound, "duration_ms", result.ExecutionTimeMS)
	}()

	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = o.cfg.Search.MaxResults
	}
	platforms := opts.Platforms
	if len(platforms) == 0 {
		platforms = o.cfg.Search.DefaultPlatforms
	}

	var cacheKey string
	if opts.Intent == nil && o.cache != nil {
		cacheKey = searchCacheKey(query, platforms, maxResults)
		if cached, err := o.cache.GetResult(ctx, cacheKey); err == nil {
			o.logger.Info("cache hit", "query", query)
			result.Listings = cached.Listings
			result.SourcesSearched = cached.SourcesSearched
			result.Synthesis = cached.Synthesis
			result.FromCache = true
			progress(100, "Tìm kiếm hoàn tất!")
			return result
		}
	}

	progress(10, "Đang phân tích yêu cầu...")
	var intent models.SearchIntent
	if opts.Intent != nil {
		intent = opts.Intent.Normalize()
	} else {
		intent = o.parser.Parse(ctx, query)
	}
	if o.cfg.Search.GoogleSearch {
		o.logger.Info("search engine discovery unavailable, scraping platforms directly")
	}

	var all []models.Listing
	searched := 0
	for i, id := range platforms {
		scr, ok := o.scrapers[id]
		if !ok {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: unknown platform", id))
			continue
		}
		if ctx.Err() != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", id, ctx.Err()))
			break
		}
		if searched > 0 && o.cfg.Search.PlatformCooldown > 0 {
			o.logger.Info("platform cooldown", "delay", o.cfg.Search.PlatformCooldown)
			if err := o.sleep(ctx, o.cfg.Search.PlatformCooldown); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", id, err))
				break
			}
		}
		searched++

		progress(10+80*i/len(platforms), fmt.Sprintf("Đang tìm trên %s...", id))
		result.SourcesSearched = append(result.SourcesSearched, id)

		listings, err := o.runPlatform(ctx, scr, query, intent)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", id, err))
		}
		all = append(all, listings...)
	}

	unique := services.Dedupe(all)
	o.logger.Info("deduplicated", "raw", len(all), "unique", len(unique))
	if len(unique) > maxResults {
		unique = unique[:maxResults]
	}
	result.Listings = unique
	progress(100, "Tìm kiếm hoàn tất!")

	if cacheKey != "" && len(result.Errors) == 0 && len(result.Listings) > 0 {
		snapshot := result
		snapshot.TotalFound = len(snapshot.Listings)
		if err := o.cache.SetResult(ctx, cacheKey, &snapshot); err != nil {
			o.logger.Warn("cache store failed", "error", err)
		}
	}
	return result
}

func (o *Orchestrator) runPlatform(ctx context.Context, scr Scraper, query string, intent models.SearchIntent) (listings []models.Listing, err error) {
	platform := scr.ID()
	run := &models.ScrapeRun{
		Platform:  platform,
		Query:     query,
		StartedAt: time.Now(),
		Status:    models.RunStatusRunning,
	}
	if o.recorder != nil {
		if id, cerr := o.recorder.CreateRun(run); cerr != nil {
			o.logger.Warn("create run failed", "platform", platform, "error", cerr)
		} else {
			run.ID = id
		}
	}

	defer func() {
		aborted := false
		if r := recover(); r != nil {
			o.logger.Error("scraper panicked", "platform", platform, "panic", r, "stack", string(debug.Stack()))
			o.log(run.ID, models.LogLevelError, fmt.Sprintf("Scrape aborted: %v", r), platform)
			aborted = true
			listings = nil
			err = fmt.Errorf("panic: %v", r)
		}

		now := time.Now()
		run.FinishedAt = &now
		run.DurationMS = now.Sub(run.StartedAt).Milliseconds()
		run.ListingsFound = len(listings)
		switch {
		case aborted, err == nil && run.Status == models.RunStatusRunning:
			run.Status = models.RunStatusFailed
			run.Error = "aborted"
		case err != nil:
			run.Status = models.RunStatusFailed
			run.Error = err.Error()
		}
		if o.recorder != nil {
			if uerr := o.recorder.UpdateRun(run); uerr != nil {
				o.logger.Warn("update run failed", "platform", platform, "error", uerr)
			}
		}
	}()

	o.log(run.ID, models.LogLevelInfo, fmt.Sprintf("Searching %q", query), platform)

	if o.limiter != nil {
		waited, werr := o.limiter.Wait(ctx)
		if werr != nil {
			return nil, werr
		}
		if waited > 0 {
			o.log(run.ID, models.LogLevelInfo, fmt.Sprintf("Rate limit reached, waited %s", waited.Round(time.Second)), platform)
		}
	}

	listings, err = scr.Scrape(ctx, intent)
	if err != nil {
		o.log(run.ID, models.LogLevelError, fmt.Sprintf("Scrape error: %v", err), platform)
		return listings, err
	}

	level := models.LogLevelInfo
	if len(listings) == 0 {
		level = models.LogLevelWarn
	}
	o.log(run.ID, level, fmt.Sprintf("Found %d listings", len(listings)), platform)
	run.Status = models.RunStatusCompleted
	return listings, nil
}

// RunQuery searches and hands the listings to the configured sink.
func (o *Orchestrator) RunQuery(ctx context.Context, query string, opts SearchOptions) (models.SearchResult, error) {
	result := o.Search(ctx, query, opts)
	if o.sink == nil || len(result.Listings) == 0 || result.FromCache {
		return result, nil
	}

	stats, err := o.sink.Persist(ctx, result.Listings)
	if err != nil {
		return result, fmt.Errorf("persist listings: %w", err)
	}
	o.logger.Info("listings persisted",
		"query", query, "saved", stats.Saved, "new", stats.New, "indexed", stats.Indexed, "published", stats.Published)
	return result, nil
}

type BulkStats struct {
	Queries  int `json:"queries"`
	Listings int `json:"listings"`
	Errors   int `json:"errors"`
}

// RunBulk runs each query in turn, pausing between queries. It stops early
// when paused or when ctx ends.
func (o *Orchestrator) RunBulk(ctx context.Context, queries []string) BulkStats {
	var stats BulkStats
	if o.IsPaused() {
		o.logger.Info("scraper is paused, skipping bulk run")
		return stats
	}

	for i, q := range queries {
		if o.IsPaused() || ctx.Err() != nil {
			break
		}
		if i > 0 {
			if err := o.sleep(ctx, o.cfg.Scheduler.QueryCooldown); err != nil {
				break
			}
		}

		o.logger.Info("bulk query", "index", i+1, "total", len(queries), "query", q)
		result, err := o.RunQuery(ctx, q, SearchOptions{})
		stats.Queries++
		stats.Listings += len(result.Listings)
		stats.Errors += len(result.Errors)
		if err != nil {
			o.logger.Error("bulk query failed", "query", q, "error", err)
			stats.Errors++
		}
	}

	o.logger.Info("bulk run finished", "queries", stats.Queries, "listings", stats.Listings, "errors", stats.Errors)
	return stats
}

func (o *Orchestrator) HandleCommand(ctx context.Context, cmd *models.Command) error {
	params, err := cmd.ParseParams()
	if err != nil {
		return fmt.Errorf("command %d: %w", cmd.ID, err)
	}

	switch cmd.Command {
	case models.CmdSearchNow:
		if params.Query == "" {
			return fmt.Errorf("command %d: search_now needs a query", cmd.ID)
		}
		if o.IsPaused() {
			o.logger.Info("scraper is paused, skipping search", "query", params.Query)
			return nil
		}
		_, err := o.RunQuery(ctx, params.Query, SearchOptions{MaxResults: params.MaxResults, Platforms: params.Platforms})
		return err
	case models.CmdBulkNow:
		o.RunBulk(ctx, o.cfg.Queries)
	case models.CmdPause:
		o.paused.Store(true)
		o.logger.Info("scraper paused")
	case models.CmdResume:
		o.paused.Store(false)
		o.logger.Info("scraper resumed")
	case models.CmdRunIndexer:
		if o.indexer == nil {
			return fmt.Errorf("command %d: no indexer configured", cmd.ID)
		}
		n, err := o.indexer.RunOnce(ctx)
		if err != nil {
			return err
		}
		o.logger.Info("indexer run", "indexed", n)
	default:
		return fmt.Errorf("command %d: unknown command %q", cmd.ID, cmd.Command)
	}
	return nil
}

func (o *Orchestrator) IsPaused() bool {
	return o.paused.Load()
}

func (o *Orchestrator) log(runID int64, level models.LogLevel, message, platform string) {
	switch level {
	case models.LogLevelError:
		o.logger.Error(message, "platform", platform, "run_id", runID)
	case models.LogLevelWarn:
		o.logger.Warn(message, "platform", platform, "run_id", runID)
	default:
		o.logger.Info(message, "platform", platform, "run_id", runID)
	}
	if o.recorder == nil || runID == 0 {
		return
	}
	if err := o.recorder.Log(&runID, level, message, platform); err != nil {
		o.logger.Debug("store log failed", "error", err)
	}
}

func (o *Orchestrator) PlatformIDs() []string {
	ids := make([]string, 0, len(o.scrapers))
	for id := range o.scrapers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func searchCacheKey(query string, platforms []string, maxResults int) string {
	q := strings.Join(strings.Fields(strings.ToLower(query)), " ")
	sorted := append([]string(nil), platforms...)
	sort.Strings(sorted)
	return fmt.Sprintf("search:%s:%s:%d", strings.Join(sorted, ","), q, maxResults)
}
