package scraper

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"bds_scrooper/config"
	"bds_scrooper/models"
	"bds_scrooper/services"
)

type fakeScraper struct {
	id       string
	listings []models.Listing
	err      error
	panics   bool
	intents  []models.SearchIntent
}

func (s *fakeScraper) ID() string { return s.id }

func (s *fakeScraper) Scrape(_ context.Context, intent models.SearchIntent) ([]models.Listing, error) {
	s.intents = append(s.intents, intent)
	if s.panics {
		panic("selector exploded")
	}
	return s.listings, s.err
}

type fakeParser struct {
	intent models.SearchIntent
	calls  int
}

func (p *fakeParser) Parse(context.Context, string) models.SearchIntent {
	p.calls++
	return p.intent
}

type fakeLimiter struct {
	wait  time.Duration
	calls int
}

func (l *fakeLimiter) Wait(context.Context) (time.Duration, error) {
	l.calls++
	return l.wait, nil
}

type fakeRecorder struct {
	runs map[int64]models.ScrapeRun
	logs []string
	next int64
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{runs: map[int64]models.ScrapeRun{}}
}

func (r *fakeRecorder) CreateRun(run *models.ScrapeRun) (int64, error) {
	r.next++
	r.runs[r.next] = *run
	return r.next, nil
}

func (r *fakeRecorder) UpdateRun(run *models.ScrapeRun) error {
	r.runs[run.ID] = *run
	return nil
}

func (r *fakeRecorder) Log(_ *int64, level models.LogLevel, message, platform string) error {
	r.logs = append(r.logs, string(level)+" "+platform+" "+message)
	return nil
}

func (r *fakeRecorder) byPlatform(platform string) models.ScrapeRun {
	for _, run := range r.runs {
		if run.Platform == platform {
			return run
		}
	}
	return models.ScrapeRun{}
}

type fakeCache struct {
	results map[string]*models.SearchResult
	sets    int
}

func (c *fakeCache) GetResult(_ context.Context, key string) (*models.SearchResult, error) {
	if r, ok := c.results[key]; ok {
		return r, nil
	}
	return nil, errors.New("miss")
}

func (c *fakeCache) SetResult(_ context.Context, key string, result *models.SearchResult) error {
	c.sets++
	c.results[key] = result
	return nil
}

type fakeSink struct {
	batches [][]models.Listing
}

func (s *fakeSink) Persist(_ context.Context, listings []models.Listing) (services.PersistStats, error) {
	s.batches = append(s.batches, listings)
	return services.PersistStats{Saved: len(listings)}, nil
}

type fakeIndexer struct{ calls int }

func (i *fakeIndexer) RunOnce(context.Context) (int, error) {
	i.calls++
	return 3, nil
}

func listing(url, title string) models.Listing {
	return models.Listing{SourceURL: url, Title: title}
}

type harness struct {
	orch     *Orchestrator
	parser   *fakeParser
	limiter  *fakeLimiter
	recorder *fakeRecorder
	sleeps   []time.Duration
	scrapers map[string]*fakeScraper
}

func newHarness(scrapers ...*fakeScraper) *harness {
	cfg := &config.Config{
		Search: config.SearchConfig{
			DefaultPlatforms: []string{"batdongsan", "chotot"},
			MaxResults:       20,
			PlatformCooldown: 5 * time.Second,
		},
		Scheduler: config.SchedulerConfig{QueryCooldown: time.Second},
		Queries:   []string{"Bán nhà Ba Đình", "Cho thuê căn hộ Quận 7"},
	}

	h := &harness{
		parser:   &fakeParser{intent: models.NewSearchIntent()},
		limiter:  &fakeLimiter{},
		recorder: newFakeRecorder(),
		scrapers: map[string]*fakeScraper{},
	}
	byID := map[string]Scraper{}
	for _, s := range scrapers {
		byID[s.id] = s
		h.scrapers[s.id] = s
	}
	h.orch = NewOrchestrator(cfg, byID, h.parser, h.limiter, h.recorder, nil)
	h.orch.sleep = func(_ context.Context, d time.Duration) error {
		h.sleeps = append(h.sleeps, d)
		return nil
	}
	return h
}

func TestSearchMergesDedupesAndTruncates(t *testing.T) {
	h := newHarness(
		&fakeScraper{id: "batdongsan", listings: []models.Listing{
			listing("https://batdongsan.com.vn/pr1", "Bán nhà Ba Đình 3 tỷ"),
			listing("https://batdongsan.com.vn/pr2", "Nhà riêng Cầu Giấy"),
		}},
		&fakeScraper{id: "chotot", listings: []models.Listing{
			listing("https://nha.chotot.com/1.htm", "Bán nhà Ba Đình 3 tỷ"),
			listing("https://nha.chotot.com/2.htm", "Căn hộ Hoàng Mai"),
		}},
	)

	var messages []string
	result := h.orch.Search(context.Background(), "Bán nhà Ba Đình", SearchOptions{
		MaxResults: 2,
		Progress:   func(_ int, msg string) { messages = append(messages, msg) },
	})

	if len(result.Listings) != 2 || result.TotalFound != 2 {
		t.Fatalf("expected 2 listings, got %d (total %d)", len(result.Listings), result.TotalFound)
	}
	if result.Listings[1].SourceURL != "https://batdongsan.com.vn/pr2" {
		t.Fatalf("unexpected order %+v", result.Listings)
	}
	if strings.Join(result.SourcesSearched, ",") != "batdongsan,chotot" {
		t.Fatalf("unexpected sources %v", result.SourcesSearched)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors %v", result.Errors)
	}
	if len(h.sleeps) != 1 || h.sleeps[0] != 5*time.Second {
		t.Fatalf("expected one platform cooldown, got %v", h.sleeps)
	}
	if h.limiter.calls != 2 {
		t.Fatalf("expected limiter per platform, got %d", h.limiter.calls)
	}
	if messages[0] != "Đang phân tích yêu cầu..." || messages[len(messages)-1] != "Tìm kiếm hoàn tất!" {
		t.Fatalf("unexpected progress %v", messages)
	}
	for _, id := range []string{"batdongsan", "chotot"} {
		run := h.recorder.byPlatform(id)
		if run.Status != models.RunStatusCompleted || run.ListingsFound != 2 || run.FinishedAt == nil {
			t.Fatalf("unexpected run for %s: %+v", id, run)
		}
	}
}

func TestSearchReportsUnknownAndFailingPlatforms(t *testing.T) {
	h := newHarness(
		&fakeScraper{id: "batdongsan", err: errors.New("navigation timeout")},
		&fakeScraper{id: "chotot", listings: []models.Listing{listing("https://nha.chotot.com/1.htm", "Căn hộ")}},
	)

	result := h.orch.Search(context.Background(), "căn hộ", SearchOptions{
		Platforms: []string{"mogi", "batdongsan", "chotot"},
	})

	want := []string{"mogi: unknown platform", "batdongsan: navigation timeout"}
	if strings.Join(result.Errors, "|") != strings.Join(want, "|") {
		t.Fatalf("errors = %v, want %v", result.Errors, want)
	}
	if strings.Join(result.SourcesSearched, ",") != "batdongsan,chotot" {
		t.Fatalf("unknown platform counted as searched: %v", result.SourcesSearched)
	}
	if len(result.Listings) != 1 {
		t.Fatalf("expected surviving platform results, got %d", len(result.Listings))
	}
	if len(h.sleeps) != 1 {
		t.Fatalf("expected one cooldown, got %v", h.sleeps)
	}
	run := h.recorder.byPlatform("batdongsan")
	if run.Status != models.RunStatusFailed || run.Error != "navigation timeout" {
		t.Fatalf("unexpected failed run %+v", run)
	}
}

func TestSearchRecoversFromPanic(t *testing.T) {
	h := newHarness(&fakeScraper{id: "batdongsan", panics: true})

	result := h.orch.Search(context.Background(), "nhà", SearchOptions{Platforms: []string{"batdongsan"}})

	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "selector exploded") {
		t.Fatalf("unexpected errors %v", result.Errors)
	}
	if result.TotalFound != 0 || result.Listings == nil {
		t.Fatalf("expected an empty, non-nil listing slice, got %+v", result)
	}
	run := h.recorder.byPlatform("batdongsan")
	if run.Status != models.RunStatusFailed || run.Error != "aborted" {
		t.Fatalf("unexpected run after panic %+v", run)
	}
}

func TestSearchContinuesAfterPanickingPlatform(t *testing.T) {
	bds := &fakeScraper{id: "batdongsan", panics: true}
	chotot := &fakeScraper{id: "chotot", listings: []models.Listing{listing("https://nha.chotot.com/1.htm", "Căn hộ Quận 7")}}
	h := newHarness(bds, chotot)

	result := h.orch.Search(context.Background(), "căn hộ", SearchOptions{Platforms: []string{"batdongsan", "chotot"}})

	if len(chotot.intents) != 1 {
		t.Fatalf("expected chotot scraped after the panic, got %d calls", len(chotot.intents))
	}
	if strings.Join(result.SourcesSearched, ",") != "batdongsan,chotot" {
		t.Fatalf("unexpected sources %v", result.SourcesSearched)
	}
	if len(result.Listings) != 1 || result.TotalFound != 1 {
		t.Fatalf("expected the chotot listing kept, got %+v", result.Listings)
	}
	if len(result.Errors) != 1 || !strings.HasPrefix(result.Errors[0], "batdongsan: ") {
		t.Fatalf("unexpected errors %v", result.Errors)
	}
	if run := h.recorder.byPlatform("chotot"); run.Status != models.RunStatusCompleted {
		t.Fatalf("unexpected chotot run %+v", run)
	}
}

func TestSearchUsesResultCache(t *testing.T) {
	bds := &fakeScraper{id: "batdongsan", listings: []models.Listing{listing("https://batdongsan.com.vn/pr1", "Nhà")}}
	h := newHarness(bds)
	cache := &fakeCache{results: map[string]*models.SearchResult{}}
	h.orch.SetServices(cache, nil, nil)
	opts := SearchOptions{Platforms: []string{"batdongsan"}}

	first := h.orch.Search(context.Background(), "Nhà  Ba Đình", opts)
	if first.FromCache || cache.sets != 1 {
		t.Fatalf("expected fresh result stored, from_cache=%v sets=%d", first.FromCache, cache.sets)
	}

	second := h.orch.Search(context.Background(), "nhà ba đình", opts)
	if !second.FromCache || len(second.Listings) != 1 || second.TotalFound != 1 {
		t.Fatalf("expected cached result, got %+v", second)
	}
	if len(bds.intents) != 1 || h.parser.calls != 1 {
		t.Fatalf("cache hit should skip parsing and scraping: scrapes=%d parses=%d", len(bds.intents), h.parser.calls)
	}

	intent := models.SearchIntent{District: "Ba Đình"}
	third := h.orch.Search(context.Background(), "nhà ba đình", SearchOptions{Platforms: []string{"batdongsan"}, Intent: &intent})
	if third.FromCache {
		t.Fatal("explicit intent must bypass the cache")
	}
	if h.parser.calls != 1 {
		t.Fatalf("explicit intent must not be parsed")
	}
	got := bds.intents[len(bds.intents)-1]
	if got.City != models.DefaultCity || got.Intent != models.IntentBuy {
		t.Fatalf("explicit intent not normalized: %+v", got)
	}
}

func TestSearchDoesNotCacheFailures(t *testing.T) {
	h := newHarness(&fakeScraper{id: "batdongsan", err: errors.New("blocked")})
	cache := &fakeCache{results: map[string]*models.SearchResult{}}
	h.orch.SetServices(cache, nil, nil)

	h.orch.Search(context.Background(), "nhà", SearchOptions{Platforms: []string{"batdongsan"}})
	if cache.sets != 0 {
		t.Fatalf("failed search was cached")
	}
}

func TestSearchStopsOnCancelledContext(t *testing.T) {
	bds := &fakeScraper{id: "batdongsan"}
	h := newHarness(bds)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := h.orch.Search(ctx, "nhà", SearchOptions{Platforms: []string{"batdongsan"}})
	if len(bds.intents) != 0 {
		t.Fatal("scraper ran after cancellation")
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "context canceled") {
		t.Fatalf("unexpected errors %v", result.Errors)
	}
}

func TestRunQueryPersistsFreshResults(t *testing.T) {
	bds := &fakeScraper{id: "batdongsan", listings: []models.Listing{listing("https://batdongsan.com.vn/pr1", "Nhà")}}
	h := newHarness(bds)
	sink := &fakeSink{}
	cache := &fakeCache{results: map[string]*models.SearchResult{}}
	h.orch.SetServices(cache, sink, nil)
	opts := SearchOptions{Platforms: []string{"batdongsan"}}

	if _, err := h.orch.RunQuery(context.Background(), "nhà", opts); err != nil {
		t.Fatalf("RunQuery: %v", err)
	}
	if _, err := h.orch.RunQuery(context.Background(), "nhà", opts); err != nil {
		t.Fatalf("RunQuery: %v", err)
	}
	if len(sink.batches) != 1 {
		t.Fatalf("expected cached repeat to skip persistence, got %d batches", len(sink.batches))
	}
}

func TestHandleCommand(t *testing.T) {
	bds := &fakeScraper{id: "batdongsan", listings: []models.Listing{listing("https://batdongsan.com.vn/pr1", "Nhà")}}
	h := newHarness(bds)
	sink := &fakeSink{}
	h.orch.SetServices(nil, sink, nil)
	ctx := context.Background()

	if err := h.orch.HandleCommand(ctx, &models.Command{ID: 1, Command: models.CmdPause}); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if !h.orch.IsPaused() {
		t.Fatal("expected paused")
	}
	search := &models.Command{ID: 2, Command: models.CmdSearchNow, Params: []byte(`{"query":"nhà","platforms":["batdongsan"]}`)}
	if err := h.orch.HandleCommand(ctx, search); err != nil {
		t.Fatalf("search while paused: %v", err)
	}
	if len(bds.intents) != 0 {
		t.Fatal("search ran while paused")
	}
	if stats := h.orch.RunBulk(ctx, []string{"nhà"}); stats.Queries != 0 {
		t.Fatal("bulk ran while paused")
	}

	if err := h.orch.HandleCommand(ctx, &models.Command{ID: 3, Command: models.CmdResume}); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if err := h.orch.HandleCommand(ctx, search); err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(bds.intents) != 1 || len(sink.batches) != 1 {
		t.Fatalf("expected one search persisted, scrapes=%d batches=%d", len(bds.intents), len(sink.batches))
	}

	if err := h.orch.HandleCommand(ctx, &models.Command{ID: 4, Command: models.CmdSearchNow}); err == nil {
		t.Fatal("expected error for search without query")
	}
	if err := h.orch.HandleCommand(ctx, &models.Command{ID: 5, Command: models.CmdSearchNow, Params: []byte(`{`)}); err == nil {
		t.Fatal("expected error for malformed params")
	}
	if err := h.orch.HandleCommand(ctx, &models.Command{ID: 6, Command: models.CmdRunIndexer}); err == nil {
		t.Fatal("expected error without indexer")
	}
	if err := h.orch.HandleCommand(ctx, &models.Command{ID: 7, Command: "reboot"}); err == nil {
		t.Fatal("expected error for unknown command")
	}

	indexer := &fakeIndexer{}
	h.orch.SetServices(nil, sink, indexer)
	if err := h.orch.HandleCommand(ctx, &models.Command{ID: 8, Command: models.CmdRunIndexer}); err != nil {
		t.Fatalf("run_indexer: %v", err)
	}
	if indexer.calls != 1 {
		t.Fatalf("indexer not run")
	}
}

func TestRunBulkRunsConfiguredQueries(t *testing.T) {
	bds := &fakeScraper{id: "batdongsan", listings: []models.Listing{listing("https://batdongsan.com.vn/pr1", "Nhà")}}
	chotot := &fakeScraper{id: "chotot", err: errors.New("blocked")}
	h := newHarness(bds, chotot)

	if err := h.orch.HandleCommand(context.Background(), &models.Command{ID: 1, Command: models.CmdBulkNow}); err != nil {
		t.Fatalf("bulk_now: %v", err)
	}
	if len(bds.intents) != 2 {
		t.Fatalf("expected both queries scraped, got %d", len(bds.intents))
	}

	h.sleeps = nil
	stats := h.orch.RunBulk(context.Background(), []string{"a", "b", "c"})
	if stats.Queries != 3 || stats.Listings != 3 || stats.Errors != 3 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	cooldowns := 0
	for _, d := range h.sleeps {
		if d == time.Second {
			cooldowns++
		}
	}
	if cooldowns != 2 {
		t.Fatalf("expected 2 query cooldowns, got %v", h.sleeps)
	}
}

func TestSearchCacheKeyNormalizesQuery(t *testing.T) {
	a := searchCacheKey("  Bán NHÀ   Ba Đình ", []string{"batdongsan"}, 20)
	b := searchCacheKey("bán nhà ba đình", []string{"batdongsan"}, 20)
	if a != b {
		t.Fatalf("keys differ: %q vs %q", a, b)
	}
	if a == searchCacheKey("bán nhà ba đình", []string{"chotot"}, 20) {
		t.Fatal("platforms must be part of the key")
	}
	if searchCacheKey("nhà", []string{"chotot", "batdongsan"}, 20) != searchCacheKey("nhà", []string{"batdongsan", "chotot"}, 20) {
		t.Fatal("platform order must not change the key")
	}
}
