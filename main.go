package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"bds_scrooper/browser"
	"bds_scrooper/config"
	"bds_scrooper/httputil"
	"bds_scrooper/intent"
	"bds_scrooper/llm"
	"bds_scrooper/logging"
	"bds_scrooper/notify"
	"bds_scrooper/ratelimit"
	"bds_scrooper/scheduler"
	"bds_scrooper/scraper"
	"bds_scrooper/services"
	"bds_scrooper/storage"
	"bds_scrooper/workers"
)

var (
	query     = flag.String("query", "", "Run one search and print the result as JSON")
	maxResult = flag.Int("max", 0, "Maximum listings returned (default from SEARCH_MAX_RESULTS)")
	platforms = flag.String("platforms", "", "Comma-separated platform IDs (default from SEARCH_PLATFORMS)")
	bulk      = flag.Bool("bulk", false, "Run the bulk query list once and exit")
	health    = flag.Bool("health", false, "Check the language model and print pipeline stats")
	recall    = flag.String("recall", "", "Search stored listings semantically and print them as JSON")
)

func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, closeLogs, err := logging.Setup(logging.Options{
		Path:       cfg.LogPath,
		Level:      cfg.LogLevel,
		Console:    os.Stderr,
		FluentHost: cfg.Fluent.Host,
		FluentPort: cfg.Fluent.Port,
		FluentTag:  cfg.Fluent.Tag,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	defer closeLogs()

	if err := run(cfg, logger); err != nil {
		logger.Error("fatal", "error", err)
		closeLogs()
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting bds_scrooper", "platforms", cfg.PlatformIDs())

	clients, err := httputil.NewClients(cfg.Proxy, cfg.LLM.Timeout)
	if err != nil {
		return err
	}
	if cfg.Proxy.URL != "" {
		logger.Info("proxy configured", "url", maskConnectionString(cfg.Proxy.URL))
	}

	var client llm.Client
	chain, err := llm.NewChain(ctx, cfg.LLM, clients.API, logger)
	if err != nil {
		logger.Warn("no language model available, using keyword parsing", "error", err)
	} else {
		client = chain
	}

	sqliteStore, err := storage.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	defer sqliteStore.Close()
	logger.Info("sqlite database", "path", cfg.DBPath)

	if *health {
		return printHealth(ctx, cfg, client, sqliteStore)
	}

	var (
		listingStore services.ListingStore
		vectorIndex  services.VectorIndex
		publisher    services.ListingPublisher
		cache        scraper.ResultCache
		archiver     scraper.PageArchiver
		indexWorker  *workers.IndexWorker
	)

	if cfg.Postgres.URL != "" {
		pgStore, err := storage.NewPostgresStore(ctx, cfg.Postgres.URL)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pgStore.Close()
		if err := pgStore.Migrate(ctx, cfg.LLM.EmbeddingDims); err != nil {
			return err
		}
		listingStore = pgStore
		logger.Info("connected to postgres", "url", maskConnectionString(cfg.Postgres.URL))

		if chain != nil {
			if embedder, ok := chain.Embedder(); ok {
				vi := storage.NewVectorIndex(pgStore, embedder, logger)
				vectorIndex = vi
				indexWorker = workers.NewIndexWorker(pgStore, vi, cfg.Scheduler.IndexBatch, logger)
				indexWorker.SetLogFunc(workers.StoreLogger(sqliteStore.Log))
			}
		}
	}

	if cfg.Redis.URL != "" {
		rc, err := storage.NewResultCache(ctx, cfg.Redis.URL, cfg.Search.CacheTTL)
		if err != nil {
			logger.Warn("result cache disabled", "error", err)
		} else {
			defer rc.Close()
			cache = rc
		}
	}

	if cfg.S3.Bucket != "" {
		sa, err := storage.NewSnapshotArchiver(ctx, cfg.S3)
		if err != nil {
			logger.Warn("page snapshots disabled", "error", err)
		} else {
			archiver = sa
		}
	}

	if cfg.AMQP.URL != "" {
		pub, err := notify.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange, logger)
		if err != nil {
			logger.Warn("listing events disabled", "error", err)
		} else {
			defer pub.Close()
			publisher = pub
		}
	}

	listings := services.NewListingService(listingStore, vectorIndex, publisher, logger)

	if *recall != "" {
		parser := intent.NewParser(client, cfg.LLM.Timeout, logger)
		found, err := listings.Recall(ctx, *recall, parser.Parse(ctx, *recall), resultLimit(cfg))
		if err != nil {
			return err
		}
		return printJSON(found)
	}

	opts := browser.OptionsFromConfig(cfg.Browser, cfg.Proxy, logger)
	opts.Transport = clients.Scraping.Transport
	renderer, err := browser.New(cfg.Browser.Engine, opts)
	if err != nil {
		return err
	}
	defer renderer.Close()
	logger.Info("browser ready", "engine", renderer.Name(), "headless", cfg.Browser.Headless)

	scrapers, err := scraper.NewScrapers(cfg.Platforms, renderer, services.NewIntentFilter(logger), scraper.Options{
		MaxSteps:      cfg.Search.MaxSteps,
		InterURLDelay: cfg.Search.InterURLDelay,
		Archiver:      archiver,
		Logger:        logger,
	})
	if err != nil {
		return err
	}

	orchestrator := scraper.NewOrchestrator(
		cfg,
		scrapers,
		intent.NewParser(client, cfg.LLM.Timeout, logger),
		ratelimit.New(cfg.Search.RateLimitPerMinute),
		sqliteStore,
		logger,
	)
	var indexer scraper.Indexer
	if indexWorker != nil {
		indexer = indexWorker
	}
	orchestrator.SetServices(cache, listings, indexer)

	if *query != "" {
		result, err := orchestrator.RunQuery(ctx, *query, scraper.SearchOptions{
			MaxResults: *maxResult,
			Platforms:  splitList(*platforms),
			Progress: func(percent int, message string) {
				logger.Info(message, "progress", percent)
			},
		})
		if err != nil {
			logger.Warn("search finished with persistence errors", "error", err)
		}
		return printJSON(result)
	}

	if *bulk {
		stats := orchestrator.RunBulk(ctx, cfg.Queries)
		return printJSON(stats)
	}

	// Daemon mode
	sched := scheduler.New(cfg, orchestrator, sqliteStore, logger)
	if indexWorker != nil {
		sched.SetIndexWorker(indexWorker)
		go indexWorker.Run(ctx, cfg.Scheduler.IndexInterval)
		logger.Info("index worker started", "interval", cfg.Scheduler.IndexInterval)
	}
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	logger.Info("daemon running, press Ctrl+C to stop")
	<-ctx.Done()

	logger.Info("shutting down")
	sched.Stop()
	return nil
}

func resultLimit(cfg *config.Config) int {
	if *maxResult > 0 {
		return *maxResult
	}
	return cfg.Search.MaxResults
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// maskConnectionString hides the password in a connection URL for logging.
func maskConnectionString(connStr string) string {
	u, err := url.Parse(connStr)
	if err != nil || u.User == nil {
		return connStr
	}
	return u.Redacted()
}

func printHealth(ctx context.Context, cfg *config.Config, client llm.Client, store *storage.SQLiteStore) error {
	hs := services.NewHealthService(cfg, client)
	report := map[string]any{"health": hs.Check(ctx), "stats": hs.Stats()}

	runs, err := store.RecentRuns(10)
	if err != nil {
		return fmt.Errorf("recent runs: %w", err)
	}
	platforms, err := store.PlatformStats()
	if err != nil {
		return fmt.Errorf("platform stats: %w", err)
	}
	logs, err := store.RecentLogs(20)
	if err != nil {
		return fmt.Errorf("recent logs: %w", err)
	}
	report["recent_runs"] = runs
	report["platforms"] = platforms
	report["recent_logs"] = logs
	return printJSON(report)
}
