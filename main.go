package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tcgnakama/pricewatch/pricewatch"
	"github.com/tcgnakama/pricewatch/pricewatch/appraisal"
	"github.com/tcgnakama/pricewatch/pricewatch/database"
	"github.com/tcgnakama/pricewatch/pricewatch/database/repositories"
	"github.com/tcgnakama/pricewatch/pricewatch/logger"
	"github.com/tcgnakama/pricewatch/pricewatch/services"
	"github.com/tcgnakama/pricewatch/pricewatch/tracker"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	path := flag.String("config", "config.toml", "path to config")
	itemsPath := flag.String("items", "", "path to a catalog export (JSON) to revalue")
	runBatch := flag.Bool("run-batch", false, "run a full batch revaluation and exit")
	topGainers := flag.Int("top-gainers", 0, "print the top N gainers after the run")
	flag.Parse()

	cfg, err := pricewatch.LoadConfig(*path)
	if err != nil {
		slog.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(-1)
	}

	customHandler := logger.NewHandler(cfg.Log.Level)
	slog.SetDefault(slog.New(customHandler))

	slog.Info("Starting PriceWatch",
		slog.String("version", version),
		slog.String("commit", commit))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	slog.Info("Initializing database connection...")
	dbStartTime := time.Now()

	dbConfig := database.DBConfig{
		Host:     cfg.DB.Host,
		Port:     cfg.DB.Port,
		User:     cfg.DB.User,
		Password: cfg.DB.Password,
		Database: cfg.DB.Database,
		PoolSize: cfg.DB.PoolSize,
	}

	connectCtx, connectCancel := context.WithTimeout(ctx, 2*time.Minute)
	defer connectCancel()

	db, err := database.New(connectCtx, dbConfig)
	if err != nil {
		slog.Error("Database connection failed",
			slog.String("error", err.Error()),
			slog.Duration("attempted_for", time.Since(dbStartTime)))
		os.Exit(-1)
	}

	slog.Info("Database connected successfully",
		slog.String("database", cfg.DB.Database),
		slog.Duration("took", time.Since(dbStartTime)))

	if err := db.InitializeSchema(connectCtx); err != nil {
		slog.Error("Failed to initialize database schema",
			slog.String("error", err.Error()))
		os.Exit(-1)
	}

	app := pricewatch.New(*cfg, version, commit)
	app.DB = db
	defer app.Close()

	app.SnapshotRepository = repositories.NewSnapshotRepository(db.BunDB())
	app.SettingRepository = repositories.NewSettingRepository(db.BunDB())

	log := slog.Default()

	cache, err := appraisal.NewResultCache(1024, cfg.CacheTTL(), log)
	if err != nil {
		slog.Error("Failed to build appraisal cache", slog.Any("error", err))
		os.Exit(-1)
	}

	converter := appraisal.NewConverter(cfg.Market.FallbackRate, log)

	var oracle appraisal.Oracle
	if cfg.Market.GeminiAPIKey != "" {
		geminiOracle, err := appraisal.NewGeminiOracle(ctx, cfg.Market.GeminiAPIKey, cfg.Market.GeminiModel, log)
		if err != nil {
			slog.Error("Failed to build Gemini oracle", slog.Any("error", err))
			os.Exit(-1)
		}
		oracle = geminiOracle
	} else {
		slog.Warn("No Gemini API key configured, disambiguation disabled")
	}

	catalogClient := appraisal.NewCatalogAPIClient(cfg.Market.PriceChartingAPIKey, log)
	cascade := appraisal.NewCascade(log)
	disambiguator := appraisal.NewDisambiguator(oracle, log)

	fetchers := []appraisal.Fetcher{
		catalogClient,
		appraisal.NewSearchScraper(log),
		appraisal.NewHeuristicEstimator(log),
	}

	app.Appraiser = appraisal.NewService(
		fetchers,
		cascade,
		disambiguator,
		converter,
		cache,
		cfg.Market.SourceCurrency,
		cfg.Market.TargetCurrency,
		log,
	)

	// Batch runs stay on the quota-limited API tier alone. An item the API
	// cannot price counts as failed and writes nothing; the scraper and the
	// heuristic tier serve interactive lookups only, where a labeled guess
	// beats no answer.
	batchAppraiser := appraisal.NewService(
		[]appraisal.Fetcher{catalogClient},
		cascade,
		disambiguator,
		converter,
		cache,
		cfg.Market.SourceCurrency,
		cfg.Market.TargetCurrency,
		log,
	)

	var reportSink tracker.ReportSink
	if cfg.Spaces.Key != "" && cfg.Spaces.Secret != "" {
		app.SpacesService = services.NewSpacesService(
			cfg.Spaces.Key,
			cfg.Spaces.Secret,
			cfg.Spaces.Region,
			cfg.Spaces.Bucket,
			cfg.Spaces.ReportRoot,
		)
		reportSink = app.SpacesService
	}

	app.Runner = tracker.NewRunner(
		batchAppraiser,
		converter,
		app.SnapshotRepository,
		app.SettingRepository,
		reportSink,
		cfg.MinRequestInterval(),
		cfg.Market.SourceCurrency,
		cfg.Market.TargetCurrency,
		log,
	)
	app.Trends = tracker.NewTrendCalculator(app.SnapshotRepository, log)

	if !*runBatch {
		slog.Info("Nothing to do, pass -run-batch with -items to revalue a catalog")
		return
	}

	if *itemsPath == "" {
		slog.Error("-run-batch requires -items")
		os.Exit(-1)
	}
	// Credential problems abort before the run starts; mid-run failures only
	// ever cost individual items.
	if cfg.Market.PriceChartingAPIKey == "" {
		slog.Error("Batch revaluation requires a PriceCharting API key")
		os.Exit(-1)
	}

	items, err := tracker.LoadItemsFile(*itemsPath)
	if err != nil {
		slog.Error("Failed to load catalog export", slog.Any("error", err))
		os.Exit(-1)
	}

	stats, err := app.Runner.Run(ctx, items)
	if err != nil {
		slog.Error("Batch revaluation failed", slog.Any("error", err))
		os.Exit(-1)
	}

	logger.LogMarket("Batch revaluation complete",
		slog.String("run_id", stats.RunID),
		slog.Int("updated", stats.Updated))
	fmt.Printf("run %s: %d updated, %d failed, %d skipped of %d in %s\n",
		stats.RunID, stats.Updated, stats.Failed, stats.Skipped, stats.Total, stats.Duration)

	if *topGainers > 0 {
		ranked, err := app.Trends.TopGainers(ctx, items, *topGainers)
		if err != nil {
			slog.Error("Trend calculation failed", slog.Any("error", err))
			os.Exit(-1)
		}
		for i, row := range ranked {
			fmt.Printf("%2d. %-40s %8d JPY (%+.1f%%)\n", i+1, row.Title, row.LatestJPY, row.ChangePct)
		}
	}
}
