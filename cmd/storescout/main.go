package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/storescout/storescout/internal/config"
	"github.com/storescout/storescout/internal/detail"
	"github.com/storescout/storescout/internal/diag"
	"github.com/storescout/storescout/internal/driver"
	"github.com/storescout/storescout/internal/harvest"
	"github.com/storescout/storescout/internal/listing"
	"github.com/storescout/storescout/internal/observability"
	"github.com/storescout/storescout/internal/reviews"
	"github.com/storescout/storescout/internal/storage"
)

var (
	cfgFile    string
	verbose    bool
	outputDir  string
	categories string
	maxCats    int
	itemLimit  int
	noReviews  bool
	maxReviews int
	budget     string
	headful    bool
	noXLSX     bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "storescout",
		Short: "StoreScout — storefront catalog and review harvester",
		Long: `StoreScout walks a storefront's category pages with a headless browser,
extracts the recommended items per category, enriches each item from its
detail page, and harvests reviews under a wall-clock budget.

Features:
  • Category → listing → detail → reviews traversal
  • Structured-data-first extraction with DOM fallbacks
  • Cross-category item deduplication per run
  • Timestamped per-category and combined CSV/XLSX exports
  • Run summary JSON and on-failure page diagnostics
  • Optional MongoDB record sink and Prometheus metrics endpoint`,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(harvestCmd())
	rootCmd.AddCommand(categoriesCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// harvestCmd creates the "harvest" subcommand.
func harvestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "harvest",
		Short: "Run a full harvest over the configured categories",
		Long:  "Traverse the selected categories, extract and enrich their items, harvest reviews, and write the exports.",
		RunE:  runHarvest,
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory (default from config)")
	cmd.Flags().StringVar(&categories, "categories", "", "comma-separated category names or 1-based indexes")
	cmd.Flags().IntVar(&maxCats, "max-categories", 0, "maximum categories to process (0 = config default)")
	cmd.Flags().IntVarP(&itemLimit, "items", "n", 0, "items per category (0 = config default)")
	cmd.Flags().BoolVar(&noReviews, "no-reviews", false, "skip review harvesting")
	cmd.Flags().IntVar(&maxReviews, "max-reviews", 0, "review cap per item (0 = config default)")
	cmd.Flags().StringVar(&budget, "review-budget", "", "wall-clock review budget per item (e.g. 90s)")
	cmd.Flags().BoolVar(&headful, "headful", false, "run the browser with a visible window")
	cmd.Flags().BoolVar(&noXLSX, "no-xlsx", false, "skip spreadsheet export, write CSV only")

	return cmd
}

// runHarvest executes the harvest command.
func runHarvest(cmd *cobra.Command, args []string) error {
	logger := setupLogger()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyCLIOverrides(cfg)

	// A headful browser needs a display; without one the run would hang
	// inside the launcher.
	if !cfg.Browser.Headless && os.Getenv("DISPLAY") == "" {
		logger.Warn("no display available, forcing headless mode")
		cfg.Browser.Headless = true
	}

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	all, err := config.LoadCategories(cfg.Run.CategoriesFile)
	if err != nil {
		return fmt.Errorf("load categories: %w", err)
	}
	selected, err := config.SelectCategories(all, cfg.Run.Categories, cfg.Run.MaxCategories)
	if err != nil {
		return fmt.Errorf("select categories: %w", err)
	}

	logger.Info("starting harvest",
		"categories", len(selected),
		"items_per_category", cfg.Run.ItemsPerCategory,
		"reviews", cfg.Reviews.Enabled,
		"headless", cfg.Browser.Headless,
		"output", cfg.Run.OutputDir,
	)

	sink, err := diag.NewSink(cfg.Run.DiagnosticsDir, logger)
	if err != nil {
		logger.Warn("diagnostics disabled", "error", err)
		sink = nil
	}

	drv, err := driver.NewRodDriver(driver.RodOptions{
		Headless:   cfg.Browser.Headless,
		Stealth:    cfg.Browser.Stealth,
		ProxyURL:   cfg.Browser.ProxyURL,
		WindowSize: fmt.Sprintf("%d,%d", cfg.Browser.WindowWidth, cfg.Browser.WindowHeight),
	}, logger)
	if err != nil {
		return fmt.Errorf("launch browser: %w", err)
	}
	defer drv.Close()

	var recordSink storage.Storage
	if cfg.Sink.Enabled {
		s, err := storage.NewRecordSink(cfg.Sink.Type, cfg.Sink.URI, cfg.Sink.Database, cfg.Sink.Collection, cfg.Run.OutputDir, logger)
		if err != nil {
			logger.Warn("record sink unavailable, continuing without it", "type", cfg.Sink.Type, "error", err)
		} else {
			recordSink = s
			defer recordSink.Close()
		}
	}

	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics(logger)
		if err := metrics.StartServer(cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
			logger.Warn("failed to start metrics server", "error", err)
		}
		sink.OnSave(metrics.IncDiagnosticSaved)
	}

	lister := listing.New(listing.Options{
		HeadingMarker: cfg.Listing.HeadingMarker,
		HeadingExact:  cfg.Listing.HeadingExact,
		ItemURLPrefix: cfg.Listing.ItemURLPrefix,
		SkipSlugs:     cfg.Listing.SkipSlugs,
		NavTimeout:    cfg.Browser.NavTimeout,
		SettleDelay:   cfg.Browser.SettleDelay,
		ScrollSteps:   cfg.Listing.ScrollSteps,
		ScrollPause:   cfg.Listing.ScrollPause,
	}, sink, logger)

	enricher := detail.New(detail.Options{
		NavTimeout:  cfg.Browser.NavTimeout,
		SettleDelay: cfg.Browser.SettleDelay,
	}, sink, logger)

	harvester := harvest.New(harvest.Deps{
		Driver:   drv,
		Lister:   lister,
		Enricher: enricher,
		Reviewer: reviews.New(sink, logger),
		Sink:     recordSink,
		Metrics:  metrics,
		Logger:   logger,
	}, harvest.Options{
		OutputDir:        cfg.Run.OutputDir,
		ItemsPerCategory: cfg.Run.ItemsPerCategory,
		ExportCSV:        cfg.Export.CSV,
		ExportXLSX:       cfg.Export.XLSX,
		Headless:         cfg.Browser.Headless,
		CollectReviews:   cfg.Reviews.Enabled,
		MaxReviews:       cfg.Reviews.MaxReviews,
		MaxReviewPages:   cfg.Reviews.MaxPages,
		ReviewBudget:     cfg.Reviews.TimeBudget,
		NavTimeout:       cfg.Browser.NavTimeout,
		SettleDelay:      cfg.Browser.SettleDelay,
		ClickDelay:       cfg.Browser.ClickDelay,
	})

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, finishing current category...", "signal", sig)
		cancel()
	}()

	summary, err := harvester.Run(ctx, selected)
	if err != nil && summary == nil {
		return fmt.Errorf("harvest: %w", err)
	}

	fmt.Printf("\n✅ Harvest complete in %s\n", summary.Elapsed.Round(time.Millisecond))
	fmt.Printf("   Categories: %d processed\n", len(summary.PerCategory))
	fmt.Printf("   Items:      %d exported, %d duplicates skipped\n", summary.CombinedExported, summary.SkippedDuplicates)
	if summary.PushedToSink > 0 {
		fmt.Printf("   Sink:       %d records pushed\n", summary.PushedToSink)
	}
	fmt.Printf("   Output:     %s\n", cfg.Run.OutputDir)
	for _, f := range summary.FilesGenerated {
		fmt.Printf("     %s\n", f)
	}

	return nil
}

// categoriesCmd creates the "categories" subcommand for listing the
// navigation document.
func categoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List categories from the navigation document",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			cats, err := config.LoadCategories(cfg.Run.CategoriesFile)
			if err != nil {
				return err
			}
			for i, c := range cats {
				if c.Description != "" {
					fmt.Printf("%3d. %s — %s\n", i+1, c.Name, c.Description)
				} else {
					fmt.Printf("%3d. %s\n", i+1, c.Name)
				}
			}
			return nil
		},
	}
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("StoreScout %s\n", config.Version)
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			fmt.Printf("Run:\n")
			fmt.Printf("  Categories File:   %s\n", cfg.Run.CategoriesFile)
			fmt.Printf("  Max Categories:    %d\n", cfg.Run.MaxCategories)
			fmt.Printf("  Items/Category:    %d\n", cfg.Run.ItemsPerCategory)
			fmt.Printf("  Output Dir:        %s\n", cfg.Run.OutputDir)
			fmt.Printf("\nBrowser:\n")
			fmt.Printf("  Headless:          %v\n", cfg.Browser.Headless)
			fmt.Printf("  Stealth:           %v\n", cfg.Browser.Stealth)
			fmt.Printf("  Nav Timeout:       %s\n", cfg.Browser.NavTimeout)
			fmt.Printf("\nListing:\n")
			fmt.Printf("  Heading Marker:    %q\n", cfg.Listing.HeadingMarker)
			fmt.Printf("  Item URL Prefix:   %s\n", cfg.Listing.ItemURLPrefix)
			fmt.Printf("  Skip Slugs:        %s\n", strings.Join(cfg.Listing.SkipSlugs, ", "))
			fmt.Printf("\nReviews:\n")
			fmt.Printf("  Enabled:           %v\n", cfg.Reviews.Enabled)
			fmt.Printf("  Max Reviews:       %d\n", cfg.Reviews.MaxReviews)
			fmt.Printf("  Max Pages:         %d\n", cfg.Reviews.MaxPages)
			fmt.Printf("  Time Budget:       %s\n", cfg.Reviews.TimeBudget)
			fmt.Printf("\nSink:\n")
			fmt.Printf("  Enabled:           %v\n", cfg.Sink.Enabled)
			fmt.Printf("  Type:              %s\n", cfg.Sink.Type)
			fmt.Printf("  Database:          %s\n", cfg.Sink.Database)
			fmt.Printf("\nMetrics:\n")
			fmt.Printf("  Enabled:           %v\n", cfg.Metrics.Enabled)
			fmt.Printf("  Port:              %d\n", cfg.Metrics.Port)
			return nil
		},
	}
}

// setupLogger creates a structured logger.
func setupLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return slog.New(handler)
}

// applyCLIOverrides applies command-line flag values to the config.
func applyCLIOverrides(cfg *config.Config) {
	if outputDir != "" {
		cfg.Run.OutputDir = outputDir
	}
	if categories != "" {
		var sels []string
		for _, s := range strings.Split(categories, ",") {
			if s = strings.TrimSpace(s); s != "" {
				sels = append(sels, s)
			}
		}
		cfg.Run.Categories = sels
	}
	if maxCats > 0 {
		cfg.Run.MaxCategories = maxCats
	}
	if itemLimit > 0 {
		cfg.Run.ItemsPerCategory = itemLimit
	}
	if noReviews {
		cfg.Reviews.Enabled = false
	}
	if maxReviews > 0 {
		cfg.Reviews.MaxReviews = maxReviews
	}
	if budget != "" {
		if d, err := time.ParseDuration(budget); err == nil {
			cfg.Reviews.TimeBudget = d
		}
	}
	if headful {
		cfg.Browser.Headless = false
	}
	if noXLSX {
		cfg.Export.XLSX = false
	}
}
