// Package storescout provides a public API for embedding the harvester as a
// library.
//
// Example usage:
//
//	scout := storescout.New(
//	    storescout.WithOutputDir("./output"),
//	    storescout.WithItemsPerCategory(5),
//	    storescout.WithoutReviews(),
//	)
//
//	summary, err := scout.Harvest(ctx,
//	    storescout.Category{Name: "Marketing", URL: "https://apps.shopify.com/categories/marketing"},
//	)
package storescout

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/storescout/storescout/internal/config"
	"github.com/storescout/storescout/internal/detail"
	"github.com/storescout/storescout/internal/diag"
	"github.com/storescout/storescout/internal/driver"
	"github.com/storescout/storescout/internal/harvest"
	"github.com/storescout/storescout/internal/listing"
	"github.com/storescout/storescout/internal/reviews"
	"github.com/storescout/storescout/internal/storage"
	"github.com/storescout/storescout/internal/types"
)

// Category is one storefront category to traverse.
type Category = types.Category

// RunSummary is the result of a completed harvest.
type RunSummary = types.RunSummary

// Scout is the high-level API for running harvests as a library.
type Scout struct {
	cfg    *config.Config
	logger *slog.Logger
}

// Option configures a Scout.
type Option func(*config.Config)

// WithOutputDir sets the export directory.
func WithOutputDir(dir string) Option {
	return func(c *config.Config) {
		c.Run.OutputDir = dir
		c.Run.DiagnosticsDir = dir + "/diagnostics"
	}
}

// WithItemsPerCategory caps how many items each category contributes.
func WithItemsPerCategory(n int) Option {
	return func(c *config.Config) { c.Run.ItemsPerCategory = n }
}

// WithHeadingMarker overrides the listing-region heading anchor.
func WithHeadingMarker(marker string) Option {
	return func(c *config.Config) { c.Listing.HeadingMarker = marker }
}

// WithItemURLPrefix overrides the item detail-link prefix.
func WithItemURLPrefix(prefix string) Option {
	return func(c *config.Config) { c.Listing.ItemURLPrefix = prefix }
}

// WithoutReviews disables review harvesting.
func WithoutReviews() Option {
	return func(c *config.Config) { c.Reviews.Enabled = false }
}

// WithReviewBudget sets the per-item wall-clock review budget.
func WithReviewBudget(d time.Duration) Option {
	return func(c *config.Config) { c.Reviews.TimeBudget = d }
}

// WithMaxReviews caps reviews collected per item.
func WithMaxReviews(n int) Option {
	return func(c *config.Config) { c.Reviews.MaxReviews = n }
}

// WithHeadful runs the browser with a visible window.
func WithHeadful() Option {
	return func(c *config.Config) { c.Browser.Headless = false }
}

// WithoutXLSX restricts exports to CSV.
func WithoutXLSX() Option {
	return func(c *config.Config) { c.Export.XLSX = false }
}

// WithoutCSV restricts exports to XLSX.
func WithoutCSV() Option {
	return func(c *config.Config) { c.Export.CSV = false }
}

// WithFileSink enables a file-backed record sink ("json", "jsonl", or "csv")
// written alongside the exports.
func WithFileSink(format string) Option {
	return func(c *config.Config) {
		c.Sink.Enabled = true
		c.Sink.Type = format
	}
}

// WithMongoSink enables the MongoDB record sink.
func WithMongoSink(uri, database, collection string) Option {
	return func(c *config.Config) {
		c.Sink.Enabled = true
		c.Sink.Type = "mongodb"
		c.Sink.URI = uri
		c.Sink.Database = database
		c.Sink.Collection = collection
	}
}

// WithVerbose enables debug-level logging.
func WithVerbose() Option {
	return func(c *config.Config) { c.Logging.Level = "debug" }
}

// New creates a Scout with the given options applied over the defaults.
func New(opts ...Option) *Scout {
	cfg := config.DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	level := slog.LevelInfo
	if cfg.Logging.Level == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	return &Scout{cfg: cfg, logger: logger}
}

// LoadCategories reads a categories document from disk.
func LoadCategories(path string) ([]Category, error) {
	return config.LoadCategories(path)
}

// Harvest runs the full pipeline over the given categories and returns the
// run summary. The browser is launched and torn down per call.
func (s *Scout) Harvest(ctx context.Context, cats ...Category) (*RunSummary, error) {
	if err := config.Validate(s.cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	sink, err := diag.NewSink(s.cfg.Run.DiagnosticsDir, s.logger)
	if err != nil {
		s.logger.Warn("diagnostics disabled", "error", err)
		sink = nil
	}

	drv, err := driver.NewRodDriver(driver.RodOptions{
		Headless:   s.cfg.Browser.Headless,
		Stealth:    s.cfg.Browser.Stealth,
		ProxyURL:   s.cfg.Browser.ProxyURL,
		WindowSize: fmt.Sprintf("%d,%d", s.cfg.Browser.WindowWidth, s.cfg.Browser.WindowHeight),
	}, s.logger)
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	defer drv.Close()

	var recordSink storage.Storage
	if s.cfg.Sink.Enabled {
		rs, err := storage.NewRecordSink(s.cfg.Sink.Type, s.cfg.Sink.URI, s.cfg.Sink.Database, s.cfg.Sink.Collection, s.cfg.Run.OutputDir, s.logger)
		if err != nil {
			s.logger.Warn("record sink unavailable, continuing without it", "type", s.cfg.Sink.Type, "error", err)
		} else {
			recordSink = rs
			defer recordSink.Close()
		}
	}

	lister := listing.New(listing.Options{
		HeadingMarker: s.cfg.Listing.HeadingMarker,
		HeadingExact:  s.cfg.Listing.HeadingExact,
		ItemURLPrefix: s.cfg.Listing.ItemURLPrefix,
		SkipSlugs:     s.cfg.Listing.SkipSlugs,
		NavTimeout:    s.cfg.Browser.NavTimeout,
		SettleDelay:   s.cfg.Browser.SettleDelay,
		ScrollSteps:   s.cfg.Listing.ScrollSteps,
		ScrollPause:   s.cfg.Listing.ScrollPause,
	}, sink, s.logger)

	enricher := detail.New(detail.Options{
		NavTimeout:  s.cfg.Browser.NavTimeout,
		SettleDelay: s.cfg.Browser.SettleDelay,
	}, sink, s.logger)

	harvester := harvest.New(harvest.Deps{
		Driver:   drv,
		Lister:   lister,
		Enricher: enricher,
		Reviewer: reviews.New(sink, s.logger),
		Sink:     recordSink,
		Logger:   s.logger,
	}, harvest.Options{
		OutputDir:        s.cfg.Run.OutputDir,
		ItemsPerCategory: s.cfg.Run.ItemsPerCategory,
		ExportCSV:        s.cfg.Export.CSV,
		ExportXLSX:       s.cfg.Export.XLSX,
		Headless:         s.cfg.Browser.Headless,
		CollectReviews:   s.cfg.Reviews.Enabled,
		MaxReviews:       s.cfg.Reviews.MaxReviews,
		MaxReviewPages:   s.cfg.Reviews.MaxPages,
		ReviewBudget:     s.cfg.Reviews.TimeBudget,
		NavTimeout:       s.cfg.Browser.NavTimeout,
		SettleDelay:      s.cfg.Browser.SettleDelay,
		ClickDelay:       s.cfg.Browser.ClickDelay,
	})

	return harvester.Run(ctx, cats)
}
