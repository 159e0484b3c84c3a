// Package harvest orchestrates a whole run: category traversal, listing,
// per-item enrichment and review harvesting, cross-run deduplication, and
// the export hand-off. One failed category never aborts the run.
package harvest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/storescout/storescout/internal/driver"
	"github.com/storescout/storescout/internal/observability"
	"github.com/storescout/storescout/internal/reviews"
	"github.com/storescout/storescout/internal/storage"
	"github.com/storescout/storescout/internal/types"
)

// Lister extracts item records from one category listing page.
type Lister interface {
	Extract(ctx context.Context, drv driver.PageDriver, cat types.Category, limit int) ([]*types.ItemRecord, error)
}

// Enricher fills in detail-page fields of an item record.
type Enricher interface {
	Enrich(ctx context.Context, drv driver.PageDriver, item *types.ItemRecord) *types.ItemRecord
}

// ReviewHarvester collects reviews for one item.
type ReviewHarvester interface {
	Harvest(ctx context.Context, drv driver.PageDriver, item *types.ItemRecord, opts reviews.Options) []*types.ReviewRecord
}

// Options tunes one harvest run.
type Options struct {
	OutputDir        string
	ItemsPerCategory int
	ExportCSV        bool
	ExportXLSX       bool
	Headless         bool

	CollectReviews bool
	MaxReviews     int
	MaxReviewPages int

	// ReviewBudget is the wall-clock budget granted per item.
	ReviewBudget time.Duration

	NavTimeout  time.Duration
	SettleDelay time.Duration
	ClickDelay  time.Duration
}

// Deps carries the collaborators of a Harvester. Sink and Metrics are
// optional.
type Deps struct {
	Driver   driver.PageDriver
	Lister   Lister
	Enricher Enricher
	Reviewer ReviewHarvester
	Sink     storage.Storage
	Metrics  *observability.Metrics
	Logger   *slog.Logger
}

// Harvester drives one complete run over a set of categories.
type Harvester struct {
	drv      driver.PageDriver
	lister   Lister
	enricher Enricher
	reviewer ReviewHarvester
	sink     storage.Storage
	metrics  *observability.Metrics
	opts     Options
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a run harvester.
func New(deps Deps, opts Options) *Harvester {
	return &Harvester{
		drv:      deps.Driver,
		lister:   deps.Lister,
		enricher: deps.Enricher,
		reviewer: deps.Reviewer,
		sink:     deps.Sink,
		metrics:  deps.Metrics,
		opts:     opts,
		logger:   deps.Logger.With("component", "harvester"),
		now:      time.Now,
	}
}

// Run processes the given categories in order and returns the run summary.
// Category-level failures are contained and recorded; Run itself fails only
// on an empty category set, an unusable output directory, or a cancelled
// context.
func (h *Harvester) Run(ctx context.Context, cats []types.Category) (*types.RunSummary, error) {
	if len(cats) == 0 {
		return nil, types.ErrEmptyCategories
	}
	if err := os.MkdirAll(h.opts.OutputDir, 0o755); err != nil {
		return nil, &types.StorageError{Backend: "fs", Err: err}
	}

	start := h.now()
	ts := start.UTC().Format("20060102_150405")

	summary := &types.RunSummary{
		Timestamp:        ts,
		MaxCategories:    len(cats),
		ItemsPerCategory: h.opts.ItemsPerCategory,
		Headless:         h.opts.Headless,
	}
	for _, cat := range cats {
		summary.CategoriesSelected = append(summary.CategoriesSelected, cat.Name)
	}

	dedup := NewDeduplicator(256)
	var combined []*types.ItemRecord
	var allReviews []*types.ReviewRecord

	for _, cat := range cats {
		if ctx.Err() != nil {
			h.logger.Warn("run cancelled", "remaining_category", cat.Name)
			break
		}
		stats, items, revs := h.processCategory(ctx, cat, ts, dedup)
		summary.PerCategory = append(summary.PerCategory, stats)
		if stats.CSV != "" {
			summary.FilesGenerated = append(summary.FilesGenerated, stats.CSV)
		}
		if stats.XLSX != "" {
			summary.FilesGenerated = append(summary.FilesGenerated, stats.XLSX)
		}
		combined = append(combined, items...)
		allReviews = append(allReviews, revs...)
	}

	h.exportCombined(summary, combined, allReviews, ts)
	h.pushToSink(summary, combined, allReviews)

	summary.SkippedDuplicates = dedup.Skipped()
	summary.Elapsed = h.now().Sub(start)

	if path, err := h.writeSummary(summary); err != nil {
		h.logger.Error("run summary not written", "error", err)
	} else {
		summary.FilesGenerated = append(summary.FilesGenerated, path)
	}

	h.logger.Info("run finished",
		"categories", len(summary.PerCategory),
		"items", summary.CombinedExported,
		"reviews", len(allReviews),
		"skipped_duplicates", summary.SkippedDuplicates,
		"elapsed", summary.Elapsed)

	return summary, ctx.Err()
}

// processCategory lists one category, enriches its first-sighting items,
// harvests their reviews, and writes the per-category export.
func (h *Harvester) processCategory(ctx context.Context, cat types.Category, ts string, dedup *Deduplicator) (types.CategoryStats, []*types.ItemRecord, []*types.ReviewRecord) {
	catStart := h.now()
	stats := types.CategoryStats{Category: cat.Name}
	log := h.logger.With("category", cat.Name)

	items, err := h.lister.Extract(ctx, h.drv, cat, h.opts.ItemsPerCategory)
	if err != nil {
		log.Error("listing failed", "error", err)
		stats.ListingError = err.Error()
		h.metrics.IncCategory("failed")
		return stats, nil, nil
	}
	stats.ItemsListed = len(items)
	h.metrics.AddItemsListed(len(items))

	var kept []*types.ItemRecord
	var revs []*types.ReviewRecord
	for _, item := range items {
		if !dedup.Observe(item.ItemURL) {
			log.Debug("duplicate item skipped", "item", item.ItemName)
			h.metrics.IncDuplicateSkipped()
			continue
		}

		h.enricher.Enrich(ctx, h.drv, item)
		h.metrics.IncItemEnriched()

		if h.opts.CollectReviews {
			revs = append(revs, h.harvestReviews(ctx, item)...)
		}
		kept = append(kept, item)
	}

	if len(kept) > 0 {
		csvPath, xlsxPath := h.exportPaths("OUTPUT_"+cat.Slug(), ts)
		if err := storage.WriteTable(itemRows(kept), csvPath, xlsxPath, log); err != nil {
			log.Error("category export failed", "error", err)
		} else {
			stats.CSV, stats.XLSX = csvPath, xlsxPath
			stats.ItemsExported = len(kept)
		}
		h.metrics.IncCategory("ok")
	} else {
		h.metrics.IncCategory("empty")
	}

	h.metrics.ObserveCategoryDuration(h.now().Sub(catStart))
	log.Info("category processed", "listed", stats.ItemsListed, "kept", len(kept), "reviews", len(revs))
	return stats, kept, revs
}

// harvestReviews runs the review harvester for one item under a fresh
// per-item budget and feeds source counts to the metrics.
func (h *Harvester) harvestReviews(ctx context.Context, item *types.ItemRecord) []*types.ReviewRecord {
	revs := h.reviewer.Harvest(ctx, h.drv, item, reviews.Options{
		MaxReviews:  h.opts.MaxReviews,
		MaxPages:    h.opts.MaxReviewPages,
		Budget:      types.NewDeadline(h.opts.ReviewBudget),
		NavTimeout:  h.opts.NavTimeout,
		SettleDelay: h.opts.SettleDelay,
		ClickDelay:  h.opts.ClickDelay,
	})

	perSource := make(map[string]int)
	for _, rv := range revs {
		perSource[string(rv.Source)]++
	}
	for source, n := range perSource {
		h.metrics.AddReviews(source, n)
	}
	return revs
}

// exportCombined writes the run-wide item and review tables.
func (h *Harvester) exportCombined(summary *types.RunSummary, items []*types.ItemRecord, revs []*types.ReviewRecord, ts string) {
	if len(items) > 0 {
		csvPath, xlsxPath := h.exportPaths("OUTPUT_combined", ts)
		if err := storage.WriteTable(itemRows(items), csvPath, xlsxPath, h.logger); err != nil {
			h.logger.Error("combined export failed", "error", err)
		} else {
			summary.CombinedCSV, summary.CombinedXLSX = csvPath, xlsxPath
			summary.CombinedExported = len(items)
			if csvPath != "" {
				summary.FilesGenerated = append(summary.FilesGenerated, csvPath)
			}
			if xlsxPath != "" {
				summary.FilesGenerated = append(summary.FilesGenerated, xlsxPath)
			}
		}
	}

	if len(revs) > 0 {
		csvPath, xlsxPath := h.exportPaths("REVIEWS_combined", ts)
		if err := storage.WriteTable(reviewRows(revs), csvPath, xlsxPath, h.logger); err != nil {
			h.logger.Error("review export failed", "error", err)
		} else {
			if csvPath != "" {
				summary.FilesGenerated = append(summary.FilesGenerated, csvPath)
			}
			if xlsxPath != "" {
				summary.FilesGenerated = append(summary.FilesGenerated, xlsxPath)
			}
		}
	}
}

// pushToSink hands every exported row to the optional record sink.
func (h *Harvester) pushToSink(summary *types.RunSummary, items []*types.ItemRecord, revs []*types.ReviewRecord) {
	if h.sink == nil {
		return
	}
	rows := append(itemRows(items), reviewRows(revs)...)
	if len(rows) == 0 {
		return
	}
	if err := h.sink.Store(rows); err != nil {
		h.logger.Error("sink push failed", "backend", h.sink.Name(), "error", err)
		return
	}
	summary.PushedToSink = len(rows)
}

// writeSummary persists the run summary JSON next to the exports, both
// timestamped and under a stable name for whatever tails the latest run.
func (h *Harvester) writeSummary(summary *types.RunSummary) (string, error) {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", err
	}

	path := filepath.Join(h.opts.OutputDir, fmt.Sprintf("RUN_SUMMARY_%s.json", summary.Timestamp))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", &types.StorageError{Backend: "fs", Err: err}
	}

	stable := filepath.Join(h.opts.OutputDir, "RUN_SUMMARY.json")
	if err := os.WriteFile(stable, data, 0o644); err != nil {
		h.logger.Warn("stable summary not written", "error", err)
	}
	return path, nil
}

// exportPaths builds the timestamped per-format output paths for one stem.
// A format's path is empty when its export is disabled.
func (h *Harvester) exportPaths(stem, ts string) (csvPath, xlsxPath string) {
	base := filepath.Join(h.opts.OutputDir, fmt.Sprintf("%s_%s", stem, ts))
	if h.opts.ExportCSV {
		csvPath = base + ".csv"
	}
	if h.opts.ExportXLSX {
		xlsxPath = base + ".xlsx"
	}
	return csvPath, xlsxPath
}

func itemRows(items []*types.ItemRecord) []storage.Row {
	rows := make([]storage.Row, len(items))
	for i, item := range items {
		rows[i] = item.ToRow()
	}
	return rows
}

func reviewRows(revs []*types.ReviewRecord) []storage.Row {
	rows := make([]storage.Row, len(revs))
	for i, rv := range revs {
		rows[i] = rv.ToRow()
	}
	return rows
}
