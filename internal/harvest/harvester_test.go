package harvest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/storescout/storescout/internal/driver"
	"github.com/storescout/storescout/internal/extract"
	"github.com/storescout/storescout/internal/reviews"
	"github.com/storescout/storescout/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
	Level: slog.LevelError,
}))

type nopDriver struct{}

func (nopDriver) Navigate(context.Context, string, time.Duration) error { return nil }
func (nopDriver) Wait(time.Duration)                                    {}
func (nopDriver) Scroll(int) error                                      { return nil }
func (nopDriver) Find(string) ([]driver.Element, error)                 { return nil, nil }
func (nopDriver) FindByText(string, string) ([]driver.Element, error)   { return nil, nil }
func (nopDriver) Content() (string, error)                              { return "", nil }
func (nopDriver) Screenshot() ([]byte, error)                           { return nil, nil }

// fakeLister serves canned listings keyed by category name; unknown
// categories fail.
type fakeLister struct {
	byCategory map[string][]string // category name -> item slugs
}

func (f *fakeLister) Extract(_ context.Context, _ driver.PageDriver, cat types.Category, limit int) ([]*types.ItemRecord, error) {
	slugs, ok := f.byCategory[cat.Name]
	if !ok {
		return nil, &types.NavError{URL: cat.URL, Err: errors.New("listing timeout")}
	}
	var items []*types.ItemRecord
	for _, slug := range slugs {
		items = append(items, types.NewItemRecord(cat, extract.NameFromSlug(slug), "https://apps.example.com/"+slug))
		if limit > 0 && len(items) >= limit {
			break
		}
	}
	return items, nil
}

type fakeEnricher struct{ calls int }

func (f *fakeEnricher) Enrich(_ context.Context, _ driver.PageDriver, item *types.ItemRecord) *types.ItemRecord {
	f.calls++
	item.Price = "Free plan"
	return item
}

type fakeReviewer struct{ perItem int }

func (f *fakeReviewer) Harvest(_ context.Context, _ driver.PageDriver, item *types.ItemRecord, _ reviews.Options) []*types.ReviewRecord {
	var out []*types.ReviewRecord
	for i := 0; i < f.perItem; i++ {
		out = append(out, &types.ReviewRecord{
			ItemName: item.ItemName,
			ItemURL:  item.ItemURL,
			Title:    fmt.Sprintf("Review %d", i),
			Body:     "Works well and the support team answers fast.",
			Source:   types.ReviewSourceDOM,
		})
	}
	return out
}

func testCategories() []types.Category {
	return []types.Category{
		{Name: "Marketing", URL: "https://apps.example.com/categories/marketing"},
		{Name: "Sales", URL: "https://apps.example.com/categories/sales"},
	}
}

func newTestHarvester(t *testing.T, lister Lister, opts Options) *Harvester {
	t.Helper()
	if opts.OutputDir == "" {
		opts.OutputDir = t.TempDir()
	}
	return New(Deps{
		Driver:   nopDriver{},
		Lister:   lister,
		Enricher: &fakeEnricher{},
		Reviewer: &fakeReviewer{perItem: 2},
		Logger:   testLogger,
	}, opts)
}

func TestRunDeduplicatesAcrossCategories(t *testing.T) {
	lister := &fakeLister{byCategory: map[string][]string{
		"Marketing": {"email-blaster", "stock-sync"},
		"Sales":     {"stock-sync", "upsell-kit"},
	}}
	h := newTestHarvester(t, lister, Options{ItemsPerCategory: 10, ExportCSV: true})

	summary, err := h.Run(context.Background(), testCategories())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if summary.SkippedDuplicates != 1 {
		t.Errorf("skipped duplicates = %d, want 1", summary.SkippedDuplicates)
	}
	if summary.CombinedExported != 3 {
		t.Errorf("combined exported = %d, want 3", summary.CombinedExported)
	}
	if len(summary.PerCategory) != 2 {
		t.Fatalf("per-category stats = %d, want 2", len(summary.PerCategory))
	}
	if summary.PerCategory[1].ItemsExported != 1 {
		t.Errorf("second category exported %d items, want 1 after dedup", summary.PerCategory[1].ItemsExported)
	}
}

func TestRunContainsFailedCategory(t *testing.T) {
	lister := &fakeLister{byCategory: map[string][]string{
		// "Marketing" is missing, so its listing fails.
		"Sales": {"upsell-kit"},
	}}
	h := newTestHarvester(t, lister, Options{ItemsPerCategory: 10, ExportCSV: true})

	summary, err := h.Run(context.Background(), testCategories())
	if err != nil {
		t.Fatalf("failed category must not abort the run: %v", err)
	}

	if summary.PerCategory[0].ListingError == "" {
		t.Error("listing error not recorded for the failed category")
	}
	if summary.PerCategory[1].ItemsExported != 1 {
		t.Errorf("surviving category exported %d items, want 1", summary.PerCategory[1].ItemsExported)
	}
}

func TestRunWritesExportsAndSummary(t *testing.T) {
	dir := t.TempDir()
	lister := &fakeLister{byCategory: map[string][]string{
		"Marketing": {"email-blaster"},
		"Sales":     {"upsell-kit"},
	}}
	h := newTestHarvester(t, lister, Options{
		OutputDir:        dir,
		ItemsPerCategory: 10,
		ExportCSV:        true,
		CollectReviews:   true,
	})

	summary, err := h.Run(context.Background(), testCategories())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	for _, stem := range []string{"OUTPUT_marketing_", "OUTPUT_sales_", "OUTPUT_combined_", "REVIEWS_combined_", "RUN_SUMMARY_"} {
		matches, _ := filepath.Glob(filepath.Join(dir, stem+"*"))
		if len(matches) == 0 {
			t.Errorf("no file written for %s", stem)
		}
	}

	summaryPath := filepath.Join(dir, "RUN_SUMMARY_"+summary.Timestamp+".json")
	data, err := os.ReadFile(summaryPath)
	if err != nil {
		t.Fatalf("read summary: %v", err)
	}
	var decoded types.RunSummary
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("summary not valid JSON: %v", err)
	}
	if decoded.CombinedExported != 2 {
		t.Errorf("persisted combined exported = %d, want 2", decoded.CombinedExported)
	}
}

func TestRunSkipsCSVWhenDisabled(t *testing.T) {
	dir := t.TempDir()
	lister := &fakeLister{byCategory: map[string][]string{
		"Marketing": {"email-blaster"},
		"Sales":     {"upsell-kit"},
	}}
	h := newTestHarvester(t, lister, Options{
		OutputDir:        dir,
		ItemsPerCategory: 10,
		ExportCSV:        false,
		ExportXLSX:       true,
	})

	summary, err := h.Run(context.Background(), testCategories())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if matches, _ := filepath.Glob(filepath.Join(dir, "*.csv")); len(matches) != 0 {
		t.Errorf("csv files written despite disabled csv export: %v", matches)
	}
	if matches, _ := filepath.Glob(filepath.Join(dir, "*.xlsx")); len(matches) == 0 {
		t.Error("no xlsx files written")
	}
	if summary.CombinedCSV != "" || summary.CombinedXLSX == "" {
		t.Errorf("combined paths = %q / %q, want xlsx only", summary.CombinedCSV, summary.CombinedXLSX)
	}
	for _, f := range summary.FilesGenerated {
		if filepath.Ext(f) == ".csv" {
			t.Errorf("generated file list contains csv entry %q", f)
		}
	}
}

func TestRunHonorsItemsPerCategory(t *testing.T) {
	lister := &fakeLister{byCategory: map[string][]string{
		"Marketing": {"a1", "a2", "a3", "a4"},
		"Sales":     {"b1"},
	}}
	h := newTestHarvester(t, lister, Options{ItemsPerCategory: 2, ExportCSV: true})

	summary, err := h.Run(context.Background(), testCategories())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.PerCategory[0].ItemsListed != 2 {
		t.Errorf("items listed = %d, want 2", summary.PerCategory[0].ItemsListed)
	}
}

func TestRunEmptyCategories(t *testing.T) {
	h := newTestHarvester(t, &fakeLister{}, Options{})
	if _, err := h.Run(context.Background(), nil); !errors.Is(err, types.ErrEmptyCategories) {
		t.Fatalf("err = %v, want ErrEmptyCategories", err)
	}
}

func TestDeduplicatorObserve(t *testing.T) {
	d := NewDeduplicator(16)

	if !d.Observe("https://apps.example.com/email-blaster") {
		t.Error("first sighting must be accepted")
	}
	if d.Observe("https://apps.example.com/email-blaster") {
		t.Error("second sighting must be rejected")
	}
	if !d.Observe("https://apps.example.com/stock-sync") {
		t.Error("distinct key must be accepted")
	}

	if d.Count() != 2 {
		t.Errorf("count = %d, want 2", d.Count())
	}
	if d.Skipped() != 1 {
		t.Errorf("skipped = %d, want 1", d.Skipped())
	}

	d.Reset()
	if d.Count() != 0 || d.Skipped() != 0 {
		t.Error("reset did not clear state")
	}
}

func BenchmarkDeduplicatorObserve(b *testing.B) {
	d := NewDeduplicator(b.N)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		d.Observe(fmt.Sprintf("https://apps.example.com/app-%d", i))
	}
}
