package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/storescout/storescout/internal/types"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := Validate(DefaultConfig()); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty output dir", func(c *Config) { c.Run.OutputDir = "" }},
		{"zero nav timeout", func(c *Config) { c.Browser.NavTimeout = 0 }},
		{"empty heading marker", func(c *Config) { c.Listing.HeadingMarker = "" }},
		{"bad item url prefix", func(c *Config) { c.Listing.ItemURLPrefix = "ftp://example.com" }},
		{"zero review pages", func(c *Config) { c.Reviews.MaxPages = 0 }},
		{"all exports disabled", func(c *Config) { c.Export.CSV = false; c.Export.XLSX = false }},
		{"sink without uri", func(c *Config) { c.Sink.Enabled = true; c.Sink.URI = "" }},
		{"bad sink type", func(c *Config) { c.Sink.Enabled = true; c.Sink.Type = "parquet" }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"bad metrics port", func(c *Config) { c.Metrics.Enabled = true; c.Metrics.Port = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := Validate(cfg); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func writeCategories(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "categories.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadCategories(t *testing.T) {
	path := writeCategories(t, `{"categories": [
		{"name": "Marketing", "url": "https://apps.example.com/categories/marketing"},
		{"name": "", "url": "https://apps.example.com/categories/unnamed"},
		{"name": "Broken", "url": "not a url"},
		{"name": "Sales", "url": "https://apps.example.com/categories/sales", "description": "Sell more"}
	]}`)

	cats, err := LoadCategories(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cats) != 2 {
		t.Fatalf("got %d categories, want 2 after filtering", len(cats))
	}
	if cats[0].Name != "Marketing" || cats[1].Description != "Sell more" {
		t.Errorf("categories mismatch: %+v", cats)
	}
}

func TestLoadCategoriesBareArray(t *testing.T) {
	path := writeCategories(t, `[
		{"name": "Marketing", "url": "https://apps.example.com/categories/marketing"}
	]`)

	cats, err := LoadCategories(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cats) != 1 || cats[0].Name != "Marketing" {
		t.Errorf("categories mismatch: %+v", cats)
	}
}

func TestLoadCategoriesMissingFile(t *testing.T) {
	_, err := LoadCategories(filepath.Join(t.TempDir(), "absent.json"))
	var ce *types.ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("err = %v, want ConfigError", err)
	}
}

func TestLoadCategoriesMalformed(t *testing.T) {
	path := writeCategories(t, `{"not": "a list"`)
	if _, err := LoadCategories(path); err == nil {
		t.Fatal("expected error for malformed document")
	}
}

func TestLoadCategoriesAllFilteredOut(t *testing.T) {
	path := writeCategories(t, `[{"name": "", "url": ""}]`)
	_, err := LoadCategories(path)
	if !errors.Is(err, types.ErrEmptyCategories) {
		t.Fatalf("err = %v, want ErrEmptyCategories", err)
	}
}

func sampleCategories() []types.Category {
	return []types.Category{
		{Name: "Marketing", URL: "https://apps.example.com/categories/marketing"},
		{Name: "Sales", URL: "https://apps.example.com/categories/sales"},
		{Name: "Store design", URL: "https://apps.example.com/categories/store-design"},
	}
}

func TestSelectCategoriesDefaults(t *testing.T) {
	got, err := SelectCategories(sampleCategories(), nil, 2)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(got) != 2 || got[0].Name != "Marketing" || got[1].Name != "Sales" {
		t.Errorf("defaults = %+v, want first two categories", got)
	}
}

func TestSelectCategoriesByIndexAndName(t *testing.T) {
	got, err := SelectCategories(sampleCategories(), []string{"3", "marketing"}, 0)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(got) != 2 || got[0].Name != "Store design" || got[1].Name != "Marketing" {
		t.Errorf("selection = %+v", got)
	}
}

func TestSelectCategoriesCollapsesDuplicates(t *testing.T) {
	got, err := SelectCategories(sampleCategories(), []string{"1", "Marketing", "MARKETING"}, 0)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("got %d categories, want duplicates collapsed to 1", len(got))
	}
}

func TestSelectCategoriesErrors(t *testing.T) {
	if _, err := SelectCategories(sampleCategories(), []string{"9"}, 0); err == nil {
		t.Error("expected error for out-of-range index")
	}
	if _, err := SelectCategories(sampleCategories(), []string{"Nonexistent"}, 0); err == nil {
		t.Error("expected error for unknown name")
	}
}

func TestLoadAppliesDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Listing.HeadingMarker != "Recommended" {
		t.Errorf("heading marker = %q, want default", cfg.Listing.HeadingMarker)
	}
	if !cfg.Browser.Headless {
		t.Error("headless default not applied")
	}
}
