package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for StoreScout.
type Config struct {
	Run     RunConfig     `mapstructure:"run"     yaml:"run"`
	Browser BrowserConfig `mapstructure:"browser" yaml:"browser"`
	Listing ListingConfig `mapstructure:"listing" yaml:"listing"`
	Reviews ReviewsConfig `mapstructure:"reviews" yaml:"reviews"`
	Export  ExportConfig  `mapstructure:"export"  yaml:"export"`
	Sink    SinkConfig    `mapstructure:"sink"    yaml:"sink"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// RunConfig controls category selection and traversal volume.
type RunConfig struct {
	CategoriesFile   string   `mapstructure:"categories_file"    yaml:"categories_file"`
	Categories       []string `mapstructure:"categories"         yaml:"categories"`
	MaxCategories    int      `mapstructure:"max_categories"     yaml:"max_categories"`
	ItemsPerCategory int      `mapstructure:"items_per_category" yaml:"items_per_category"`
	OutputDir        string   `mapstructure:"output_dir"         yaml:"output_dir"`
	DiagnosticsDir   string   `mapstructure:"diagnostics_dir"    yaml:"diagnostics_dir"`
}

// BrowserConfig controls the headless browser.
type BrowserConfig struct {
	Headless     bool          `mapstructure:"headless"      yaml:"headless"`
	Stealth      bool          `mapstructure:"stealth"       yaml:"stealth"`
	ProxyURL     string        `mapstructure:"proxy_url"     yaml:"proxy_url"`
	NavTimeout   time.Duration `mapstructure:"nav_timeout"   yaml:"nav_timeout"`
	SettleDelay  time.Duration `mapstructure:"settle_delay"  yaml:"settle_delay"`
	ClickDelay   time.Duration `mapstructure:"click_delay"   yaml:"click_delay"`
	WindowWidth  int           `mapstructure:"window_width"  yaml:"window_width"`
	WindowHeight int           `mapstructure:"window_height" yaml:"window_height"`
}

// ListingConfig controls how category pages are read.
type ListingConfig struct {
	HeadingMarker string        `mapstructure:"heading_marker" yaml:"heading_marker"`
	HeadingExact  bool          `mapstructure:"heading_exact"  yaml:"heading_exact"`
	ItemURLPrefix string        `mapstructure:"item_url_prefix" yaml:"item_url_prefix"`
	SkipSlugs     []string      `mapstructure:"skip_slugs"     yaml:"skip_slugs"`
	ScrollSteps   int           `mapstructure:"scroll_steps"   yaml:"scroll_steps"`
	ScrollPause   time.Duration `mapstructure:"scroll_pause"   yaml:"scroll_pause"`
}

// ReviewsConfig controls per-item review harvesting.
type ReviewsConfig struct {
	Enabled    bool          `mapstructure:"enabled"     yaml:"enabled"`
	MaxReviews int           `mapstructure:"max_reviews" yaml:"max_reviews"`
	MaxPages   int           `mapstructure:"max_pages"   yaml:"max_pages"`
	TimeBudget time.Duration `mapstructure:"time_budget" yaml:"time_budget"`
}

// ExportConfig controls output formats.
type ExportConfig struct {
	CSV  bool `mapstructure:"csv"  yaml:"csv"`
	XLSX bool `mapstructure:"xlsx" yaml:"xlsx"`
}

// SinkConfig controls the optional record sink. Type selects the backend:
// mongodb, json, jsonl, csv, or multi (MongoDB plus a JSONL file).
type SinkConfig struct {
	Enabled    bool   `mapstructure:"enabled"    yaml:"enabled"`
	Type       string `mapstructure:"type"       yaml:"type"`
	URI        string `mapstructure:"uri"        yaml:"uri"`
	Database   string `mapstructure:"database"   yaml:"database"`
	Collection string `mapstructure:"collection" yaml:"collection"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	Output string `mapstructure:"output" yaml:"output"`
}

// MetricsConfig controls Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Port    int    `mapstructure:"port"    yaml:"port"`
	Path    string `mapstructure:"path"    yaml:"path"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Run: RunConfig{
			CategoriesFile:   "./config/categories.json",
			MaxCategories:    3,
			ItemsPerCategory: 6,
			OutputDir:        "./output",
			DiagnosticsDir:   "./output/diagnostics",
		},
		Browser: BrowserConfig{
			Headless:     true,
			Stealth:      true,
			NavTimeout:   45 * time.Second,
			SettleDelay:  2500 * time.Millisecond,
			ClickDelay:   1500 * time.Millisecond,
			WindowWidth:  1440,
			WindowHeight: 900,
		},
		Listing: ListingConfig{
			HeadingMarker: "Recommended",
			ItemURLPrefix: "https://apps.shopify.com/",
			SkipSlugs:     []string{"categories", "pricing", "blog", "partners"},
			ScrollSteps:   5,
			ScrollPause:   700 * time.Millisecond,
		},
		Reviews: ReviewsConfig{
			Enabled:    true,
			MaxReviews: 40,
			MaxPages:   6,
			TimeBudget: 90 * time.Second,
		},
		Export: ExportConfig{
			CSV:  true,
			XLSX: true,
		},
		Sink: SinkConfig{
			Enabled:    false,
			Type:       "mongodb",
			URI:        "mongodb://localhost:27017",
			Database:   "storescout",
			Collection: "records",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
			Path:    "/metrics",
		},
	}
}
