package config

import (
	"fmt"
	"net/url"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if cfg.Run.MaxCategories < 0 {
		return fmt.Errorf("run.max_categories must be >= 0, got %d", cfg.Run.MaxCategories)
	}
	if cfg.Run.ItemsPerCategory < 0 {
		return fmt.Errorf("run.items_per_category must be >= 0, got %d", cfg.Run.ItemsPerCategory)
	}
	if cfg.Run.OutputDir == "" {
		return fmt.Errorf("run.output_dir must not be empty")
	}

	if cfg.Browser.NavTimeout <= 0 {
		return fmt.Errorf("browser.nav_timeout must be > 0")
	}
	if cfg.Browser.SettleDelay < 0 {
		return fmt.Errorf("browser.settle_delay must be >= 0")
	}
	if cfg.Browser.ProxyURL != "" {
		if _, err := url.Parse(cfg.Browser.ProxyURL); err != nil {
			return fmt.Errorf("invalid browser.proxy_url %q: %w", cfg.Browser.ProxyURL, err)
		}
	}

	if cfg.Listing.HeadingMarker == "" {
		return fmt.Errorf("listing.heading_marker must not be empty")
	}
	if err := ValidateURL(cfg.Listing.ItemURLPrefix); err != nil {
		return fmt.Errorf("listing.item_url_prefix: %w", err)
	}
	if cfg.Listing.ScrollSteps < 0 {
		return fmt.Errorf("listing.scroll_steps must be >= 0, got %d", cfg.Listing.ScrollSteps)
	}

	if cfg.Reviews.Enabled {
		if cfg.Reviews.MaxPages < 1 {
			return fmt.Errorf("reviews.max_pages must be >= 1, got %d", cfg.Reviews.MaxPages)
		}
		if cfg.Reviews.MaxReviews < 0 {
			return fmt.Errorf("reviews.max_reviews must be >= 0, got %d", cfg.Reviews.MaxReviews)
		}
		if cfg.Reviews.TimeBudget < 0 {
			return fmt.Errorf("reviews.time_budget must be >= 0")
		}
	}

	if !cfg.Export.CSV && !cfg.Export.XLSX {
		return fmt.Errorf("export.csv and export.xlsx cannot both be disabled")
	}

	if cfg.Sink.Enabled {
		switch cfg.Sink.Type {
		case "mongodb", "multi":
			if cfg.Sink.URI == "" || cfg.Sink.Database == "" || cfg.Sink.Collection == "" {
				return fmt.Errorf("sink.uri, sink.database, and sink.collection are required for the %s sink", cfg.Sink.Type)
			}
		case "json", "jsonl", "csv":
		default:
			return fmt.Errorf("sink.type must be mongodb/json/jsonl/csv/multi, got %q", cfg.Sink.Type)
		}
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Port < 1 || cfg.Metrics.Port > 65535 {
			return fmt.Errorf("metrics.port must be 1-65535, got %d", cfg.Metrics.Port)
		}
	}

	return nil
}

// ValidateURL checks if a URL string is usable for navigation.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}
