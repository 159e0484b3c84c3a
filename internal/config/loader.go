package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/storescout/storescout/internal/types"
)

// Load reads configuration from file, environment, and CLI flags.
// Priority (highest to lowest): CLI flags > env vars > config file > defaults.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v, cfg)

	v.SetEnvPrefix("STORESCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("storescout")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".storescout"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath != "" {
			return nil, &types.ConfigError{Path: configPath, Err: err}
		}
		// Config file not found is okay if not explicitly specified
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// setDefaults registers default values in viper.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("run.categories_file", cfg.Run.CategoriesFile)
	v.SetDefault("run.max_categories", cfg.Run.MaxCategories)
	v.SetDefault("run.items_per_category", cfg.Run.ItemsPerCategory)
	v.SetDefault("run.output_dir", cfg.Run.OutputDir)
	v.SetDefault("run.diagnostics_dir", cfg.Run.DiagnosticsDir)

	v.SetDefault("browser.headless", cfg.Browser.Headless)
	v.SetDefault("browser.stealth", cfg.Browser.Stealth)
	v.SetDefault("browser.nav_timeout", cfg.Browser.NavTimeout)
	v.SetDefault("browser.settle_delay", cfg.Browser.SettleDelay)
	v.SetDefault("browser.click_delay", cfg.Browser.ClickDelay)
	v.SetDefault("browser.window_width", cfg.Browser.WindowWidth)
	v.SetDefault("browser.window_height", cfg.Browser.WindowHeight)

	v.SetDefault("listing.heading_marker", cfg.Listing.HeadingMarker)
	v.SetDefault("listing.heading_exact", cfg.Listing.HeadingExact)
	v.SetDefault("listing.item_url_prefix", cfg.Listing.ItemURLPrefix)
	v.SetDefault("listing.skip_slugs", cfg.Listing.SkipSlugs)
	v.SetDefault("listing.scroll_steps", cfg.Listing.ScrollSteps)
	v.SetDefault("listing.scroll_pause", cfg.Listing.ScrollPause)

	v.SetDefault("reviews.enabled", cfg.Reviews.Enabled)
	v.SetDefault("reviews.max_reviews", cfg.Reviews.MaxReviews)
	v.SetDefault("reviews.max_pages", cfg.Reviews.MaxPages)
	v.SetDefault("reviews.time_budget", cfg.Reviews.TimeBudget)

	v.SetDefault("export.csv", cfg.Export.CSV)
	v.SetDefault("export.xlsx", cfg.Export.XLSX)

	v.SetDefault("sink.enabled", cfg.Sink.Enabled)
	v.SetDefault("sink.type", cfg.Sink.Type)
	v.SetDefault("sink.uri", cfg.Sink.URI)
	v.SetDefault("sink.database", cfg.Sink.Database)
	v.SetDefault("sink.collection", cfg.Sink.Collection)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.output", cfg.Logging.Output)

	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.port", cfg.Metrics.Port)
	v.SetDefault("metrics.path", cfg.Metrics.Path)
}

// LoadCategories reads the storefront navigation document, a wrapper object
// of the form {"categories": [{"name", "url", "description"?}, ...]}. A bare
// top-level array is accepted too. A missing, empty, or malformed file is
// fatal: there is nothing meaningful to harvest without it.
func LoadCategories(path string) ([]types.Category, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &types.ConfigError{Path: path, Err: err}
	}

	var doc struct {
		Categories []types.Category `json:"categories"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		if json.Unmarshal(data, &doc.Categories) != nil {
			return nil, &types.ConfigError{Path: path, Err: fmt.Errorf("malformed categories document: %w", err)}
		}
	}

	var valid []types.Category
	for _, c := range doc.Categories {
		if strings.TrimSpace(c.Name) == "" || ValidateURL(c.URL) != nil {
			continue
		}
		valid = append(valid, c)
	}
	if len(valid) == 0 {
		return nil, &types.ConfigError{Path: path, Err: types.ErrEmptyCategories}
	}
	return valid, nil
}

// SelectCategories resolves the requested categories against the loaded
// set. Each selector is a 1-based index or a case-insensitive name; with no
// selectors the first max categories are taken. Unresolvable selectors are
// errors, duplicates collapse to one.
func SelectCategories(all []types.Category, selectors []string, max int) ([]types.Category, error) {
	if max <= 0 || max > len(all) {
		max = len(all)
	}
	if len(selectors) == 0 {
		return all[:max], nil
	}

	byKey := make(map[string]int, len(all))
	for i, c := range all {
		byKey[c.Key()] = i
	}

	picked := make(map[int]struct{})
	var out []types.Category
	for _, sel := range selectors {
		sel = strings.TrimSpace(sel)
		if sel == "" {
			continue
		}

		idx := -1
		if n, err := strconv.Atoi(sel); err == nil {
			if n < 1 || n > len(all) {
				return nil, fmt.Errorf("category index %d out of range 1-%d", n, len(all))
			}
			idx = n - 1
		} else if i, ok := byKey[strings.ToLower(sel)]; ok {
			idx = i
		} else {
			return nil, fmt.Errorf("unknown category %q", sel)
		}

		if _, dup := picked[idx]; dup {
			continue
		}
		picked[idx] = struct{}{}
		out = append(out, all[idx])
		if len(out) >= max {
			break
		}
	}
	return out, nil
}
