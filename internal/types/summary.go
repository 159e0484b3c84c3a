package types

import "time"

// CategoryStats records what one category contributed to the run.
type CategoryStats struct {
	Category      string `json:"category"`
	ItemsListed   int    `json:"items_listed"`
	ItemsExported int    `json:"items_exported"`
	CSV           string `json:"csv,omitempty"`
	XLSX          string `json:"xlsx,omitempty"`
	ListingError  string `json:"listing_error,omitempty"`
}

// RunSummary is the finalized, read-only result of a whole harvest run.
type RunSummary struct {
	Timestamp          string          `json:"timestamp"`
	CategoriesSelected []string        `json:"categories_selected"`
	MaxCategories      int             `json:"max_categories"`
	ItemsPerCategory   int             `json:"items_per_category"`
	Headless           bool            `json:"headless_effective"`
	SkippedDuplicates  int             `json:"skipped_duplicates"`
	PushedToSink       int             `json:"pushed_to_sink"`
	PerCategory        []CategoryStats `json:"per_category"`
	CombinedExported   int             `json:"combined_items_exported"`
	CombinedCSV        string          `json:"combined_csv,omitempty"`
	CombinedXLSX       string          `json:"combined_xlsx,omitempty"`
	FilesGenerated     []string        `json:"files_generated"`
	Elapsed            time.Duration   `json:"elapsed_ns"`
}
