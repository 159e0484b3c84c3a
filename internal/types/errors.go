package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	ErrNoListingHeading = errors.New("listing heading not found")
	ErrNoItemLinks      = errors.New("no item links found")
	ErrEmptyCategories  = errors.New("category document is empty")
	ErrBudgetExceeded   = errors.New("time budget exceeded")
)

// NavError wraps failures while driving the browser to a page.
type NavError struct {
	URL string
	Err error
}

func (e *NavError) Error() string {
	return fmt.Sprintf("navigation error for %s: %v", e.URL, e.Err)
}

func (e *NavError) Unwrap() error { return e.Err }

// ExtractError wraps failures while pulling a field from a page. Extraction
// misses are not errors; this type marks genuine faults (driver failures,
// malformed markup) distinct from "no data found".
type ExtractError struct {
	URL   string
	Field string
	Err   error
}

func (e *ExtractError) Error() string {
	return fmt.Sprintf("extract error for %s (field=%q): %v", e.URL, e.Field, e.Err)
}

func (e *ExtractError) Unwrap() error { return e.Err }

// ConfigError marks fatal configuration problems detected at startup, before
// any page interaction.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("config error (%s): %v", e.Path, e.Err)
	}
	return fmt.Sprintf("config error: %v", e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// StorageError wraps errors from storage/export backends.
type StorageError struct {
	Backend string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error (%s): %v", e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
