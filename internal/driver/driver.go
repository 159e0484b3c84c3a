// Package driver abstracts the headless browser behind a small page-driver
// contract. The harvest pipeline only ever talks to these interfaces; the
// rod-backed implementation lives in this package, fakes live in the tests
// of the consuming packages.
package driver

import (
	"context"
	"time"
)

// Element is a handle on a single matched page element.
type Element interface {
	// Text returns the element's visible text.
	Text() (string, error)

	// Attribute returns the named attribute, or "" when absent.
	Attribute(name string) (string, error)

	// Click clicks the element, bounded by timeout.
	Click(timeout time.Duration) error
}

// PageDriver drives one browser page. Navigation mutates shared browser
// state, so calls are inherently serialized per driver instance. All
// failures are recoverable errors, never process-fatal.
type PageDriver interface {
	// Navigate loads url, bounded by timeout.
	Navigate(ctx context.Context, url string, timeout time.Duration) error

	// Wait sleeps the given duration to let dynamic content settle.
	Wait(d time.Duration)

	// Scroll scrolls the viewport down by delta pixels.
	Scroll(delta int) error

	// Find returns zero or more elements matching the CSS selector.
	Find(selector string) ([]Element, error)

	// FindByText returns elements matching selector whose text contains text.
	FindByText(selector, text string) ([]Element, error)

	// Content returns the current page markup.
	Content() (string, error)

	// Screenshot captures the full page.
	Screenshot() ([]byte, error)
}

// GentleScroll performs steps incremental scrolls with a pause between each,
// triggering lazy-loaded content without indefinite polling.
func GentleScroll(d PageDriver, steps int, pause time.Duration) {
	for i := 0; i < steps; i++ {
		if err := d.Scroll(1400); err != nil {
			return
		}
		d.Wait(pause)
	}
}
