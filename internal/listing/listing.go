// Package listing turns one category page into item records: it locates the
// recommended-items region, enumerates item links inside it, and normalizes
// them into placeholder records for later enrichment. Every zero-result
// condition is soft; the category just contributes nothing.
package listing

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/storescout/storescout/internal/diag"
	"github.com/storescout/storescout/internal/domscan"
	"github.com/storescout/storescout/internal/driver"
	"github.com/storescout/storescout/internal/extract"
	"github.com/storescout/storescout/internal/types"
)

// Options tunes the listing extractor for one storefront's page structure.
type Options struct {
	// HeadingMarker anchors the recommended-items region ("Recommended").
	HeadingMarker string

	// HeadingExact requires the heading text to equal the marker instead of
	// merely starting with it.
	HeadingExact bool

	// ItemURLPrefix filters anchors down to item detail links.
	ItemURLPrefix string

	// SkipSlugs are first path segments that are known non-item pages.
	SkipSlugs []string

	NavTimeout  time.Duration
	SettleDelay time.Duration
	ScrollSteps int
	ScrollPause time.Duration
}

// Extractor enumerates item links on category pages.
type Extractor struct {
	opts   Options
	diag   *diag.Sink
	logger *slog.Logger
}

// New creates a listing extractor.
func New(opts Options, sink *diag.Sink, logger *slog.Logger) *Extractor {
	return &Extractor{
		opts:   opts,
		diag:   sink,
		logger: logger.With("component", "listing_extractor"),
	}
}

// Extract navigates to the category page and returns up to limit item
// records in page order. A missing heading, container, or link set returns
// an empty slice (with a diagnostic captured), not an error; only
// navigation failures are reported as errors.
func (e *Extractor) Extract(ctx context.Context, drv driver.PageDriver, cat types.Category, limit int) ([]*types.ItemRecord, error) {
	if err := drv.Navigate(ctx, cat.URL, e.opts.NavTimeout); err != nil {
		return nil, err
	}
	drv.Wait(e.opts.SettleDelay)
	driver.GentleScroll(drv, e.opts.ScrollSteps, e.opts.ScrollPause)

	markup, err := drv.Content()
	if err != nil {
		return nil, &types.NavError{URL: cat.URL, Err: err}
	}
	root, err := domscan.ParseNode(markup)
	if err != nil {
		return nil, &types.NavError{URL: cat.URL, Err: err}
	}

	heading := e.findHeading(root)
	if heading == nil {
		e.logger.Warn("listing heading not found", "category", cat.Name, "marker", e.opts.HeadingMarker)
		e.diag.Capture(drv, "no_listing_heading_"+cat.Slug())
		return nil, nil
	}

	links := e.collectLinks(heading)
	if len(links) == 0 {
		e.logger.Warn("heading found but no item links under it", "category", cat.Name)
		e.diag.Capture(drv, "no_item_links_"+cat.Slug())
		return nil, nil
	}

	items := e.normalize(cat, links, limit)
	e.logger.Info("listing extracted", "category", cat.Name, "links", len(links), "items", len(items))
	return items, nil
}

// findHeading locates the anchor heading for the recommended-items region.
func (e *Extractor) findHeading(root *html.Node) *html.Node {
	var query string
	if e.opts.HeadingExact {
		query = fmt.Sprintf("//h2[normalize-space(.)='%s']", e.opts.HeadingMarker)
	} else {
		query = fmt.Sprintf("//h2[starts-with(normalize-space(.), '%s')]", e.opts.HeadingMarker)
	}
	node, err := htmlquery.Query(root, query)
	if err != nil {
		e.logger.Warn("heading query failed", "error", err)
		return nil
	}
	return node
}

// collectLinks resolves the structural container around the heading and
// enumerates item anchors inside it, widening to the container's next
// sibling when the container itself holds none.
func (e *Extractor) collectLinks(heading *html.Node) []*html.Node {
	container, _ := htmlquery.Query(heading, "ancestor::section[1]")
	if container == nil {
		container = heading.Parent
	}
	if container == nil {
		return nil
	}

	links := e.itemAnchors(container)
	if len(links) == 0 {
		if sibling, _ := htmlquery.Query(container, "following-sibling::*[1]"); sibling != nil {
			links = e.itemAnchors(sibling)
		}
	}
	return links
}

// itemAnchors returns anchors under node whose href matches the item prefix.
func (e *Extractor) itemAnchors(node *html.Node) []*html.Node {
	anchors, err := htmlquery.QueryAll(node, ".//a[@href]")
	if err != nil {
		return nil
	}
	var out []*html.Node
	for _, a := range anchors {
		if strings.HasPrefix(htmlquery.SelectAttr(a, "href"), e.opts.ItemURLPrefix) {
			out = append(out, a)
		}
	}
	return out
}

// normalize converts anchors to item records: canonical URL, skip-slug and
// duplicate filtering, display-name fallback, page order preserved.
func (e *Extractor) normalize(cat types.Category, links []*html.Node, limit int) []*types.ItemRecord {
	skip := make(map[string]struct{}, len(e.opts.SkipSlugs))
	for _, s := range e.opts.SkipSlugs {
		skip[s] = struct{}{}
	}

	seen := make(map[string]struct{})
	var items []*types.ItemRecord

	for _, a := range links {
		href := strings.TrimSpace(htmlquery.SelectAttr(a, "href"))
		canonical := extract.CanonicalItemURL(href)
		if canonical == "" {
			continue
		}

		slug := canonical[strings.LastIndexByte(canonical, '/')+1:]
		if _, skipIt := skip[slug]; skipIt {
			continue
		}
		if _, dup := seen[canonical]; dup {
			continue
		}
		seen[canonical] = struct{}{}

		name := strings.TrimSpace(htmlquery.InnerText(a))
		if len([]rune(name)) < 2 {
			name = extract.NameFromSlug(slug)
		}

		items = append(items, types.NewItemRecord(cat, name, canonical))
		if limit > 0 && len(items) >= limit {
			break
		}
	}

	return items
}
