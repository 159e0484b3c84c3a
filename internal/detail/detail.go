// Package detail enriches listing-stage item records from their detail pages:
// developer identity, rating and review count, pricing text, and description.
// Each field is extracted behind its own fault boundary, so one broken page
// region never voids the rest of the record.
package detail

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/storescout/storescout/internal/diag"
	"github.com/storescout/storescout/internal/domscan"
	"github.com/storescout/storescout/internal/driver"
	"github.com/storescout/storescout/internal/extract"
	"github.com/storescout/storescout/internal/structured"
	"github.com/storescout/storescout/internal/types"
)

// Rating source markers stored on the item record.
const (
	sourceAriaLabel   = "aria_label"
	sourceTextPattern = "text_pattern"
	sourceStructured  = "structured_data"
	sourceLooseCount  = "loose_count"
)

// Options tunes the detail enricher.
type Options struct {
	NavTimeout  time.Duration
	SettleDelay time.Duration
}

// Enricher fills in the detail-page fields of item records.
type Enricher struct {
	opts    Options
	scanner *domscan.Scanner
	reader  *structured.Reader
	diag    *diag.Sink
	logger  *slog.Logger
	now     func() time.Time
}

// New creates a detail enricher.
func New(opts Options, sink *diag.Sink, logger *slog.Logger) *Enricher {
	return &Enricher{
		opts:    opts,
		scanner: domscan.NewScanner(logger),
		reader:  structured.NewReader(logger),
		diag:    sink,
		logger:  logger.With("component", "detail_enricher"),
		now:     time.Now,
	}
}

// Enrich navigates to the item's detail page and fills in developer, rating,
// price, and description. It always returns the record it was given: a
// navigation failure or a faulted step is recorded in EnrichmentError and
// whatever was extracted before the fault is kept.
func (e *Enricher) Enrich(ctx context.Context, drv driver.PageDriver, item *types.ItemRecord) *types.ItemRecord {
	if err := drv.Navigate(ctx, item.ItemURL, e.opts.NavTimeout); err != nil {
		e.logger.Warn("detail navigation failed", "item", item.ItemName, "error", err)
		item.EnrichmentError = "navigation: " + err.Error()
		return item
	}
	drv.Wait(e.opts.SettleDelay)

	markup, err := drv.Content()
	if err != nil {
		item.EnrichmentError = "snapshot: " + err.Error()
		return item
	}
	doc, err := domscan.ParseDocument(markup)
	if err != nil {
		item.EnrichmentError = "parse: " + err.Error()
		e.diag.Save("detail_parse_"+types.Slugify(item.ItemName), markup, nil)
		return item
	}
	root, err := domscan.ParseNode(markup)
	if err != nil {
		item.EnrichmentError = "parse: " + err.Error()
		return item
	}

	e.EnrichFromDocument(doc, root, item)
	e.logger.Debug("detail enriched",
		"item", item.ItemName,
		"rating_source", item.RatingSource,
		"has_price", item.Price != "")
	return item
}

// EnrichFromDocument applies all extraction steps to an already-parsed
// snapshot. Split out from Enrich so the steps are testable without a driver.
func (e *Enricher) EnrichFromDocument(doc *goquery.Document, root *html.Node, item *types.ItemRecord) {
	e.enrichDeveloper(root, item)
	e.enrichRating(doc, item)
	e.enrichPrice(doc, item)
	e.enrichDescription(doc, item)
}

func (e *Enricher) enrichDeveloper(root *html.Node, item *types.ItemRecord) {
	name, website := e.scanner.DeveloperInfo(root)
	if name != "" {
		item.DeveloperName = name
	}
	if website != "" {
		item.DeveloperWebsite = website
	}
}

// enrichRating resolves the rating and review count through a fixed
// precedence chain: accessibility label, visible "X (N reviews)" text,
// embedded structured data, then a loose review-count match. The first
// source that yields a rating wins; a later source may still supply a
// missing count.
func (e *Enricher) enrichRating(doc *goquery.Document, item *types.ItemRecord) {
	stamp := func(source string) {
		item.RatingSource = source
		item.RatingScrapedAt = e.now().UTC()
	}

	if label := e.scanner.RatingLabel(doc); label != "" {
		if v, ok := extract.RatingFromLabel(label); ok {
			item.SetRating(v)
			stamp(sourceAriaLabel)
		}
	}

	regions := e.scanner.RatingRegionsText(doc)
	if rating, count, ratingOK, countOK := extract.RatingAndCount(regions); ratingOK || countOK {
		if item.Rating == nil && ratingOK {
			item.SetRating(rating)
			stamp(sourceTextPattern)
		}
		if item.ReviewsCount == nil && countOK {
			item.SetReviewsCount(count)
			if item.RatingSource == "" {
				stamp(sourceTextPattern)
			}
		}
	}

	if item.Rating == nil || item.ReviewsCount == nil {
		if rating, count, ratingOK, countOK := e.reader.AggregateRating(doc); ratingOK || countOK {
			if item.Rating == nil && ratingOK {
				item.SetRating(rating)
				stamp(sourceStructured)
			}
			if item.ReviewsCount == nil && countOK {
				item.SetReviewsCount(count)
				if item.RatingSource == "" {
					stamp(sourceStructured)
				}
			}
		}
	}

	if item.ReviewsCount == nil {
		if count, ok := extract.LooseReviewCount(regions); ok {
			item.SetReviewsCount(count)
			if item.RatingSource == "" {
				stamp(sourceLooseCount)
			}
		}
	}
}

func (e *Enricher) enrichPrice(doc *goquery.Document, item *types.ItemRecord) {
	if price := extract.Price(e.scanner.MainText(doc)); price != "" {
		item.Price = price
	}
}

// enrichDescription prefers the page's own summary metadata over body text.
func (e *Enricher) enrichDescription(doc *goquery.Document, item *types.ItemRecord) {
	desc, _ := extract.Chain(
		extract.Strategy{Name: "meta", Fn: func() string { return e.reader.MetaDescription(doc) }},
		extract.Strategy{Name: "first_paragraph", Fn: func() string { return e.scanner.FirstParagraph(doc) }},
	)
	if desc != "" {
		item.Description = strings.TrimSpace(desc)
	}
}
