// Package reviews harvests per-item reviews under a wall-clock budget. The
// pass order is fixed: embedded structured data first, then a DOM fallback
// over revealed review cards with pagination. Harvesting is best-effort and
// never returns an error; whatever was collected before a fault or an
// expired budget is the result.
package reviews

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/storescout/storescout/internal/diag"
	"github.com/storescout/storescout/internal/domscan"
	"github.com/storescout/storescout/internal/driver"
	"github.com/storescout/storescout/internal/extract"
	"github.com/storescout/storescout/internal/structured"
	"github.com/storescout/storescout/internal/types"
)

// Hard caps on the DOM fallback pass, independent of configured limits.
const (
	maxCardsPerPage = 120
	minBodyRunes    = 40
)

// Options tunes one harvesting run.
type Options struct {
	// MaxReviews stops the harvest once this many reviews were collected.
	// Zero means unlimited.
	MaxReviews int

	// MaxPages bounds the pagination loop of the DOM pass.
	MaxPages int

	// Budget is the wall-clock deadline for this item, checked at pass and
	// page boundaries. Work in flight is finished, no new page is started.
	Budget types.Deadline

	NavTimeout  time.Duration
	SettleDelay time.Duration
	ClickDelay  time.Duration
}

// Harvester collects reviews from item detail pages.
type Harvester struct {
	scanner *domscan.Scanner
	reader  *structured.Reader
	diag    *diag.Sink
	logger  *slog.Logger
}

// New creates a review harvester.
func New(sink *diag.Sink, logger *slog.Logger) *Harvester {
	return &Harvester{
		scanner: domscan.NewScanner(logger),
		reader:  structured.NewReader(logger),
		diag:    sink,
		logger:  logger.With("component", "review_harvester"),
	}
}

// Harvest navigates to the item's detail page and collects its reviews.
// While there, it backfills the item's name and price when the listing and
// enrichment stages left them empty; populated fields are never overwritten.
func (h *Harvester) Harvest(ctx context.Context, drv driver.PageDriver, item *types.ItemRecord, opts Options) []*types.ReviewRecord {
	if err := drv.Navigate(ctx, item.ItemURL, opts.NavTimeout); err != nil {
		h.logger.Warn("review navigation failed", "item", item.ItemName, "error", err)
		return nil
	}
	drv.Wait(opts.SettleDelay)

	doc := h.snapshot(drv, item)
	if doc == nil {
		return nil
	}
	h.backfill(doc, item)

	state := newCollector(item, opts.MaxReviews)

	for _, rv := range h.reader.Reviews(doc) {
		state.add(rv.Title, rv.Body, rv.Date, rv.Reviewer, rv.Rating, types.ReviewSourceStructured)
	}
	if state.full() || opts.Budget.Exceeded() {
		h.logger.Debug("harvest done after structured pass", "item", item.ItemName, "reviews", len(state.out))
		return state.out
	}

	if h.revealReviews(drv) {
		drv.Wait(opts.ClickDelay)
	}
	h.domPass(drv, item, opts, state)

	h.logger.Info("reviews harvested", "item", item.ItemName, "count", len(state.out))
	return state.out
}

// domPass runs the paginated DOM fallback: scan the review scope for card
// shapes, then advance via a load-more or next control until pages, budget,
// or review limit run out.
func (h *Harvester) domPass(drv driver.PageDriver, item *types.ItemRecord, opts Options, state *collector) {
	for page := 0; page < opts.MaxPages; page++ {
		if opts.Budget.Exceeded() {
			h.logger.Debug("review budget spent", "item", item.ItemName, "page", page)
			return
		}

		doc := h.snapshot(drv, item)
		if doc == nil {
			return
		}
		if !h.scanner.HasReviewsKeyword(doc) {
			return
		}

		scope := h.scanner.ReviewScope(doc)
		for _, card := range h.scanner.ReviewCards(scope, maxCardsPerPage, minBodyRunes) {
			state.add(card.Title, card.Body, card.Date, card.Reviewer, card.RatingLabel, types.ReviewSourceDOM)
			if state.full() {
				return
			}
		}

		if !h.nextPage(drv) {
			return
		}
		drv.Wait(opts.ClickDelay)
	}
}

// revealReviews brings the review section into the page: an in-page anchor
// to the reviews fragment first, then any control labelled "Reviews".
func (h *Harvester) revealReviews(drv driver.PageDriver) bool {
	if els, err := drv.Find("a[href*='#reviews']"); err == nil && len(els) > 0 {
		if err := els[0].Click(2 * time.Second); err == nil {
			return true
		}
	}
	if els, err := drv.FindByText("button, a", "Reviews"); err == nil && len(els) > 0 {
		if err := els[0].Click(2 * time.Second); err == nil {
			return true
		}
	}
	return false
}

// nextPage advances pagination: "Load more" style expansion first, then a
// "Next" control. Reports whether anything was clicked.
func (h *Harvester) nextPage(drv driver.PageDriver) bool {
	for _, label := range []string{"Load more", "Next"} {
		if els, err := drv.FindByText("button, a", label); err == nil && len(els) > 0 {
			if err := els[0].Click(2 * time.Second); err == nil {
				return true
			}
		}
	}
	return false
}

// backfill fills the item's name and price from the detail page when the
// earlier stages left them empty.
func (h *Harvester) backfill(doc *goquery.Document, item *types.ItemRecord) {
	if len([]rune(item.ItemName)) < 2 {
		if name := strings.TrimSpace(doc.Find("main h1, h1").First().Text()); name != "" {
			item.ItemName = name
		}
	}
	if item.Price == "" {
		item.Price = extract.Price(h.scanner.MainText(doc))
	}
}

// snapshot parses the current page markup; a failure captures a diagnostic
// and ends the harvest for this item.
func (h *Harvester) snapshot(drv driver.PageDriver, item *types.ItemRecord) *goquery.Document {
	markup, err := drv.Content()
	if err != nil {
		h.logger.Warn("review snapshot failed", "item", item.ItemName, "error", err)
		h.diag.Capture(drv, "review_snapshot_"+types.Slugify(item.ItemName))
		return nil
	}
	doc, err := domscan.ParseDocument(markup)
	if err != nil {
		h.logger.Warn("review snapshot unparsable", "item", item.ItemName, "error", err)
		h.diag.Save("review_parse_"+types.Slugify(item.ItemName), markup, nil)
		return nil
	}
	return doc
}

// collector accumulates deduplicated reviews for one item up to a limit.
type collector struct {
	item  *types.ItemRecord
	limit int
	seen  map[string]struct{}
	out   []*types.ReviewRecord
}

func newCollector(item *types.ItemRecord, limit int) *collector {
	return &collector{
		item:  item,
		limit: limit,
		seen:  make(map[string]struct{}),
	}
}

// add appends one review unless its body is empty, the collector is full,
// or an equivalent review was already collected.
func (c *collector) add(title, body, date, reviewer, rating string, source types.ReviewSource) {
	body = strings.TrimSpace(body)
	if body == "" || c.full() {
		return
	}
	rec := &types.ReviewRecord{
		ItemName:    c.item.ItemName,
		ItemURL:     c.item.ItemURL,
		CategoryURL: c.item.CategoryURL,
		Title:       strings.TrimSpace(title),
		Body:        body,
		Date:        strings.TrimSpace(date),
		Reviewer:    strings.TrimSpace(reviewer),
		Rating:      strings.TrimSpace(rating),
		Source:      source,
	}
	key := rec.DedupKey()
	if _, dup := c.seen[key]; dup {
		return
	}
	c.seen[key] = struct{}{}
	c.out = append(c.out, rec)
}

func (c *collector) full() bool {
	return c.limit > 0 && len(c.out) >= c.limit
}
