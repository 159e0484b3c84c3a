package reviews

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/storescout/storescout/internal/driver"
	"github.com/storescout/storescout/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
	Level: slog.LevelError,
}))

// pagedFake serves a sequence of page snapshots. Controls listed in
// controls are clickable on every page but the last; clicking one advances
// to the next snapshot.
type pagedFake struct {
	pages    []string
	idx      int
	controls map[string]bool
	clicks   int
}

type advanceElement struct{ f *pagedFake }

func (e *advanceElement) Text() (string, error)            { return "", nil }
func (e *advanceElement) Attribute(string) (string, error) { return "", nil }
func (e *advanceElement) Click(time.Duration) error {
	e.f.clicks++
	if e.f.idx < len(e.f.pages)-1 {
		e.f.idx++
	}
	return nil
}

func (f *pagedFake) Navigate(context.Context, string, time.Duration) error { return nil }
func (f *pagedFake) Wait(time.Duration)                                    {}
func (f *pagedFake) Scroll(int) error                                      { return nil }
func (f *pagedFake) Find(string) ([]driver.Element, error)                 { return nil, nil }
func (f *pagedFake) Content() (string, error)                              { return f.pages[f.idx], nil }
func (f *pagedFake) Screenshot() ([]byte, error)                           { return nil, nil }

func (f *pagedFake) FindByText(_, text string) ([]driver.Element, error) {
	if f.controls[text] && f.idx < len(f.pages)-1 {
		return []driver.Element{&advanceElement{f}}, nil
	}
	return nil, nil
}

const structuredPage = `<!DOCTYPE html>
<html>
<head>
<script type="application/ld+json">
{
	"@type": "SoftwareApplication",
	"review": [
		{"name": "Great app", "reviewBody": "Doubled our signups within a month of installing it.", "author": {"name": "Dana"}, "reviewRating": {"ratingValue": 5}},
		{"name": "Solid", "reviewBody": "Does what it says on the tin, setup took five minutes total.", "author": "Lee"}
	]
}
</script>
</head>
<body>
	<main>
		<h1>Email Blaster</h1>
		<p>Pricing starts at $5/month for the basic tier.</p>
	</main>
</body>
</html>`

const domPageOne = `<!DOCTYPE html>
<html>
<body>
	<main>
		<h1>Email Blaster</h1>
		<section id="reviews-section">
			<h2>Reviews</h2>
			<article>
				<h3>Great app</h3>
				<p>Doubled our signups within a month of installing it.</p>
				<strong>Dana</strong>
			</article>
			<article>
				<h3>Worth every penny</h3>
				<p>The automation workflows alone saved us hours every single week.</p>
				<strong>Sam</strong>
			</article>
		</section>
		<button>Load more</button>
	</main>
</body>
</html>`

const domPageTwo = `<!DOCTYPE html>
<html>
<body>
	<main>
		<section id="reviews-section">
			<h2>Reviews</h2>
			<article>
				<h3>Worth every penny</h3>
				<p>The automation workflows alone saved us hours every single week.</p>
				<strong>Sam</strong>
			</article>
			<article>
				<h3>Decent</h3>
				<p>Good feature set overall although the dashboard takes a while to load.</p>
				<strong>Kim</strong>
			</article>
		</section>
	</main>
</body>
</html>`

const noReviewsPage = `<!DOCTYPE html>
<html><body><main><h1>Email Blaster</h1><p>Nothing to see.</p></main></body></html>`

func newTestItem() *types.ItemRecord {
	cat := types.Category{Name: "Marketing", URL: "https://apps.example.com/categories/marketing"}
	return types.NewItemRecord(cat, "Email Blaster", "https://apps.example.com/email-blaster")
}

func defaultOptions() Options {
	return Options{MaxPages: 5}
}

func TestHarvestStructuredPass(t *testing.T) {
	drv := &pagedFake{pages: []string{structuredPage}}
	h := New(nil, testLogger)

	got := h.Harvest(context.Background(), drv, newTestItem(), defaultOptions())
	if len(got) != 2 {
		t.Fatalf("got %d reviews, want 2", len(got))
	}
	if got[0].Source != types.ReviewSourceStructured {
		t.Errorf("source = %q, want structured", got[0].Source)
	}
	if got[0].Title != "Great app" || got[0].Reviewer != "Dana" || got[0].Rating != "5" {
		t.Errorf("first review mismatch: %+v", got[0])
	}
	if got[1].Reviewer != "Lee" {
		t.Errorf("string-author reviewer = %q, want Lee", got[1].Reviewer)
	}
}

func TestHarvestStopsAtMaxReviewsBeforeReveal(t *testing.T) {
	drv := &pagedFake{
		pages:    []string{structuredPage},
		controls: map[string]bool{"Reviews": true},
	}
	h := New(nil, testLogger)

	opts := defaultOptions()
	opts.MaxReviews = 1
	got := h.Harvest(context.Background(), drv, newTestItem(), opts)

	if len(got) != 1 {
		t.Fatalf("got %d reviews, want 1", len(got))
	}
	if drv.clicks != 0 {
		t.Errorf("harvest clicked %d controls after reaching the limit", drv.clicks)
	}
}

func TestHarvestDOMPagination(t *testing.T) {
	drv := &pagedFake{
		pages:    []string{domPageOne, domPageTwo},
		controls: map[string]bool{"Load more": true},
	}
	h := New(nil, testLogger)

	got := h.Harvest(context.Background(), drv, newTestItem(), defaultOptions())

	titles := make(map[string]int)
	for _, rv := range got {
		if rv.Source != types.ReviewSourceDOM {
			t.Errorf("source = %q, want dom", rv.Source)
		}
		titles[rv.Title]++
	}
	for _, title := range []string{"Great app", "Worth every penny", "Decent"} {
		if titles[title] != 1 {
			t.Errorf("title %q collected %d times, want exactly once", title, titles[title])
		}
	}
	if drv.clicks == 0 {
		t.Error("pagination control never clicked")
	}
}

func TestHarvestDedupAcrossPasses(t *testing.T) {
	// The structured pass and the first DOM page both carry "Great app"
	// with an identical body; it must be collected once, from the
	// structured pass.
	combined := structuredPage[:len(structuredPage)-len("</body>\n</html>")] +
		`<section id="reviews-section"><h2>Reviews</h2>
		<article><h3>Great app</h3><p>Doubled our signups within a month of installing it.</p></article>
		</section></body></html>`
	drv := &pagedFake{pages: []string{combined}}
	h := New(nil, testLogger)

	got := h.Harvest(context.Background(), drv, newTestItem(), defaultOptions())

	var hits int
	for _, rv := range got {
		if rv.Title == "Great app" {
			hits++
			if rv.Source != types.ReviewSourceStructured {
				t.Errorf("duplicate resolved to %q, want the structured copy", rv.Source)
			}
		}
	}
	if hits != 1 {
		t.Fatalf("duplicate review collected %d times, want 1", hits)
	}
}

func TestHarvestBudgetStopsDOMPass(t *testing.T) {
	drv := &pagedFake{
		pages:    []string{domPageOne, domPageTwo},
		controls: map[string]bool{"Load more": true},
	}
	h := New(nil, testLogger)

	opts := defaultOptions()
	opts.Budget = types.NewDeadline(time.Nanosecond)
	time.Sleep(time.Millisecond)

	got := h.Harvest(context.Background(), drv, newTestItem(), opts)
	if len(got) != 0 {
		t.Fatalf("expired budget still harvested %d DOM reviews", len(got))
	}
	if drv.clicks != 0 {
		t.Errorf("expired budget still clicked %d controls", drv.clicks)
	}
}

func TestHarvestTerminatesWithoutReviewsKeyword(t *testing.T) {
	drv := &pagedFake{pages: []string{noReviewsPage}}
	h := New(nil, testLogger)

	got := h.Harvest(context.Background(), drv, newTestItem(), defaultOptions())
	if len(got) != 0 {
		t.Fatalf("got %d reviews from a page without a reviews section", len(got))
	}
}

func TestHarvestBackfillsNameAndPrice(t *testing.T) {
	drv := &pagedFake{pages: []string{structuredPage}}
	h := New(nil, testLogger)

	item := newTestItem()
	item.ItemName = ""
	h.Harvest(context.Background(), drv, item, defaultOptions())

	if item.ItemName != "Email Blaster" {
		t.Errorf("name backfill = %q, want Email Blaster", item.ItemName)
	}
	if item.Price != "$5/month" {
		t.Errorf("price backfill = %q, want $5/month", item.Price)
	}
}

func TestHarvestNeverOverwritesPopulatedFields(t *testing.T) {
	drv := &pagedFake{pages: []string{structuredPage}}
	h := New(nil, testLogger)

	item := newTestItem()
	item.Price = "Free plan"
	h.Harvest(context.Background(), drv, item, defaultOptions())

	if item.Price != "Free plan" {
		t.Errorf("price overwritten to %q", item.Price)
	}
	if item.ItemName != "Email Blaster" {
		t.Errorf("name overwritten to %q", item.ItemName)
	}
}
