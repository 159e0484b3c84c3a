package domscan

import (
	"log/slog"
	"os"
	"strings"
	"testing"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

const detailHTML = `<!DOCTYPE html>
<html>
<body>
<header>Top nav 4.6 (1,532 reviews)</header>
<main>
	<h1>Email Blaster</h1>
	<span aria-label="4.6 out of 5 stars"></span>
	<p>Email Blaster helps merchants grow their list with popups and flows.</p>
	<dl>
		<dt>Developer</dt>
		<dd><a href="https://dev.example.com">Blaster Labs</a></dd>
		<dt>Launched</dt>
		<dd>March 2021</dd>
	</dl>
</main>
<section id="reviews-section">
	<h2>Reviews</h2>
	<article>
		<h3>Great app</h3>
		<span aria-label="5 out of 5 stars"></span>
		<p>Doubled our signups within a month of installing, support is responsive too.</p>
		<time>November 2, 2024</time>
		<strong>Dana</strong>
	</article>
	<article>
		<h3>Too short</h3>
		<p>Meh.</p>
	</article>
</section>
</body>
</html>`

func TestDeveloperInfoWithLink(t *testing.T) {
	root, err := ParseNode(detailHTML)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	s := NewScanner(testLogger)
	name, website := s.DeveloperInfo(root)
	if name != "Blaster Labs" {
		t.Errorf("developer name = %q", name)
	}
	if website != "https://dev.example.com" {
		t.Errorf("developer website = %q", website)
	}
}

func TestDeveloperInfoPlainText(t *testing.T) {
	root, err := ParseNode(`<html><body><dl><dt>Developer</dt><dd>Acme Inc</dd></dl></body></html>`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	s := NewScanner(testLogger)
	name, website := s.DeveloperInfo(root)
	if name != "Acme Inc" || website != "" {
		t.Errorf("got (%q, %q), want (Acme Inc, )", name, website)
	}
}

func TestDeveloperInfoAbsent(t *testing.T) {
	root, err := ParseNode(`<html><body><dl><dt>Launched</dt><dd>2021</dd></dl></body></html>`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	s := NewScanner(testLogger)
	if name, website := s.DeveloperInfo(root); name != "" || website != "" {
		t.Errorf("expected empty pair, got (%q, %q)", name, website)
	}
}

func TestRatingLabel(t *testing.T) {
	doc, err := ParseDocument(detailHTML)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	s := NewScanner(testLogger)
	if got := s.RatingLabel(doc); got != "4.6 out of 5 stars" {
		t.Errorf("rating label = %q", got)
	}
}

func TestRatingRegionsText(t *testing.T) {
	doc, err := ParseDocument(detailHTML)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	s := NewScanner(testLogger)
	blob := s.RatingRegionsText(doc)
	if blob == "" {
		t.Fatal("expected region text")
	}
	// The header region carries the "<rating> (<count> reviews)" pattern.
	if want := "4.6 (1,532 reviews)"; !strings.Contains(blob, want) {
		t.Errorf("region blob missing %q", want)
	}
}

func TestFirstParagraph(t *testing.T) {
	doc, err := ParseDocument(detailHTML)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	s := NewScanner(testLogger)
	got := s.FirstParagraph(doc)
	if want := "Email Blaster helps merchants grow their list with popups and flows."; got != want {
		t.Errorf("first paragraph = %q", got)
	}
}

func TestReviewCards(t *testing.T) {
	doc, err := ParseDocument(detailHTML)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	s := NewScanner(testLogger)
	scope := s.ReviewScope(doc)
	cards := s.ReviewCards(scope, 120, 40)

	if len(cards) != 1 {
		t.Fatalf("expected 1 card (noise filtered), got %d", len(cards))
	}

	card := cards[0]
	if card.Title != "Great app" {
		t.Errorf("title = %q", card.Title)
	}
	if card.Reviewer != "Dana" {
		t.Errorf("reviewer = %q", card.Reviewer)
	}
	if card.Date != "November 2, 2024" {
		t.Errorf("date = %q", card.Date)
	}
	if card.RatingLabel != "5 out of 5 stars" {
		t.Errorf("rating label = %q", card.RatingLabel)
	}
}

func TestReviewScopeDefaultsToDocument(t *testing.T) {
	doc, err := ParseDocument(`<html><body><p>Nothing about feedback here</p></body></html>`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	s := NewScanner(testLogger)
	if scope := s.ReviewScope(doc); scope.Length() == 0 {
		t.Error("expected non-empty default scope")
	}
	if s.HasReviewsKeyword(doc) {
		t.Error("keyword should be absent")
	}
}
