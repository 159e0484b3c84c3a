// Package domscan is the heuristic fallback reader: when a page carries no
// usable structured data, it scans candidate regions and card-shaped
// elements of the rendered markup with tolerant selectors. Accuracy is
// traded for resilience; callers treat every result as optional.
package domscan

import (
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// ratingRegionSelectors are the candidate regions scanned for the
// "<rating> (<count> reviews)" text pattern, in priority order.
var ratingRegionSelectors = []string{
	"main",
	"header",
	"[data-testid*='reviews']",
	"[class*='Reviews']",
	"[class*='reviews']",
	"[class*='rating']",
}

// ariaRatingSelector matches star widgets by their accessibility label.
const ariaRatingSelector = "[aria-label*='out of 5'], [aria-label*='stars']"

// Card is one review-shaped element found by the fallback pass.
type Card struct {
	Title       string
	Body        string
	Date        string
	Reviewer    string
	RatingLabel string
}

// Scanner runs DOM heuristics over parsed page snapshots.
type Scanner struct {
	logger *slog.Logger
}

// NewScanner creates a DOM fallback scanner.
func NewScanner(logger *slog.Logger) *Scanner {
	return &Scanner{logger: logger.With("component", "dom_scanner")}
}

// ParseDocument parses a page snapshot for goquery-based scanning.
func ParseDocument(markup string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(markup))
}

// ParseNode parses a page snapshot for XPath-based scanning.
func ParseNode(markup string) (*html.Node, error) {
	return html.Parse(strings.NewReader(markup))
}

// DeveloperInfo locates a "Developer" label/value pair. When the value holds
// a link, the name is the link text and the website its href; otherwise the
// raw value text is the name. Absence returns two empty strings.
func (s *Scanner) DeveloperInfo(root *html.Node) (name, website string) {
	dt, err := htmlquery.Query(root, "//dt[contains(normalize-space(.), 'Developer')]")
	if err != nil || dt == nil {
		return "", ""
	}

	dd, err := htmlquery.Query(dt, "following-sibling::dd[1]")
	if err != nil || dd == nil {
		return "", ""
	}

	if a, err := htmlquery.Query(dd, ".//a"); err == nil && a != nil {
		return strings.TrimSpace(htmlquery.InnerText(a)), strings.TrimSpace(htmlquery.SelectAttr(a, "href"))
	}
	return strings.TrimSpace(htmlquery.InnerText(dd)), ""
}

// RatingLabel returns the first accessibility label that looks like a star
// rating ("4.8 out of 5 stars"), or "".
func (s *Scanner) RatingLabel(doc *goquery.Document) string {
	label, _ := doc.Find(ariaRatingSelector).First().Attr("aria-label")
	return strings.TrimSpace(label)
}

// RatingRegionsText gathers the visible text of the candidate rating
// regions into one blob for pattern scanning.
func (s *Scanner) RatingRegionsText(doc *goquery.Document) string {
	var texts []string
	for _, sel := range ratingRegionSelectors {
		if t := strings.TrimSpace(doc.Find(sel).First().Text()); t != "" {
			texts = append(texts, t)
		}
	}
	return strings.Join(texts, "\n")
}

// MainText returns the visible text of the main content region, falling
// back to the whole body.
func (s *Scanner) MainText(doc *goquery.Document) string {
	if t := strings.TrimSpace(doc.Find("main").First().Text()); t != "" {
		return t
	}
	return strings.TrimSpace(doc.Find("body").Text())
}

// FirstParagraph returns the first paragraph of the main content region.
func (s *Scanner) FirstParagraph(doc *goquery.Document) string {
	return strings.TrimSpace(doc.Find("main p").First().Text())
}

// HasReviewsKeyword reports whether the word "Reviews" appears anywhere in
// the page text. Its absence is one of the harvester's termination signals.
func (s *Scanner) HasReviewsKeyword(doc *goquery.Document) bool {
	return strings.Contains(doc.Text(), "Reviews")
}

// ReviewScope narrows scanning to the first element plausibly representing
// a reviews section: a section mentioning "Reviews", an id hinting at
// reviews, or a div mentioning "Reviews". Defaults to the whole document.
func (s *Scanner) ReviewScope(doc *goquery.Document) *goquery.Selection {
	if sec := firstContaining(doc.Find("section"), "Reviews"); sec != nil {
		return sec
	}
	if el := doc.Find("[id*='reviews']").First(); el.Length() > 0 {
		return el
	}
	if div := firstContaining(doc.Find("div"), "Reviews"); div != nil {
		return div
	}
	return doc.Selection
}

// ReviewCards gathers card-shaped elements inside scope: broad structural
// tags containing at least one paragraph. Bodies shorter than minBody runes
// are rejected as noise. At most limit cards are scanned.
func (s *Scanner) ReviewCards(scope *goquery.Selection, limit, minBody int) []Card {
	var cards []Card

	scope.Find("article, li, div").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if i >= limit {
			return false
		}

		body := strings.TrimSpace(sel.Find("p").First().Text())
		if len([]rune(body)) < minBody {
			return true
		}

		card := Card{
			Body:     body,
			Title:    strings.TrimSpace(sel.Find("h3, h4").First().Text()),
			Date:     strings.TrimSpace(sel.Find("time").First().Text()),
			Reviewer: strings.TrimSpace(sel.Find("strong, b, a").First().Text()),
		}
		if label, ok := sel.Find(ariaRatingSelector).First().Attr("aria-label"); ok {
			card.RatingLabel = strings.TrimSpace(label)
		}

		cards = append(cards, card)
		return true
	})

	return cards
}

// firstContaining returns the first selection element whose text contains
// needle, or nil.
func firstContaining(sel *goquery.Selection, needle string) *goquery.Selection {
	var found *goquery.Selection
	sel.EachWithBreak(func(i int, s *goquery.Selection) bool {
		if strings.Contains(s.Text(), needle) {
			found = s
			return false
		}
		return true
	})
	return found
}
