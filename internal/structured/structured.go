// Package structured reads embedded machine-readable metadata blocks
// (JSON-LD, standard meta tags) out of a page snapshot. It is the preferred
// extraction path: when present, structured data is faster and more reliable
// than DOM heuristics.
package structured

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// maxBlocks bounds how many ld+json scripts are parsed per page.
const maxBlocks = 10

// Review is a review candidate pulled from a JSON-LD block.
type Review struct {
	Title    string
	Body     string
	Date     string
	Reviewer string
	Rating   string
}

// Reader extracts structured data from parsed documents.
type Reader struct {
	logger *slog.Logger
}

// NewReader creates a structured-data reader.
func NewReader(logger *slog.Logger) *Reader {
	return &Reader{logger: logger.With("component", "structured_reader")}
}

// Reviews collects review objects from the page's JSON-LD blocks. Blocks
// beyond the first maxBlocks are ignored; malformed blocks are skipped.
func (r *Reader) Reviews(doc *goquery.Document) []Review {
	var out []Review

	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if i >= maxBlocks {
			return false
		}
		raw := strings.TrimSpace(sel.Text())
		if raw == "" {
			return true
		}
		for _, obj := range decodeObjects(raw) {
			out = append(out, reviewsFromObject(obj)...)
		}
		return true
	})

	return out
}

// AggregateRating reads the page-level aggregateRating block, returning the
// rating value and review count when present.
func (r *Reader) AggregateRating(doc *goquery.Document) (rating float64, count int, ratingOK, countOK bool) {
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if i >= maxBlocks || (ratingOK && countOK) {
			return false
		}
		for _, obj := range decodeObjects(strings.TrimSpace(sel.Text())) {
			agg, ok := obj["aggregateRating"].(map[string]any)
			if !ok {
				continue
			}
			if !ratingOK {
				if v, ok := toFloat(agg["ratingValue"]); ok {
					rating, ratingOK = v, true
				}
			}
			if !countOK {
				if v, ok := toFloat(agg["reviewCount"]); ok {
					count, countOK = int(v), true
				} else if v, ok := toFloat(agg["ratingCount"]); ok {
					count, countOK = int(v), true
				}
			}
		}
		return true
	})
	return rating, count, ratingOK, countOK
}

// MetaDescription returns the page-level description: the standard meta tag
// first, the OpenGraph variant second.
func (r *Reader) MetaDescription(doc *goquery.Document) string {
	if c, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
		if c = strings.TrimSpace(c); c != "" {
			return c
		}
	}
	if c, ok := doc.Find(`meta[property="og:description"]`).Attr("content"); ok {
		return strings.TrimSpace(c)
	}
	return ""
}

// decodeObjects parses a raw JSON-LD payload that may be a single object or
// an array of objects.
func decodeObjects(raw string) []map[string]any {
	if raw == "" {
		return nil
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err == nil {
		return []map[string]any{obj}
	}

	var arr []map[string]any
	if err := json.Unmarshal([]byte(raw), &arr); err == nil {
		return arr
	}

	return nil
}

// reviewsFromObject pulls the "review" member (singular or list-valued) out
// of one JSON-LD object.
func reviewsFromObject(obj map[string]any) []Review {
	rv, ok := obj["review"]
	if !ok || rv == nil {
		return nil
	}

	var list []any
	switch v := rv.(type) {
	case []any:
		list = v
	default:
		list = []any{v}
	}

	var out []Review
	for _, entry := range list {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}

		rev := Review{
			Title: asString(m["name"]),
			Body:  asString(m["reviewBody"]),
			Date:  asString(m["datePublished"]),
		}

		switch author := m["author"].(type) {
		case map[string]any:
			rev.Reviewer = asString(author["name"])
		case string:
			rev.Reviewer = author
		}

		if rr, ok := m["reviewRating"].(map[string]any); ok {
			if v, ok := toFloat(rr["ratingValue"]); ok {
				rev.Rating = strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.1f", v), "0"), ".")
			} else {
				rev.Rating = asString(rr["ratingValue"])
			}
		}

		out = append(out, rev)
	}
	return out
}

func asString(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		var f float64
		if _, err := fmt.Sscanf(strings.TrimSpace(n), "%g", &f); err == nil {
			return f, true
		}
	}
	return 0, false
}
