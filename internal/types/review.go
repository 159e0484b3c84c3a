package types

import "strings"

// ReviewSource identifies which extraction pass produced a review.
type ReviewSource string

const (
	ReviewSourceStructured ReviewSource = "structured"
	ReviewSourceDOM        ReviewSource = "dom"
)

// ReviewRecord is one harvested review for one item. Records are never
// mutated after creation.
type ReviewRecord struct {
	ItemName    string       `json:"item_name"`
	ItemURL     string       `json:"item_url"`
	CategoryURL string       `json:"category_url,omitempty"`
	Title       string       `json:"title,omitempty"`
	Body        string       `json:"body"`
	Date        string       `json:"date,omitempty"`
	Reviewer    string       `json:"reviewer,omitempty"`
	Rating      string       `json:"rating,omitempty"`
	Source      ReviewSource `json:"source"`
}

// DedupKey collapses the same review surfaced by both the structured and DOM
// passes: title plus the first 90 characters of the body, trimmed.
func (r *ReviewRecord) DedupKey() string {
	body := r.Body
	if len(body) > 90 {
		body = body[:90]
	}
	return strings.TrimSpace(r.Title + "|" + body)
}

// ToRow flattens the review for tabular export.
func (r *ReviewRecord) ToRow() map[string]string {
	row := map[string]string{
		"item_name": r.ItemName,
		"item_url":  r.ItemURL,
		"body":      r.Body,
		"source":    string(r.Source),
	}
	if r.CategoryURL != "" {
		row["category_url"] = r.CategoryURL
	}
	if r.Title != "" {
		row["title"] = r.Title
	}
	if r.Date != "" {
		row["date"] = r.Date
	}
	if r.Reviewer != "" {
		row["reviewer"] = r.Reviewer
	}
	if r.Rating != "" {
		row["rating"] = r.Rating
	}
	return row
}
