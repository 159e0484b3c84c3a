package types

import (
	"strconv"
	"time"
)

// ItemRecord represents one catalog item. It is created by the listing
// extractor with placeholder detail fields, mutated in place by the detail
// enricher, and treated as immutable once handed to the aggregator.
type ItemRecord struct {
	CategoryName        string `json:"category_name"`
	CategoryURL         string `json:"category_url"`
	CategoryDescription string `json:"category_description,omitempty"`

	// ItemURL is the canonical detail-page URL and the global dedup key.
	ItemName string `json:"item_name"`
	ItemURL  string `json:"item_url"`

	Description string `json:"description,omitempty"`

	// Price is the raw pricing string as shown on the page ("Free plan",
	// "From $9.99/month", ...). Empty when no pricing text was found.
	Price string `json:"price,omitempty"`

	Rating       *float64 `json:"rating,omitempty"`
	ReviewsCount *int     `json:"reviews_count,omitempty"`

	DeveloperName    string `json:"developer_name,omitempty"`
	DeveloperWebsite string `json:"developer_website,omitempty"`

	// RatingSource records where the rating/review figures came from
	// ("aria_label", "text_pattern"); RatingScrapedAt is when they were read.
	RatingSource    string    `json:"rating_source,omitempty"`
	RatingScrapedAt time.Time `json:"rating_scraped_at,omitempty"`

	// EnrichmentError is set when a detail-page step faulted unexpectedly.
	// The record is still emitted downstream.
	EnrichmentError string `json:"enrichment_error,omitempty"`
}

// NewItemRecord creates a listing-stage record for an item discovered under
// the given category.
func NewItemRecord(cat Category, name, canonicalURL string) *ItemRecord {
	return &ItemRecord{
		CategoryName:        cat.Name,
		CategoryURL:         cat.URL,
		CategoryDescription: cat.Description,
		ItemName:            name,
		ItemURL:             canonicalURL,
	}
}

// SetRating stores a rating value by pointer.
func (r *ItemRecord) SetRating(v float64) { r.Rating = &v }

// SetReviewsCount stores a review count by pointer.
func (r *ItemRecord) SetReviewsCount(n int) { r.ReviewsCount = &n }

// ToRow flattens the record for tabular export. Absent optional fields are
// omitted so sparse schemas stay sparse.
func (r *ItemRecord) ToRow() map[string]string {
	row := map[string]string{
		"category_name": r.CategoryName,
		"category_url":  r.CategoryURL,
		"item_name":     r.ItemName,
		"item_url":      r.ItemURL,
	}
	if r.CategoryDescription != "" {
		row["category_description"] = r.CategoryDescription
	}
	if r.Description != "" {
		row["description"] = r.Description
	}
	if r.Price != "" {
		row["price"] = r.Price
	}
	if r.Rating != nil {
		row["rating"] = strconv.FormatFloat(*r.Rating, 'f', -1, 64)
	}
	if r.ReviewsCount != nil {
		row["reviews_count"] = strconv.Itoa(*r.ReviewsCount)
	}
	if r.DeveloperName != "" {
		row["developer_name"] = r.DeveloperName
	}
	if r.DeveloperWebsite != "" {
		row["developer_website"] = r.DeveloperWebsite
	}
	if r.RatingSource != "" {
		row["rating_source"] = r.RatingSource
	}
	if !r.RatingScrapedAt.IsZero() {
		row["rating_scraped_at"] = r.RatingScrapedAt.UTC().Format(time.RFC3339)
	}
	if r.EnrichmentError != "" {
		row["enrichment_error"] = r.EnrichmentError
	}
	return row
}
