// Package observability exposes run metrics on a dedicated Prometheus
// registry. All methods are nil-receiver safe so wiring metrics stays
// optional throughout the pipeline.
package observability

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles Prometheus collectors for the harvest pipeline.
type Metrics struct {
	Registry *prometheus.Registry

	CategoriesTotal   *prometheus.CounterVec
	ItemsListedTotal  prometheus.Counter
	ItemsEnriched     prometheus.Counter
	ReviewsTotal      *prometheus.CounterVec
	DuplicatesSkipped prometheus.Counter
	DiagnosticsSaved  prometheus.Counter
	CategoryDuration  prometheus.Histogram

	logger *slog.Logger
}

// NewMetrics constructs and registers all collectors on a dedicated registry.
func NewMetrics(logger *slog.Logger) *Metrics {
	registry := prometheus.NewRegistry()

	categories := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storescout_categories_total",
			Help: "Categories processed, labelled by outcome.",
		},
		[]string{"outcome"},
	)
	itemsListed := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "storescout_items_listed_total",
			Help: "Items discovered on category listing pages.",
		},
	)
	itemsEnriched := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "storescout_items_enriched_total",
			Help: "Items enriched from their detail pages.",
		},
	)
	reviews := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storescout_reviews_harvested_total",
			Help: "Reviews harvested, labelled by extraction source.",
		},
		[]string{"source"},
	)
	duplicates := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "storescout_duplicates_skipped_total",
			Help: "Items skipped because an earlier category already produced them.",
		},
	)
	diagnostics := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "storescout_diagnostics_saved_total",
			Help: "Diagnostic page captures written to disk.",
		},
	)
	categoryDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "storescout_category_duration_seconds",
			Help:    "Wall-clock time spent per category.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
	)

	registry.MustRegister(categories, itemsListed, itemsEnriched, reviews, duplicates, diagnostics, categoryDuration)

	return &Metrics{
		Registry:          registry,
		CategoriesTotal:   categories,
		ItemsListedTotal:  itemsListed,
		ItemsEnriched:     itemsEnriched,
		ReviewsTotal:      reviews,
		DuplicatesSkipped: duplicates,
		DiagnosticsSaved:  diagnostics,
		CategoryDuration:  categoryDuration,
		logger:            logger.With("component", "metrics"),
	}
}

// IncCategory counts one processed category by outcome ("ok", "empty",
// "failed").
func (m *Metrics) IncCategory(outcome string) {
	if m == nil {
		return
	}
	m.CategoriesTotal.WithLabelValues(outcome).Inc()
}

// AddItemsListed counts items discovered by the listing extractor.
func (m *Metrics) AddItemsListed(n int) {
	if m == nil {
		return
	}
	m.ItemsListedTotal.Add(float64(n))
}

// IncItemEnriched counts one enriched item.
func (m *Metrics) IncItemEnriched() {
	if m == nil {
		return
	}
	m.ItemsEnriched.Inc()
}

// AddReviews counts harvested reviews for one extraction source.
func (m *Metrics) AddReviews(source string, n int) {
	if m == nil {
		return
	}
	m.ReviewsTotal.WithLabelValues(source).Add(float64(n))
}

// IncDuplicateSkipped counts one cross-category duplicate item.
func (m *Metrics) IncDuplicateSkipped() {
	if m == nil {
		return
	}
	m.DuplicatesSkipped.Inc()
}

// IncDiagnosticSaved counts one diagnostic capture.
func (m *Metrics) IncDiagnosticSaved() {
	if m == nil {
		return
	}
	m.DiagnosticsSaved.Inc()
}

// ObserveCategoryDuration records the wall-clock time of one category.
func (m *Metrics) ObserveCategoryDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.CategoryDuration.Observe(d.Seconds())
}

// StartServer exposes the registry over HTTP alongside a health endpoint.
func (m *Metrics) StartServer(port int, path string) error {
	if m == nil {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle(path, promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	addr := fmt.Sprintf(":%d", port)
	m.logger.Info("metrics server starting", "addr", addr, "path", path)

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			m.logger.Error("metrics server error", "error", err)
		}
	}()

	return nil
}
