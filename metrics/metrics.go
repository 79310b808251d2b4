// Package metrics exposes Prometheus collectors for a scraping run.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the scraper. All methods are
// safe to call on a nil receiver.
type Metrics struct {
	Registry         *prometheus.Registry
	RequestsTotal    *prometheus.CounterVec
	FetchDuration    prometheus.Histogram
	PagesTotal       *prometheus.CounterVec
	ProductsTotal    *prometheus.CounterVec
	FragmentsSkipped *prometheus.CounterVec
	RetriesTotal     prometheus.Counter
	ErrorsTotal      *prometheus.CounterVec
}

// New constructs and registers all metrics on a dedicated registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_requests_total",
			Help: "Total page requests issued by the fetcher.",
		},
		[]string{"fetcher"},
	)
	fetchDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scraper_fetch_duration_seconds",
			Help:    "Time to fetch and extract one category page.",
			Buckets: prometheus.DefBuckets,
		},
	)
	pages := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_pages_total",
			Help: "Category pages by outcome.",
		},
		[]string{"category", "outcome"},
	)
	products := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_products_total",
			Help: "Product records accepted into the run.",
		},
		[]string{"category"},
	)
	skipped := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_fragments_skipped_total",
			Help: "Fragments dropped without raising an error.",
		},
		[]string{"reason"},
	)
	retries := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_retries_total",
			Help: "Total number of retry attempts scheduled.",
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_errors_total",
			Help: "Total number of scraper errors by isolation tier and type.",
		},
		[]string{"tier", "error_type"},
	)

	registry.MustRegister(requests, fetchDuration, pages, products, skipped, retries, errorsTotal)

	return &Metrics{
		Registry:         registry,
		RequestsTotal:    requests,
		FetchDuration:    fetchDuration,
		PagesTotal:       pages,
		ProductsTotal:    products,
		FragmentsSkipped: skipped,
		RetriesTotal:     retries,
		ErrorsTotal:      errorsTotal,
	}
}

// IncRequest increments the requests counter for a fetcher kind.
func (m *Metrics) IncRequest(fetcher string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(fetcher).Inc()
}

// ObserveFetch records how long a page fetch took.
func (m *Metrics) ObserveFetch(d time.Duration) {
	if m == nil {
		return
	}
	m.FetchDuration.Observe(d.Seconds())
}

// IncPage counts a page outcome: scraped, empty or failed.
func (m *Metrics) IncPage(category, outcome string) {
	if m == nil {
		return
	}
	m.PagesTotal.WithLabelValues(category, outcome).Inc()
}

// AddProducts adds accepted records for a category.
func (m *Metrics) AddProducts(category string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ProductsTotal.WithLabelValues(category).Add(float64(n))
}

// AddSkipped adds fragments dropped for reason.
func (m *Metrics) AddSkipped(reason string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.FragmentsSkipped.WithLabelValues(reason).Add(float64(n))
}

// IncRetries increments the retries counter.
func (m *Metrics) IncRetries() {
	if m == nil {
		return
	}
	m.RetriesTotal.Inc()
}

// AddErrors adds n errors for an isolation tier (item, page, category) and
// error type label.
func (m *Metrics) AddErrors(tier, errorType string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ErrorsTotal.WithLabelValues(tier, errorType).Add(float64(n))
}
