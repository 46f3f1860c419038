// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ImportRuns counts finished import job invocations by outcome.
	ImportRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_import_runs_total",
			Help: "Total number of recipe import runs by status",
		},
		[]string{"status"},
	)

	ImportRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "foodgram_import_retries_total",
			Help: "Total number of retried recipe import attempts",
		},
	)

	RecipesImported = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "foodgram_recipes_imported_total",
			Help: "Total number of recipes created by the import job",
		},
	)

	ImportDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "foodgram_import_duration_seconds",
			Help:    "Duration of recipe import runs in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 300, 900, 3600},
		},
	)

	CrawlerBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "foodgram_crawler_circuit_breaker_state",
			Help: "Recipe API circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)

	ShoppingListDownloads = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "foodgram_shopping_list_downloads_total",
			Help: "Total number of rendered shopping list PDFs",
		},
	)
)
