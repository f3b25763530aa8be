// Package metrics holds the Prometheus collectors exported on
// /internal/metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shortener_request_duration_seconds",
			Help:    "Request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "route", "status"},
	)

	RequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shortener_requests_total",
			Help: "Total number of requests",
		},
		[]string{"method", "route", "status"},
	)

	// Links
	LinksCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shortener_links_created_total",
			Help: "Total number of links created",
		},
	)

	LinksReused = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shortener_links_reused_total",
			Help: "Shorten requests answered with an existing link",
		},
	)

	Redirects = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shortener_redirects_total",
			Help: "Resolve attempts by outcome",
		},
		[]string{"result"}, // "found", "not_found" or "error"
	)

	// Identifier generator
	IDCollisions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shortener_id_collisions_total",
			Help: "Generated identifiers that were already taken",
		},
	)

	IDEscalations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shortener_id_length_escalations_total",
			Help: "Times the generator increased the identifier length",
		},
	)

	// Storage
	InsertFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shortener_insert_failures_total",
			Help: "Background inserts that could not be written",
		},
	)

	InsertQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "shortener_insert_queue_length",
			Help: "Links waiting to be written by the insert worker",
		},
	)
)
