package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Business metrics for the affairs listing
	AffairsFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "affairs_fetches_total",
			Help: "Total number of current-affairs list fetches against the backend",
		},
		[]string{"status"},
	)

	AffairsStaleDropsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "affairs_stale_responses_dropped_total",
			Help: "List responses discarded because a newer fetch superseded them",
		},
	)

	// Checkout metrics
	PaymentOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_outcomes_total",
			Help: "Checkout session outcomes by terminal state",
		},
		[]string{"outcome"},
	)

	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_request_duration_seconds",
			Help:    "Coaching backend request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "status"},
	)
)
