// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts completed requests by method, route pattern and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests served",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration tracks request latency by method and route pattern.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// AuthAttemptsTotal counts register and login attempts by outcome.
	AuthAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_attempts_total",
			Help: "Total number of registration and login attempts",
		},
		[]string{"action", "outcome"},
	)

	// TokenRejectionsTotal counts bearer tokens refused by the auth middleware.
	TokenRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_token_rejections_total",
			Help: "Total number of rejected bearer tokens",
		},
		[]string{"reason"},
	)

	// LocationsCreatedTotal counts successfully stored locations.
	LocationsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "locations_created_total",
			Help: "Total number of haunted locations submitted",
		},
	)
)

// Outcome labels shared by the auth collectors.
const (
	OutcomeSuccess   = "success"
	OutcomeFailure   = "failure"
	OutcomeDuplicate = "duplicate"
	OutcomeInvalid   = "invalid"
	OutcomeError     = "error"
)
