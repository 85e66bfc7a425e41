// Package metrics owns the prometheus collectors exported on the metrics port.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "complianceanalyzer"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   []float64{.1, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"route"},
	)

	// FetchTotal counts bounded fetches by target name and outcome
	// (ok, too_large, timeout, transport).
	FetchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_total",
			Help:      "Outbound bounded fetches by target and outcome",
		},
		[]string{"target", "outcome"},
	)

	FetchBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_response_bytes",
			Help:      "Size of successfully fetched bodies",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 8),
		},
		[]string{"target"},
	)

	CompletionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "completion_duration_seconds",
			Help:      "Latency of completion model calls",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		FetchTotal,
		FetchBytes,
		CompletionDuration,
	)
}
