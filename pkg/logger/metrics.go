package logger

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus collectors shared across the service, exposed on /metrics.

var (
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_request_duration_seconds",
			Help: "Duration of HTTP requests in seconds",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	PriceFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "price_fetch_duration_seconds",
			Help: "Duration of upstream day-price fetches in seconds",
		},
		[]string{"outcome"},
	)

	PriceFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "price_fetch_total",
			Help: "Total number of upstream day-price fetches",
		},
		[]string{"outcome"},
	)

	PriceCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "price_cache_lookups_total",
			Help: "Day-price cache lookups by result",
		},
		[]string{"result"},
	)

	EvaluationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "condition_evaluations_total",
			Help: "Total number of condition evaluations",
		},
		[]string{"mode"},
	)
)
