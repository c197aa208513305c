package storage

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MediaRequests 媒体操作次数，result 为 success/failure/rejected
	MediaRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_requests_total",
			Help: "Total number of media host operations by result",
		},
		[]string{"operation", "result"},
	)

	MediaDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_request_duration_seconds",
			Help:    "Duration of media host operations in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"operation"},
	)

	// BreakerState 熔断状态 (0=closed, 1=half-open, 2=open)
	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "media_circuit_breaker_state",
			Help: "Media host circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)
)
