package composer

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// QueryDuration 组合查询耗时
	QueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "composer_query_duration_seconds",
			Help:    "Duration of composed catalog reads in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"entity", "operation"},
	)

	// QueryErrorsTotal 组合查询失败次数
	QueryErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "composer_query_errors_total",
			Help: "Total number of composed catalog reads that failed",
		},
		[]string{"entity", "operation"},
	)
)

func observe(entity, operation string, start time.Time, err *error) {
	QueryDuration.WithLabelValues(entity, operation).Observe(time.Since(start).Seconds())
	if err != nil && *err != nil && !errors.Is(*err, ErrNotFound) {
		QueryErrorsTotal.WithLabelValues(entity, operation).Inc()
	}
}
