package comdirect

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	upstreamAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bankmirror_upstream_attempts_total",
		Help: "HTTP attempts against the bank API, labeled by status code",
	}, []string{"method", "status"})

	upstreamRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bankmirror_upstream_retries_total",
		Help: "Retries scheduled after a retryable status",
	}, []string{"status"})

	upstreamRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bankmirror_upstream_request_duration_seconds",
		Help:    "Latency of logical bank API calls including retries",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"method"})
)
