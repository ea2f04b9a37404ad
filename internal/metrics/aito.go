package metrics

import "github.com/prometheus/client_golang/prometheus"

// Predictive database client metrics.
var (
	AitoRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "grocery",
			Name:      "aito_requests_total",
			Help:      "Total number of predictive database requests",
		},
		[]string{"endpoint", "status"},
	)

	AitoRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "grocery",
			Name:      "aito_request_duration_seconds",
			Help:      "Predictive database request duration in seconds",
			Buckets:   []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"endpoint"},
	)

	AitoErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "grocery",
			Name:      "aito_errors_total",
			Help:      "Total predictive database errors by kind",
		},
		[]string{"endpoint", "kind"},
	)

	AitoRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "grocery",
			Name:      "aito_retries_total",
			Help:      "Total retried predictive database requests",
		},
		[]string{"endpoint"},
	)

	AitoCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "grocery",
			Name:      "aito_cache_total",
			Help:      "Query cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var aitoMetricsRegistered bool

// RegisterAitoMetrics registers predictive database metrics. Must be called once from main.
func RegisterAitoMetrics() {
	if aitoMetricsRegistered {
		return
	}
	prometheus.MustRegister(AitoRequestsTotal)
	prometheus.MustRegister(AitoRequestDuration)
	prometheus.MustRegister(AitoErrorsTotal)
	prometheus.MustRegister(AitoRetriesTotal)
	prometheus.MustRegister(AitoCacheTotal)
	aitoMetricsRegistered = true
}
