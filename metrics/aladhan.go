package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(aladhanRequestsTotal, aladhanLatencySeconds) }

var (
	aladhanRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prayerbot_aladhan_requests_total",
			Help: "Requests to the Aladhan timings API, labeled by result.",
		},
		[]string{"result"}, // 'ok', 'failed'
	)

	aladhanLatencySeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "prayerbot_aladhan_latency_seconds",
			Help:    "Aladhan request latency.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		},
	)
)

func ObserveFetch(success bool, seconds float64) {
	result := "ok"
	if !success {
		result = "failed"
	}
	aladhanRequestsTotal.WithLabelValues(result).Inc()
	aladhanLatencySeconds.Observe(seconds)
}
