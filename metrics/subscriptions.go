package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(subscribeTotal) }

var subscribeTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "prayerbot_subscribe_total",
		Help: "Location submissions, labeled by outcome.",
	},
	[]string{"result"}, // 'ok', 'input_format', 'fetch_failed', 'storage', 'error'
)

func IncSubscribe(result string) {
	subscribeTotal.WithLabelValues(norm(result)).Inc()
}
