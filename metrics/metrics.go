package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		remindersSentTotal,
		reminderSendFailuresTotal,
		reminderTicksTotal,
		subscriptionsGauge,
	)
}

var (
	remindersSentTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "prayerbot_reminders_sent_total",
			Help: "Number of prayer reminders delivered.",
		},
	)

	reminderSendFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prayerbot_reminder_send_failures_total",
			Help: "Number of reminders Telegram refused, labeled by reason.",
		},
		[]string{"reason"}, // 'unreachable', 'error'
	)

	reminderTicksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prayerbot_reminder_ticks_total",
			Help: "Reminder loop iterations, labeled by result.",
		},
		[]string{"result"}, // 'ok', 'conflict', 'error'
	)

	subscriptionsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "prayerbot_subscriptions",
			Help: "Number of stored subscriptions seen by the last reminder tick.",
		},
	)
)

func IncReminderSent() {
	remindersSentTotal.Inc()
}

func IncReminderFailure(reason string) {
	reminderSendFailuresTotal.WithLabelValues(norm(reason)).Inc()
}

func IncTick(result string) {
	reminderTicksTotal.WithLabelValues(norm(result)).Inc()
}

func SetSubscriptions(n int) {
	subscriptionsGauge.Set(float64(n))
}

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
