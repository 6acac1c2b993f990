package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/trezcool/quizadmin/core/notification"
)

var (
	NotificationsComposed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quizadmin_notifications_composed_total",
			Help: "Total number of result notifications composed, by kind",
		},
		[]string{"kind"},
	)

	NotificationsDelivered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quizadmin_notifications_delivered_total",
			Help: "Total number of result notifications delivered, by mail backend",
		},
		[]string{"backend"},
	)

	NotificationDispatchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quizadmin_notification_dispatch_failures_total",
			Help: "Total number of failed notification dispatches, by reason",
		},
		[]string{"reason"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quizadmin_http_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// Recorder feeds notification events into the prometheus counters.
type Recorder struct{}

var _ notification.Recorder = Recorder{}

func NewRecorder() notification.Recorder { return Recorder{} }

func (Recorder) NotificationComposed(kind notification.Kind) {
	NotificationsComposed.WithLabelValues(kind.String()).Inc()
}

func (Recorder) NotificationDelivered(backend string) {
	NotificationsDelivered.WithLabelValues(backend).Inc()
}

func (Recorder) DispatchFailed(reason string) {
	NotificationDispatchFailures.WithLabelValues(reason).Inc()
}
