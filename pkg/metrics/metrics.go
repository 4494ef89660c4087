package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketplace_http_requests_total",
			Help: "Total number of HTTP requests processed by the messaging API.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "marketplace_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	messagesSentTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "marketplace_messages_sent_total",
			Help: "Messages durably appended to a conversation.",
		},
	)
	bookkeepingFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketplace_bookkeeping_failures_total",
			Help: "Follow-up writes that failed after a message was stored.",
		},
		[]string{"step"},
	)
	notificationsCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketplace_notifications_created_total",
			Help: "Notifications written, by type.",
		},
		[]string{"type"},
	)
	sinkPublishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "marketplace_sink_publish_errors_total",
			Help: "Notification events the sink failed to publish.",
		},
	)
	realtimeSubscriptionsActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "marketplace_realtime_subscriptions_active",
			Help: "Open websocket streams.",
		},
		[]string{"stream"},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		messagesSentTotal,
		bookkeepingFailuresTotal,
		notificationsCreatedTotal,
		sinkPublishErrorsTotal,
		realtimeSubscriptionsActive,
	)
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

func ObserveHTTPRequest(method, route, status string, seconds float64) {
	httpRequestsTotal.WithLabelValues(method, route, status).Inc()
	httpRequestDuration.WithLabelValues(route).Observe(seconds)
}

func IncMessagesSent() {
	messagesSentTotal.Inc()
}

func IncBookkeepingFailure(step string) {
	bookkeepingFailuresTotal.WithLabelValues(step).Inc()
}

func AddNotificationsCreated(notificationType string, n int) {
	notificationsCreatedTotal.WithLabelValues(notificationType).Add(float64(n))
}

func IncSinkPublishError() {
	sinkPublishErrorsTotal.Inc()
}

func IncSubscriptions(stream string) {
	realtimeSubscriptionsActive.WithLabelValues(stream).Inc()
}

func DecSubscriptions(stream string) {
	realtimeSubscriptionsActive.WithLabelValues(stream).Dec()
}
