package metrics

import (
	"net/http"
	"strconv"

	"github.com/felixge/httpsnoop"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "amora",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "amora",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "amora",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	matchesCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "amora",
			Subsystem: "discovery",
			Name:      "matches_created_total",
			Help:      "Total number of mutual matches created.",
		},
	)

	messagesSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "amora",
			Subsystem: "chat",
			Name:      "messages_total",
			Help:      "Total number of chat messages stored.",
		},
		[]string{"sender"},
	)

	pushDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "amora",
			Subsystem: "push",
			Name:      "deliveries_total",
			Help:      "Push deliveries by outcome.",
		},
		[]string{"outcome"},
	)

	payments = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "amora",
			Subsystem: "billing",
			Name:      "payment_updates_total",
			Help:      "Payment status transitions recorded.",
		},
		[]string{"status"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		matchesCreated,
		messagesSent,
		pushDeliveries,
		payments,
	)
}

// Handler exposes the registry for scraping.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler records request counts and latency labelled by the
// matched route template, which keeps label cardinality bounded.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		m := httpsnoop.CaptureMetrics(next, w, r)

		path := routeTemplate(r)
		httpRequests.WithLabelValues(r.Method, path, strconv.Itoa(m.Code)).Inc()
		httpDuration.WithLabelValues(r.Method, path).Observe(m.Duration.Seconds())
	})
}

func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

// MatchCreated counts a new mutual match.
func MatchCreated() { matchesCreated.Inc() }

// MessageSent counts a stored chat message.
func MessageSent(ai bool) {
	if ai {
		messagesSent.WithLabelValues("ai").Inc()
		return
	}
	messagesSent.WithLabelValues("user").Inc()
}

// PushSent counts successful push deliveries.
func PushSent(n int) {
	if n > 0 {
		pushDeliveries.WithLabelValues("sent").Add(float64(n))
	}
}

// PushFailed counts failed push deliveries.
func PushFailed(n int) {
	if n > 0 {
		pushDeliveries.WithLabelValues("failed").Add(float64(n))
	}
}

// PaymentUpdated counts a recorded payment status.
func PaymentUpdated(status string) { payments.WithLabelValues(status).Inc() }
