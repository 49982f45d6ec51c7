package prometheus

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counter metrics
var (
	LoginCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "restaurantpro_login_total",
			Help: "Total number of login attempts",
		},
	)

	SignupCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "restaurantpro_signup_total",
			Help: "Total number of signup attempts",
		},
	)

	// Restaurants provisioned, by plan
	ProvisionedCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "restaurantpro_restaurants_provisioned_total",
			Help: "Total number of restaurants created at signup",
		},
		[]string{"plan"},
	)

	AuthErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "restaurantpro_auth_errors_total",
			Help: "Total number of authentication and signup errors",
		},
		[]string{"type"}, // "invalid_credentials", "password_mismatch", "session_missing" etc.
	)

	StatusTransitionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "restaurantpro_order_status_transitions_total",
			Help: "Total number of order status transitions by outcome",
		},
		[]string{"to", "outcome"}, // outcome: "applied", "rejected", "conflict", "failed"
	)
)

// Histogram metrics
var (
	BackendOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "restaurantpro_backend_operation_duration_seconds",
			Help:    "Duration of calls to the auth and data backend in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)

// Gauge metrics
var (
	InfoGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "restaurantpro_info",
			Help: "Information about the service",
		},
		[]string{"version", "backend"},
	)
)

func init() {
	prometheus.MustRegister(LoginCounter)
	prometheus.MustRegister(SignupCounter)
	prometheus.MustRegister(ProvisionedCounter)
	prometheus.MustRegister(AuthErrorCounter)
	prometheus.MustRegister(StatusTransitionCounter)

	prometheus.MustRegister(BackendOperationDuration)

	prometheus.MustRegister(InfoGauge)
}

// SetInfo publishes the build version and backend kind
func SetInfo(version, backend string) {
	InfoGauge.With(prometheus.Labels{"version": version, "backend": backend}).Set(1)
}

// GetPrometheusHandler returns an HTTP handler for the Prometheus metrics
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}

// TrackBackendOperation measures a backend call. Use as
// defer prometheus.TrackBackendOperation("list_orders")()
func TrackBackendOperation(operation string) func() {
	start := time.Now()
	return func() {
		BackendOperationDuration.With(prometheus.Labels{
			"operation": operation,
		}).Observe(time.Since(start).Seconds())
	}
}

// RecordAuthError records an authentication error by type
func RecordAuthError(errorType string) {
	AuthErrorCounter.With(prometheus.Labels{"type": errorType}).Inc()
}

// RecordProvisioned records a restaurant created at signup
func RecordProvisioned(plan string) {
	ProvisionedCounter.With(prometheus.Labels{"plan": plan}).Inc()
}

// RecordTransition records the outcome of a status change request
func RecordTransition(to, outcome string) {
	StatusTransitionCounter.With(prometheus.Labels{"to": to, "outcome": outcome}).Inc()
}
