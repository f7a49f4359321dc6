package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus metrics for application monitoring. All metrics are registered
// in the default registry and exposed via the /metrics endpoint.

var (
	// httpRequestsTotal counts all HTTP requests by method, path, and status.
	// Use for request rate monitoring and error rate calculation.
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// httpRequestDuration measures request processing time. With the
	// simulated license round trip the credential endpoints sit near the
	// configured latency; the histogram makes that visible.
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// httpResponseSize tracks response body sizes for bandwidth monitoring.
	httpResponseSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "HTTP response size in bytes",
			Buckets: prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	// licenseLoginsTotal counts license login attempts by outcome.
	//
	// Labels: result (success, invalid_username, invalid_password,
	// empty_username, empty_password, not_initialized, error)
	licenseLoginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "license_logins_total",
			Help: "Total number of license login attempts",
		},
		[]string{"result"},
	)

	// googleSigninsTotal counts Google sign-in completions by outcome.
	//
	// Labels: result (success, invalid_state, exchange_failed, error)
	googleSigninsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "google_signins_total",
			Help: "Total number of Google sign-in attempts",
		},
		[]string{"result"},
	)

	// storeOpsTotal counts profile store operations by backend, operation,
	// and status. Use for error tracking on the persistence layer.
	//
	// Labels: backend (memory, redis, postgres), operation (GET, SET,
	// SETALL, DELETE), status (success, error)
	storeOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "profile_store_ops_total",
			Help: "Total number of profile store operations",
		},
		[]string{"backend", "operation", "status"},
	)

	// storeOpDuration measures profile store operation latency.
	storeOpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "profile_store_op_duration_seconds",
			Help:    "Profile store operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "operation"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpRequestDuration)
	prometheus.MustRegister(httpResponseSize)
	prometheus.MustRegister(licenseLoginsTotal)
	prometheus.MustRegister(googleSigninsTotal)
	prometheus.MustRegister(storeOpsTotal)
	prometheus.MustRegister(storeOpDuration)
}

// Metrics creates middleware for collecting HTTP metrics. Records request
// count, duration, and response size for every request that passes through.
//
// Example Prometheus queries:
//
//	# Request rate by endpoint
//	rate(http_requests_total[5m])
//
//	# P95 latency
//	histogram_quantile(0.95, rate(http_request_duration_seconds_bucket[5m]))
func Metrics() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(ww.Status())

			httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(duration)
			httpResponseSize.WithLabelValues(r.Method, r.URL.Path).Observe(float64(ww.BytesWritten()))
		})
	}
}

// MetricsHandler returns the Prometheus metrics HTTP handler, exposing all
// registered metrics in the text exposition format for scraping.
//
// Usage:
//
//	r.Get("/metrics", middleware.MetricsHandler().ServeHTTP)
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// IncrementLicenseLogins increments the license login counter. Call in the
// login handler with the attempt outcome.
//
// Example:
//
//	middleware.IncrementLicenseLogins("invalid_password")
func IncrementLicenseLogins(result string) {
	licenseLoginsTotal.WithLabelValues(result).Inc()
}

// IncrementGoogleSignins increments the Google sign-in counter.
func IncrementGoogleSignins(result string) {
	googleSigninsTotal.WithLabelValues(result).Inc()
}

// RecordStoreOp records a profile store operation's count and duration.
//
// Example:
//
//	start := time.Now()
//	err := profiles.Set(ctx, key, value)
//	status := "success"
//	if err != nil {
//	    status = "error"
//	}
//	middleware.RecordStoreOp("redis", "SET", status, time.Since(start))
func RecordStoreOp(backend, operation, status string, duration time.Duration) {
	storeOpsTotal.WithLabelValues(backend, operation, status).Inc()
	storeOpDuration.WithLabelValues(backend, operation).Observe(duration.Seconds())
}
