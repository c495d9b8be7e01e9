// Package metrics exposes the Prometheus collectors for the platform.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "marketrun",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "marketrun",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "marketrun",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	ordersPlaced = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "marketrun",
			Subsystem: "orders",
			Name:      "placed_total",
			Help:      "Total number of orders placed, by payment method.",
		},
		[]string{"payment_method"},
	)

	orderValue = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "marketrun",
			Subsystem: "orders",
			Name:      "value_naira",
			Help:      "Order totals in naira.",
			Buckets:   prometheus.ExponentialBuckets(500, 2, 10), // 500 to ~256k naira
		},
		[]string{"payment_method"},
	)

	orderTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "marketrun",
			Subsystem: "orders",
			Name:      "transitions_total",
			Help:      "Total number of order status transitions.",
		},
		[]string{"to"},
	)

	walletOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "marketrun",
			Subsystem: "wallet",
			Name:      "operations_total",
			Help:      "Total number of wallet ledger operations.",
		},
		[]string{"type", "status"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		ordersPlaced,
		orderValue,
		orderTransitions,
		walletOps,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		path := canonicalPath(r.URL.Path)
		method := strings.ToUpper(r.Method)

		httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	})
}

// RecordOrderPlaced records a successful checkout.
func RecordOrderPlaced(paymentMethod string, totalNaira int64) {
	if paymentMethod == "" {
		paymentMethod = "unknown"
	}
	ordersPlaced.WithLabelValues(paymentMethod).Inc()
	orderValue.WithLabelValues(paymentMethod).Observe(float64(totalNaira))
}

// RecordOrderTransition records a lifecycle transition.
func RecordOrderTransition(to string) {
	orderTransitions.WithLabelValues(to).Inc()
}

// RecordWalletOperation records a ledger entry by type and settlement status.
func RecordWalletOperation(txType, status string) {
	walletOps.WithLabelValues(txType, status).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// canonicalPath collapses resource ids so the path label stays low
// cardinality.
func canonicalPath(raw string) string {
	if raw == "" || raw == "/" {
		return "/"
	}
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return "/"
	}
	parts := strings.Split(trimmed, "/")
	prefix := ""
	for len(parts) > 0 && (parts[0] == "api" || parts[0] == "admin") {
		prefix += "/" + parts[0]
		parts = parts[1:]
	}
	if len(parts) == 0 {
		return prefix
	}
	if len(parts) == 1 {
		return prefix + "/" + parts[0]
	}
	// /api/orders/<id>/tracking -> /api/orders/:id/tracking
	parts[1] = ":id"
	if len(parts) > 3 {
		parts = parts[:3]
	}
	return prefix + "/" + strings.Join(parts, "/")
}
