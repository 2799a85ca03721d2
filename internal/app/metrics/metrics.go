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
			Namespace: "nekoko",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nekoko",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "nekoko",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	generationRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nekoko",
			Subsystem: "generation",
			Name:      "requests_total",
			Help:      "Total number of generation transactions by terminal status.",
		},
		[]string{"status"},
	)

	generationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "nekoko",
			Subsystem: "generation",
			Name:      "upstream_duration_seconds",
			Help:      "Wall-clock duration of upstream provider calls.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12), // 50ms to ~3m
		},
		[]string{"status"},
	)

	ledgerDebits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nekoko",
			Subsystem: "ledger",
			Name:      "debits_total",
			Help:      "Total number of ledger debit attempts.",
		},
		[]string{"result"},
	)

	revenueTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "nekoko",
			Subsystem: "platform",
			Name:      "revenue_total",
			Help:      "Lifetime revenue recorded in the call log.",
		},
	)

	callsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "nekoko",
			Subsystem: "platform",
			Name:      "calls_total",
			Help:      "Lifetime generation attempts recorded in the call log.",
		},
	)

	successRate = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "nekoko",
			Subsystem: "platform",
			Name:      "success_rate_percent",
			Help:      "Share of logged generation attempts that succeeded.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		generationRequests,
		generationDuration,
		ledgerDebits,
		revenueTotal,
		callsTotal,
		successRate,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus
// metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler with HTTP metrics
// collection.
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

// RecordGeneration records one finished generation transaction.
func RecordGeneration(status string, upstreamDuration time.Duration) {
	generationRequests.WithLabelValues(status).Inc()
	if upstreamDuration > 0 {
		generationDuration.WithLabelValues(status).Observe(upstreamDuration.Seconds())
	}
}

// RecordDebit records a ledger debit attempt.
func RecordDebit(result string) {
	ledgerDebits.WithLabelValues(result).Inc()
}

// SetPlatformStats publishes call-log aggregates.
func SetPlatformStats(calls int, revenue, successPercent float64) {
	callsTotal.Set(float64(calls))
	revenueTotal.Set(revenue)
	successRate.Set(successPercent)
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

// canonicalPath collapses record identifiers so metric labels stay
// bounded.
func canonicalPath(raw string) string {
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return "/"
	}
	parts := strings.Split(trimmed, "/")
	switch parts[0] {
	case "admin":
		if len(parts) >= 2 {
			if len(parts) == 2 {
				return "/admin/" + parts[1]
			}
			return "/admin/" + parts[1] + "/:id"
		}
		return "/admin"
	case "user", "auth":
		if len(parts) >= 2 {
			return "/" + parts[0] + "/" + parts[1]
		}
		return "/" + parts[0]
	default:
		return "/" + parts[0]
	}
}
