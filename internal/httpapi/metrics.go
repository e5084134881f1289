package httpapi

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "correctd",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"path", "method", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "correctd",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"path", "method", "status"},
	)

	httpInflight = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "correctd",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "In-flight HTTP requests",
		},
		[]string{"path"},
	)

	correctionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "correctd",
			Subsystem: "pipeline",
			Name:      "corrections_total",
			Help:      "Total corrections served, by method and level",
		},
		[]string{"method", "level"},
	)

	correctionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "correctd",
			Subsystem: "pipeline",
			Name:      "correction_duration_seconds",
			Help:      "End-to-end correction duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"method"},
	)

	chunkFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "correctd",
			Subsystem: "pipeline",
			Name:      "chunk_failures_total",
			Help:      "Chunks whose model correction failed and kept original text",
		},
	)

	memoryAvailableGB = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "correctd",
			Subsystem: "resource",
			Name:      "memory_available_gb",
			Help:      "Available system memory from the last monitor sample",
		},
	)

	memoryUsedPercent = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "correctd",
			Subsystem: "resource",
			Name:      "memory_used_percent",
			Help:      "Used system memory percent from the last monitor sample",
		},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal, httpRequestDuration, httpInflight,
		correctionsTotal, correctionDuration, chunkFailuresTotal,
		memoryAvailableGB, memoryUsedPercent)
}

// ObserveMemorySample publishes a monitor sample to the memory gauges.
// Wired to the resource manager's sample hook.
func ObserveMemorySample(availableGB, usedPercent float64) {
	memoryAvailableGB.Set(availableGB)
	memoryUsedPercent.Set(usedPercent)
}

// observeCorrection records pipeline metrics for one finished correction.
func observeCorrection(method, level string, elapsed time.Duration, failedChunks int) {
	correctionsTotal.WithLabelValues(method, level).Inc()
	correctionDuration.WithLabelValues(method).Observe(elapsed.Seconds())
	if failedChunks > 0 {
		chunkFailuresTotal.Add(float64(failedChunks))
	}
}

// statusRecorder wraps http.ResponseWriter to capture status code
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

// Hijack forwards to the underlying writer so handlers that need the raw
// connection (e.g. WebSocket upgrades) still work behind the middleware.
func (sr *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := sr.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("underlying ResponseWriter does not implement http.Hijacker")
	}
	return hj.Hijack()
}

// MetricsMiddleware instruments requests for Prometheus
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := routePatternOrPath(r)
		method := r.Method
		httpInflight.WithLabelValues(path).Inc()
		defer httpInflight.WithLabelValues(path).Dec()

		sr := &statusRecorder{ResponseWriter: w, status: 200}
		start := time.Now()
		next.ServeHTTP(sr, r)
		statusLabel := itoa(sr.status)
		dur := time.Since(start).Seconds()
		httpRequestsTotal.WithLabelValues(path, method, statusLabel).Inc()
		httpRequestDuration.WithLabelValues(path, method, statusLabel).Observe(dur)
	})
}

// routePatternOrPath returns the chi route pattern if available, otherwise
// falls back to URL path. This avoids high-cardinality label values.
func routePatternOrPath(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}

// fast integer to ascii for small set of status codes
func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [4]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
