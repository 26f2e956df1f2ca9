package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "repokeep",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "The total number of HTTP requests by route and status code",
	}, []string{"route", "method", "code"})

	httpDurationHistogram = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "repokeep",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latencies by route",
		Buckets:   []float64{.01, .05, .1, .5, 1, 5, 30, 120, 600},
	}, []string{"route"})
)

// logWriter records the status code and size of a response.
type logWriter struct {
	http.ResponseWriter
	code, bytes int
}

var (
	_ http.ResponseWriter = (*logWriter)(nil)
	_ http.Flusher        = (*logWriter)(nil)
)

// Write implements http.ResponseWriter.
func (r *logWriter) Write(p []byte) (int, error) {
	written, err := r.ResponseWriter.Write(p)
	r.bytes += written
	return written, err
}

// WriteHeader implements http.ResponseWriter.
func (r *logWriter) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

// Unwrap returns the underlying http.ResponseWriter.
func (r *logWriter) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Flush implements http.Flusher.
func (r *logWriter) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// routeName returns the path template of the matched route so metrics do
// not grow a series per archive file name.
func routeName(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

// NewLoggingMiddleware returns a mux middleware that logs every response
// and records it in the HTTP metrics.
func NewLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		writer := &logWriter{code: http.StatusOK, ResponseWriter: w}
		next.ServeHTTP(writer, r)

		elapsed := time.Since(start)
		route := routeName(r)
		httpRequestsCounter.WithLabelValues(route, r.Method, strconv.Itoa(writer.code)).Inc()
		httpDurationHistogram.WithLabelValues(route).Observe(elapsed.Seconds())

		log.FromContext(r.Context()).Debug("response",
			"method", r.Method,
			"path", r.URL.Path,
			"addr", r.RemoteAddr,
			"status", writer.code,
			"bytes", humanize.Bytes(uint64(writer.bytes)), //nolint:gosec
			"took", elapsed)
	})
}
