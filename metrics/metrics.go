// metrics/metrics.go
package metrics

import (
	"net/http"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Namespace prefixes every service-specific metric name.
const Namespace = "applyform"

var (
	reqDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests by route, method and status.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.3, 1, 3, 10},
		},
		[]string{"path", "method", "status"},
	)

	reqInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "http_requests_in_flight",
		Help:      "HTTP requests currently being served.",
	})
)

// RegisterDefault registers the Go runtime and process collectors, the HTTP
// collectors and the form collectors with the default registry. Call it once
// at startup; registering twice is a no-op.
func RegisterDefault(logger *zap.Logger) {
	mustRegister(logger, "Go collector", collectors.NewGoCollector())
	mustRegister(logger, "process collector", collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	mustRegister(logger, "HTTP request histogram", reqDuration)
	mustRegister(logger, "HTTP in-flight gauge", reqInFlight)

	for _, c := range Form.collectors() {
		mustRegister(logger, c.name, c.collector)
	}
}

// mustRegister exits through logger.Fatal (or panics without a logger) on
// any registration error other than AlreadyRegisteredError.
func mustRegister(logger *zap.Logger, name string, c prometheus.Collector) {
	err := prometheus.Register(c)
	if err == nil {
		return
	}
	if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
		return
	}
	if logger == nil {
		panic("metrics: failed to register " + name + ": " + err.Error())
	}
	logger.Fatal("failed to register "+name, zap.Error(err))
}

// maxPathLabelLength caps the path label.
const maxPathLabelLength = 256

// HTTPMetrics records request duration and in-flight count. The path label
// is the chi route pattern, so "/static/*" stays one series no matter how
// many files are served.
func HTTPMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqInFlight.Inc()
		defer reqInFlight.Dec()

		start := time.Now()
		protoMajor := r.ProtoMajor
		if protoMajor < 1 {
			protoMajor = 1
		}
		ww := middleware.NewWrapResponseWriter(w, protoMajor)

		next.ServeHTTP(ww, r)

		reqDuration.WithLabelValues(
			routeLabel(r),
			r.Method,
			statusLabel(ww.Status()),
		).Observe(time.Since(start).Seconds())
	})
}

// routeLabel is the matched route pattern, or the truncated raw path when
// no chi route matched.
func routeLabel(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	path := r.URL.Path
	if len(path) > maxPathLabelLength {
		path = truncateUTF8(path, maxPathLabelLength-3) + "..."
	}
	return path
}

func statusLabel(code int) string {
	switch {
	case code == 0:
		// Nothing written: net/http sends 200.
		code = http.StatusOK
	case code < 100 || code > 599:
		code = http.StatusInternalServerError
	}
	return strconv.Itoa(code)
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// truncateUTF8 cuts s to at most maxBytes without splitting a rune.
func truncateUTF8(s string, maxBytes int) string {
	if maxBytes <= 0 {
		return ""
	}
	if len(s) <= maxBytes {
		return s
	}
	for maxBytes > 0 && !utf8.RuneStart(s[maxBytes]) {
		maxBytes--
	}
	return s[:maxBytes]
}
