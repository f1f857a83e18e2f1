package middlewares

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const unmatchedRoute = "unmatched"

var (
	requestCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agentic_backend_http_request_count",
		Help: "The number of http requests per route, method and status code",
	}, []string{"route", "method", "status_code"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "agentic_backend_http_request_duration_seconds",
		Help:    "Time spent serving http requests per route",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"route", "method"})
)

// MetricsMiddleware records request counts and latency keyed by the matched
// route template, so tenant ids and agent kinds in the path do not explode
// the label space.
type MetricsMiddleware struct {
}

func (mw *MetricsMiddleware) RecordHTTPMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()

		recorder := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(recorder, req)

		route := routeTemplate(req)

		requestCounter.WithLabelValues(route, req.Method, strconv.Itoa(recorder.statusCode)).Inc()
		requestDuration.WithLabelValues(route, req.Method).Observe(time.Since(start).Seconds())
	})
}

func routeTemplate(req *http.Request) string {
	route := mux.CurrentRoute(req)
	if route == nil {
		return unmatchedRoute
	}

	template, err := route.GetPathTemplate()
	if err != nil {
		return unmatchedRoute
	}
	return template
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (sr *statusRecorder) WriteHeader(status int) {
	if !sr.wroteHeader {
		sr.statusCode = status
		sr.wroteHeader = true
	}
	sr.ResponseWriter.WriteHeader(status)
}
