package server

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	noRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slaskgrocery_http_requests_total",
		Help: "The total number of api requests",
	}, []string{"method", "route", "code"})
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "slaskgrocery_http_request_duration_seconds",
		Help:    "Api request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
)

const RequestIdHeader = "X-Request-Id"

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// RequestLogger tags every request with an id, logs it and records metrics.
// An incoming X-Request-Id is kept.
func RequestLogger(next *http.ServeMux) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		requestId := r.Header.Get(RequestIdHeader)
		if requestId == "" {
			requestId = uuid.NewString()
		}
		w.Header().Set(RequestIdHeader, requestId)

		_, route := next.Handler(r)
		if route == "" {
			route = "unmatched"
		}
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		elapsed := time.Since(started)
		noRequests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		requestDuration.WithLabelValues(r.Method, route).Observe(elapsed.Seconds())
		log.Printf("[%s] %s %s %d %s", requestId, r.Method, r.URL.Path, rec.status, elapsed)
	})
}
