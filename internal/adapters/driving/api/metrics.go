package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors exposed on /metrics.
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	downloadItems   *prometheus.CounterVec
	downloadDone    *prometheus.CounterVec
	documentsStored *prometheus.CounterVec
	searches        *prometheus.CounterVec
}

// NewMetrics creates collectors on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "zerosignal_http_requests_total",
			Help: "Total HTTP requests by route, method and status code",
		}, []string{"route", "method", "code"}),

		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "zerosignal_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"route"}),

		downloadItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "zerosignal_download_items_total",
			Help: "Chunks served through the download API",
		}, []string{"pack_id"}),

		downloadDone: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "zerosignal_download_sessions_completed_total",
			Help: "Download sessions that reached the final page",
		}, []string{"pack_id"}),

		documentsStored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "zerosignal_documents_stored_total",
			Help: "Documents stored through the documents endpoint",
		}, []string{"pack_id"}),

		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "zerosignal_search_requests_total",
			Help: "Search requests by pack",
		}, []string{"pack_id"}),
	}

	m.registry.MustRegister(
		m.requests,
		m.requestDuration,
		m.downloadItems,
		m.downloadDone,
		m.documentsStored,
		m.searches,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// statusRecorder captures the response status for instrumentation.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// middleware records request counts and latency per route template.
func (m *Metrics) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		m.requests.WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}
