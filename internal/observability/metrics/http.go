package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kirillkom/exam-attendance/internal/core/domain"
)

const namespace = "ea"

type HTTPServerMetrics struct {
	service  string
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	ingestionsTotal     *prometheus.CounterVec
	candidatesExtracted *prometheus.HistogramVec
	statusChangesTotal  *prometheus.CounterVec
	editsTotal          *prometheus.CounterVec
	reportsTotal        *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	ingestionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "roster",
			Name:      "ingestions_total",
			Help:      "Finished roster ingestions by source and final status.",
		},
		[]string{"service", "source", "status"},
	)
	candidatesExtracted := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "roster",
			Name:      "candidates_extracted",
			Help:      "Distribution of hall tickets extracted per completed ingestion.",
			Buckets:   []float64{0, 10, 30, 60, 120, 240, 480, 960, 1920},
		},
		[]string{"service", "source"},
	)
	statusChangesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "attendance",
			Name:      "status_changes_total",
			Help:      "Applied attendance status changes by operation and status.",
		},
		[]string{"service", "operation", "status"},
	)
	editsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "attendance",
			Name:      "edits_total",
			Help:      "Candidate move/rename edits by result.",
		},
		[]string{"service", "result"},
	)
	reportsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "report",
			Name:      "requests_total",
			Help:      "D-Form report requests by action and result.",
		},
		[]string{"service", "action", "result"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		ingestionsTotal,
		candidatesExtracted,
		statusChangesTotal,
		editsTotal,
		reportsTotal,
	)

	return &HTTPServerMetrics{
		service:             service,
		registry:            registry,
		requestTotal:        requestTotal,
		requestDuration:     requestDuration,
		requestInFlight:     requestInFlight,
		ingestionsTotal:     ingestionsTotal,
		candidatesExtracted: candidatesExtracted,
		statusChangesTotal:  statusChangesTotal,
		editsTotal:          editsTotal,
		reportsTotal:        reportsTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			m.service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(m.service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// normalizePath collapses path parameters so label cardinality stays bounded.
func normalizePath(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 3 || parts[0] != "v1" {
		return path
	}
	switch parts[1] {
	case "ingestions":
		return "/v1/ingestions/{id}"
	case "cohorts":
		return "/v1/cohorts/{code}"
	case "rooms":
		switch {
		case len(parts) == 3:
			return "/v1/rooms/{room}"
		case len(parts) == 4 && parts[3] == "status":
			return "/v1/rooms/{room}/status"
		case len(parts) == 5 && parts[3] == "candidates":
			return "/v1/rooms/{room}/candidates/{hall_ticket}"
		}
	}
	return path
}

// RecordIngestion satisfies ports.IngestionRecorder.
func (m *HTTPServerMetrics) RecordIngestion(source domain.SourceKind, status domain.IngestionStatus, candidates int) {
	m.ingestionsTotal.WithLabelValues(m.service, string(source), string(status)).Inc()
	if status == domain.IngestionCompleted {
		m.candidatesExtracted.WithLabelValues(m.service, string(source)).Observe(float64(candidates))
	}
}

func (m *HTTPServerMetrics) RecordStatusChange(operation string, status domain.Status, count int) {
	if count <= 0 {
		return
	}
	m.statusChangesTotal.WithLabelValues(m.service, operation, string(status)).Add(float64(count))
}

func (m *HTTPServerMetrics) RecordEdit(err error) {
	m.editsTotal.WithLabelValues(m.service, resultLabel(err)).Inc()
}

func (m *HTTPServerMetrics) RecordReport(action string, err error) {
	m.reportsTotal.WithLabelValues(m.service, action, resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case domain.IsKind(err, domain.ErrConflict):
		return "conflict"
	default:
		return "error"
	}
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}
