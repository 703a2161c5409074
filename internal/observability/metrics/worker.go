package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	service  string
	registry *prometheus.Registry

	renderTotal    *prometheus.CounterVec
	renderDuration *prometheus.HistogramVec
	renderInFlight prometheus.Gauge
	queueLag       *prometheus.HistogramVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	renderTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "dform_render_total",
			Help:      "Total rendered D-Form workbooks by status.",
		},
		[]string{"service", "status"},
	)
	renderDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "dform_render_duration_seconds",
			Help:      "D-Form rendering duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	renderInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "dform_render_in_flight",
			Help:      "Number of D-Form workbooks being rendered.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	queueLag := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "queue_lag_seconds",
			Help:      "Delay between report assembly and rendering start.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
		[]string{"service"},
	)

	registry.MustRegister(renderTotal, renderDuration, renderInFlight, queueLag)

	return &WorkerMetrics{
		service:        service,
		registry:       registry,
		renderTotal:    renderTotal,
		renderDuration: renderDuration,
		renderInFlight: renderInFlight,
		queueLag:       queueLag,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartRender() {
	m.renderInFlight.Inc()
}

func (m *WorkerMetrics) FinishRender(duration time.Duration, err error) {
	m.renderInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}
	m.renderTotal.WithLabelValues(m.service, status).Inc()
	m.renderDuration.WithLabelValues(m.service, status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) ObserveQueueLag(lag time.Duration) {
	if lag < 0 {
		return
	}
	m.queueLag.WithLabelValues(m.service).Observe(lag.Seconds())
}
