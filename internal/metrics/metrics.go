package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "battery_scm"

// Metrics holds the service's Prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// MRP metrics
	CalculationsTotal   *prometheus.CounterVec
	CalculationDuration *prometheus.HistogramVec
	MaterialShortages   prometheus.Gauge
	DataIssues          prometheus.Gauge
	RunsArchived        *prometheus.CounterVec

	// Inventory and workflow metrics
	StockAdjustments  *prometheus.CounterVec
	StatusTransitions *prometheus.CounterVec
}

// New creates a new Metrics instance
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{registry: registry}

	m.HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	m.HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)
	m.HTTPRequestsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "http_requests_in_flight",
		Help:      "Number of HTTP requests currently being processed",
	})

	m.CalculationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mrp",
			Name:      "calculations_total",
			Help:      "MRP calculations by kind and outcome",
		},
		[]string{"kind", "status"},
	)
	m.CalculationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "mrp",
			Name:      "calculation_duration_seconds",
			Help:      "MRP calculation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"kind"},
	)
	m.MaterialShortages = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "mrp",
		Name:      "material_shortages",
		Help:      "Materials short in the latest bulk calculation",
	})
	m.DataIssues = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "mrp",
		Name:      "data_issues",
		Help:      "Missing references skipped by the latest bulk calculation",
	})
	m.RunsArchived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mrp",
			Name:      "runs_archived_total",
			Help:      "MRP run snapshots written to the archive",
		},
		[]string{"status"},
	)

	m.StockAdjustments = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "inventory",
			Name:      "stock_adjustments_total",
			Help:      "Stock adjustments by reason and outcome",
		},
		[]string{"reason", "status"},
	)
	m.StatusTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_transitions_total",
			Help:      "Order and production status changes",
		},
		[]string{"entity", "to"},
	)

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.CalculationsTotal,
		m.CalculationDuration,
		m.MaterialShortages,
		m.DataIssues,
		m.RunsArchived,
		m.StockAdjustments,
		m.StatusTransitions,
	)

	return m
}

// Handler returns the HTTP handler for the metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// All Record methods are safe on a nil *Metrics.

func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func (m *Metrics) IncrementHTTPRequestsInFlight() {
	if m != nil {
		m.HTTPRequestsInFlight.Inc()
	}
}

func (m *Metrics) DecrementHTTPRequestsInFlight() {
	if m != nil {
		m.HTTPRequestsInFlight.Dec()
	}
}

// RecordCalculation counts one MRP calculation of kind "bulk" or "production".
func (m *Metrics) RecordCalculation(kind string, success bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.CalculationsTotal.WithLabelValues(kind, outcome(success)).Inc()
	m.CalculationDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

func (m *Metrics) SetShortageSnapshot(shortages, issues int) {
	if m == nil {
		return
	}
	m.MaterialShortages.Set(float64(shortages))
	m.DataIssues.Set(float64(issues))
}

func (m *Metrics) RecordRunArchived(success bool) {
	if m != nil {
		m.RunsArchived.WithLabelValues(outcome(success)).Inc()
	}
}

func (m *Metrics) RecordStockAdjustment(reason string, success bool) {
	if m != nil {
		m.StockAdjustments.WithLabelValues(reason, outcome(success)).Inc()
	}
}

func (m *Metrics) RecordTransition(entity, to string) {
	if m != nil {
		m.StatusTransitions.WithLabelValues(entity, to).Inc()
	}
}

func outcome(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
