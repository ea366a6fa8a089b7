package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	ResultOK          = "ok"
	ResultConflict    = "conflict"
	ResultNotFound    = "not_found"
	ResultError       = "error"
	ResultAuditFailed = "audit_failed"

	DirectionIn  = "in"
	DirectionOut = "out"
)

// Metrics holds the service collectors on a private registry so tests can
// build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	LifecycleTransitions *prometheus.CounterVec
	StockBatches         *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{registry: registry}

	m.HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "status"},
	)

	m.HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method"},
	)

	m.LifecycleTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asset_lifecycle_transitions_total",
			Help: "Asset status transitions by outcome",
		},
		[]string{"transition", "result"},
	)

	m.StockBatches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asset_stock_batches_total",
			Help: "Committed stock-in and stock-out batches",
		},
		[]string{"direction"},
	)

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.LifecycleTransitions,
		m.StockBatches,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) RecordHTTPRequest(method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

func (m *Metrics) RecordTransition(transition, result string) {
	if m == nil {
		return
	}
	m.LifecycleTransitions.WithLabelValues(transition, result).Inc()
}

func (m *Metrics) RecordBatch(direction string) {
	if m == nil {
		return
	}
	m.StockBatches.WithLabelValues(direction).Inc()
}

// Middleware counts every request once the handler chain has returned.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else if s, ok := err.(interface{ Status() int }); ok {
				status = s.Status()
			}
		}
		m.RecordHTTPRequest(c.Method(), status, time.Since(start))
		return err
	}
}
