package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/internship-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation for HTTP traffic and application lifecycle.
type MetricsService struct {
	registry         *prometheus.Registry
	handler          http.Handler
	requestDuration  *prometheus.HistogramVec
	requestTotal     *prometheus.CounterVec
	transitions      *prometheus.CounterVec
	rejectedCommands *prometheus.CounterVec
	eventWrites      *prometheus.CounterVec
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "application_transitions_total",
		Help: "Application status transitions by action",
	}, []string{"action", "from", "to"})

	rejectedCommands := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "application_commands_rejected_total",
		Help: "Application commands refused by a business rule",
	}, []string{"action", "code"})

	eventWrites := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "application_event_writes_total",
		Help: "Application history writes by outcome",
	}, []string{"outcome"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, transitions, rejectedCommands, eventWrites, goroutines)

	return &MetricsService{
		registry:         registry,
		handler:          promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:  requestDuration,
		requestTotal:     requestTotal,
		transitions:      transitions,
		rejectedCommands: rejectedCommands,
		eventWrites:      eventWrites,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry returns the underlying registry, mostly for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordTransition counts a committed status change. Creation uses an empty from.
func (m *MetricsService) RecordTransition(action Action, from, to models.ApplicationStatus) {
	if m == nil {
		return
	}
	if from == statusNone {
		from = "none"
	}
	m.transitions.WithLabelValues(string(action), string(from), string(to)).Inc()
}

// RecordRejection counts a command refused with a typed error code.
func (m *MetricsService) RecordRejection(action Action, code string) {
	if m == nil {
		return
	}
	m.rejectedCommands.WithLabelValues(string(action), code).Inc()
}

// RecordEventWrite counts history writes; ok=false marks a failed attempt.
func (m *MetricsService) RecordEventWrite(ok bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	m.eventWrites.WithLabelValues(outcome).Inc()
}
