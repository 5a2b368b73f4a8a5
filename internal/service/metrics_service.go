package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the intake path
// and the background queue jobs. All methods are nil-safe so callers can run
// without metrics wired.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	deliveryTotal   *prometheus.CounterVec
	webinarRetries  *prometheus.CounterVec
	sweptRecords    prometheus.Counter
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

	deliveryTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "form_delivery_attempts_total",
		Help: "Form delivery attempts by origin and outcome",
	}, []string{"origin", "outcome"})

	webinarRetries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webinar_registrations_total",
		Help: "Webinar registration retries by provider and outcome",
	}, []string{"provider", "outcome"})

	sweptRecords := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "queue_swept_records_total",
		Help: "Queue records removed by the retention sweeper",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, deliveryTotal, webinarRetries, sweptRecords, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		deliveryTotal:   deliveryTotal,
		webinarRetries:  webinarRetries,
		sweptRecords:    sweptRecords,
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

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordDelivery counts one form delivery attempt.
func (m *MetricsService) RecordDelivery(origin, outcome string) {
	if m == nil {
		return
	}
	m.deliveryTotal.WithLabelValues(origin, outcome).Inc()
}

// RecordWebinarRetry counts one webinar registration outcome.
func (m *MetricsService) RecordWebinarRetry(provider, outcome string) {
	if m == nil {
		return
	}
	m.webinarRetries.WithLabelValues(provider, outcome).Inc()
}

// AddSweptRecords accumulates retention sweep deletions.
func (m *MetricsService) AddSweptRecords(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.sweptRecords.Add(float64(n))
}
