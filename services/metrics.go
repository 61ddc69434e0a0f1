package services

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of the service. A nil *Metrics is a no-op.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	storeOperations *prometheus.CounterVec
	storeDuration   *prometheus.HistogramVec
	ordersTotal     prometheus.Gauge
	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewMetrics registers the collectors on a dedicated registry
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	storeOperations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_store_operations_total",
		Help: "Order store operations by result",
	}, []string{"operation", "result"})

	storeDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "order_store_operation_duration_seconds",
		Help:    "Duration of order store operations, including the workbook round trip",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	ordersTotal := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "orders_in_log",
		Help: "Number of orders in the log as of the last load or write",
	})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	registry.MustRegister(storeOperations, storeDuration, ordersTotal, requestTotal, requestDuration)

	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		storeOperations: storeOperations,
		storeDuration:   storeDuration,
		ordersTotal:     ordersTotal,
		requestTotal:    requestTotal,
		requestDuration: requestDuration,
	}
}

// Handler exposes the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return m.handler
}

// ObserveStoreOperation records one store call
func (m *Metrics) ObserveStoreOperation(operation string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.storeOperations.WithLabelValues(operation, resultLabel(err)).Inc()
	m.storeDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// SetOrderCount records the size of the order log
func (m *Metrics) SetOrderCount(n int) {
	if m == nil {
		return
	}
	m.ordersTotal.Set(float64(n))
}

// ObserveRequest records one HTTP request
func (m *Metrics) ObserveRequest(method, path string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.requestTotal.WithLabelValues(method, path, code).Inc()
	m.requestDuration.WithLabelValues(method, path, code).Observe(elapsed.Seconds())
}

func resultLabel(err error) string {
	var (
		validationErr *ValidationError
		notFoundErr   *NotFoundError
		conflictErr   *ConflictError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &validationErr):
		return "invalid"
	case errors.As(err, &notFoundErr):
		return "not_found"
	case errors.As(err, &conflictErr):
		return "conflict"
	default:
		return "error"
	}
}
