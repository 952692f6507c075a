// Package metrics owns the Prometheus registration for the process.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	ServicesRegistered prometheus.Gauge
	ServicesBuilt      prometheus.Gauge
	ContextsActive     prometheus.Gauge
	ServiceHealth      *prometheus.GaugeVec

	serviceCounters   *prometheus.CounterVec
	serviceGauges     *prometheus.GaugeVec
	serviceHistograms *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics on a private registry so
// tests can construct as many instances as they need.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "paygrid_http_requests_total",
			Help: "Total HTTP requests by method, path, and status code",
		}, []string{"method", "path", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "paygrid_http_request_duration_seconds",
			Help:    "HTTP request latency by method and path",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		ServicesRegistered: factory.NewGauge(prometheus.GaugeOpts{
			Name: "paygrid_runtime_services_registered",
			Help: "Number of service descriptors known to the registry",
		}),
		ServicesBuilt: factory.NewGauge(prometheus.GaugeOpts{
			Name: "paygrid_runtime_services_built",
			Help: "Number of service singletons constructed so far",
		}),
		ContextsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "paygrid_runtime_contexts_active",
			Help: "Number of live request contexts in the context store",
		}),
		ServiceHealth: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "paygrid_runtime_service_healthy",
			Help: "Latest health probe outcome per service (1 healthy, 0 unhealthy)",
		}, []string{"service"}),
		serviceCounters: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "paygrid_service_counter_total",
			Help: "Counter samples recorded by domain services",
		}, []string{"service", "metric"}),
		serviceGauges: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "paygrid_service_gauge",
			Help: "Gauge samples recorded by domain services",
		}, []string{"service", "metric"}),
		serviceHistograms: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "paygrid_service_observation",
			Help:    "Histogram samples recorded by domain services",
			Buckets: prometheus.DefBuckets,
		}, []string{"service", "metric"}),
	}
}

// Handler exposes the registry for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, path, status string, elapsed time.Duration) {
	m.HTTPRequests.WithLabelValues(method, path, status).Inc()
	m.HTTPDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

// SetServiceHealth records the latest probe outcome for a service.
func (m *Metrics) SetServiceHealth(service string, healthy bool) {
	value := 0.0
	if healthy {
		value = 1.0
	}
	m.ServiceHealth.WithLabelValues(service).Set(value)
}

// ObserveCounter mirrors a collector counter sample into Prometheus.
func (m *Metrics) ObserveCounter(service, metric string, delta float64) {
	m.serviceCounters.WithLabelValues(service, metric).Add(delta)
}

// ObserveGauge mirrors a collector gauge sample into Prometheus.
func (m *Metrics) ObserveGauge(service, metric string, value float64) {
	m.serviceGauges.WithLabelValues(service, metric).Set(value)
}

// ObserveHistogram mirrors a collector histogram sample into Prometheus.
func (m *Metrics) ObserveHistogram(service, metric string, value float64) {
	m.serviceHistograms.WithLabelValues(service, metric).Observe(value)
}
