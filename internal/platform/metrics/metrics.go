// Package metrics agrupa los collectors Prometheus del servicio.
// Todos los métodos aceptan receiver nil (no-op) para no ensuciar tests.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	duration        *prometheus.HistogramVec
	deletions       *prometheus.CounterVec
	cascadeFailures *prometheus.CounterVec
	logins          *prometheus.CounterVec
	notifyFailures  *prometheus.CounterVec
}

func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests por método, ruta y status.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Latencia de requests HTTP.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		deletions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pet_deletions_total",
			Help:      "Borrados de mascotas por camino (atomic / sequential).",
		}, []string{"path"}),
		cascadeFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pet_cascade_failures_total",
			Help:      "Colecciones que no se pudieron limpiar en el borrado secuencial.",
		}, []string{"collection"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_attempts_total",
			Help:      "Intentos de login por resultado.",
		}, []string{"outcome"}),
		notifyFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notification_failures_total",
			Help:      "Notificaciones que fallaron al publicarse.",
		}, []string{"subject"}),
	}

	reg.MustRegister(m.requests, m.duration, m.deletions, m.cascadeFailures, m.logins, m.notifyFailures)
	return m
}

// Handler expone /metrics.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) ObserveDeletion(path string, failed []string) {
	if m == nil {
		return
	}
	m.deletions.WithLabelValues(path).Inc()
	for _, c := range failed {
		m.cascadeFailures.WithLabelValues(c).Inc()
	}
}

func (m *Metrics) ObserveLogin(outcome string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveNotifyFailure(subject string) {
	if m == nil {
		return
	}
	m.notifyFailures.WithLabelValues(subject).Inc()
}
