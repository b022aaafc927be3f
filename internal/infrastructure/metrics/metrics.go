// Package metrics owns the prometheus registry of the process.
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups every collector. A nil *Metrics records nothing.
type Metrics struct {
	registry        *prometheus.Registry
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	sessions        prometheus.Gauge
	eventsPublished *prometheus.CounterVec
	eventsDropped   *prometheus.CounterVec
	quotaRejections *prometheus.CounterVec
	relayMessages   *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tasksync_realtime_sessions",
			Help: "Number of connected push-channel sessions",
		}),
		eventsPublished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tasksync_events_published_total",
				Help: "Delta events published, by event name",
			},
			[]string{"event"},
		),
		eventsDropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tasksync_events_dropped_total",
				Help: "Deliveries skipped because a session buffer was full",
			},
			[]string{"event"},
		),
		quotaRejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tasksync_guest_quota_rejections_total",
				Help: "Guest creations refused by the quota gate",
			},
			[]string{"kind"},
		),
		relayMessages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tasksync_relay_messages_total",
				Help: "Events exchanged with the cross-process relay",
			},
			[]string{"direction"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requestsTotal,
		m.requestDuration,
		m.sessions,
		m.eventsPublished,
		m.eventsDropped,
		m.quotaRejections,
		m.relayMessages,
	)
	return m
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveRequest(method, path string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(method, path, fmt.Sprintf("%d", status)).Inc()
	m.requestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

func (m *Metrics) SessionOpened() {
	if m != nil {
		m.sessions.Inc()
	}
}

func (m *Metrics) SessionClosed() {
	if m != nil {
		m.sessions.Dec()
	}
}

func (m *Metrics) EventPublished(event string, dropped int) {
	if m == nil {
		return
	}
	m.eventsPublished.WithLabelValues(event).Inc()
	if dropped > 0 {
		m.eventsDropped.WithLabelValues(event).Add(float64(dropped))
	}
}

func (m *Metrics) QuotaRejected(kind string) {
	if m != nil {
		m.quotaRejections.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) RelayMessage(direction string) {
	if m != nil {
		m.relayMessages.WithLabelValues(direction).Inc()
	}
}
