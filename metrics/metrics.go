// Package metrics exposes Prometheus instrumentation for the relay.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics tracks relay request processing.
//
// Metrics:
//   - n8n2api_requests_total: request count by endpoint and outcome
//   - n8n2api_relay_duration_seconds: end-to-end relay duration by mode
//   - n8n2api_upstream_errors_total: upstream failures by kind
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal  *prometheus.CounterVec
	relayDuration  *prometheus.HistogramVec
	upstreamErrors *prometheus.CounterVec
}

// New creates and registers the relay metrics on a private registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "n8n2api",
				Name:      "requests_total",
				Help:      "Total number of relay requests processed",
			},
			[]string{"endpoint", "outcome"},
		),
		relayDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "n8n2api",
				Name:      "relay_duration_seconds",
				Help:      "End-to-end duration of chat-completion relays",
				Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12), // 50ms 到 ~200s
			},
			[]string{"mode"},
		),
		upstreamErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "n8n2api",
				Name:      "upstream_errors_total",
				Help:      "Total number of upstream webhook failures",
			},
			[]string{"kind"},
		),
	}

	registry.MustRegister(m.requestsTotal, m.relayDuration, m.upstreamErrors)

	return m
}

// RecordRequest counts one completed request on an endpoint.
func (m *Metrics) RecordRequest(endpoint, outcome string) {
	m.requestsTotal.WithLabelValues(endpoint, outcome).Inc()
}

// RecordRelay captures one finished chat-completion relay.
func (m *Metrics) RecordRelay(mode string, duration time.Duration, outcome string) {
	m.relayDuration.WithLabelValues(mode).Observe(duration.Seconds())
	m.requestsTotal.WithLabelValues("chat_completions", outcome).Inc()
	if outcome != "ok" && outcome != "canceled" {
		m.upstreamErrors.WithLabelValues(outcome).Inc()
	}
}

// Handler returns the Prometheus exposition handler for /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})
}
