package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// metrics groups the relay's Prometheus collectors. Each Gateway owns its own
// registry so several gateways can coexist in one process (tests do this).
type metrics struct {
	registry          *prometheus.Registry
	joins             *prometheus.CounterVec
	connections       prometheus.Gauge
	broadcasts        prometheus.Counter
	deliveries        prometheus.Counter
	deliveryFailures  prometheus.Counter
	rateLimitedFrames prometheus.Counter
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		joins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "roomchat",
			Name:      "joins_total",
			Help:      "Room join attempts by result.",
		}, []string{"result"}),
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "roomchat",
			Name:      "connections",
			Help:      "Currently admitted WebSocket connections.",
		}),
		broadcasts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "roomchat",
			Name:      "broadcasts_total",
			Help:      "Messages broadcast to a room.",
		}),
		deliveries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "roomchat",
			Name:      "deliveries_total",
			Help:      "Per-member delivery attempts.",
		}),
		deliveryFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "roomchat",
			Name:      "delivery_failures_total",
			Help:      "Per-member deliveries that failed or timed out.",
		}),
		rateLimitedFrames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "roomchat",
			Name:      "rate_limited_messages_total",
			Help:      "Inbound messages discarded by the per-connection rate limit.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.joins,
		m.connections,
		m.broadcasts,
		m.deliveries,
		m.deliveryFailures,
		m.rateLimitedFrames,
	)
	return m
}

// handler exposes the registry at /metrics.
func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
