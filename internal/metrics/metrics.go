// Package metrics exposes link and dispatch counters in Prometheus format.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sensor_console"

// Metrics groups the console counters. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry    *prometheus.Registry
	inbound     *prometheus.CounterVec
	sent        *prometheus.CounterVec
	dropped     *prometheus.CounterVec
	parseErrors prometheus.Counter
	reconnects  prometheus.Counter
	connected   prometheus.Gauge
}

// New registers the counters on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		inbound: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inbound_messages_total",
			Help:      "Messages received from the board by page.",
		}, []string{"page"}),
		sent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbound_messages_total",
			Help:      "Messages written to the board by page.",
		}, []string{"page"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbound_dropped_total",
			Help:      "Messages dropped because the link was not open.",
		}, []string{"page"}),
		parseErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parse_errors_total",
			Help:      "Inbound frames that could not be decoded.",
		}),
		reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconnects_total",
			Help:      "Scheduled reconnect attempts.",
		}),
		connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "link_up",
			Help:      "1 while the board link is open.",
		}),
	}
	m.registry.MustRegister(m.inbound, m.sent, m.dropped, m.parseErrors, m.reconnects, m.connected)
	return m
}

// Handler serves the registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Inbound(page string) {
	if m == nil {
		return
	}
	m.inbound.WithLabelValues(page).Inc()
}

func (m *Metrics) Sent(page string) {
	if m == nil {
		return
	}
	m.sent.WithLabelValues(page).Inc()
}

func (m *Metrics) Dropped(page string) {
	if m == nil {
		return
	}
	m.dropped.WithLabelValues(page).Inc()
}

func (m *Metrics) ParseError() {
	if m == nil {
		return
	}
	m.parseErrors.Inc()
}

func (m *Metrics) Reconnect() {
	if m == nil {
		return
	}
	m.reconnects.Inc()
}

func (m *Metrics) LinkUp(up bool) {
	if m == nil {
		return
	}
	if up {
		m.connected.Set(1)
		return
	}
	m.connected.Set(0)
}
