package monitoring

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the prometheus collectors of the dashboard
type Metrics struct {
	registry *prometheus.Registry

	apiRequests   *prometheus.CounterVec
	apiLatency    *prometheus.HistogramVec
	orderAdvances *prometheus.CounterVec
	pollCycles    *prometheus.CounterVec
	chatEvents    *prometheus.CounterVec
}

// NewMetrics creates the collectors on a fresh registry
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		apiRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "maitred_backend_requests_total",
				Help: "Requests sent to the restaurant backend",
			},
			[]string{"endpoint", "status"},
		),
		apiLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "maitred_backend_request_seconds",
				Help:    "Latency of backend requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		orderAdvances: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "maitred_order_advances_total",
				Help: "Order status advances proposed to the backend",
			},
			[]string{"to", "result"},
		),
		pollCycles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "maitred_poll_cycles_total",
				Help: "Polling cycles by result",
			},
			[]string{"result"},
		),
		chatEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "maitred_chat_events_total",
				Help: "Chat gateway events by name and direction",
			},
			[]string{"event", "direction"},
		),
	}

	registry.MustRegister(m.apiRequests, m.apiLatency, m.orderAdvances, m.pollCycles, m.chatEvents)
	return m
}

// Registry exposes the registry for the /metrics handler
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRequest records a backend request; status 0 means a transport failure
func (m *Metrics) ObserveRequest(endpoint string, status int, elapsed time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.apiRequests.WithLabelValues(endpoint, label).Inc()
	m.apiLatency.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// RecordAdvance records an order status advance
func (m *Metrics) RecordAdvance(to string, err error) {
	m.orderAdvances.WithLabelValues(to, result(err)).Inc()
}

// RecordPoll records a polling cycle
func (m *Metrics) RecordPoll(err error) {
	m.pollCycles.WithLabelValues(result(err)).Inc()
}

// RecordChatEvent records a chat event sent ("out") or received ("in")
func (m *Metrics) RecordChatEvent(event, direction string) {
	m.chatEvents.WithLabelValues(event, direction).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
