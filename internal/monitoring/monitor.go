package monitoring

import (
	"sync"
	"time"
)

// Refresh describes the last fetch of one dashboard resource
type Refresh struct {
	Count    int       `json:"count"`
	At       time.Time `json:"at"`
	Failures int       `json:"failures"`
	LastErr  string    `json:"last_error,omitempty"`
}

// Monitor collects the in-process state shown on the status endpoint
type Monitor struct {
	refreshes    map[string]Refresh
	metrics      map[string]interface{}
	metricsMutex sync.RWMutex
	startTime    time.Time
}

// NewMonitor creates a new monitoring instance
func NewMonitor() *Monitor {
	return &Monitor{
		refreshes: make(map[string]Refresh),
		metrics:   make(map[string]interface{}),
		startTime: time.Now(),
	}
}

// RecordRefresh records a successful fetch of resource returning count items
func (m *Monitor) RecordRefresh(resource string, count int) {
	m.metricsMutex.Lock()
	defer m.metricsMutex.Unlock()
	r := m.refreshes[resource]
	r.Count = count
	r.At = time.Now()
	r.LastErr = ""
	m.refreshes[resource] = r
}

// RecordFailure records a failed fetch of resource
func (m *Monitor) RecordFailure(resource string, err error) {
	m.metricsMutex.Lock()
	defer m.metricsMutex.Unlock()
	r := m.refreshes[resource]
	r.Failures++
	if err != nil {
		r.LastErr = err.Error()
	}
	m.refreshes[resource] = r
}

// Refresh returns the last refresh of resource
func (m *Monitor) Refresh(resource string) (Refresh, bool) {
	m.metricsMutex.RLock()
	defer m.metricsMutex.RUnlock()
	r, ok := m.refreshes[resource]
	return r, ok
}

// RecordMetric records a free-form value
func (m *Monitor) RecordMetric(name string, value interface{}) {
	m.metricsMutex.Lock()
	defer m.metricsMutex.Unlock()
	m.metrics[name] = value
}

// RecordPoll records the outcome of one polling cycle. A successful poll
// clears the error left by an earlier failure.
func (m *Monitor) RecordPoll(err error) {
	m.metricsMutex.Lock()
	defer m.metricsMutex.Unlock()
	m.metrics["last_poll"] = time.Now().UTC()
	if err != nil {
		m.metrics["last_poll_error"] = err.Error()
		return
	}
	delete(m.metrics, "last_poll_error")
}

// GetMetrics returns a copy of every recorded value plus refreshes and uptime
func (m *Monitor) GetMetrics() map[string]interface{} {
	m.metricsMutex.RLock()
	defer m.metricsMutex.RUnlock()

	// Create a copy to avoid concurrent map access
	metrics := make(map[string]interface{}, len(m.metrics)+2)
	for k, v := range m.metrics {
		metrics[k] = v
	}

	refreshes := make(map[string]Refresh, len(m.refreshes))
	for k, v := range m.refreshes {
		refreshes[k] = v
	}
	metrics["refreshes"] = refreshes
	metrics["uptime_seconds"] = time.Since(m.startTime).Seconds()

	return metrics
}

// Reset clears all recorded state
func (m *Monitor) Reset() {
	m.metricsMutex.Lock()
	defer m.metricsMutex.Unlock()
	m.metrics = make(map[string]interface{})
	m.refreshes = make(map[string]Refresh)
}
