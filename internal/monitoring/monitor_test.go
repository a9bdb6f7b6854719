package monitoring

import (
	"errors"
	"testing"
)

func TestMonitor_GetMetrics(t *testing.T) {
	m := NewMonitor()
	m.RecordMetric("restaurant", "spice-garden")

	metrics := m.GetMetrics()

	value, exists := metrics["restaurant"]
	if !exists {
		t.Fatalf("Expected 'restaurant' to be present in metrics, but it was not")
	}
	if value != "spice-garden" {
		t.Errorf("Expected 'restaurant' to be 'spice-garden', but got %v", value)
	}

	if _, exists = metrics["uptime_seconds"]; !exists {
		t.Errorf("Expected 'uptime_seconds' to be present in metrics, but it was not")
	}
}

func TestMonitor_RecordRefresh(t *testing.T) {
	m := NewMonitor()

	m.RecordFailure("orders", errors.New("backend down"))
	r, ok := m.Refresh("orders")
	if !ok {
		t.Fatalf("Expected a refresh entry for 'orders'")
	}
	if r.Failures != 1 || r.LastErr != "backend down" {
		t.Errorf("Unexpected failure record: %+v", r)
	}

	m.RecordRefresh("orders", 12)
	r, _ = m.Refresh("orders")
	if r.Count != 12 {
		t.Errorf("Expected count 12, got %d", r.Count)
	}
	if r.LastErr != "" {
		t.Errorf("Expected last error to be cleared, got %q", r.LastErr)
	}
	if r.Failures != 1 {
		t.Errorf("Expected failures to be kept, got %d", r.Failures)
	}

	refreshes, ok := m.GetMetrics()["refreshes"].(map[string]Refresh)
	if !ok || refreshes["orders"].Count != 12 {
		t.Errorf("Expected refreshes in metrics snapshot, got %v", refreshes)
	}
}

func TestMonitor_Reset(t *testing.T) {
	m := NewMonitor()
	m.RecordMetric("test_metric", 42)
	m.RecordRefresh("tickets", 3)

	m.Reset()

	metrics := m.GetMetrics()
	if _, exists := metrics["test_metric"]; exists {
		t.Errorf("Expected 'test_metric' to be removed after Reset(), but it was present")
	}
	if _, ok := m.Refresh("tickets"); ok {
		t.Errorf("Expected refreshes to be cleared after Reset()")
	}
	if _, exists := metrics["uptime_seconds"]; !exists {
		t.Errorf("Expected 'uptime_seconds' to be present in metrics, but it was not")
	}
}

func TestMonitor_RecordPoll(t *testing.T) {
	m := NewMonitor()

	m.RecordPoll(errors.New("backend down"))
	metrics := m.GetMetrics()
	if metrics["last_poll_error"] != "backend down" {
		t.Errorf("Expected last_poll_error to be 'backend down', got %v", metrics["last_poll_error"])
	}
	if _, exists := metrics["last_poll"]; !exists {
		t.Errorf("Expected 'last_poll' to be present in metrics, but it was not")
	}

	m.RecordPoll(nil)
	if _, exists := m.GetMetrics()["last_poll_error"]; exists {
		t.Errorf("Expected 'last_poll_error' to be cleared after a successful poll")
	}
}
