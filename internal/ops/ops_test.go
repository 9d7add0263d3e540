package ops

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.Consumed()
	m.Consumed()
	m.Delivered()
	m.Retried()
	m.DeadLetter()

	snap := m.Snapshot()
	if snap["messages_consumed"].(int64) != 2 {
		t.Fatalf("unexpected consumed count %v", snap["messages_consumed"])
	}
	if snap["messages_delivered"].(int64) != 1 {
		t.Fatalf("unexpected delivered count %v", snap["messages_delivered"])
	}
	if snap["messages_retried"].(int64) != 1 {
		t.Fatalf("unexpected retried count %v", snap["messages_retried"])
	}
	if snap["messages_dead_letter"].(int64) != 1 {
		t.Fatalf("unexpected dead-letter count %v", snap["messages_dead_letter"])
	}
}

func TestHealthEndpoint(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := NewServer("email-worker", "0", NewMetrics(), logger)

	server := httptest.NewServer(s.srv.Handler)
	defer server.Close()

	resp, err := http.Get(server.URL + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.StatusCode)
	}

	var payload struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !payload.Success || payload.Message != "email-worker healthy" {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := NewMetrics()
	m.Consumed()
	s := NewServer("push-worker", "0", m, logger)

	server := httptest.NewServer(s.srv.Handler)
	defer server.Close()

	resp, err := http.Get(server.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics request failed: %v", err)
	}
	defer resp.Body.Close()

	var payload struct {
		Data map[string]interface{} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if payload.Data["messages_consumed"].(float64) != 1 {
		t.Fatalf("unexpected consumed count %v", payload.Data["messages_consumed"])
	}
}
