package status

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ebukadev08/notification-system/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestReportDelivered(t *testing.T) {
	var received models.StatusUpdate
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/notifications/status" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	r := NewReporter(server.URL, testLogger())
	r.Report(context.Background(), "r1", models.StatusDelivered, "")

	if received.NotificationID != "r1" {
		t.Fatalf("unexpected notification_id %q", received.NotificationID)
	}
	if received.Status != models.StatusDelivered {
		t.Fatalf("unexpected status %q", received.Status)
	}
	if received.Error != "" {
		t.Fatalf("expected empty error, got %q", received.Error)
	}
	if received.Timestamp.IsZero() {
		t.Fatal("expected timestamp to be set")
	}
}

func TestReportFailedCarriesReason(t *testing.T) {
	var received models.StatusUpdate
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&received)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	r := NewReporter(server.URL, testLogger())
	r.Report(context.Background(), "r2", models.StatusFailed, "user_lookup_failed: 404")

	if received.Status != models.StatusFailed {
		t.Fatalf("unexpected status %q", received.Status)
	}
	if received.Error != "user_lookup_failed: 404" {
		t.Fatalf("unexpected error %q", received.Error)
	}
}

func TestReportSinkUnreachable(t *testing.T) {
	// Fire-and-forget: a dead sink must not panic or propagate anything.
	r := NewReporter("http://127.0.0.1:1", testLogger())
	r.Report(context.Background(), "r3", models.StatusFailed, "boom")
}

func TestReportSinkRejects(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer server.Close()

	r := NewReporter(server.URL, testLogger())
	r.Report(context.Background(), "r4", models.StatusDelivered, "")
}
