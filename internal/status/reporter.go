package status

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/ebukadev08/notification-system/internal/models"
)

// Reporter posts terminal outcomes to the gateway status endpoint.
// Best-effort: any failure is logged and dropped, never retried, and never
// blocks the pipeline beyond the request timeout.
type Reporter struct {
	gatewayURL string
	client     *http.Client
	logger     *slog.Logger
}

// NewReporter creates a Reporter against the given gateway base URL.
func NewReporter(gatewayURL string, logger *slog.Logger) *Reporter {
	return &Reporter{
		gatewayURL: gatewayURL,
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Report sends one status update for the notification. errMsg is empty for
// delivered outcomes.
func (r *Reporter) Report(ctx context.Context, notificationID, status, errMsg string) {
	update := models.StatusUpdate{
		NotificationID: notificationID,
		Status:         status,
		Timestamp:      time.Now().UTC(),
		Error:          errMsg,
	}

	payload, err := json.Marshal(update)
	if err != nil {
		r.logger.Error("failed to encode status update",
			slog.String("notification_id", notificationID),
			slog.Any("error", err),
		)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.gatewayURL+"/api/v1/notifications/status", bytes.NewReader(payload))
	if err != nil {
		r.logger.Error("failed to build status request",
			slog.String("notification_id", notificationID),
			slog.Any("error", err),
		)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Warn("failed to update status to gateway",
			slog.String("notification_id", notificationID),
			slog.Any("error", err),
		)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		r.logger.Warn("gateway rejected status update",
			slog.String("notification_id", notificationID),
			slog.Int("status_code", resp.StatusCode),
		)
	}
}
