package models

import "time"

// StatusUpdate is the payload posted to the gateway status endpoint after a
// terminal outcome. Fire-and-forget; the worker never retries it.
type StatusUpdate struct {
	NotificationID string    `json:"notification_id"`
	Status         string    `json:"status"`
	Timestamp      time.Time `json:"timestamp"`
	Error          string    `json:"error,omitempty"`
}

// Terminal statuses reported to the gateway.
const (
	StatusDelivered = "delivered"
	StatusFailed    = "failed"
)
