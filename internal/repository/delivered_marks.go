package repository

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

// DeliveredMarks records request IDs that reached a delivered outcome so a
// broker redelivery of the same message can be suppressed. Best-effort only:
// with no Redis configured every method degrades to "not seen", preserving
// plain at-least-once behavior.
type DeliveredMarks struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDeliveredMarks creates a DeliveredMarks store. client may be nil.
func NewDeliveredMarks(client *redis.Client, ttl time.Duration) *DeliveredMarks {
	return &DeliveredMarks{client: client, ttl: ttl}
}

// Seen reports whether the request was already marked delivered. Errors are
// treated as "not seen" so a Redis outage never blocks processing.
func (m *DeliveredMarks) Seen(ctx context.Context, requestID string) bool {
	if m == nil || m.client == nil {
		return false
	}
	n, err := m.client.Exists(ctx, markKey(requestID)).Result()
	if err != nil {
		return false
	}
	return n > 0
}

// Mark records a delivered outcome for the request. Marks expire after the
// configured TTL; they only ever suppress duplicate sends, never retries.
func (m *DeliveredMarks) Mark(ctx context.Context, requestID string) error {
	if m == nil || m.client == nil {
		return nil
	}
	return m.client.SetNX(ctx, markKey(requestID), "delivered", m.ttl).Err()
}

func markKey(requestID string) string {
	return "delivered:" + requestID
}
