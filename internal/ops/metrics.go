package ops

import (
	"sync/atomic"
	"time"
)

// Metrics tracks worker message counters without external deps.
type Metrics struct {
	consumed    atomic.Int64
	delivered   atomic.Int64
	retried     atomic.Int64
	deadLetters atomic.Int64
	duplicates  atomic.Int64
	startedAt   time.Time
}

func NewMetrics() *Metrics {
	return &Metrics{
		startedAt: time.Now(),
	}
}

func (m *Metrics) Consumed()   { m.consumed.Add(1) }
func (m *Metrics) Delivered()  { m.delivered.Add(1) }
func (m *Metrics) Retried()    { m.retried.Add(1) }
func (m *Metrics) DeadLetter() { m.deadLetters.Add(1) }
func (m *Metrics) Duplicate()  { m.duplicates.Add(1) }

// Snapshot exposes the counters in a simple map form for the metrics
// endpoint.
func (m *Metrics) Snapshot() map[string]interface{} {
	return map[string]interface{}{
		"messages_consumed":    m.consumed.Load(),
		"messages_delivered":   m.delivered.Load(),
		"messages_retried":     m.retried.Load(),
		"messages_dead_letter": m.deadLetters.Load(),
		"duplicates_skipped":   m.duplicates.Load(),
		"uptime_seconds":       int64(time.Since(m.startedAt).Seconds()),
		"timestamp":            time.Now().UTC(),
	}
}
