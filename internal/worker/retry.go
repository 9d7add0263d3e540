package worker

import (
	"time"

	"github.com/ebukadev08/notification-system/internal/models"
)

// DefaultMaxRetries bounds the number of processing attempts per request.
const DefaultMaxRetries = 3

// Action tells the consumer what to do with the current delivery.
type Action int

const (
	// ActionAck acknowledges the delivery and drops it: the attempt
	// succeeded (or the request is a suppressed duplicate).
	ActionAck Action = iota

	// ActionRetry acknowledges the original delivery and republishes the
	// request to the work queue with an incremented attempt, after
	// waiting out the backoff.
	ActionRetry

	// ActionDeadLetter acknowledges the original delivery and publishes
	// the request to the dead-letter queue with an incremented attempt.
	ActionDeadLetter
)

// Decision is the coordinator's instruction for one processed message.
type Decision struct {
	Action Action

	// NextAttempt is the attempt value to stamp on the republished
	// message. Always input attempt + 1 for retry and dead-letter.
	NextAttempt int

	// Wait is the backoff to sit out before republishing a retry. Zero
	// for other actions.
	Wait time.Duration

	// Reason carries the failure reason for dead-letter status reports.
	Reason string
}

// Coordinator decides, per processed message, between ack-and-drop,
// ack-and-requeue-after-backoff, and ack-and-dead-letter. It is a pure state
// machine over (attempt, outcome); all broker I/O stays in the consumer.
type Coordinator struct {
	maxRetries int
}

// NewCoordinator creates a Coordinator. maxRetries <= 0 falls back to
// DefaultMaxRetries.
func NewCoordinator(maxRetries int) *Coordinator {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	return &Coordinator{maxRetries: maxRetries}
}

// Decide maps the current attempt count and outcome to a Decision.
func (c *Coordinator) Decide(attempt int, outcome models.Outcome) Decision {
	if outcome.Delivered {
		return Decision{Action: ActionAck}
	}

	next := attempt + 1
	if next >= c.maxRetries {
		return Decision{
			Action:      ActionDeadLetter,
			NextAttempt: next,
			Reason:      outcome.Reason,
		}
	}
	return Decision{
		Action:      ActionRetry,
		NextAttempt: next,
		Wait:        Backoff(next),
		Reason:      outcome.Reason,
	}
}

// Backoff returns 2^n seconds. Growth is unbounded: the retry cap limits how
// many attempts happen, not how long the last wait is.
func Backoff(n int) time.Duration {
	if n < 1 {
		n = 1
	}
	return time.Duration(1<<uint(n)) * time.Second
}
