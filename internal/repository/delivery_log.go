package repository

import (
	"time"

	"gorm.io/gorm"
)

// DeliveryAttempt is one row of the per-attempt audit log.
type DeliveryAttempt struct {
	ID        uint   `gorm:"primaryKey"`
	RequestID string `gorm:"index"`
	Attempt   int
	Channel   string
	Status    string
	Reason    string
	CreatedAt time.Time
}

// DeliveryLog persists one row per processing attempt. Best-effort: callers
// log recording failures and move on, the same way status reports are
// handled.
type DeliveryLog struct {
	db *gorm.DB
}

// NewDeliveryLog creates a DeliveryLog. db may be nil, in which case Record
// is a no-op.
func NewDeliveryLog(db *gorm.DB) *DeliveryLog {
	if db != nil {
		// Auto-migrate the schema
		db.AutoMigrate(&DeliveryAttempt{})
	}
	return &DeliveryLog{db: db}
}

// Record appends one attempt row.
func (l *DeliveryLog) Record(requestID string, attempt int, channel, status, reason string) error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Create(&DeliveryAttempt{
		RequestID: requestID,
		Attempt:   attempt,
		Channel:   channel,
		Status:    status,
		Reason:    reason,
	}).Error
}
