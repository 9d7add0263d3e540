package repository

import (
	"context"
	"testing"
	"time"
)

func TestDeliveredMarksWithoutRedis(t *testing.T) {
	// Without Redis the marks degrade to plain at-least-once: nothing is
	// ever seen and marking is a no-op.
	m := NewDeliveredMarks(nil, 24*time.Hour)

	if m.Seen(context.Background(), "r1") {
		t.Fatal("nil-backed marks must never report seen")
	}
	if err := m.Mark(context.Background(), "r1"); err != nil {
		t.Fatalf("mark must be a no-op, got %v", err)
	}
	if m.Seen(context.Background(), "r1") {
		t.Fatal("nil-backed marks must never report seen")
	}

	var nilMarks *DeliveredMarks
	if nilMarks.Seen(context.Background(), "r1") {
		t.Fatal("nil receiver must report not seen")
	}
	if err := nilMarks.Mark(context.Background(), "r1"); err != nil {
		t.Fatalf("nil receiver must be a no-op, got %v", err)
	}
}

func TestDeliveryLogWithoutDatabase(t *testing.T) {
	l := NewDeliveryLog(nil)
	if err := l.Record("r1", 0, "email", "delivered", ""); err != nil {
		t.Fatalf("nil-backed log must be a no-op, got %v", err)
	}

	var nilLog *DeliveryLog
	if err := nilLog.Record("r1", 0, "email", "failed", "boom"); err != nil {
		t.Fatalf("nil receiver must be a no-op, got %v", err)
	}
}
