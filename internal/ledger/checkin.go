package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"

	"attendanceledger/internal/util"
)

// Processor validates and redeems check-in tokens into attendance
// events. All at-most-once guarantees come from the store's unique
// constraint on (student, day), not from locks held here.
type Processor struct {
	store Store
	now   func() time.Time
}

// NewProcessor creates a check-in processor.
func NewProcessor(store Store) *Processor {
	return &Processor{store: store, now: time.Now}
}

// Redeem marks a student present for today using the given token code.
func (p *Processor) Redeem(ctx context.Context, studentID, code string) (AttendanceEvent, error) {
	if studentID == "" {
		return AttendanceEvent{}, Validation("student_id", "required")
	}
	if code == "" {
		return AttendanceEvent{}, Validation("code", "required")
	}

	tok, err := p.store.TokenByCode(ctx, code)
	if err != nil {
		return AttendanceEvent{}, err
	}
	if tok == nil || !tok.Active {
		return AttendanceEvent{}, ErrInvalidToken
	}
	now := p.now().UTC()
	if now.After(tok.ExpiresAt) {
		return AttendanceEvent{}, ErrExpiredToken
	}

	return p.store.InsertEvent(ctx, AttendanceEvent{
		ID:        uuid.NewString(),
		StudentID: studentID,
		Day:       util.DayOf(now),
		Kind:      KindPresent,
		TokenID:   &tok.ID,
		CreatedAt: now,
	})
}

// MarkKitchenDuty credits today as a kitchen-duty day. No token is
// involved; the same one-event-per-day contract applies.
func (p *Processor) MarkKitchenDuty(ctx context.Context, studentID string) (AttendanceEvent, error) {
	if studentID == "" {
		return AttendanceEvent{}, Validation("student_id", "required")
	}
	now := p.now().UTC()
	return p.store.InsertEvent(ctx, AttendanceEvent{
		ID:        uuid.NewString(),
		StudentID: studentID,
		Day:       util.DayOf(now),
		Kind:      KindKitchenDuty,
		CreatedAt: now,
	})
}
