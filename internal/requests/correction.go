package requests

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"attendanceledger/internal/ledger"
	"attendanceledger/internal/util"
)

// CorrectionWorkflow runs the state machine for attendance-correction
// requests. When applyOnApprove is set, an approval also writes a
// backdated present event for the corrected day; otherwise approval is
// recorded on the request only, which matches the historical behavior.
type CorrectionWorkflow struct {
	store          Store
	events         ledger.Store
	reasonMin      int
	reasonMax      int
	applyOnApprove bool
	now            func() time.Time
}

// NewCorrectionWorkflow creates the workflow. events may be nil when
// applyOnApprove is false.
func NewCorrectionWorkflow(store Store, events ledger.Store, reasonMin, reasonMax int, applyOnApprove bool) *CorrectionWorkflow {
	return &CorrectionWorkflow{
		store:          store,
		events:         events,
		reasonMin:      reasonMin,
		reasonMax:      reasonMax,
		applyOnApprove: applyOnApprove,
		now:            time.Now,
	}
}

// Submit validates and creates a pending correction request. The
// corrected day must be strictly in the past.
func (w *CorrectionWorkflow) Submit(ctx context.Context, studentID string, attendanceDate time.Time, reason string) (CorrectionRequest, error) {
	if studentID == "" {
		return CorrectionRequest{}, ledger.Validation("student_id", "required")
	}
	if len(reason) < w.reasonMin {
		return CorrectionRequest{}, ledger.Validation("reason", fmt.Sprintf("must be at least %d characters", w.reasonMin))
	}
	if len(reason) > w.reasonMax {
		return CorrectionRequest{}, ledger.Validation("reason", fmt.Sprintf("must be at most %d characters", w.reasonMax))
	}
	now := w.now().UTC()
	day := util.DayOf(attendanceDate)
	if !day.Before(util.DayOf(now)) {
		return CorrectionRequest{}, ledger.Validation("attendance_date", "must be before today")
	}

	return w.store.InsertCorrection(ctx, CorrectionRequest{
		ID:             uuid.NewString(),
		StudentID:      studentID,
		AttendanceDate: day,
		Reason:         reason,
		Status:         StatusPending,
		CreatedAt:      now,
	})
}

// Review transitions a pending request and stores the reviewer's notes.
// With applyOnApprove set, an approval inserts the backdated event; a
// day that already carries an event is left untouched.
func (w *CorrectionWorkflow) Review(ctx context.Context, requestID, reviewerID string, decision Status, notes string) (CorrectionRequest, error) {
	if requestID == "" {
		return CorrectionRequest{}, ledger.Validation("request_id", "required")
	}
	if reviewerID == "" {
		return CorrectionRequest{}, ledger.Validation("reviewer_id", "required")
	}
	if decision != StatusApproved && decision != StatusRejected {
		return CorrectionRequest{}, ledger.Validation("decision", "must be approved or rejected")
	}

	now := w.now().UTC()
	req, err := w.store.ReviewCorrection(ctx, requestID, reviewerID, decision, notes, now)
	if err != nil {
		return CorrectionRequest{}, err
	}

	if decision == StatusApproved && w.applyOnApprove && w.events != nil {
		_, err := w.events.InsertEvent(ctx, ledger.AttendanceEvent{
			ID:        uuid.NewString(),
			StudentID: req.StudentID,
			Day:       req.AttendanceDate,
			Kind:      ledger.KindPresent,
			CreatedAt: now,
		})
		if err != nil && !errors.Is(err, ledger.ErrAlreadyMarked) {
			return CorrectionRequest{}, fmt.Errorf("apply approved correction: %w", err)
		}
	}
	return req, nil
}
