package requests

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"attendanceledger/internal/ledger"
	"attendanceledger/internal/util"
)

// LeaveWorkflow runs the pending -> approved/rejected state machine for
// leave requests.
type LeaveWorkflow struct {
	store     Store
	reasonMin int
	reasonMax int
	now       func() time.Time
}

// NewLeaveWorkflow creates the workflow with reason length bounds.
func NewLeaveWorkflow(store Store, reasonMin, reasonMax int) *LeaveWorkflow {
	return &LeaveWorkflow{store: store, reasonMin: reasonMin, reasonMax: reasonMax, now: time.Now}
}

// Submit validates and creates a pending leave request. Nothing is
// written when validation fails.
func (w *LeaveWorkflow) Submit(ctx context.Context, studentID string, leaveType LeaveType, reason string, startDate, endDate time.Time) (LeaveRequest, error) {
	if studentID == "" {
		return LeaveRequest{}, ledger.Validation("student_id", "required")
	}
	if !ValidLeaveType(leaveType) {
		return LeaveRequest{}, ledger.Validation("leave_type", fmt.Sprintf("unknown leave type %q", leaveType))
	}
	if len(reason) < w.reasonMin {
		return LeaveRequest{}, ledger.Validation("reason", fmt.Sprintf("must be at least %d characters", w.reasonMin))
	}
	if len(reason) > w.reasonMax {
		return LeaveRequest{}, ledger.Validation("reason", fmt.Sprintf("must be at most %d characters", w.reasonMax))
	}
	start, end := util.DayOf(startDate), util.DayOf(endDate)
	if end.Before(start) {
		return LeaveRequest{}, ledger.Validation("end_date", "must not be before start_date")
	}

	return w.store.InsertLeave(ctx, LeaveRequest{
		ID:          uuid.NewString(),
		StudentID:   studentID,
		LeaveType:   leaveType,
		Reason:      reason,
		StartDate:   start,
		EndDate:     end,
		Status:      StatusPending,
		RequestedAt: w.now().UTC(),
	})
}

// Review transitions a pending request to approved or rejected and
// records the reviewer. Reviewing a terminal request fails with
// ErrInvalidTransition and changes nothing.
func (w *LeaveWorkflow) Review(ctx context.Context, requestID, reviewerID string, decision Status) (LeaveRequest, error) {
	if requestID == "" {
		return LeaveRequest{}, ledger.Validation("request_id", "required")
	}
	if reviewerID == "" {
		return LeaveRequest{}, ledger.Validation("reviewer_id", "required")
	}
	if decision != StatusApproved && decision != StatusRejected {
		return LeaveRequest{}, ledger.Validation("decision", "must be approved or rejected")
	}
	return w.store.ReviewLeave(ctx, requestID, reviewerID, decision, w.now().UTC())
}
