package requests

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"attendanceledger/internal/ledger"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("bad fixture %q: %v", s, err)
	}
	return d
}

func TestLeaveSubmit(t *testing.T) {
	validReason := "attending my cousin's wedding out of town"

	tests := []struct {
		name      string
		studentID string
		leaveType LeaveType
		reason    string
		start     string
		end       string
		wantErr   bool
	}{
		{name: "valid single day", studentID: "stu-1", leaveType: LeaveExam, reason: validReason, start: "2025-02-10", end: "2025-02-10"},
		{name: "valid range", studentID: "stu-1", leaveType: LeaveCollege, reason: validReason, start: "2025-02-10", end: "2025-02-12"},
		{name: "end before start", studentID: "stu-1", leaveType: LeaveExam, reason: validReason, start: "2025-02-10", end: "2025-02-09", wantErr: true},
		{name: "unknown leave type", studentID: "stu-1", leaveType: "sick", reason: validReason, start: "2025-02-10", end: "2025-02-10", wantErr: true},
		{name: "reason too short", studentID: "stu-1", leaveType: LeaveExam, reason: "short", start: "2025-02-10", end: "2025-02-10", wantErr: true},
		{name: "reason too long", studentID: "stu-1", leaveType: LeaveExam, reason: strings.Repeat("x", 501), start: "2025-02-10", end: "2025-02-10", wantErr: true},
		{name: "missing student", studentID: "", leaveType: LeaveExam, reason: validReason, start: "2025-02-10", end: "2025-02-10", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			w := NewLeaveWorkflow(store, 10, 500)
			req, err := w.Submit(context.Background(), tt.studentID, tt.leaveType, tt.reason, day(t, tt.start), day(t, tt.end))
			if tt.wantErr {
				if !ledger.IsValidation(err) {
					t.Fatalf("Submit() error = %v, want ValidationError", err)
				}
				if store.leaveCount() != 0 {
					t.Errorf("rejected submission must not create a record")
				}
				return
			}
			if err != nil {
				t.Fatalf("Submit() failed: %v", err)
			}
			if req.Status != StatusPending {
				t.Errorf("Status = %s, want pending", req.Status)
			}
			if req.ID == "" {
				t.Errorf("ID should be assigned")
			}
		})
	}
}

func TestLeaveReview(t *testing.T) {
	ctx := context.Background()
	submit := func(t *testing.T, store *memStore) LeaveRequest {
		w := NewLeaveWorkflow(store, 10, 500)
		req, err := w.Submit(ctx, "stu-1", LeaveHealthGeneral, "recovering from a bad flu this week", day(t, "2025-02-10"), day(t, "2025-02-12"))
		if err != nil {
			t.Fatalf("Submit() failed: %v", err)
		}
		return req
	}

	t.Run("approve records reviewer and time", func(t *testing.T) {
		store := newMemStore()
		req := submit(t, store)
		w := NewLeaveWorkflow(store, 10, 500)

		got, err := w.Review(ctx, req.ID, "admin-1", StatusApproved)
		if err != nil {
			t.Fatalf("Review() failed: %v", err)
		}
		if got.Status != StatusApproved {
			t.Errorf("Status = %s, want approved", got.Status)
		}
		if got.ReviewedBy == nil || *got.ReviewedBy != "admin-1" {
			t.Errorf("ReviewedBy = %v, want admin-1", got.ReviewedBy)
		}
		if got.ReviewedAt == nil {
			t.Errorf("ReviewedAt should be set")
		}
	})

	t.Run("second review is an invalid transition", func(t *testing.T) {
		store := newMemStore()
		req := submit(t, store)
		w := NewLeaveWorkflow(store, 10, 500)

		if _, err := w.Review(ctx, req.ID, "admin-1", StatusApproved); err != nil {
			t.Fatalf("first Review() failed: %v", err)
		}
		if _, err := w.Review(ctx, req.ID, "admin-2", StatusRejected); !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("second Review() error = %v, want ErrInvalidTransition", err)
		}
		// The first decision must stand.
		if store.leaves[req.ID].Status != StatusApproved {
			t.Errorf("Status = %s, want approved preserved", store.leaves[req.ID].Status)
		}
	})

	t.Run("unknown request", func(t *testing.T) {
		w := NewLeaveWorkflow(newMemStore(), 10, 500)
		if _, err := w.Review(ctx, "missing", "admin-1", StatusApproved); !errors.Is(err, ledger.ErrNotFound) {
			t.Fatalf("Review() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("bad decision", func(t *testing.T) {
		store := newMemStore()
		req := submit(t, store)
		w := NewLeaveWorkflow(store, 10, 500)
		if _, err := w.Review(ctx, req.ID, "admin-1", StatusPending); !ledger.IsValidation(err) {
			t.Fatalf("Review() error = %v, want ValidationError", err)
		}
	})
}
