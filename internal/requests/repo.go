package requests

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"attendanceledger/internal/ledger"
)

// Repository persists leave and correction requests in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const leaveColumns = `id, student_id, leave_type, reason, start_date, end_date, status, requested_at, reviewed_by, reviewed_at`

func scanLeave(row interface{ Scan(...any) error }) (LeaveRequest, error) {
	var req LeaveRequest
	err := row.Scan(&req.ID, &req.StudentID, &req.LeaveType, &req.Reason, &req.StartDate,
		&req.EndDate, &req.Status, &req.RequestedAt, &req.ReviewedBy, &req.ReviewedAt)
	return req, err
}

// InsertLeave writes a new leave request.
func (r *Repository) InsertLeave(ctx context.Context, req LeaveRequest) (LeaveRequest, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO leave_requests (id, student_id, leave_type, reason, start_date, end_date, status, requested_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING requested_at
	`, req.ID, req.StudentID, string(req.LeaveType), req.Reason, req.StartDate, req.EndDate, string(req.Status), req.RequestedAt)
	if err := row.Scan(&req.RequestedAt); err != nil {
		return LeaveRequest{}, fmt.Errorf("insert leave request: %w", err)
	}
	return req, nil
}

// ReviewLeave performs the guarded pending -> decision transition. The
// status check is part of the UPDATE itself so concurrent reviews
// cannot both win.
func (r *Repository) ReviewLeave(ctx context.Context, id, reviewerID string, decision Status, at time.Time) (LeaveRequest, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE leave_requests
		SET status = $2, reviewed_by = $3, reviewed_at = $4
		WHERE id = $1 AND status = 'pending'
		RETURNING `+leaveColumns+`
	`, id, string(decision), reviewerID, at)
	req, err := scanLeave(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return LeaveRequest{}, r.leaveReviewMiss(ctx, id)
		}
		return LeaveRequest{}, err
	}
	return req, nil
}

func (r *Repository) leaveReviewMiss(ctx context.Context, id string) error {
	var status string
	err := r.db.QueryRowContext(ctx, `SELECT status FROM leave_requests WHERE id = $1`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.ErrNotFound
	}
	if err != nil {
		return err
	}
	return ErrInvalidTransition
}

// ListLeaves returns leave requests, optionally filtered by status and
// student, newest first.
func (r *Repository) ListLeaves(ctx context.Context, status Status, studentID string) ([]LeaveRequest, error) {
	query := `SELECT ` + leaveColumns + ` FROM leave_requests`
	var clauses []string
	var args []any
	if status != "" {
		args = append(args, string(status))
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)))
	}
	if studentID != "" {
		args = append(args, studentID)
		clauses = append(clauses, fmt.Sprintf("student_id = $%d", len(args)))
	}
	for i, clause := range clauses {
		if i == 0 {
			query += " WHERE " + clause
		} else {
			query += " AND " + clause
		}
	}
	query += " ORDER BY requested_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []LeaveRequest
	for rows.Next() {
		req, err := scanLeave(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, req)
	}
	return res, rows.Err()
}

// ApprovedLeavesForStudent returns approved leaves ordered by start date.
func (r *Repository) ApprovedLeavesForStudent(ctx context.Context, studentID string) ([]LeaveRequest, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+leaveColumns+`
		FROM leave_requests
		WHERE student_id = $1 AND status = 'approved'
		ORDER BY start_date
	`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []LeaveRequest
	for rows.Next() {
		req, err := scanLeave(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, req)
	}
	return res, rows.Err()
}

const correctionColumns = `id, student_id, attendance_date, reason, status, admin_notes, created_at, reviewed_by, reviewed_at`

func scanCorrection(row interface{ Scan(...any) error }) (CorrectionRequest, error) {
	var req CorrectionRequest
	err := row.Scan(&req.ID, &req.StudentID, &req.AttendanceDate, &req.Reason, &req.Status,
		&req.AdminNotes, &req.CreatedAt, &req.ReviewedBy, &req.ReviewedAt)
	return req, err
}

// InsertCorrection writes a new correction request.
func (r *Repository) InsertCorrection(ctx context.Context, req CorrectionRequest) (CorrectionRequest, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO correction_requests (id, student_id, attendance_date, reason, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, req.ID, req.StudentID, req.AttendanceDate, req.Reason, string(req.Status), req.CreatedAt)
	if err := row.Scan(&req.CreatedAt); err != nil {
		return CorrectionRequest{}, fmt.Errorf("insert correction request: %w", err)
	}
	return req, nil
}

// ReviewCorrection performs the guarded transition and stores the
// reviewer's notes.
func (r *Repository) ReviewCorrection(ctx context.Context, id, reviewerID string, decision Status, notes string, at time.Time) (CorrectionRequest, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE correction_requests
		SET status = $2, reviewed_by = $3, reviewed_at = $4, admin_notes = $5
		WHERE id = $1 AND status = 'pending'
		RETURNING `+correctionColumns+`
	`, id, string(decision), reviewerID, at, notes)
	req, err := scanCorrection(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CorrectionRequest{}, r.correctionReviewMiss(ctx, id)
		}
		return CorrectionRequest{}, err
	}
	return req, nil
}

func (r *Repository) correctionReviewMiss(ctx context.Context, id string) error {
	var status string
	err := r.db.QueryRowContext(ctx, `SELECT status FROM correction_requests WHERE id = $1`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.ErrNotFound
	}
	if err != nil {
		return err
	}
	return ErrInvalidTransition
}

// ListCorrections returns correction requests, optionally filtered by
// status and student, newest first.
func (r *Repository) ListCorrections(ctx context.Context, status Status, studentID string) ([]CorrectionRequest, error) {
	query := `SELECT ` + correctionColumns + ` FROM correction_requests`
	var clauses []string
	var args []any
	if status != "" {
		args = append(args, string(status))
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)))
	}
	if studentID != "" {
		args = append(args, studentID)
		clauses = append(clauses, fmt.Sprintf("student_id = $%d", len(args)))
	}
	for i, clause := range clauses {
		if i == 0 {
			query += " WHERE " + clause
		} else {
			query += " AND " + clause
		}
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []CorrectionRequest
	for rows.Next() {
		req, err := scanCorrection(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, req)
	}
	return res, rows.Err()
}
