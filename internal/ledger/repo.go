package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// Repository persists ledger data in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// RotateToken deactivates all active tokens and inserts t inside one
// transaction, so the store never holds two active tokens and a failed
// insert rolls the deactivation back.
func (r *Repository) RotateToken(ctx context.Context, t Token) (Token, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Token{}, fmt.Errorf("begin token rotation: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE checkin_tokens SET active = FALSE WHERE active`); err != nil {
		return Token{}, fmt.Errorf("deactivate tokens: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO checkin_tokens (id, code, issued_by, issued_at, expires_at, active)
		VALUES ($1, $2, $3, $4, $5, TRUE)
	`, t.ID, t.Code, t.IssuedBy, t.IssuedAt, t.ExpiresAt)
	if err != nil {
		return Token{}, fmt.Errorf("insert token: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Token{}, fmt.Errorf("commit token rotation: %w", err)
	}
	t.Active = true
	return t, nil
}

// TokenByCode returns the token with the given code, nil when absent.
func (r *Repository) TokenByCode(ctx context.Context, code string) (*Token, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, code, issued_by, issued_at, expires_at, active
		FROM checkin_tokens WHERE code = $1
	`, code)
	var t Token
	if err := row.Scan(&t.ID, &t.Code, &t.IssuedBy, &t.IssuedAt, &t.ExpiresAt, &t.Active); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

// ActiveToken returns the currently active token, nil when none.
func (r *Repository) ActiveToken(ctx context.Context) (*Token, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, code, issued_by, issued_at, expires_at, active
		FROM checkin_tokens WHERE active
	`)
	var t Token
	if err := row.Scan(&t.ID, &t.Code, &t.IssuedBy, &t.IssuedAt, &t.ExpiresAt, &t.Active); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

// InsertEvent writes a new attendance event. The (student_id, day)
// unique constraint makes redemption at-most-once per day; a violation
// surfaces as ErrAlreadyMarked.
func (r *Repository) InsertEvent(ctx context.Context, evt AttendanceEvent) (AttendanceEvent, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO attendance_events (id, student_id, day, kind, token_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, evt.ID, evt.StudentID, evt.Day, string(evt.Kind), evt.TokenID, evt.CreatedAt)
	if err := row.Scan(&evt.CreatedAt); err != nil {
		if isUniqueViolation(err, "student_id") {
			return AttendanceEvent{}, ErrAlreadyMarked
		}
		return AttendanceEvent{}, err
	}
	return evt, nil
}

// EventsForStudent returns all events for a student ordered by day.
func (r *Repository) EventsForStudent(ctx context.Context, studentID string) ([]AttendanceEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, student_id, day, kind, token_id, created_at
		FROM attendance_events
		WHERE student_id = $1
		ORDER BY day
	`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []AttendanceEvent
	for rows.Next() {
		var evt AttendanceEvent
		if err := rows.Scan(&evt.ID, &evt.StudentID, &evt.Day, &evt.Kind, &evt.TokenID, &evt.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, evt)
	}
	return res, rows.Err()
}

// CountEventsForDay returns per-kind counts for one calendar day.
func (r *Repository) CountEventsForDay(ctx context.Context, day time.Time) (present, kitchenDuty int, err error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT kind, COUNT(*) FROM attendance_events WHERE day = $1 GROUP BY kind
	`, day)
	if err != nil {
		return 0, 0, err
	}
	defer rows.Close()
	for rows.Next() {
		var kind string
		var count int
		if err := rows.Scan(&kind, &count); err != nil {
			return 0, 0, err
		}
		switch EventKind(kind) {
		case KindPresent:
			present = count
		case KindKitchenDuty:
			kitchenDuty = count
		}
	}
	return present, kitchenDuty, rows.Err()
}

// Student returns a student by id, nil when absent.
func (r *Repository) Student(ctx context.Context, id string) (*Student, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, full_name, enrolled_on, created_at FROM students WHERE id = $1
	`, id)
	var s Student
	if err := row.Scan(&s.ID, &s.FullName, &s.EnrolledOn, &s.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// ListStudents returns the cohort ordered by name.
func (r *Repository) ListStudents(ctx context.Context) ([]Student, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, full_name, enrolled_on, created_at FROM students ORDER BY full_name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Student
	for rows.Next() {
		var s Student
		if err := rows.Scan(&s.ID, &s.FullName, &s.EnrolledOn, &s.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

// UpsertStudent creates or renames a student.
func (r *Repository) UpsertStudent(ctx context.Context, s Student) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO students (id, full_name, enrolled_on)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET full_name = EXCLUDED.full_name
	`, s.ID, s.FullName, s.EnrolledOn)
	return err
}

// UserByUsername returns a login principal, nil when absent.
func (r *Repository) UserByUsername(ctx context.Context, username string) (*User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, role, student_id, created_at
		FROM users WHERE username = $1
	`, username)
	var u User
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.StudentID, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts a login principal.
func (r *Repository) CreateUser(ctx context.Context, u User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, username, password_hash, role, student_id)
		VALUES ($1, $2, $3, $4, $5)
	`, u.ID, u.Username, u.PasswordHash, u.Role, u.StudentID)
	return err
}

// isUniqueViolation checks for a Postgres unique constraint violation
// (SQLSTATE 23505) whose constraint name mentions the given fragment.
func isUniqueViolation(err error, constraintFragment string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" &&
			strings.Contains(strings.ToLower(pgErr.ConstraintName), strings.ToLower(constraintFragment))
	}
	return false
}
