package audit

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Entry is one audit trail row. The worker writes these from queue
// messages so the request path never blocks on audit I/O.
type Entry struct {
	ID        string    `json:"id"`
	EventType string    `json:"event_type"`
	SubjectID string    `json:"subject_id"`
	Detail    string    `json:"detail"`
	CreatedAt time.Time `json:"created_at"`
}

// Repository persists audit entries in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Insert writes one entry.
func (r *Repository) Insert(ctx context.Context, eventType, subjectID, detail string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_log (id, event_type, subject_id, detail)
		VALUES ($1, $2, $3, $4)
	`, uuid.NewString(), eventType, subjectID, detail)
	return err
}

// Recent returns the latest entries, newest first.
func (r *Repository) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, event_type, subject_id, detail, created_at
		FROM audit_log
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.EventType, &e.SubjectID, &e.Detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}
