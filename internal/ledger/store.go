package ledger

import "context"

// Store is the persistence surface the token issuer and check-in
// processor need. The Postgres Repository implements it; tests use an
// in-memory fake with the same conditional-insert semantics.
type Store interface {
	// RotateToken deactivates every active token and persists t as the
	// only active one, atomically.
	RotateToken(ctx context.Context, t Token) (Token, error)

	// TokenByCode returns the token with the given code, or nil when no
	// such token exists.
	TokenByCode(ctx context.Context, code string) (*Token, error)

	// InsertEvent writes a new attendance event. It returns
	// ErrAlreadyMarked when an event for (student, day) already exists,
	// leaving the store unchanged.
	InsertEvent(ctx context.Context, evt AttendanceEvent) (AttendanceEvent, error)
}
