package ledger

import "time"

// EventKind distinguishes how a day was credited.
type EventKind string

const (
	KindPresent     EventKind = "present"
	KindKitchenDuty EventKind = "kitchen_duty"
)

// Token is the rotating daily check-in credential. Issuing a new one
// deactivates every other token; redemption checks expiry at read time.
// Tokens are never deleted, only deactivated.
type Token struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	IssuedBy  string    `json:"issued_by"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Active    bool      `json:"active"`
}

// AttendanceEvent is the immutable record of a student's presence or
// kitchen duty on a given day. TokenID is nil for kitchen duty and for
// backdated corrections.
type AttendanceEvent struct {
	ID        string    `json:"id"`
	StudentID string    `json:"student_id"`
	Day       time.Time `json:"day"`
	Kind      EventKind `json:"kind"`
	TokenID   *string   `json:"token_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Student is a cohort member.
type Student struct {
	ID         string    `json:"id"`
	FullName   string    `json:"full_name"`
	EnrolledOn time.Time `json:"enrolled_on"`
	CreatedAt  time.Time `json:"created_at"`
}

// User is a login principal. StudentID is set for student accounts.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	StudentID    *string   `json:"student_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
