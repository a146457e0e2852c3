package ledger

import (
	"errors"
	"fmt"
)

// Expected user-facing conditions. The HTTP layer maps each to its own
// response code so UI copy can differ per case.
var (
	ErrInvalidToken  = errors.New("invalid or inactive token")
	ErrExpiredToken  = errors.New("token expired")
	ErrAlreadyMarked = errors.New("attendance already marked for this day")
	ErrNotFound      = errors.New("not found")
)

// ValidationError reports malformed input. It is always returned before
// any store write.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Validation builds a ValidationError.
func Validation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
