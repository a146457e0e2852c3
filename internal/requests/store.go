package requests

import (
	"context"
	"errors"
	"time"
)

// ErrInvalidTransition means a review targeted a request that is no
// longer pending. The original decision stands.
var ErrInvalidTransition = errors.New("request already reviewed")

// Store is the persistence surface for both workflows. Review methods
// must apply the status check and the update as one conditional write,
// never as a separate read followed by a write.
type Store interface {
	InsertLeave(ctx context.Context, req LeaveRequest) (LeaveRequest, error)

	// ReviewLeave transitions a pending request to decision and records
	// the reviewer. It returns ErrInvalidTransition when the request is
	// terminal, ledger.ErrNotFound when it does not exist.
	ReviewLeave(ctx context.Context, id, reviewerID string, decision Status, at time.Time) (LeaveRequest, error)

	InsertCorrection(ctx context.Context, req CorrectionRequest) (CorrectionRequest, error)
	ReviewCorrection(ctx context.Context, id, reviewerID string, decision Status, notes string, at time.Time) (CorrectionRequest, error)
}
