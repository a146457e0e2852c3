package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Issuer creates and retires check-in tokens.
type Issuer struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

// NewIssuer creates an issuer whose tokens live for ttl.
func NewIssuer(store Store, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Issuer{store: store, ttl: ttl, now: time.Now}
}

// Issue rotates the daily token: every previously active token is
// deactivated and the returned token becomes the only active one. The
// store performs both writes in one transaction, so a failure leaves
// the previous token active.
func (i *Issuer) Issue(ctx context.Context, issuerID string) (Token, error) {
	if issuerID == "" {
		return Token{}, Validation("issuer_id", "required")
	}
	now := i.now().UTC()
	t := Token{
		ID:        uuid.NewString(),
		Code:      newCode(now),
		IssuedBy:  issuerID,
		IssuedAt:  now,
		ExpiresAt: now.Add(i.ttl),
		Active:    true,
	}
	return i.store.RotateToken(ctx, t)
}

// newCode builds an opaque, uniqueness-bearing code: issue timestamp
// plus a random suffix.
func newCode(now time.Time) string {
	return fmt.Sprintf("%d-%s", now.UnixNano(), uuid.NewString()[:8])
}
