package ledger

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestIssueRotatesActiveToken(t *testing.T) {
	store := newMemStore()
	issuer := NewIssuer(store, 24*time.Hour)
	ctx := context.Background()

	first, err := issuer.Issue(ctx, "admin-1")
	if err != nil {
		t.Fatalf("first Issue() failed: %v", err)
	}
	second, err := issuer.Issue(ctx, "admin-1")
	if err != nil {
		t.Fatalf("second Issue() failed: %v", err)
	}

	active := store.activeTokens()
	if len(active) != 1 {
		t.Fatalf("active tokens = %d, want exactly 1", len(active))
	}
	if active[0].ID != second.ID {
		t.Errorf("active token = %s, want the second issue %s", active[0].ID, second.ID)
	}
	if first.Code == second.Code {
		t.Errorf("token codes should differ, both %q", first.Code)
	}
}

func TestIssueRequiresIssuer(t *testing.T) {
	issuer := NewIssuer(newMemStore(), 24*time.Hour)
	_, err := issuer.Issue(context.Background(), "")
	if !IsValidation(err) {
		t.Fatalf("Issue(\"\") error = %v, want ValidationError", err)
	}
}

func TestIssueSetsExpiry(t *testing.T) {
	store := newMemStore()
	issuer := NewIssuer(store, 24*time.Hour)
	issuedAt := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)
	issuer.now = func() time.Time { return issuedAt }

	tok, err := issuer.Issue(context.Background(), "admin-1")
	if err != nil {
		t.Fatalf("Issue() failed: %v", err)
	}
	if !tok.ExpiresAt.Equal(issuedAt.Add(24 * time.Hour)) {
		t.Errorf("ExpiresAt = %v, want issuedAt+24h", tok.ExpiresAt)
	}
	if !tok.Active {
		t.Errorf("issued token should be active")
	}
}

func TestIssuePropagatesStoreFailure(t *testing.T) {
	store := newMemStore()
	storeErr := errors.New("connection refused")
	store.rotateErr = storeErr
	issuer := NewIssuer(store, 24*time.Hour)

	if _, err := issuer.Issue(context.Background(), "admin-1"); !errors.Is(err, storeErr) {
		t.Fatalf("Issue() error = %v, want wrapped %v", err, storeErr)
	}
	if len(store.activeTokens()) != 0 {
		t.Errorf("failed rotation must not leave an active token")
	}
}
