package requests

import (
	"context"
	"sync"
	"time"

	"attendanceledger/internal/ledger"
)

// memStore mirrors the repository's conditional-update semantics in
// memory, including the single-winner guarantee under concurrent
// reviews.
type memStore struct {
	mu          sync.Mutex
	leaves      map[string]*LeaveRequest
	corrections map[string]*CorrectionRequest

	insertErr error
}

func newMemStore() *memStore {
	return &memStore{
		leaves:      make(map[string]*LeaveRequest),
		corrections: make(map[string]*CorrectionRequest),
	}
}

func (m *memStore) InsertLeave(_ context.Context, req LeaveRequest) (LeaveRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return LeaveRequest{}, m.insertErr
	}
	cp := req
	m.leaves[req.ID] = &cp
	return req, nil
}

func (m *memStore) ReviewLeave(_ context.Context, id, reviewerID string, decision Status, at time.Time) (LeaveRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.leaves[id]
	if !ok {
		return LeaveRequest{}, ledger.ErrNotFound
	}
	if req.Status != StatusPending {
		return LeaveRequest{}, ErrInvalidTransition
	}
	req.Status = decision
	req.ReviewedBy = &reviewerID
	req.ReviewedAt = &at
	return *req, nil
}

func (m *memStore) InsertCorrection(_ context.Context, req CorrectionRequest) (CorrectionRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return CorrectionRequest{}, m.insertErr
	}
	cp := req
	m.corrections[req.ID] = &cp
	return req, nil
}

func (m *memStore) ReviewCorrection(_ context.Context, id, reviewerID string, decision Status, notes string, at time.Time) (CorrectionRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.corrections[id]
	if !ok {
		return CorrectionRequest{}, ledger.ErrNotFound
	}
	if req.Status != StatusPending {
		return CorrectionRequest{}, ErrInvalidTransition
	}
	req.Status = decision
	req.AdminNotes = notes
	req.ReviewedBy = &reviewerID
	req.ReviewedAt = &at
	return *req, nil
}

func (m *memStore) leaveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.leaves)
}

func (m *memStore) correctionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.corrections)
}
