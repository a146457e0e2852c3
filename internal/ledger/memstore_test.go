package ledger

import (
	"context"
	"sync"

	"attendanceledger/internal/util"
)

// memStore is an in-memory Store with the same conditional-write
// semantics as the Postgres repository.
type memStore struct {
	mu     sync.Mutex
	tokens []Token
	events map[string]AttendanceEvent

	rotateErr error
	insertErr error
}

func newMemStore() *memStore {
	return &memStore{events: make(map[string]AttendanceEvent)}
}

func (m *memStore) RotateToken(_ context.Context, t Token) (Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rotateErr != nil {
		return Token{}, m.rotateErr
	}
	for i := range m.tokens {
		m.tokens[i].Active = false
	}
	t.Active = true
	m.tokens = append(m.tokens, t)
	return t, nil
}

func (m *memStore) TokenByCode(_ context.Context, code string) (*Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.tokens {
		if m.tokens[i].Code == code {
			t := m.tokens[i]
			return &t, nil
		}
	}
	return nil, nil
}

func (m *memStore) InsertEvent(_ context.Context, evt AttendanceEvent) (AttendanceEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return AttendanceEvent{}, m.insertErr
	}
	key := evt.StudentID + "|" + util.FormatDay(evt.Day)
	if _, exists := m.events[key]; exists {
		return AttendanceEvent{}, ErrAlreadyMarked
	}
	m.events[key] = evt
	return evt, nil
}

func (m *memStore) activeTokens() []Token {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Token
	for _, t := range m.tokens {
		if t.Active {
			out = append(out, t)
		}
	}
	return out
}

func (m *memStore) eventCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}
