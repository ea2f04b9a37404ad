// Package session persists chat sessions in memory or in SQLite.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/AitoDotAI/aito-demo/internal/domain"
	"github.com/AitoDotAI/aito-demo/internal/domain/cart"
	"github.com/AitoDotAI/aito-demo/internal/domain/session"
)

// MemoryStore keeps sessions in a map. Sessions are stored as JSON so callers
// never share mutable state with the store.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory creates an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

// Get returns a copy of the session.
func (m *MemoryStore) Get(_ context.Context, id string) (*session.Session, error) {
	m.mu.RLock()
	raw, ok := m.data[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("session %q: %w", id, domain.ErrNotFound)
	}
	return decode(raw)
}

// Save inserts or replaces the session.
func (m *MemoryStore) Save(_ context.Context, s *session.Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	m.mu.Lock()
	m.data[s.ID] = raw
	m.mu.Unlock()
	return nil
}

// Delete removes the session. Missing sessions are not an error.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.data, id)
	m.mu.Unlock()
	return nil
}

// Ping always succeeds.
func (m *MemoryStore) Ping(context.Context) error { return nil }

// Close is a no-op.
func (m *MemoryStore) Close() error { return nil }

func decode(raw []byte) (*session.Session, error) {
	var s session.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if s.Cart == nil {
		s.Cart = cart.New()
	}
	return &s, nil
}
