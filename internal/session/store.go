package session

import (
	"context"
	"sync"
)

// SessionStore holds adaptive session state keyed by (user, assessment).
// Implementations hand out deep copies; the Engine is the only writer.
type SessionStore interface {
	// Get returns the state for key, or (nil, nil) when absent.
	Get(ctx context.Context, key string) (*State, error)

	// Put stores (or replaces) the state under its own key.
	Put(ctx context.Context, st *State) error

	// Delete removes the state for key. Deleting an absent key is a no-op.
	Delete(ctx context.Context, key string) error

	// All returns every stored state, for the expiry sweep.
	All(ctx context.Context) ([]*State, error)
}

// MemoryStore is an in-process SessionStore backed by a map. Suitable
// for tests and single-instance deployments.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*State
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*State)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (*State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st, ok := m.sessions[key]
	if !ok {
		return nil, nil
	}
	return st.Clone(), nil
}

func (m *MemoryStore) Put(_ context.Context, st *State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[st.Key()] = st.Clone()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, key)
	return nil
}

func (m *MemoryStore) All(_ context.Context) ([]*State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*State, 0, len(m.sessions))
	for _, st := range m.sessions {
		out = append(out, st.Clone())
	}
	return out, nil
}

// Len reports the number of stored sessions.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
