package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	domain "otterpoint/internal/domain/session"
)

// MemoryStore keeps sealed sessions in process memory. Sessions are lost on restart.
type MemoryStore struct {
	mu     sync.Mutex
	sealer *Sealer
	now    func() time.Time
	items  map[string]memoryItem
}

type memoryItem struct {
	payload   []byte
	expiresAt time.Time
}

// NewMemoryStore creates an in-memory store.
func NewMemoryStore(sealer *Sealer) *MemoryStore {
	return &MemoryStore{sealer: sealer, now: time.Now, items: make(map[string]memoryItem)}
}

// Load returns the session behind token.
func (m *MemoryStore) Load(ctx context.Context, token string) (*domain.Session, error) {
	key := tokenKey(token)
	m.mu.Lock()
	it, ok := m.items[key]
	if ok && m.now().After(it.expiresAt) {
		delete(m.items, key)
		ok = false
	}
	m.mu.Unlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	s, err := m.sealer.Open(token, it.payload)
	if err != nil {
		slog.Warn("session_unreadable", "store", "memory", "error", err)
		return nil, domain.ErrNotFound
	}
	return s, nil
}

// Save creates or replaces s. The stored copy is independent of s.
func (m *MemoryStore) Save(ctx context.Context, s *domain.Session) error {
	payload, err := m.sealer.Seal(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.items[tokenKey(s.Token)] = memoryItem{payload: payload, expiresAt: s.ExpiresAt}
	m.mu.Unlock()
	return nil
}

// Delete removes the session behind token.
func (m *MemoryStore) Delete(ctx context.Context, token string) error {
	m.mu.Lock()
	delete(m.items, tokenKey(token))
	m.mu.Unlock()
	return nil
}

// Sweep drops expired sessions and returns how many were removed.
func (m *MemoryStore) Sweep(ctx context.Context) (int, error) {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k, it := range m.items {
		if now.After(it.expiresAt) {
			delete(m.items, k)
			n++
		}
	}
	return n, nil
}
