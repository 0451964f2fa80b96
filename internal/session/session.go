// Package session persists per-session cart state between requests. Each
// logged-in session owns at most one cart, keyed by its session id.
package session

import (
	"context"
	"sync"
	"time"

	"seaside/backend/internal/domain"
)

// CartStore holds one cart per session id. Get reports a miss with found ==
// false rather than an error. There is no per-session lock: two concurrent
// mutations from the same session can interleave as read-modify-write races.
type CartStore interface {
	Get(ctx context.Context, sessionID string) (*domain.CartState, bool, error)
	Put(ctx context.Context, sessionID string, state domain.CartState, ttl time.Duration) error
	Delete(ctx context.Context, sessionID string) error
}

// MemoryCartStore is the dev/test implementation. TTLs are honored lazily on
// read.
type MemoryCartStore struct {
	mu      sync.RWMutex
	carts   map[string]memoryEntry
	nowFunc func() time.Time
}

type memoryEntry struct {
	state     domain.CartState
	expiresAt time.Time
}

func NewMemoryCartStore() *MemoryCartStore {
	return &MemoryCartStore{
		carts:   make(map[string]memoryEntry),
		nowFunc: time.Now,
	}
}

func (s *MemoryCartStore) Get(_ context.Context, sessionID string) (*domain.CartState, bool, error) {
	s.mu.RLock()
	entry, ok := s.carts[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !entry.expiresAt.IsZero() && s.nowFunc().After(entry.expiresAt) {
		s.mu.Lock()
		delete(s.carts, sessionID)
		s.mu.Unlock()
		return nil, false, nil
	}
	state := entry.state
	return &state, true, nil
}

func (s *MemoryCartStore) Put(_ context.Context, sessionID string, state domain.CartState, ttl time.Duration) error {
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = s.nowFunc().Add(ttl)
	}
	s.mu.Lock()
	s.carts[sessionID] = memoryEntry{state: state, expiresAt: expiresAt}
	s.mu.Unlock()
	return nil
}

func (s *MemoryCartStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.carts, sessionID)
	s.mu.Unlock()
	return nil
}
