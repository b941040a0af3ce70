package revocation

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a mutex-guarded in-process revocation set for deployments
// without Redis (and for tests). Expired entries are dropped lazily on
// Contains and in bulk by Prune or the janitor.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]time.Time)}
}

// Add marks jti revoked until expiresAt.
func (s *MemoryStore) Add(_ context.Context, jti string, expiresAt time.Time) error {
	deadline := time.Now().Add(entryTTL(expiresAt, time.Now()))

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.entries[jti]; !ok || deadline.After(existing) {
		s.entries[jti] = deadline
	}
	return nil
}

// Contains reports whether jti is revoked and not yet expired.
func (s *MemoryStore) Contains(_ context.Context, jti string) (bool, error) {
	s.mu.RLock()
	deadline, ok := s.entries[jti]
	s.mu.RUnlock()

	if !ok {
		return false, nil
	}
	if time.Now().After(deadline) {
		s.mu.Lock()
		// Re-check under the write lock; Add may have extended the entry.
		if deadline, ok := s.entries[jti]; ok && time.Now().After(deadline) {
			delete(s.entries, jti)
		}
		s.mu.Unlock()
		return false, nil
	}
	return true, nil
}

// Prune removes every entry whose deadline is before now and returns the
// number removed.
func (s *MemoryStore) Prune(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for jti, deadline := range s.entries {
		if now.After(deadline) {
			delete(s.entries, jti)
			removed++
		}
	}
	return removed
}

// Len returns the current entry count, expired entries included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// StartJanitor prunes at the given interval until ctx is cancelled.
func (s *MemoryStore) StartJanitor(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				s.Prune(now)
			}
		}
	}()
}
