package snapshot

import (
	"context"
	"sync"
	"time"
)

// Compile-time assertion that MemStore satisfies the Store interface.
var _ Store = (*MemStore)(nil)

// MemStore is a thread-safe, in-memory implementation of [Store]. It is
// suitable for single-process use and testing.
type MemStore struct {
	mu        sync.RWMutex
	snapshots map[string]Snapshot

	// now is the clock used for staleness checks, overridable in tests.
	now func() time.Time
}

// NewMemStore returns an initialised [MemStore].
func NewMemStore() *MemStore {
	return &MemStore{
		snapshots: make(map[string]Snapshot),
		now:       time.Now,
	}
}

// Put implements [Store.Put].
func (s *MemStore) Put(_ context.Context, snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[snap.Tool] = snap
	return nil
}

// Get implements [Store.Get].
func (s *MemStore) Get(_ context.Context, tool string, ttl time.Duration) (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.snapshots[tool]
	if !ok {
		return Snapshot{}, ErrNotFound
	}
	if ttl > 0 && s.now().Sub(snap.TakenAt) > ttl {
		return Snapshot{}, ErrStale
	}
	return snap, nil
}
