// internal/snapshot/store.go
package snapshot

import "sync/atomic"

// Store holds the currently published snapshot.
// Publish swaps a single pointer; Current loads it.
// Neither side takes a lock, so readers never wait on a writer.
type Store struct {
	cur atomic.Pointer[Snapshot]
}

// NewStore starts with initial, or with an empty snapshot when nil.
func NewStore(initial *Snapshot) *Store {
	s := &Store{}
	if initial == nil {
		initial = Empty()
	}
	s.cur.Store(initial)
	return s
}

// Current returns the published snapshot. Never nil.
func (s *Store) Current() *Snapshot {
	return s.cur.Load()
}

// Publish replaces the current snapshot with candidate.
// A candidate generated before the current snapshot is rejected,
// keeping generation time non-decreasing.
func (s *Store) Publish(candidate *Snapshot) bool {
	if candidate == nil {
		return false
	}
	for {
		prev := s.cur.Load()
		if candidate.GeneratedAt.Before(prev.GeneratedAt) {
			return false
		}
		if s.cur.CompareAndSwap(prev, candidate) {
			return true
		}
	}
}
