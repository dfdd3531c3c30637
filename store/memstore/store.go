// Package memstore keeps recent snapshots in memory. It is the default store
// when no database is configured.
package memstore

import (
	"context"
	"sync"

	"github.com/h15s/gmtea/stats"
	"github.com/h15s/gmtea/web/gm"
)

// DefaultCapacity keeps four hours of snapshots at the default poll interval.
const DefaultCapacity = 1440

// Option configures the Store
type Option func(*Store)

// WithCapacity bounds how many snapshots are kept
func WithCapacity(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.capacity = n
		}
	}
}

// Store is a bounded, newest-first snapshot history safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	capacity int
	history  []stats.Snapshot // oldest first
}

// New creates an empty Store
func New(opts ...Option) *Store {
	s := &Store{capacity: DefaultCapacity}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SaveSnapshot appends a snapshot, dropping the oldest when full
func (s *Store) SaveSnapshot(_ context.Context, snap stats.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = append(s.history, snap)
	if over := len(s.history) - s.capacity; over > 0 {
		s.history = append(s.history[:0:0], s.history[over:]...)
	}
	return nil
}

// Latest returns the most recent snapshot
func (s *Store) Latest(_ context.Context) (stats.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.history) == 0 {
		return stats.Snapshot{}, gm.ErrNoSnapshot
	}
	return s.history[len(s.history)-1], nil
}

// FindSnapshots pages through the history newest first
func (s *Store) FindSnapshots(_ context.Context, criteria gm.SnapshotsCriteria) (*gm.SnapshotsPage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	skip := criteria.ItemsToSkip()
	// Request one extra item to detect if there are more pages
	limit := criteria.ItemsPerPage() + 1

	var found []stats.Snapshot
	var matched uint64
	for i := len(s.history) - 1; i >= 0 && uint64(len(found)) < limit; i-- {
		snap := s.history[i]
		if !criteria.Date.Contains(snap.TakenAt) {
			continue
		}
		matched++
		if matched <= skip {
			continue
		}
		found = append(found, snap)
	}

	hasMore := uint64(len(found)) > criteria.ItemsPerPage()
	if hasMore {
		found = found[:criteria.ItemsPerPage()]
	}

	return &gm.SnapshotsPage{
		Snapshots: found,
		HasMore:   hasMore,
		Number:    criteria.Page,
		Size:      criteria.Size,
	}, nil
}
