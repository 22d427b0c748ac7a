// Package memory implements the snapshot history store in process memory,
// primarily for tests and ephemeral runs.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"tiercore/internal/persistence"
)

// Store keeps history records in a map guarded by a mutex.
type Store struct {
	mu      sync.RWMutex
	records map[string]persistence.Record
	nowFn   func() time.Time
}

// NewStore returns an empty in-memory history store.
func NewStore() *Store {
	return &Store{
		records: make(map[string]persistence.Record),
		nowFn:   func() time.Time { return time.Now().UTC() },
	}
}

// Append stores a record, assigning ID and CreatedAt when unset.
func (s *Store) Append(_ context.Context, rec persistence.Record) (persistence.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.nowFn()
	}
	if _, exists := s.records[rec.ID]; exists {
		return persistence.Record{}, fmt.Errorf("record %s already exists", rec.ID)
	}
	s.records[rec.ID] = rec
	return rec, nil
}

// Get retrieves a record by id.
func (s *Store) Get(_ context.Context, id string) (persistence.Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	return rec, ok, nil
}

// List returns records for a tier (all when empty), oldest first.
func (s *Store) List(_ context.Context, tier string) ([]persistence.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]persistence.Record, 0, len(s.records))
	for _, rec := range s.records {
		if tier == "" || rec.Tier == tier {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// Close is a no-op for the memory backend.
func (s *Store) Close() error { return nil }
