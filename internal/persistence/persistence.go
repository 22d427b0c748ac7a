// Package persistence defines the contract for durable snapshot history
// stores: an append-only ledger of which tier snapshots were archived, when,
// and under which archive key.
package persistence

import (
	"context"
	"time"
)

// Record describes one archived tier snapshot.
type Record struct {
	ID        string    `json:"id"` // uuid assigned on append
	Tier      string    `json:"tier"`
	Key       string    `json:"key"` // archive blob key
	Checksum  string    `json:"checksum"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is the minimal abstraction over durable history backends.
type Store interface {
	// Append adds a record, assigning ID and CreatedAt when unset, and
	// returns the stored form.
	Append(ctx context.Context, rec Record) (Record, error)
	// Get retrieves a record by id.
	Get(ctx context.Context, id string) (Record, bool, error)
	// List returns records for a tier (all tiers when empty), oldest first.
	List(ctx context.Context, tier string) ([]Record, error)
	// Close releases backend resources.
	Close() error
}
