// Package ledger implements the coordination ledger: a bounded, TTL'd
// key-value store components use to exchange terminal outcomes without
// calling each other directly. It is a best-effort side channel, never a
// source of truth.
package ledger

import (
	"context"
	"time"

	"github.com/flowforge/flowforge/pkg/models"
)

// QueryOptions narrows a ledger query. Zero values mean "no filter".
type QueryOptions struct {
	Type   models.MemoryEntryType
	MaxAge time.Duration
	Limit  int
}

// Ledger is the shared-memory contract. Writes are atomic replace-by-key
// with last-write-wins semantics; there are no cross-key transactions.
// Implementations must be safe for concurrent use.
type Ledger interface {
	// Record stores an entry under the composite "topic:id" key,
	// overwriting any previous entry for that key. A non-positive ttl means
	// the default 24h.
	Record(ctx context.Context, key string, entryType models.MemoryEntryType, payload map[string]any, ttl time.Duration) error

	// Query returns unexpired entries whose keys match the glob pattern
	// (e.g. "workflow_update:*"), most recent first.
	Query(ctx context.Context, pattern string, opts QueryOptions) ([]*models.MemoryEntry, error)

	Close() error
}
