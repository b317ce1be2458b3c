package models

import "time"

// DefaultMemoryTTL is how long a coordination ledger entry lives unless the
// writer chose otherwise.
const DefaultMemoryTTL = 24 * time.Hour

// MemoryEntryType classifies what kind of outcome a ledger entry carries.
type MemoryEntryType string

const (
	MemoryEntryInsight         MemoryEntryType = "insight"
	MemoryEntryValidation      MemoryEntryType = "validation"
	MemoryEntryError           MemoryEntryType = "error"
	MemoryEntryExecutionResult MemoryEntryType = "execution-result"
)

// MemoryEntry is one row in the coordination ledger. Keys are composite
// "topic:id" strings; a write to an existing key replaces the previous entry.
type MemoryEntry struct {
	Key       string          `json:"key"  validate:"required"`
	Type      MemoryEntryType `json:"type" validate:"required,oneof=insight validation error execution-result"`
	Payload   map[string]any  `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
	TTL       time.Duration   `json:"ttl"`
}

// ExpiresAt returns the instant the entry stops being visible to queries.
func (e *MemoryEntry) ExpiresAt() time.Time {
	ttl := e.TTL
	if ttl <= 0 {
		ttl = DefaultMemoryTTL
	}

	return e.CreatedAt.Add(ttl)
}

// Expired reports whether the entry is past its TTL at the given instant.
func (e *MemoryEntry) Expired(now time.Time) bool {
	return now.After(e.ExpiresAt())
}
