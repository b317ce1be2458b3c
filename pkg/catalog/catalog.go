// Package catalog exposes the read-only node/type catalog the generator and
// validator consult. The catalog is an external collaborator; this package
// owns only its interface and a static in-process implementation.
package catalog

import "context"

// Category separates trigger node types from regular actions.
type Category string

const (
	CategoryTrigger Category = "trigger"
	CategoryAction  Category = "action"
)

// Entry describes one node type known to the catalog.
type Entry struct {
	CanonicalType      string         `json:"canonical_type"`
	DisplayName        string         `json:"display_name"`
	Category           Category       `json:"category"`
	DefaultTypeVersion int            `json:"default_type_version"`
	ParameterSchema    map[string]any `json:"parameter_schema,omitempty"`
}

// IsTrigger reports whether the entry is a trigger-category node type.
func (e *Entry) IsTrigger() bool {
	return e.Category == CategoryTrigger
}

// Catalog is the lookup surface of the node/type catalog. Implementations
// never mutate catalog state on behalf of this core.
type Catalog interface {
	// Search returns entries whose canonical type or display name contains
	// the term, case-insensitively.
	Search(ctx context.Context, term string) ([]*Entry, error)

	// Lookup resolves a canonical or bare node type to its entry. A nil
	// entry with nil error means the type is unknown, which is not a
	// failure.
	Lookup(ctx context.Context, nodeType string) (*Entry, error)
}
