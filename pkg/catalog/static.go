package catalog

import (
	"context"
	"strings"
)

// Namespace is the canonical prefix of built-in node types.
const Namespace = "pkg."

// Static is an in-memory catalog over a fixed entry table. It satisfies
// Catalog for tests and for single-binary deployments that ship the
// built-in node set.
type Static struct {
	entries []*Entry
	byType  map[string]*Entry // keyed by lowercase canonical and bare type
}

// NewStatic builds a static catalog from the given entries.
func NewStatic(entries []*Entry) *Static {
	byType := make(map[string]*Entry, len(entries)*2)

	for _, entry := range entries {
		canonical := strings.ToLower(entry.CanonicalType)
		byType[canonical] = entry

		if bare, ok := strings.CutPrefix(canonical, Namespace); ok {
			byType[bare] = entry
		}
	}

	return &Static{entries: entries, byType: byType}
}

// NewDefaultStatic returns a catalog over the built-in node types.
func NewDefaultStatic() *Static {
	return NewStatic(builtinEntries())
}

func (s *Static) Search(_ context.Context, term string) ([]*Entry, error) {
	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" {
		return nil, nil
	}

	results := make([]*Entry, 0)

	for _, entry := range s.entries {
		if strings.Contains(strings.ToLower(entry.CanonicalType), needle) ||
			strings.Contains(strings.ToLower(entry.DisplayName), needle) {
			results = append(results, entry)
		}
	}

	return results, nil
}

func (s *Static) Lookup(_ context.Context, nodeType string) (*Entry, error) {
	entry, ok := s.byType[strings.ToLower(strings.TrimSpace(nodeType))]
	if !ok {
		return nil, nil
	}

	return entry, nil
}

func builtinEntries() []*Entry {
	return []*Entry{
		{
			CanonicalType:      Namespace + "manualTrigger",
			DisplayName:        "Manual Trigger",
			Category:           CategoryTrigger,
			DefaultTypeVersion: 1,
		},
		{
			CanonicalType:      Namespace + "scheduleTrigger",
			DisplayName:        "Schedule Trigger",
			Category:           CategoryTrigger,
			DefaultTypeVersion: 1,
			ParameterSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"cron": map[string]any{"type": "string"},
				},
				"required": []any{"cron"},
			},
		},
		{
			CanonicalType:      Namespace + "webhookTrigger",
			DisplayName:        "Webhook Trigger",
			Category:           CategoryTrigger,
			DefaultTypeVersion: 2,
			ParameterSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"path":   map[string]any{"type": "string"},
					"method": map[string]any{"type": "string", "enum": []any{"GET", "POST", "PUT", "DELETE"}},
				},
				"required": []any{"path"},
			},
		},
		{
			CanonicalType:      Namespace + "httpRequest",
			DisplayName:        "HTTP Request",
			Category:           CategoryAction,
			DefaultTypeVersion: 4,
			ParameterSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"url":    map[string]any{"type": "string"},
					"method": map[string]any{"type": "string"},
				},
				"required": []any{"url"},
			},
		},
		{
			CanonicalType:      Namespace + "slack",
			DisplayName:        "Slack",
			Category:           CategoryAction,
			DefaultTypeVersion: 2,
			ParameterSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"channel": map[string]any{"type": "string"},
					"text":    map[string]any{"type": "string"},
				},
				"required": []any{"channel"},
			},
		},
		{
			CanonicalType:      Namespace + "set",
			DisplayName:        "Set",
			Category:           CategoryAction,
			DefaultTypeVersion: 3,
		},
		{
			CanonicalType:      Namespace + "if",
			DisplayName:        "If",
			Category:           CategoryAction,
			DefaultTypeVersion: 2,
		},
		{
			CanonicalType:      Namespace + "postgres",
			DisplayName:        "Postgres",
			Category:           CategoryAction,
			DefaultTypeVersion: 2,
			ParameterSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"operation": map[string]any{"type": "string"},
					"table":     map[string]any{"type": "string"},
				},
			},
		},
		{
			CanonicalType:      Namespace + "emailSend",
			DisplayName:        "Send Email",
			Category:           CategoryAction,
			DefaultTypeVersion: 2,
			ParameterSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"to":      map[string]any{"type": "string"},
					"subject": map[string]any{"type": "string"},
				},
				"required": []any{"to"},
			},
		},
		{
			CanonicalType:      Namespace + "noOp",
			DisplayName:        "No Operation",
			Category:           CategoryAction,
			DefaultTypeVersion: 1,
		},
		{
			CanonicalType:      Namespace + "readBinaryFile",
			DisplayName:        "Read Binary File",
			Category:           CategoryAction,
			DefaultTypeVersion: 1,
		},
		{
			CanonicalType:      Namespace + "writeBinaryFile",
			DisplayName:        "Write Binary File",
			Category:           CategoryAction,
			DefaultTypeVersion: 1,
		},
		{
			CanonicalType:      Namespace + "spreadsheetFile",
			DisplayName:        "Spreadsheet File",
			Category:           CategoryAction,
			DefaultTypeVersion: 2,
		},
	}
}
