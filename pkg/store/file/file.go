// Package file provides a JSON-file-per-workflow store for development and
// tests. Layout: <root>/workflows/<id>.json.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/flowforge/flowforge/pkg/models"
	"github.com/flowforge/flowforge/pkg/store"
)

const workflowsDir = "workflows"

// Store implements store.Store on the local file system.
type Store struct {
	root string
}

// NewStore creates a file store rooted at the given directory, accepting a
// plain path or a file:// URL.
func NewStore(root string) (*Store, error) {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	if err := os.MkdirAll(filepath.Join(cleanRoot, workflowsDir), 0o755); err != nil {
		return nil, fmt.Errorf("create store root: %w", err)
	}

	return &Store{root: cleanRoot}, nil
}

func (s *Store) Get(_ context.Context, id string) (*models.WorkflowGraph, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, store.NewError("get", id, store.ErrWorkflowNotFound)
		}

		return nil, store.NewError("get", id, err)
	}

	var graph models.WorkflowGraph
	if err := json.Unmarshal(data, &graph); err != nil {
		return nil, store.NewError("get", id, fmt.Errorf("decode workflow file: %w", err))
	}

	return &graph, nil
}

func (s *Store) Create(_ context.Context, id string, graph *models.WorkflowGraph) error {
	if _, err := os.Stat(s.path(id)); err == nil {
		return store.NewError("create", id, store.ErrWorkflowAlreadyExists)
	}

	return s.write("create", id, graph)
}

func (s *Store) Update(_ context.Context, id string, graph *models.WorkflowGraph) error {
	if _, err := os.Stat(s.path(id)); err != nil {
		return store.NewError("update", id, store.ErrWorkflowNotFound)
	}

	return s.write("update", id, graph)
}

func (s *Store) Delete(_ context.Context, id string) error {
	if err := os.Remove(s.path(id)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return store.NewError("delete", id, store.ErrWorkflowNotFound)
		}

		return store.NewError("delete", id, err)
	}

	return nil
}

// Execute has no engine behind the file store; missing workflows are still
// reported as such so callers get the more specific error.
func (s *Store) Execute(ctx context.Context, id string) (*store.ExecutionResult, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	return nil, store.NewError("execute", id, store.ErrExecuteUnsupported)
}

func (s *Store) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(s.root); err != nil {
		return store.NewError("health_check", "", err)
	}

	return nil
}

func (s *Store) Close(_ context.Context) error {
	return nil
}

func (s *Store) write(op, id string, graph *models.WorkflowGraph) error {
	data, err := json.MarshalIndent(graph, "", "  ")
	if err != nil {
		return store.NewError(op, id, fmt.Errorf("encode workflow: %w", err))
	}

	if err := os.WriteFile(s.path(id), data, 0o644); err != nil {
		return store.NewError(op, id, err)
	}

	return nil
}

func (s *Store) path(id string) string {
	return filepath.Join(s.root, workflowsDir, id+".json")
}
