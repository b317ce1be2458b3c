// Package store abstracts the workflow store of record. The store is an
// external collaborator: this package owns its interface, its error
// taxonomy, and implementations for local files and the remote automation
// engine.
package store

import (
	"context"
	"time"

	"github.com/flowforge/flowforge/pkg/models"
)

// ExecutionResult is the acknowledgement returned when a stored workflow is
// triggered for execution.
type ExecutionResult struct {
	ExecutionID string    `json:"execution_id"`
	Status      string    `json:"status"`
	StartedAt   time.Time `json:"started_at"`
}

// Store is the surface the services layer depends on. Get is the pre-edit
// source of truth for the diff pipeline; persisting a committed copy back is
// an explicit Update by the caller.
type Store interface {
	Get(ctx context.Context, id string) (*models.WorkflowGraph, error)
	Create(ctx context.Context, id string, graph *models.WorkflowGraph) error
	Update(ctx context.Context, id string, graph *models.WorkflowGraph) error
	Delete(ctx context.Context, id string) error
	Execute(ctx context.Context, id string) (*ExecutionResult, error)

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
