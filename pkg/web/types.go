// Package web provides the HTTP surface of the workflow generation and edit
// pipelines.
package web

import (
	"encoding/json"

	"github.com/flowforge/flowforge/pkg/diff"
	"github.com/flowforge/flowforge/pkg/models"
)

// GenerateWorkflowRequest is the body of POST /workflows/generate.
type GenerateWorkflowRequest struct {
	Goal    string `json:"goal"    validate:"required,min=3"`
	Profile string `json:"profile" validate:"omitempty,oneof=default strict"`
}

// CreateWorkflowRequest is the body of POST /workflows.
type CreateWorkflowRequest struct {
	ID    string                `json:"id"    validate:"required,min=1"`
	Graph *models.WorkflowGraph `json:"graph" validate:"required"`
}

// EditWorkflowRequest is the body of POST /workflows/:id/edit. Operations
// are raw envelopes; the diff engine owns their decoding and rejection.
type EditWorkflowRequest struct {
	Operations []json.RawMessage `json:"operations" validate:"required,min=1"`
	Persist    *bool             `json:"persist,omitempty"`
}

// EditRejectionResponse is the 422 body for a rejected diff request.
type EditRejectionResponse struct {
	Success     bool                      `json:"success"`
	WorkflowID  string                    `json:"workflow_id"`
	FailedStage diff.Stage                `json:"failed_stage"`
	Issues      []*models.ValidationIssue `json:"issues"`
}

// MatchPatternsResponse is the body of GET /patterns/match.
type MatchPatternsResponse struct {
	Goal    string                `json:"goal"`
	Matches []models.PatternMatch `json:"matches"`
}

// MemoryResponse is the body of GET /memory.
type MemoryResponse struct {
	Entries []*models.MemoryEntry `json:"entries"`
	Count   int                   `json:"count"`
}
