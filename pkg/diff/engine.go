package diff

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/flowforge/flowforge/pkg/log"
	"github.com/flowforge/flowforge/pkg/models"
	"github.com/flowforge/flowforge/pkg/validation"
)

// Request is one edit request against a stored workflow. Operations arrive
// in wire form so that unrecognized kinds are rejected in stage 1, before
// any graph state is involved.
type Request struct {
	WorkflowID string            `json:"workflow_id"`
	Operations []json.RawMessage `json:"operations"`
}

// NewRequest builds a request from typed operations. It panics only on
// operations that cannot be marshalled, which the closed union rules out.
func NewRequest(workflowID string, operations ...models.Operation) *Request {
	raw := make([]json.RawMessage, 0, len(operations))

	for _, op := range operations {
		encoded, err := models.EncodeOperation(op)
		if err != nil {
			panic(fmt.Sprintf("diff: encoding %s operation: %v", op.OperationType(), err))
		}

		raw = append(raw, encoded)
	}

	return &Request{WorkflowID: workflowID, Operations: raw}
}

// Result is the structured outcome of one diff application. Exactly one of
// Graph (success) or Err (failure) is set; Issues mirrors Err in a
// wire-friendly form.
type Result struct {
	Success        bool                      `json:"success"`
	WorkflowID     string                    `json:"workflow_id"`
	Graph          *models.WorkflowGraph     `json:"graph,omitempty"`
	AppliedCount   int                       `json:"applied_count"`
	AppliedIndices []int                     `json:"applied_indices,omitempty"`
	FailedStage    Stage                     `json:"failed_stage,omitempty"`
	Issues         []*models.ValidationIssue `json:"issues,omitempty"`
	Err            error                     `json:"-"`
}

// Engine drives the request-validation, operation-application and
// final-validation stages. It never mutates the graph it is given; all edits
// happen on a private working copy that becomes the result only on commit.
type Engine struct {
	validator *validation.Validator
	logger    *slog.Logger
}

// NewEngine builds a diff engine around the given validator.
func NewEngine(validator *validation.Validator, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = log.WithModule("diff")
	}

	return &Engine{
		validator: validator,
		logger:    logger,
	}
}

// Apply runs the full state machine against the target graph. The caller's
// graph instance is observably unchanged whenever Success is false, and also
// on success: the returned graph is a mutated clone, never the input.
func (e *Engine) Apply(ctx context.Context, graph *models.WorkflowGraph, req *Request) *Result {
	// Stage 1: request shape. Failures here never touch the working copy.
	operations, shapeErr := e.validateRequest(graph, req)
	if shapeErr != nil {
		return e.fail(req, StageRequestValidation, shapeErr)
	}

	// Stage 2: apply to a working copy in request order, each operation
	// checked against the current copy state.
	working := graph.Clone()

	applied, opErr := e.applyOperations(working, operations)
	if opErr != nil {
		return e.fail(req, StageOperationApplication, opErr)
	}

	// Stage 3: whole-graph consistency of the mutated copy.
	outcome := e.validator.Validate(ctx, working, validation.Options{})
	if !outcome.Valid {
		return e.fail(req, StageFinalValidation, &FinalValidationError{Issues: outcome.Errors})
	}

	e.logger.DebugContext(ctx, "diff committed",
		"workflow_id", req.WorkflowID,
		"applied", len(applied))

	return &Result{
		Success:        true,
		WorkflowID:     req.WorkflowID,
		Graph:          working,
		AppliedCount:   len(applied),
		AppliedIndices: applied,
	}
}

// validateRequest is stage 1. It decodes the wire operations so an
// unrecognized kind is rejected here, with index -1, not during application.
func (e *Engine) validateRequest(graph *models.WorkflowGraph, req *Request) ([]models.Operation, *RequestShapeError) {
	if req == nil {
		return nil, &RequestShapeError{
			Message: "diff request is required",
		}
	}

	if req.WorkflowID == "" {
		return nil, &RequestShapeError{
			Message: "workflow id is required",
			Hint:    "pass the id of the workflow to edit",
		}
	}

	if graph == nil {
		return nil, &RequestShapeError{
			Message: "target workflow graph is required",
		}
	}

	if len(req.Operations) == 0 {
		return nil, &RequestShapeError{
			Message: "at least one operation required",
			Hint:    "an empty diff has nothing to apply",
		}
	}

	operations := make([]models.Operation, 0, len(req.Operations))

	for i, raw := range req.Operations {
		op, err := models.DecodeOperation(raw)
		if err != nil {
			shape := &RequestShapeError{
				Message: fmt.Sprintf("operation %d: %v", i, err),
			}
			if errors.Is(err, models.ErrUnknownOperationType) {
				shape.Hint = "operation type must be one of the 13 supported kinds"
			}

			return nil, shape
		}

		operations = append(operations, op)
	}

	return operations, nil
}

// applyOperations is stage 2. Operations apply strictly in request order and
// each is validated against the working copy as it stands at that point, so
// an operation may rely on the effects of every earlier one. Application
// stops at the first failure, whose request index is reported.
func (e *Engine) applyOperations(working *models.WorkflowGraph, operations []models.Operation) ([]int, *OperationError) {
	applied := make([]int, 0, len(operations))

	for index, op := range operations {
		if err := applyOperation(working, op); err != nil {
			return nil, &OperationError{
				Index:   index,
				Type:    op.OperationType(),
				Message: err.message,
				Hint:    err.hint,
			}
		}

		applied = append(applied, index)
	}

	return applied, nil
}

func (e *Engine) fail(req *Request, stage Stage, failure error) *Result {
	result := &Result{
		FailedStage: stage,
		Err:         failure,
	}
	if req != nil {
		result.WorkflowID = req.WorkflowID
	}

	switch typed := failure.(type) {
	case *RequestShapeError:
		result.Issues = []*models.ValidationIssue{{
			Code:           "invalid_request",
			Message:        typed.Message,
			OperationIndex: models.GlobalIndex,
			Hint:           typed.Hint,
		}}
	case *OperationError:
		result.Issues = []*models.ValidationIssue{{
			Code:           "invalid_operation",
			Message:        typed.Message,
			OperationIndex: typed.Index,
			Hint:           typed.Hint,
		}}
	case *FinalValidationError:
		result.Issues = typed.Issues
	}

	return result
}
