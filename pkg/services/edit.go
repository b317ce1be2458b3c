package services

import (
	"context"
	"encoding/json"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/flowforge/flowforge/pkg/diff"
	"github.com/flowforge/flowforge/pkg/eventbus"
	"github.com/flowforge/flowforge/pkg/events"
	"github.com/flowforge/flowforge/pkg/ledger"
	"github.com/flowforge/flowforge/pkg/log"
	"github.com/flowforge/flowforge/pkg/models"
	"github.com/flowforge/flowforge/pkg/otelhelper"
	"github.com/flowforge/flowforge/pkg/store"
)

// EditRequest carries a batch of operations against a stored workflow.
type EditRequest struct {
	WorkflowID string            `json:"workflow_id" validate:"required"`
	Operations []json.RawMessage `json:"operations"  validate:"required,min=1"`

	// Persist writes the committed copy back to the store. Callers that
	// stage edits elsewhere leave it false.
	Persist bool `json:"persist,omitempty"`
}

// Edit drives store fetch → diff engine → outcome recording. A rejected
// diff is a completed request with Success=false, not a service error.
type Edit struct {
	store  store.Store
	engine *diff.Engine
	memory ledger.Ledger     // optional
	bus    eventbus.EventBus // optional
	tracer trace.Tracer      // optional
	logger *slog.Logger
}

// NewEdit wires the edit pipeline. Ledger, bus and tracer may be nil.
func NewEdit(workflowStore store.Store, engine *diff.Engine, memory ledger.Ledger, bus eventbus.EventBus, tracer trace.Tracer) *Edit {
	return &Edit{
		store:  workflowStore,
		engine: engine,
		memory: memory,
		bus:    bus,
		tracer: tracer,
		logger: log.WithModule("services.edit"),
	}
}

// Apply fetches the workflow, runs the diff pipeline against it and records
// the outcome. Service errors cover only missing ids and store failures.
func (e *Edit) Apply(ctx context.Context, req EditRequest) (*diff.Result, error) {
	if req.WorkflowID == "" {
		return nil, NewValidationError("edit", "missing_workflow_id", "workflow id is required", ErrWorkflowIDRequired)
	}

	if e.tracer != nil {
		var span trace.Span

		ctx, span = otelhelper.StartSpan(ctx, e.tracer, "edit.apply",
			attribute.String(otelhelper.WorkflowIDKey, req.WorkflowID))
		defer span.End()
	}

	graph, err := e.store.Get(ctx, req.WorkflowID)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, &ServiceError{Op: "edit", Code: "workflow_not_found", Message: "workflow " + req.WorkflowID + " does not exist", Err: ErrWorkflowNotFound}
		}

		return nil, &ServiceError{Op: "edit", Code: "store_unavailable", Err: err}
	}

	result := e.engine.Apply(ctx, graph, &diff.Request{
		WorkflowID: req.WorkflowID,
		Operations: req.Operations,
	})

	if result.Success && req.Persist {
		if err := e.store.Update(ctx, req.WorkflowID, result.Graph); err != nil {
			return nil, &ServiceError{Op: "edit", Code: "store_unavailable", Err: err}
		}
	}

	e.record(ctx, result)
	e.publish(ctx, result)

	e.logger.InfoContext(ctx, "edit completed",
		"workflow_id", req.WorkflowID,
		"success", result.Success,
		"applied", result.AppliedCount,
		"failed_stage", string(result.FailedStage))

	return result, nil
}

// Execute triggers a run of the stored workflow and records the
// acknowledgement.
func (e *Edit) Execute(ctx context.Context, workflowID string) (*store.ExecutionResult, error) {
	if workflowID == "" {
		return nil, NewValidationError("execute", "missing_workflow_id", "workflow id is required", ErrWorkflowIDRequired)
	}

	execution, err := e.store.Execute(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	if e.memory != nil {
		payload := map[string]any{
			"execution_id": execution.ExecutionID,
			"status":       execution.Status,
		}

		if recordErr := e.memory.Record(ctx, "workflow_execution:"+workflowID, models.MemoryEntryExecutionResult, payload, 0); recordErr != nil {
			e.logger.WarnContext(ctx, "ledger record failed", "workflow_id", workflowID, "error", recordErr)
		}
	}

	if e.bus != nil {
		event := events.WorkflowExecuted{
			BaseEvent:   events.NewBaseEvent(events.WorkflowExecutedEvent, workflowID),
			ExecutionID: execution.ExecutionID,
			Status:      execution.Status,
		}

		if pubErr := e.bus.Publish(ctx, event); pubErr != nil {
			e.logger.WarnContext(ctx, "event publish failed", "event", event.GetType(), "error", pubErr)
		}
	}

	return execution, nil
}

func (e *Edit) record(ctx context.Context, result *diff.Result) {
	if e.memory == nil {
		return
	}

	entryType := models.MemoryEntryValidation
	payload := map[string]any{
		"success":       result.Success,
		"applied_count": result.AppliedCount,
	}

	if !result.Success {
		entryType = models.MemoryEntryError
		payload["failed_stage"] = string(result.FailedStage)

		if result.Err != nil {
			payload["reason"] = result.Err.Error()
		}
	}

	if err := e.memory.Record(ctx, "workflow_update:"+result.WorkflowID, entryType, payload, 0); err != nil {
		e.logger.WarnContext(ctx, "ledger record failed", "workflow_id", result.WorkflowID, "error", err)
	}
}

func (e *Edit) publish(ctx context.Context, result *diff.Result) {
	if e.bus == nil {
		return
	}

	var event events.Event

	if result.Success {
		event = events.WorkflowEditApplied{
			BaseEvent:      events.NewBaseEvent(events.WorkflowEditAppliedEvent, result.WorkflowID),
			AppliedCount:   result.AppliedCount,
			AppliedIndices: result.AppliedIndices,
		}
	} else {
		rejected := events.WorkflowEditRejected{
			BaseEvent:      events.NewBaseEvent(events.WorkflowEditRejectedEvent, result.WorkflowID),
			Stage:          string(result.FailedStage),
			OperationIndex: models.GlobalIndex,
		}

		if len(result.Issues) > 0 {
			rejected.OperationIndex = result.Issues[0].OperationIndex
			rejected.Reason = result.Issues[0].Message
		}

		event = rejected
	}

	if err := e.bus.Publish(ctx, event); err != nil {
		e.logger.WarnContext(ctx, "event publish failed", "event", event.GetType(), "error", err)
	}
}
