package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/flowforge/flowforge/pkg/eventbus"
	"github.com/flowforge/flowforge/pkg/events"
	"github.com/flowforge/flowforge/pkg/generator"
	"github.com/flowforge/flowforge/pkg/insight"
	"github.com/flowforge/flowforge/pkg/ledger"
	"github.com/flowforge/flowforge/pkg/log"
	"github.com/flowforge/flowforge/pkg/models"
	"github.com/flowforge/flowforge/pkg/otelhelper"
	"github.com/flowforge/flowforge/pkg/patterns"
	"github.com/flowforge/flowforge/pkg/validation"
)

// GenerateRequest carries a generation goal.
type GenerateRequest struct {
	Goal    string             `json:"goal"    validate:"required"`
	Profile validation.Profile `json:"profile" validate:"omitempty,oneof=default strict"`
}

// GenerateResponse is the structured outcome of one generation run. Success
// means the generated graph passed validation; a fallback graph with
// validation findings is still a completed run, not an error.
type GenerateResponse struct {
	WorkflowID   string                   `json:"workflow_id"`
	Success      bool                     `json:"success"`
	Graph        *models.WorkflowGraph    `json:"graph"`
	Matches      []models.PatternMatch    `json:"matches,omitempty"`
	UsedFallback bool                     `json:"used_fallback"`
	UsedInsights bool                     `json:"used_insights"`
	Validation   *models.ValidationResult `json:"validation"`
}

// Generation drives goal → pattern match → optional insight fetch →
// generator → validator, records the outcome in the ledger and publishes it
// on the event bus.
type Generation struct {
	matcher   *patterns.Matcher
	generator *generator.Generator
	validator *validation.Validator
	insight   insight.Client    // optional
	memory    ledger.Ledger     // optional
	bus       eventbus.EventBus // optional
	tracer    trace.Tracer      // optional
	logger    *slog.Logger
}

// NewGeneration wires the generation pipeline. Insight client, ledger, bus
// and tracer may each be nil; the pipeline degrades accordingly.
func NewGeneration(
	matcher *patterns.Matcher,
	gen *generator.Generator,
	validator *validation.Validator,
	insightClient insight.Client,
	memory ledger.Ledger,
	bus eventbus.EventBus,
	tracer trace.Tracer,
) *Generation {
	return &Generation{
		matcher:   matcher,
		generator: gen,
		validator: validator,
		insight:   insightClient,
		memory:    memory,
		bus:       bus,
		tracer:    tracer,
		logger:    log.WithModule("services.generation"),
	}
}

// Generate runs the full pipeline. It fails only on request-shape problems;
// "no pattern matched" and "no insights" are non-error outcomes.
func (g *Generation) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	goal := strings.TrimSpace(req.Goal)
	if goal == "" {
		return nil, NewValidationError("generate", "missing_goal", "goal is required", ErrGoalRequired)
	}

	if g.tracer != nil {
		var span trace.Span

		ctx, span = otelhelper.StartSpan(ctx, g.tracer, "generation.generate",
			attribute.String(otelhelper.GoalKey, goal))
		defer span.End()
	}

	matches := g.matcher.Match(goal)

	var (
		pattern    *models.Pattern
		patternID  string
		confidence float64
	)

	if len(matches) > 0 {
		pattern = matches[0].Pattern
		patternID = pattern.ID
		confidence = matches[0].Confidence
	}

	insights := g.fetchInsights(ctx, patternID)
	graph := g.generator.Generate(ctx, goal, pattern, insights)
	result := g.validator.Validate(ctx, graph, validation.Options{Profile: req.Profile})

	response := &GenerateResponse{
		WorkflowID:   uuid.NewString(),
		Success:      result.Valid,
		Graph:        graph,
		Matches:      matches,
		UsedFallback: pattern == nil,
		UsedInsights: insights != nil,
		Validation:   result,
	}

	g.record(ctx, response, goal, patternID)
	g.publish(ctx, response, goal, patternID, confidence)

	g.logger.InfoContext(ctx, "generation completed",
		"workflow_id", response.WorkflowID,
		"goal", goal,
		"pattern_id", patternID,
		"fallback", response.UsedFallback,
		"valid", result.Valid)

	return response, nil
}

// fetchInsights queries the insight collaborator when one is configured.
// Any failure degrades to generation without insights.
func (g *Generation) fetchInsights(ctx context.Context, patternID string) *models.Insights {
	if g.insight == nil || patternID == "" {
		return nil
	}

	insights, err := g.insight.Query(ctx, patternID)
	if err != nil {
		g.logger.WarnContext(ctx, "proceeding without insights", "pattern_id", patternID, "error", err)

		return nil
	}

	return insights
}

func (g *Generation) record(ctx context.Context, response *GenerateResponse, goal, patternID string) {
	if g.memory == nil {
		return
	}

	entryType := models.MemoryEntryValidation
	if !response.Success {
		entryType = models.MemoryEntryError
	}

	payload := map[string]any{
		"goal":       goal,
		"pattern_id": patternID,
		"valid":      response.Success,
		"node_count": len(response.Graph.Nodes),
		"errors":     len(response.Validation.Errors),
	}

	if err := g.memory.Record(ctx, "workflow_generation:"+response.WorkflowID, entryType, payload, 0); err != nil {
		g.logger.WarnContext(ctx, "ledger record failed", "workflow_id", response.WorkflowID, "error", err)
	}
}

func (g *Generation) publish(ctx context.Context, response *GenerateResponse, goal, patternID string, confidence float64) {
	if g.bus == nil {
		return
	}

	event := events.WorkflowGenerated{
		BaseEvent:  events.NewBaseEvent(events.WorkflowGeneratedEvent, response.WorkflowID),
		Goal:       goal,
		PatternID:  patternID,
		Confidence: confidence,
		NodeCount:  len(response.Graph.Nodes),
		Valid:      response.Success,
	}

	if err := g.bus.Publish(ctx, event); err != nil {
		g.logger.WarnContext(ctx, "event publish failed", "event", event.GetType(), "error", err)
	}
}
