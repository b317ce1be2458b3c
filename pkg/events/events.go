// Package events defines the terminal outcome events published after
// generation, edit and execution requests. Consumers subscribe per event
// type; payloads are JSON.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	WorkflowGeneratedEvent    EventType = "workflow.generated"
	WorkflowEditAppliedEvent  EventType = "workflow.edit.applied"
	WorkflowEditRejectedEvent EventType = "workflow.edit.rejected"
	WorkflowExecutedEvent     EventType = "workflow.executed"
)

const EventTypeMetadataKey = "event_type"

// Event is implemented by every outcome event.
type Event interface {
	GetType() EventType
}

type BaseEvent struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	WorkflowID string         `json:"workflow_id"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// NewBaseEvent stamps a fresh event envelope.
func NewBaseEvent(eventType EventType, workflowID string) BaseEvent {
	return BaseEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		WorkflowID: workflowID,
	}
}

// WorkflowGenerated reports a completed generation run, successful or not.
type WorkflowGenerated struct {
	BaseEvent

	Goal       string  `json:"goal"`
	PatternID  string  `json:"pattern_id,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
	NodeCount  int     `json:"node_count"`
	Valid      bool    `json:"valid"`
}

func (e WorkflowGenerated) GetType() EventType {
	return WorkflowGeneratedEvent
}

// WorkflowEditApplied reports a committed diff request.
type WorkflowEditApplied struct {
	BaseEvent

	AppliedCount   int   `json:"applied_count"`
	AppliedIndices []int `json:"applied_indices"`
}

func (e WorkflowEditApplied) GetType() EventType {
	return WorkflowEditAppliedEvent
}

// WorkflowEditRejected reports a rolled-back diff request with the stage
// that rejected it.
type WorkflowEditRejected struct {
	BaseEvent

	Stage          string `json:"stage"`
	OperationIndex int    `json:"operation_index"`
	Reason         string `json:"reason"`
}

func (e WorkflowEditRejected) GetType() EventType {
	return WorkflowEditRejectedEvent
}

// WorkflowExecuted reports an execution triggered through the store of
// record.
type WorkflowExecuted struct {
	BaseEvent

	ExecutionID string `json:"execution_id"`
	Status      string `json:"status"`
}

func (e WorkflowExecuted) GetType() EventType {
	return WorkflowExecutedEvent
}
