package store

import (
	"errors"
	"fmt"
)

// Sentinel errors every Store implementation maps its backend failures to.
var (
	// ErrWorkflowNotFound indicates no workflow exists under the given id.
	ErrWorkflowNotFound = errors.New("workflow not found")

	// ErrWorkflowAlreadyExists indicates a Create collided with an existing id.
	ErrWorkflowAlreadyExists = errors.New("workflow already exists")

	// ErrExecuteUnsupported indicates the backing store cannot trigger
	// executions.
	ErrExecuteUnsupported = errors.New("execute is not supported by this store")
)

// Error wraps a store failure with the operation and workflow it concerns.
type Error struct {
	Op         string
	WorkflowID string
	Err        error
}

func (e *Error) Error() string {
	if e.WorkflowID == "" {
		return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
	}

	return fmt.Sprintf("%s failed for workflow %s: %v", e.Op, e.WorkflowID, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewError creates a wrapped store error.
func NewError(op, workflowID string, err error) *Error {
	return &Error{Op: op, WorkflowID: workflowID, Err: err}
}

// IsNotFound checks whether an error indicates a missing workflow.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrWorkflowNotFound)
}
