// Package services orchestrates the generation and edit pipelines over the
// collaborator interfaces.
package services

import (
	"errors"
	"fmt"

	"github.com/flowforge/flowforge/pkg/store"
)

// Business logic errors that map to client failures (4xx responses).
var (
	// ErrGoalRequired indicates an empty generation goal.
	ErrGoalRequired = errors.New("goal is required")

	// ErrWorkflowIDRequired indicates a missing workflow identifier.
	ErrWorkflowIDRequired = errors.New("workflow id is required")

	// ErrWorkflowNotFound mirrors the store sentinel for edit requests
	// targeting unknown workflows.
	ErrWorkflowNotFound = store.ErrWorkflowNotFound
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewValidationError creates a validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// IsValidationError checks whether an error should map to HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrGoalRequired) ||
		errors.Is(err, ErrWorkflowIDRequired)
}

// IsNotFoundError checks whether an error should map to HTTP 404.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrWorkflowNotFound)
}
