// Package diff applies ordered edit operations to a workflow graph through a
// three-stage state machine with all-or-nothing commit semantics.
package diff

import (
	"fmt"

	"github.com/flowforge/flowforge/pkg/models"
)

// Stage names the phase of the diff state machine a result refers to.
type Stage string

const (
	StageRequestValidation    Stage = "request_validation"
	StageOperationApplication Stage = "operation_application"
	StageFinalValidation      Stage = "final_validation"
)

// RequestShapeError rejects a malformed request before any graph is touched.
// Its operation index is always models.GlobalIndex.
type RequestShapeError struct {
	Message string
	Hint    string
}

func (e *RequestShapeError) Error() string {
	return e.Message
}

// OperationError rejects one locally invalid operation; the whole diff is
// abandoned and Index reports which operation failed.
type OperationError struct {
	Index   int
	Type    models.OperationType
	Message string
	Hint    string
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("operation %d (%s): %s", e.Index, e.Type, e.Message)
}

// FinalValidationError means every operation was locally valid but the fully
// mutated graph is globally inconsistent. It carries no operation index;
// the offending state may have been produced by several operations together.
type FinalValidationError struct {
	Issues []*models.ValidationIssue
}

func (e *FinalValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "final validation failed"
	}

	return fmt.Sprintf("final validation failed: %s", e.Issues[0].Message)
}
