package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

// OperationType discriminates the closed set of edit operation kinds.
type OperationType string

const (
	OperationAddNode          OperationType = "addNode"
	OperationRemoveNode       OperationType = "removeNode"
	OperationUpdateNode       OperationType = "updateNode"
	OperationMoveNode         OperationType = "moveNode"
	OperationEnableNode       OperationType = "enableNode"
	OperationDisableNode      OperationType = "disableNode"
	OperationAddConnection    OperationType = "addConnection"
	OperationRemoveConnection OperationType = "removeConnection"
	OperationUpdateConnection OperationType = "updateConnection"
	OperationUpdateSettings   OperationType = "updateSettings"
	OperationUpdateName       OperationType = "updateName"
	OperationAddTag           OperationType = "addTag"
	OperationRemoveTag        OperationType = "removeTag"
)

// OperationTypes lists every recognized operation kind.
var OperationTypes = []OperationType{
	OperationAddNode,
	OperationRemoveNode,
	OperationUpdateNode,
	OperationMoveNode,
	OperationEnableNode,
	OperationDisableNode,
	OperationAddConnection,
	OperationRemoveConnection,
	OperationUpdateConnection,
	OperationUpdateSettings,
	OperationUpdateName,
	OperationAddTag,
	OperationRemoveTag,
}

// ErrUnknownOperationType is returned when an operation envelope names a type
// outside the closed set above.
var ErrUnknownOperationType = errors.New("unknown operation type")

// Operation is one atomic edit instruction against a workflow graph. The
// interface is sealed: the 13 concrete kinds in this package are the only
// implementations, so consumers can switch exhaustively.
type Operation interface {
	OperationType() OperationType

	isOperation()
}

// AddNodeOperation inserts a new node. The node name must not collide with an
// existing one.
type AddNodeOperation struct {
	Node *Node `json:"node" validate:"required"`
}

// RemoveNodeOperation deletes a node by name. Connections referencing the
// node are left in place and surface as final-validation errors if not
// removed in the same request.
type RemoveNodeOperation struct {
	Name string `json:"name" validate:"required"`
}

// UpdateNodeOperation replaces a node's parameters and, optionally, its type
// version.
type UpdateNodeOperation struct {
	Name        string         `json:"name" validate:"required"`
	Parameters  map[string]any `json:"parameters,omitempty"`
	TypeVersion *int           `json:"type_version,omitempty"`
}

// MoveNodeOperation repositions a node on the canvas.
type MoveNodeOperation struct {
	Name     string `json:"name" validate:"required"`
	Position [2]int `json:"position"`
}

// EnableNodeOperation clears a node's disabled flag.
type EnableNodeOperation struct {
	Name string `json:"name" validate:"required"`
}

// DisableNodeOperation sets a node's disabled flag.
type DisableNodeOperation struct {
	Name string `json:"name" validate:"required"`
}

// AddConnectionOperation appends a target to the source node's output port,
// creating the port entry when absent.
type AddConnectionOperation struct {
	Source     string `json:"source" validate:"required"`
	Output     string `json:"output"`
	Target     string `json:"target" validate:"required"`
	TargetPort string `json:"target_port"`
}

// RemoveConnectionOperation drops a target from the source node's output
// port.
type RemoveConnectionOperation struct {
	Source     string `json:"source" validate:"required"`
	Output     string `json:"output"`
	Target     string `json:"target" validate:"required"`
	TargetPort string `json:"target_port"`
}

// UpdateConnectionOperation replaces the full target list of the source
// node's output port.
type UpdateConnectionOperation struct {
	Source  string              `json:"source" validate:"required"`
	Output  string              `json:"output"`
	Targets []*ConnectionTarget `json:"targets"`
}

// UpdateSettingsOperation merges the given keys into the graph settings.
type UpdateSettingsOperation struct {
	Settings map[string]any `json:"settings" validate:"required"`
}

// UpdateNameOperation renames the workflow.
type UpdateNameOperation struct {
	Name string `json:"name" validate:"required"`
}

// AddTagOperation attaches a tag; adding an existing tag is a no-op.
type AddTagOperation struct {
	Tag string `json:"tag" validate:"required"`
}

// RemoveTagOperation detaches a tag.
type RemoveTagOperation struct {
	Tag string `json:"tag" validate:"required"`
}

func (*AddNodeOperation) OperationType() OperationType          { return OperationAddNode }
func (*RemoveNodeOperation) OperationType() OperationType       { return OperationRemoveNode }
func (*UpdateNodeOperation) OperationType() OperationType       { return OperationUpdateNode }
func (*MoveNodeOperation) OperationType() OperationType         { return OperationMoveNode }
func (*EnableNodeOperation) OperationType() OperationType       { return OperationEnableNode }
func (*DisableNodeOperation) OperationType() OperationType      { return OperationDisableNode }
func (*AddConnectionOperation) OperationType() OperationType    { return OperationAddConnection }
func (*RemoveConnectionOperation) OperationType() OperationType { return OperationRemoveConnection }
func (*UpdateConnectionOperation) OperationType() OperationType { return OperationUpdateConnection }
func (*UpdateSettingsOperation) OperationType() OperationType   { return OperationUpdateSettings }
func (*UpdateNameOperation) OperationType() OperationType       { return OperationUpdateName }
func (*AddTagOperation) OperationType() OperationType           { return OperationAddTag }
func (*RemoveTagOperation) OperationType() OperationType        { return OperationRemoveTag }

func (*AddNodeOperation) isOperation()          {}
func (*RemoveNodeOperation) isOperation()       {}
func (*UpdateNodeOperation) isOperation()       {}
func (*MoveNodeOperation) isOperation()         {}
func (*EnableNodeOperation) isOperation()       {}
func (*DisableNodeOperation) isOperation()      {}
func (*AddConnectionOperation) isOperation()    {}
func (*RemoveConnectionOperation) isOperation() {}
func (*UpdateConnectionOperation) isOperation() {}
func (*UpdateSettingsOperation) isOperation()   {}
func (*UpdateNameOperation) isOperation()       {}
func (*AddTagOperation) isOperation()           {}
func (*RemoveTagOperation) isOperation()        {}

type operationEnvelope struct {
	Type OperationType `json:"type"`
}

// DecodeOperation parses one wire operation of the form
// {"type": "...", ...kind-specific fields}. Unknown types are rejected with
// ErrUnknownOperationType.
func DecodeOperation(raw json.RawMessage) (Operation, error) {
	var envelope operationEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("malformed operation: %w", err)
	}

	var op Operation

	switch envelope.Type {
	case OperationAddNode:
		op = &AddNodeOperation{}
	case OperationRemoveNode:
		op = &RemoveNodeOperation{}
	case OperationUpdateNode:
		op = &UpdateNodeOperation{}
	case OperationMoveNode:
		op = &MoveNodeOperation{}
	case OperationEnableNode:
		op = &EnableNodeOperation{}
	case OperationDisableNode:
		op = &DisableNodeOperation{}
	case OperationAddConnection:
		op = &AddConnectionOperation{}
	case OperationRemoveConnection:
		op = &RemoveConnectionOperation{}
	case OperationUpdateConnection:
		op = &UpdateConnectionOperation{}
	case OperationUpdateSettings:
		op = &UpdateSettingsOperation{}
	case OperationUpdateName:
		op = &UpdateNameOperation{}
	case OperationAddTag:
		op = &AddTagOperation{}
	case OperationRemoveTag:
		op = &RemoveTagOperation{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownOperationType, envelope.Type)
	}

	if err := json.Unmarshal(raw, op); err != nil {
		return nil, fmt.Errorf("malformed %s operation: %w", envelope.Type, err)
	}

	return op, nil
}

// DecodeOperations parses an ordered wire operation list.
func DecodeOperations(raw []json.RawMessage) ([]Operation, error) {
	operations := make([]Operation, 0, len(raw))

	for i, item := range raw {
		op, err := DecodeOperation(item)
		if err != nil {
			return nil, fmt.Errorf("operation %d: %w", i, err)
		}

		operations = append(operations, op)
	}

	return operations, nil
}

// EncodeOperation renders an operation back to its wire envelope form.
func EncodeOperation(op Operation) (json.RawMessage, error) {
	body, err := json.Marshal(op)
	if err != nil {
		return nil, err
	}

	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}

	fields["type"] = op.OperationType()

	return json.Marshal(fields)
}
