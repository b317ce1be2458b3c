package diff

import (
	"fmt"
	"slices"

	"github.com/flowforge/flowforge/pkg/models"
)

// opFailure is an operation-local rejection; the engine attaches the request
// index before handing it to the caller.
type opFailure struct {
	message string
	hint    string
}

func failf(hint, format string, args ...any) *opFailure {
	return &opFailure{message: fmt.Sprintf(format, args...), hint: hint}
}

// applyOperation mutates the working copy with a single operation, checking
// it against the copy's current state. The switch is exhaustive over the
// closed operation union.
func applyOperation(working *models.WorkflowGraph, op models.Operation) *opFailure {
	switch typed := op.(type) {
	case *models.AddNodeOperation:
		return applyAddNode(working, typed)
	case *models.RemoveNodeOperation:
		return applyRemoveNode(working, typed)
	case *models.UpdateNodeOperation:
		return applyUpdateNode(working, typed)
	case *models.MoveNodeOperation:
		return applyMoveNode(working, typed)
	case *models.EnableNodeOperation:
		return applySetDisabled(working, typed.Name, false)
	case *models.DisableNodeOperation:
		return applySetDisabled(working, typed.Name, true)
	case *models.AddConnectionOperation:
		return applyAddConnection(working, typed)
	case *models.RemoveConnectionOperation:
		return applyRemoveConnection(working, typed)
	case *models.UpdateConnectionOperation:
		return applyUpdateConnection(working, typed)
	case *models.UpdateSettingsOperation:
		return applyUpdateSettings(working, typed)
	case *models.UpdateNameOperation:
		return applyUpdateName(working, typed)
	case *models.AddTagOperation:
		return applyAddTag(working, typed)
	case *models.RemoveTagOperation:
		return applyRemoveTag(working, typed)
	default:
		return failf("", "unsupported operation type %q", op.OperationType())
	}
}

func applyAddNode(working *models.WorkflowGraph, op *models.AddNodeOperation) *opFailure {
	if op.Node == nil {
		return failf("provide the node to add", "addNode requires a node payload")
	}

	if op.Node.Name == "" {
		return failf("every node needs a non-empty name", "node name is required")
	}

	if op.Node.Type == "" {
		return failf("every node needs a type", "node %q has no type", op.Node.Name)
	}

	if working.HasNode(op.Node.Name) {
		return failf(
			"choose a different name or remove it first",
			"node with name %q already exists", op.Node.Name,
		)
	}

	working.Nodes = append(working.Nodes, op.Node.Clone())

	return nil
}

// applyRemoveNode deletes the node only. Connections referencing it are
// deliberately left alone so the final validation stage can reject requests
// that remove a node without also removing its edges.
func applyRemoveNode(working *models.WorkflowGraph, op *models.RemoveNodeOperation) *opFailure {
	for i, node := range working.Nodes {
		if node.Name == op.Name {
			working.Nodes = slices.Delete(working.Nodes, i, i+1)

			return nil
		}
	}

	return failf("check the node name", "node with name %q does not exist", op.Name)
}

func applyUpdateNode(working *models.WorkflowGraph, op *models.UpdateNodeOperation) *opFailure {
	node := working.NodeByName(op.Name)
	if node == nil {
		return failf("check the node name", "node with name %q does not exist", op.Name)
	}

	if op.Parameters != nil {
		if node.Parameters == nil {
			node.Parameters = make(map[string]any, len(op.Parameters))
		}

		for key, value := range op.Parameters {
			node.Parameters[key] = value
		}
	}

	if op.TypeVersion != nil {
		if *op.TypeVersion < 0 {
			return failf("type versions are non-negative", "invalid type version %d for node %q", *op.TypeVersion, op.Name)
		}

		node.TypeVersion = *op.TypeVersion
	}

	return nil
}

func applyMoveNode(working *models.WorkflowGraph, op *models.MoveNodeOperation) *opFailure {
	node := working.NodeByName(op.Name)
	if node == nil {
		return failf("check the node name", "node with name %q does not exist", op.Name)
	}

	node.Position = op.Position

	return nil
}

func applySetDisabled(working *models.WorkflowGraph, name string, disabled bool) *opFailure {
	node := working.NodeByName(name)
	if node == nil {
		return failf("check the node name", "node with name %q does not exist", name)
	}

	node.Disabled = disabled

	return nil
}

func applyAddConnection(working *models.WorkflowGraph, op *models.AddConnectionOperation) *opFailure {
	if !working.HasNode(op.Source) {
		return failf("add the source node first", "source node %q does not exist", op.Source)
	}

	if !working.HasNode(op.Target) {
		return failf("add the target node first", "target node %q does not exist", op.Target)
	}

	output := portOrDefault(op.Output)
	targetPort := portOrDefault(op.TargetPort)

	if working.Connections == nil {
		working.Connections = make(map[string][]*models.Connection)
	}

	connection := connectionForOutput(working, op.Source, output)
	if connection == nil {
		connection = &models.Connection{Output: output}
		working.Connections[op.Source] = append(working.Connections[op.Source], connection)
	}

	for _, target := range connection.Targets {
		if target.Node == op.Target && target.Port == targetPort {
			return failf(
				"remove the existing connection first",
				"connection from %q to %q already exists on output %q", op.Source, op.Target, output,
			)
		}
	}

	connection.Targets = append(connection.Targets, &models.ConnectionTarget{
		Node: op.Target,
		Port: targetPort,
	})

	return nil
}

func applyRemoveConnection(working *models.WorkflowGraph, op *models.RemoveConnectionOperation) *opFailure {
	output := portOrDefault(op.Output)
	targetPort := portOrDefault(op.TargetPort)

	connection := connectionForOutput(working, op.Source, output)
	if connection != nil {
		for i, target := range connection.Targets {
			if target.Node == op.Target && (op.TargetPort == "" || target.Port == targetPort) {
				connection.Targets = slices.Delete(connection.Targets, i, i+1)
				pruneConnections(working, op.Source)

				return nil
			}
		}
	}

	return failf(
		"check the source, target and output port",
		"no connection from %q to %q on output %q", op.Source, op.Target, output,
	)
}

func applyUpdateConnection(working *models.WorkflowGraph, op *models.UpdateConnectionOperation) *opFailure {
	if !working.HasNode(op.Source) {
		return failf("add the source node first", "source node %q does not exist", op.Source)
	}

	for _, target := range op.Targets {
		if !working.HasNode(target.Node) {
			return failf("add the target node first", "target node %q does not exist", target.Node)
		}
	}

	output := portOrDefault(op.Output)

	targets := make([]*models.ConnectionTarget, 0, len(op.Targets))
	for _, target := range op.Targets {
		targets = append(targets, &models.ConnectionTarget{
			Node: target.Node,
			Port: portOrDefault(target.Port),
		})
	}

	connection := connectionForOutput(working, op.Source, output)

	switch {
	case connection != nil:
		connection.Targets = targets
		pruneConnections(working, op.Source)
	case len(targets) > 0:
		if working.Connections == nil {
			working.Connections = make(map[string][]*models.Connection)
		}

		working.Connections[op.Source] = append(working.Connections[op.Source], &models.Connection{
			Output:  output,
			Targets: targets,
		})
	}

	return nil
}

func applyUpdateSettings(working *models.WorkflowGraph, op *models.UpdateSettingsOperation) *opFailure {
	if op.Settings == nil {
		return failf("provide the settings to merge", "updateSettings requires a settings payload")
	}

	if working.Settings == nil {
		working.Settings = make(map[string]any, len(op.Settings))
	}

	for key, value := range op.Settings {
		working.Settings[key] = value
	}

	return nil
}

func applyUpdateName(working *models.WorkflowGraph, op *models.UpdateNameOperation) *opFailure {
	if op.Name == "" {
		return failf("workflow names are non-empty", "workflow name is required")
	}

	working.Name = op.Name

	return nil
}

func applyAddTag(working *models.WorkflowGraph, op *models.AddTagOperation) *opFailure {
	if op.Tag == "" {
		return failf("tags are non-empty", "tag is required")
	}

	if !slices.Contains(working.Tags, op.Tag) {
		working.Tags = append(working.Tags, op.Tag)
	}

	return nil
}

func applyRemoveTag(working *models.WorkflowGraph, op *models.RemoveTagOperation) *opFailure {
	if op.Tag == "" {
		return failf("tags are non-empty", "tag is required")
	}

	if i := slices.Index(working.Tags, op.Tag); i >= 0 {
		working.Tags = slices.Delete(working.Tags, i, i+1)
	}

	return nil
}

func portOrDefault(port string) string {
	if port == "" {
		return models.DefaultOutputPort
	}

	return port
}

func connectionForOutput(working *models.WorkflowGraph, source, output string) *models.Connection {
	for _, connection := range working.Connections[source] {
		if connection.Output == output {
			return connection
		}
	}

	return nil
}

// pruneConnections drops empty port entries and the source key itself once
// nothing hangs off it, keeping the connection map canonical.
func pruneConnections(working *models.WorkflowGraph, source string) {
	connections := working.Connections[source]

	kept := connections[:0]
	for _, connection := range connections {
		if len(connection.Targets) > 0 {
			kept = append(kept, connection)
		}
	}

	if len(kept) == 0 {
		delete(working.Connections, source)

		return
	}

	working.Connections[source] = kept
}
