// Package testutil provides test data builders shared across package tests.
package testutil

import (
	"github.com/flowforge/flowforge/pkg/models"
)

// CreateTestNode builds a namespaced action node with defaults that can be
// overridden.
func CreateTestNode(overrides ...func(*models.Node)) *models.Node {
	node := &models.Node{
		Name:        "Test Node",
		Type:        "pkg.noOp",
		TypeVersion: 1,
		Parameters:  map[string]any{},
		Position:    [2]int{240, 300},
	}

	for _, override := range overrides {
		override(node)
	}

	return node
}

// WithTrigger configures the node as a trigger node.
func WithTrigger() func(*models.Node) {
	return func(n *models.Node) {
		n.Name = "Manual Trigger"
		n.Type = "pkg.manualTrigger"
	}
}

// WithName sets the node name.
func WithName(name string) func(*models.Node) {
	return func(n *models.Node) {
		n.Name = name
	}
}

// WithType sets the node type.
func WithType(nodeType string) func(*models.Node) {
	return func(n *models.Node) {
		n.Type = nodeType
	}
}

// WithParameters sets the node parameters.
func WithParameters(parameters map[string]any) func(*models.Node) {
	return func(n *models.Node) {
		n.Parameters = parameters
	}
}

// CreateTestGraph builds a two-node trigger→action graph wired on the main
// port, with additional nodes appended unconnected.
func CreateTestGraph(extra ...*models.Node) *models.WorkflowGraph {
	trigger := CreateTestNode(WithTrigger())
	action := CreateTestNode(WithName("Slack"), WithType("pkg.slack"))
	action.TypeVersion = 2

	graph := &models.WorkflowGraph{
		Name:  "Test Workflow",
		Nodes: []*models.Node{trigger, action},
		Connections: map[string][]*models.Connection{
			trigger.Name: {{
				Output:  models.DefaultOutputPort,
				Targets: []*models.ConnectionTarget{{Node: action.Name, Port: models.DefaultOutputPort}},
			}},
		},
		Settings: map[string]any{},
	}

	graph.Nodes = append(graph.Nodes, extra...)

	return graph
}
