// Package validation implements full-graph structural validation, usable
// standalone or as the final stage of the diff engine.
package validation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/flowforge/flowforge/pkg/catalog"
	"github.com/flowforge/flowforge/pkg/models"
	"github.com/xeipuuv/gojsonschema"
)

// Profile selects how hard the validator pushes back.
type Profile string

const (
	// ProfileDefault is the working-copy profile: structural problems are
	// errors, style problems are warnings.
	ProfileDefault Profile = "default"

	// ProfileStrict is the pre-activation profile: bare type names become
	// errors, a trigger node is required, orphans are flagged and node
	// parameters are checked against their catalog schema.
	ProfileStrict Profile = "strict"
)

// Options tunes a single Validate call.
type Options struct {
	Profile Profile
}

// Validator checks workflow graphs. The catalog is optional; when present it
// powers canonical-form suggestions and strict parameter checks.
type Validator struct {
	catalog catalog.Catalog
}

// New builds a validator. A nil catalog disables catalog-backed checks.
func New(cat catalog.Catalog) *Validator {
	return &Validator{catalog: cat}
}

// Validate runs every check against the graph and returns the collected
// errors, warnings and suggestions together with graph statistics. It never
// mutates the graph.
func (v *Validator) Validate(ctx context.Context, graph *models.WorkflowGraph, opts Options) *models.ValidationResult {
	result := models.NewValidationResult()

	if opts.Profile == "" {
		opts.Profile = ProfileDefault
	}

	if graph == nil {
		result.AddError(&models.ValidationIssue{
			Code:           "missing_workflow",
			Message:        "workflow graph is required",
			OperationIndex: models.GlobalIndex,
		})

		return result
	}

	if len(graph.Nodes) == 0 {
		result.AddError(&models.ValidationIssue{
			Code:           "empty_workflow",
			Message:        "workflow must contain at least one node",
			OperationIndex: models.GlobalIndex,
			Hint:           "add a trigger node to get started",
		})
	}

	v.checkNodes(ctx, graph, opts, result)
	v.checkConnections(graph, result)

	if opts.Profile == ProfileStrict {
		v.checkStrict(ctx, graph, result)
	}

	result.Statistics = v.statistics(ctx, graph)

	return result
}

func (v *Validator) checkNodes(ctx context.Context, graph *models.WorkflowGraph, opts Options, result *models.ValidationResult) {
	seen := make(map[string]bool, len(graph.Nodes))

	for _, node := range graph.Nodes {
		if node.Name == "" {
			result.AddError(&models.ValidationIssue{
				Code:           "missing_node_name",
				Message:        "node has no name",
				OperationIndex: models.GlobalIndex,
				Hint:           "every node needs a unique, non-empty name",
			})

			continue
		}

		if seen[node.Name] {
			result.AddError(&models.ValidationIssue{
				Code:           "duplicate_node_name",
				Message:        fmt.Sprintf("node with name %q appears more than once", node.Name),
				OperationIndex: models.GlobalIndex,
				NodeName:       node.Name,
				Hint:           "node names must be unique within a workflow",
			})
		}

		seen[node.Name] = true

		if node.Type == "" {
			result.AddError(&models.ValidationIssue{
				Code:           "missing_node_type",
				Message:        fmt.Sprintf("node %q has no type", node.Name),
				OperationIndex: models.GlobalIndex,
				NodeName:       node.Name,
			})

			continue
		}

		if node.TypeVersion < 0 {
			result.AddError(&models.ValidationIssue{
				Code:           "invalid_type_version",
				Message:        fmt.Sprintf("node %q has a negative type version", node.Name),
				OperationIndex: models.GlobalIndex,
				NodeName:       node.Name,
			})
		}

		v.checkNamespace(ctx, node, opts, result)
	}
}

// checkNamespace flags bare, non-namespace-qualified type names. In the
// default profile this is a warning with a canonical suggestion when the
// catalog knows the type; strict makes it a hard error.
func (v *Validator) checkNamespace(ctx context.Context, node *models.Node, opts Options, result *models.ValidationResult) {
	if strings.Contains(node.Type, ".") {
		return
	}

	issue := &models.ValidationIssue{
		Code:           "bare_node_type",
		Message:        fmt.Sprintf("node %q uses bare type %q instead of a namespace-qualified type", node.Name, node.Type),
		OperationIndex: models.GlobalIndex,
		NodeName:       node.Name,
	}

	if v.catalog != nil {
		if entry, err := v.catalog.Lookup(ctx, node.Type); err == nil && entry != nil {
			issue.Hint = fmt.Sprintf("did you mean %q?", entry.CanonicalType)
			result.AddSuggestion(&models.ValidationIssue{
				Code:           "canonical_node_type",
				Message:        fmt.Sprintf("replace type %q of node %q with %q", node.Type, node.Name, entry.CanonicalType),
				OperationIndex: models.GlobalIndex,
				NodeName:       node.Name,
			})
		}
	}

	if opts.Profile == ProfileStrict {
		result.AddError(issue)
	} else {
		result.AddWarning(issue)
	}
}

func (v *Validator) checkConnections(graph *models.WorkflowGraph, result *models.ValidationResult) {
	for source, connections := range graph.Connections {
		if !graph.HasNode(source) {
			result.AddError(&models.ValidationIssue{
				Code:           "unknown_source_node",
				Message:        fmt.Sprintf("connection from unknown source node %q", source),
				OperationIndex: models.GlobalIndex,
				NodeName:       source,
				Hint:           "remove the connection or add the missing node first",
			})
		}

		for _, connection := range connections {
			for _, target := range connection.Targets {
				if !graph.HasNode(target.Node) {
					result.AddError(&models.ValidationIssue{
						Code:           "unknown_target_node",
						Message:        fmt.Sprintf("connection from %s to unknown target node %s", source, target.Node),
						OperationIndex: models.GlobalIndex,
						NodeName:       target.Node,
						Hint:           "remove the connection or add the missing node first",
					})
				}
			}
		}
	}
}

func (v *Validator) checkStrict(ctx context.Context, graph *models.WorkflowGraph, result *models.ValidationResult) {
	hasTrigger := false
	inbound := make(map[string]bool)
	outbound := make(map[string]bool)

	for source, connections := range graph.Connections {
		for _, connection := range connections {
			for _, target := range connection.Targets {
				outbound[source] = true
				inbound[target.Node] = true
			}
		}
	}

	for _, node := range graph.Nodes {
		isTrigger := v.isTrigger(ctx, node.Type)
		if isTrigger {
			hasTrigger = true
		}

		if !isTrigger && !inbound[node.Name] && !outbound[node.Name] {
			result.AddWarning(&models.ValidationIssue{
				Code:           "orphaned_node",
				Message:        fmt.Sprintf("node %q has no inbound or outbound connections", node.Name),
				OperationIndex: models.GlobalIndex,
				NodeName:       node.Name,
				Hint:           "connect the node or remove it before activating the workflow",
			})
		}

		v.checkParameters(ctx, node, result)
	}

	if len(graph.Nodes) > 0 && !hasTrigger {
		result.AddError(&models.ValidationIssue{
			Code:           "missing_trigger",
			Message:        "workflow has no trigger node",
			OperationIndex: models.GlobalIndex,
			Hint:           "add a trigger node so the workflow can be activated",
		})
	}
}

// checkParameters validates node parameters against the catalog's JSON
// schema for the type, when both are available.
func (v *Validator) checkParameters(ctx context.Context, node *models.Node, result *models.ValidationResult) {
	if v.catalog == nil {
		return
	}

	entry, err := v.catalog.Lookup(ctx, node.Type)
	if err != nil || entry == nil || entry.ParameterSchema == nil {
		return
	}

	parameters := node.Parameters
	if parameters == nil {
		parameters = map[string]any{}
	}

	schemaJSON, err := json.Marshal(entry.ParameterSchema)
	if err != nil {
		return
	}

	documentJSON, err := json.Marshal(parameters)
	if err != nil {
		return
	}

	outcome, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaJSON),
		gojsonschema.NewBytesLoader(documentJSON),
	)
	if err != nil {
		return
	}

	for _, violation := range outcome.Errors() {
		result.AddError(&models.ValidationIssue{
			Code:           "invalid_node_parameters",
			Message:        fmt.Sprintf("node %q: %s", node.Name, violation.String()),
			OperationIndex: models.GlobalIndex,
			NodeName:       node.Name,
			Hint:           "check the node's parameter schema in the catalog",
		})
	}
}

func (v *Validator) isTrigger(ctx context.Context, nodeType string) bool {
	if v.catalog != nil {
		if entry, err := v.catalog.Lookup(ctx, nodeType); err == nil && entry != nil {
			return entry.IsTrigger()
		}
	}

	return strings.Contains(strings.ToLower(nodeType), "trigger")
}

func (v *Validator) statistics(ctx context.Context, graph *models.WorkflowGraph) *models.GraphStatistics {
	stats := &models.GraphStatistics{NodeCount: len(graph.Nodes)}

	for _, node := range graph.Nodes {
		if node.Disabled {
			stats.DisabledCount++
		}

		if v.isTrigger(ctx, node.Type) {
			stats.TriggerCount++
		}
	}

	for _, connections := range graph.Connections {
		for _, connection := range connections {
			stats.ConnectionCount += len(connection.Targets)
		}
	}

	return stats
}
