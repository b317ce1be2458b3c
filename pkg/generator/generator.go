// Package generator builds workflow graphs from matched patterns. Generation
// is total: when no pattern applies it falls back to a minimal two-node
// skeleton rather than failing.
package generator

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/flowforge/flowforge/pkg/catalog"
	"github.com/flowforge/flowforge/pkg/log"
	"github.com/flowforge/flowforge/pkg/models"
)

const (
	// FallbackWorkflowName names graphs generated without a matched pattern.
	FallbackWorkflowName = "Generated Workflow"

	fallbackTriggerType = "pkg.manualTrigger"
	fallbackActionType  = "pkg.noOp"

	layoutStartX = 240
	layoutStepX  = 220
	layoutY      = 300
)

// Generator assembles complete workflow graphs. Node metadata (display
// names, type versions) comes from the catalog when available.
type Generator struct {
	catalog catalog.Catalog
	logger  *slog.Logger
}

// New creates a generator. The catalog may be nil; generation then falls
// back to type-derived names and version 1.
func New(cat catalog.Catalog, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = log.WithModule("generator")
	}

	return &Generator{catalog: cat, logger: logger}
}

// Generate builds a graph for the goal. The pattern supplies the node types;
// insights may reorder them by relevance and append compatible types. With a
// nil pattern the fallback skeleton (manual trigger plus one default action)
// is produced. Generate never fails.
func (g *Generator) Generate(ctx context.Context, goal string, pattern *models.Pattern, insights *models.Insights) *models.WorkflowGraph {
	name := FallbackWorkflowName

	var nodeTypes []string
	var tags []string

	if pattern != nil {
		name = pattern.Name
		nodeTypes = append(nodeTypes, pattern.SuggestedNodeTypes...)
		tags = []string{pattern.ID}
	} else {
		nodeTypes = []string{fallbackTriggerType, fallbackActionType}
		g.logger.DebugContext(ctx, "no pattern matched, using fallback skeleton", "goal", goal)
	}

	nodeTypes = applyInsights(nodeTypes, insights)

	graph := &models.WorkflowGraph{
		Name:        name,
		Connections: map[string][]*models.Connection{},
		Settings:    map[string]any{},
		Tags:        tags,
	}

	seen := map[string]int{}
	for i, nodeType := range nodeTypes {
		graph.Nodes = append(graph.Nodes, g.buildNode(ctx, nodeType, i, seen))
	}

	chainNodes(graph)

	g.logger.DebugContext(ctx, "generated workflow graph",
		"goal", goal, "name", name, "nodes", len(graph.Nodes))

	return graph
}

// buildNode constructs one node, resolving display name and type version
// through the catalog and disambiguating duplicate names with a numeric
// suffix.
func (g *Generator) buildNode(ctx context.Context, nodeType string, index int, seen map[string]int) *models.Node {
	name := displayName(nodeType)
	version := 1

	if g.catalog != nil {
		if entry, err := g.catalog.Lookup(ctx, nodeType); err == nil && entry != nil {
			name = entry.DisplayName
			if entry.DefaultTypeVersion > 0 {
				version = entry.DefaultTypeVersion
			}
		}
	}

	seen[name]++
	if seen[name] > 1 {
		name = fmt.Sprintf("%s %d", name, seen[name])
	}

	return &models.Node{
		Name:        name,
		Type:        nodeType,
		TypeVersion: version,
		Parameters:  map[string]any{},
		Position:    [2]int{layoutStartX + layoutStepX*index, layoutY},
	}
}

// chainNodes wires each node's main output to the next node's main input in
// declaration order.
func chainNodes(graph *models.WorkflowGraph) {
	for i := 0; i+1 < len(graph.Nodes); i++ {
		source := graph.Nodes[i].Name
		graph.Connections[source] = []*models.Connection{{
			Output: models.DefaultOutputPort,
			Targets: []*models.ConnectionTarget{{
				Node: graph.Nodes[i+1].Name,
				Port: models.DefaultOutputPort,
			}},
		}}
	}
}

// applyInsights reorders the node types by insight score (stable, highest
// first) and appends types the insight edges mark as compatible with an
// already-selected type. Name uniqueness is preserved downstream.
func applyInsights(nodeTypes []string, insights *models.Insights) []string {
	if insights == nil {
		return nodeTypes
	}

	scores := map[string]float64{}
	for _, node := range insights.Nodes {
		scores[node.Type] = node.Score
	}

	ordered := make([]string, len(nodeTypes))
	copy(ordered, nodeTypes)

	if len(scores) > 0 {
		sort.SliceStable(ordered, func(i, j int) bool {
			return scores[ordered[i]] > scores[ordered[j]]
		})
	}

	present := map[string]bool{}
	for _, nodeType := range ordered {
		present[nodeType] = true
	}

	for _, edge := range insights.Edges {
		if present[edge.From] && !present[edge.To] && edge.To != "" {
			ordered = append(ordered, edge.To)
			present[edge.To] = true
		}
	}

	return ordered
}

// displayName derives a readable node name from a namespaced type, e.g.
// "pkg.httpRequest" becomes "Http Request".
func displayName(nodeType string) string {
	base := nodeType
	if idx := strings.LastIndex(base, "."); idx >= 0 {
		base = base[idx+1:]
	}

	if base == "" {
		return "Node"
	}

	var b strings.Builder
	for i, r := range base {
		if i == 0 {
			b.WriteRune(toUpper(r))

			continue
		}

		if r >= 'A' && r <= 'Z' {
			b.WriteByte(' ')
		}

		b.WriteRune(r)
	}

	return b.String()
}

func toUpper(r rune) rune {
	if r >= 'a' && r <= 'z' {
		return r - ('a' - 'A')
	}

	return r
}
