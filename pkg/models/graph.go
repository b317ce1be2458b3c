// Package models defines the core domain models for node-based workflow automation
package models

// DefaultOutputPort is the main output port nodes are chained through when no
// explicit port is given.
const DefaultOutputPort = "main"

// Node represents a single step inside a workflow graph. Nodes are keyed by
// name, which must be unique within the owning graph.
type Node struct {
	Name        string         `json:"name"         validate:"required,min=1"`
	Type        string         `json:"type"         validate:"required"` // namespace-qualified, e.g. "pkg.httpRequest"
	TypeVersion int            `json:"type_version" validate:"min=0"`
	Parameters  map[string]any `json:"parameters,omitempty"`
	Position    [2]int         `json:"position"`
	Disabled    bool           `json:"disabled"`
}

// ConnectionTarget identifies the receiving end of a connection by node name,
// never by an internal id.
type ConnectionTarget struct {
	Node string `json:"node" validate:"required,min=1"`
	Port string `json:"port"`
}

// Connection fans one output port of a source node out to an ordered list of
// targets. The source node name is the key of WorkflowGraph.Connections.
type Connection struct {
	Output  string              `json:"output"`
	Targets []*ConnectionTarget `json:"targets"`
}

// WorkflowGraph is the unit the generator produces and the diff engine
// mutates. Node order is not significant; node names are unique.
type WorkflowGraph struct {
	Name        string                   `json:"name"     validate:"required,min=1"`
	Nodes       []*Node                  `json:"nodes"`
	Connections map[string][]*Connection `json:"connections,omitempty"`
	Settings    map[string]any           `json:"settings,omitempty"`
	Tags        []string                 `json:"tags,omitempty"`
}

// NodeByName returns the node with the given name, or nil.
func (g *WorkflowGraph) NodeByName(name string) *Node {
	for _, node := range g.Nodes {
		if node.Name == name {
			return node
		}
	}

	return nil
}

// HasNode reports whether a node with the given name exists.
func (g *WorkflowGraph) HasNode(name string) bool {
	return g.NodeByName(name) != nil
}

// NodeNames returns the set of node names currently in the graph.
func (g *WorkflowGraph) NodeNames() map[string]bool {
	names := make(map[string]bool, len(g.Nodes))
	for _, node := range g.Nodes {
		names[node.Name] = true
	}

	return names
}

// Clone returns a deep copy of the graph. The diff engine mutates clones
// only, so a failed edit never leaves a partially modified original behind.
func (g *WorkflowGraph) Clone() *WorkflowGraph {
	if g == nil {
		return nil
	}

	clone := &WorkflowGraph{
		Name:     g.Name,
		Settings: copyAnyMap(g.Settings),
	}

	if g.Nodes != nil {
		clone.Nodes = make([]*Node, 0, len(g.Nodes))
		for _, node := range g.Nodes {
			clone.Nodes = append(clone.Nodes, node.Clone())
		}
	}

	if g.Connections != nil {
		clone.Connections = make(map[string][]*Connection, len(g.Connections))
		for source, connections := range g.Connections {
			cloned := make([]*Connection, 0, len(connections))
			for _, connection := range connections {
				cloned = append(cloned, connection.Clone())
			}

			clone.Connections[source] = cloned
		}
	}

	if g.Tags != nil {
		clone.Tags = make([]string, len(g.Tags))
		copy(clone.Tags, g.Tags)
	}

	return clone
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}

	clone := *n
	clone.Parameters = copyAnyMap(n.Parameters)

	return &clone
}

// Clone returns a deep copy of the connection.
func (c *Connection) Clone() *Connection {
	if c == nil {
		return nil
	}

	clone := &Connection{Output: c.Output}
	if c.Targets != nil {
		clone.Targets = make([]*ConnectionTarget, 0, len(c.Targets))
		for _, target := range c.Targets {
			targetCopy := *target
			clone.Targets = append(clone.Targets, &targetCopy)
		}
	}

	return clone
}

// copyAnyMap deep-copies opaque parameter/settings maps. Values are limited
// to what JSON can carry, so maps, slices and scalars cover every case.
func copyAnyMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}

	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = copyAnyValue(value)
	}

	return out
}

func copyAnyValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		return copyAnyMap(typed)
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = copyAnyValue(item)
		}

		return out
	default:
		return typed
	}
}
