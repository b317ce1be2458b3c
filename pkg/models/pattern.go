package models

// DefaultMinConfidence is the score below which a pattern match is discarded.
const DefaultMinConfidence = 0.2

// Pattern is a named, keyword-tagged template mapping a goal phrase to a
// suggested node set. Patterns are loaded once at startup and never modified
// at runtime.
type Pattern struct {
	ID                 string   `json:"id"                   validate:"required"`
	Name               string   `json:"name"                 validate:"required"`
	Keywords           []string `json:"keywords"             validate:"required,min=1"`
	SuggestedNodeTypes []string `json:"suggested_node_types" validate:"required,min=1"`
	MinConfidence      float64  `json:"min_confidence"`
}

// Threshold returns the pattern's confidence cutoff, falling back to the
// default when unset.
func (p *Pattern) Threshold() float64 {
	if p.MinConfidence > 0 {
		return p.MinConfidence
	}

	return DefaultMinConfidence
}

// PatternMatch pairs a pattern with the confidence it scored against a goal.
type PatternMatch struct {
	Pattern    *Pattern `json:"pattern"`
	Confidence float64  `json:"confidence"`
}

// Insights carries relationship data about node types sourced from the
// external graph-insight collaborator. Absence of insights is a valid,
// non-error state for the generation pipeline.
type Insights struct {
	Nodes []InsightNode `json:"nodes"`
	Edges []InsightEdge `json:"edges"`
}

// InsightNode describes a node type known to the insight backend.
type InsightNode struct {
	Type  string  `json:"type"`
	Score float64 `json:"score,omitempty"`
}

// InsightEdge is a directed compatibility relation between two node types.
type InsightEdge struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Weight float64 `json:"weight,omitempty"`
}
