package generator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowforge/flowforge/pkg/catalog"
	"github.com/flowforge/flowforge/pkg/models"
)

func slackPattern() *models.Pattern {
	return &models.Pattern{
		ID:                 "slack-notification",
		Name:               "Slack Notification",
		Keywords:           []string{"slack", "notification"},
		SuggestedNodeTypes: []string{"pkg.webhookTrigger", "pkg.slack"},
	}
}

func TestGenerate_FromPattern(t *testing.T) {
	gen := New(catalog.NewDefaultStatic(), nil)

	graph := gen.Generate(context.Background(), "send a slack notification", slackPattern(), nil)

	require.NotNil(t, graph)
	assert.Equal(t, "Slack Notification", graph.Name)
	assert.Equal(t, []string{"slack-notification"}, graph.Tags)
	require.Len(t, graph.Nodes, 2)

	trigger, action := graph.Nodes[0], graph.Nodes[1]
	assert.Equal(t, "Webhook Trigger", trigger.Name)
	assert.Equal(t, "pkg.webhookTrigger", trigger.Type)
	assert.Equal(t, 2, trigger.TypeVersion)
	assert.Equal(t, "Slack", action.Name)
	assert.Equal(t, 2, action.TypeVersion)

	assert.Less(t, trigger.Position[0], action.Position[0])
	assert.Equal(t, trigger.Position[1], action.Position[1])

	conns := graph.Connections["Webhook Trigger"]
	require.Len(t, conns, 1)
	assert.Equal(t, models.DefaultOutputPort, conns[0].Output)
	require.Len(t, conns[0].Targets, 1)
	assert.Equal(t, "Slack", conns[0].Targets[0].Node)
	assert.Empty(t, graph.Connections["Slack"])
}

func TestGenerate_FallbackWithoutPattern(t *testing.T) {
	gen := New(catalog.NewDefaultStatic(), nil)

	graph := gen.Generate(context.Background(), "do something nobody has a pattern for", nil, nil)

	require.NotNil(t, graph)
	assert.Equal(t, FallbackWorkflowName, graph.Name)
	require.Len(t, graph.Nodes, 2)
	assert.Equal(t, "pkg.manualTrigger", graph.Nodes[0].Type)
	assert.Equal(t, "pkg.noOp", graph.Nodes[1].Type)

	conns := graph.Connections[graph.Nodes[0].Name]
	require.Len(t, conns, 1)
	assert.Equal(t, graph.Nodes[1].Name, conns[0].Targets[0].Node)
}

func TestGenerate_DuplicateTypesGetNumericSuffixes(t *testing.T) {
	gen := New(catalog.NewDefaultStatic(), nil)
	pattern := &models.Pattern{
		ID:                 "double-request",
		Name:               "Double Request",
		Keywords:           []string{"request"},
		SuggestedNodeTypes: []string{"pkg.manualTrigger", "pkg.httpRequest", "pkg.httpRequest"},
	}

	graph := gen.Generate(context.Background(), "call two endpoints", pattern, nil)

	require.Len(t, graph.Nodes, 3)
	assert.Equal(t, "HTTP Request", graph.Nodes[1].Name)
	assert.Equal(t, "HTTP Request 2", graph.Nodes[2].Name)

	conns := graph.Connections["HTTP Request"]
	require.Len(t, conns, 1)
	assert.Equal(t, "HTTP Request 2", conns[0].Targets[0].Node)
}

func TestGenerate_UnknownTypesWithoutCatalog(t *testing.T) {
	gen := New(nil, nil)
	pattern := &models.Pattern{
		ID:                 "custom",
		Name:               "Custom",
		Keywords:           []string{"custom"},
		SuggestedNodeTypes: []string{"pkg.customThing"},
	}

	graph := gen.Generate(context.Background(), "custom", pattern, nil)

	require.Len(t, graph.Nodes, 1)
	assert.Equal(t, "Custom Thing", graph.Nodes[0].Name)
	assert.Equal(t, 1, graph.Nodes[0].TypeVersion)
}

func TestGenerate_InsightsReorderByScore(t *testing.T) {
	gen := New(catalog.NewDefaultStatic(), nil)
	pattern := &models.Pattern{
		ID:                 "sync",
		Name:               "Sync",
		Keywords:           []string{"sync"},
		SuggestedNodeTypes: []string{"pkg.set", "pkg.manualTrigger", "pkg.postgres"},
	}
	insights := &models.Insights{
		Nodes: []models.InsightNode{
			{Type: "pkg.manualTrigger", Score: 0.9},
			{Type: "pkg.set", Score: 0.4},
		},
	}

	graph := gen.Generate(context.Background(), "sync data", pattern, insights)

	require.Len(t, graph.Nodes, 3)
	assert.Equal(t, "pkg.manualTrigger", graph.Nodes[0].Type)
	assert.Equal(t, "pkg.set", graph.Nodes[1].Type)
	assert.Equal(t, "pkg.postgres", graph.Nodes[2].Type)
}

func TestGenerate_InsightsAppendCompatibleTypes(t *testing.T) {
	gen := New(catalog.NewDefaultStatic(), nil)
	insights := &models.Insights{
		Edges: []models.InsightEdge{
			{From: "pkg.slack", To: "pkg.emailSend", Weight: 0.8},
			{From: "pkg.slack", To: "pkg.webhookTrigger", Weight: 0.5}, // already present
			{From: "pkg.unrelated", To: "pkg.noOp", Weight: 0.9},       // source not selected
		},
	}

	graph := gen.Generate(context.Background(), "notify", slackPattern(), insights)

	require.Len(t, graph.Nodes, 3)
	assert.Equal(t, "pkg.emailSend", graph.Nodes[2].Type)
	assert.Equal(t, "Send Email", graph.Nodes[2].Name)

	conns := graph.Connections["Slack"]
	require.Len(t, conns, 1)
	assert.Equal(t, "Send Email", conns[0].Targets[0].Node)
}

func TestGenerate_Deterministic(t *testing.T) {
	gen := New(catalog.NewDefaultStatic(), nil)

	first := gen.Generate(context.Background(), "send a slack notification", slackPattern(), nil)
	second := gen.Generate(context.Background(), "send a slack notification", slackPattern(), nil)

	assert.Equal(t, first, second)
}
