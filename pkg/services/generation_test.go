package services

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowforge/flowforge/pkg/catalog"
	"github.com/flowforge/flowforge/pkg/channels/gochannel"
	"github.com/flowforge/flowforge/pkg/eventbus"
	"github.com/flowforge/flowforge/pkg/events"
	"github.com/flowforge/flowforge/pkg/generator"
	"github.com/flowforge/flowforge/pkg/insight"
	"github.com/flowforge/flowforge/pkg/ledger"
	"github.com/flowforge/flowforge/pkg/models"
	"github.com/flowforge/flowforge/pkg/patterns"
	"github.com/flowforge/flowforge/pkg/retry"
	"github.com/flowforge/flowforge/pkg/validation"
)

type stubInsight struct {
	insights *models.Insights
	err      error
	calls    int
}

func (s *stubInsight) Query(_ context.Context, _ string) (*models.Insights, error) {
	s.calls++

	return s.insights, s.err
}

var _ insight.Client = (*stubInsight)(nil)

func newGeneration(t *testing.T, insightClient insight.Client, bus eventbus.EventBus) (*Generation, *ledger.Memory) {
	t.Helper()

	cat := catalog.NewDefaultStatic()
	memory := ledger.NewMemory(0, nil)

	return NewGeneration(
		patterns.NewDefaultMatcher(),
		generator.New(cat, nil),
		validation.New(cat),
		insightClient,
		memory,
		bus,
		nil,
	), memory
}

func TestGeneration_Generate(t *testing.T) {
	ctx := context.Background()
	svc, memory := newGeneration(t, nil, nil)

	response, err := svc.Generate(ctx, GenerateRequest{Goal: "send a slack notification when something changes"})

	require.NoError(t, err)
	assert.True(t, response.Success)
	assert.False(t, response.UsedFallback)
	assert.NotEmpty(t, response.WorkflowID)
	require.NotEmpty(t, response.Matches)
	assert.Equal(t, "slack-notification", response.Matches[0].Pattern.ID)
	assert.NotEmpty(t, response.Graph.Nodes)
	assert.True(t, response.Validation.Valid)

	entries, err := memory.Query(ctx, "workflow_generation:*", ledger.QueryOptions{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.MemoryEntryValidation, entries[0].Type)
	assert.Equal(t, true, entries[0].Payload["valid"])
}

func TestGeneration_Generate_EmptyGoal(t *testing.T) {
	svc, _ := newGeneration(t, nil, nil)

	response, err := svc.Generate(context.Background(), GenerateRequest{Goal: "   "})

	require.Error(t, err)
	assert.Nil(t, response)
	assert.ErrorIs(t, err, ErrGoalRequired)
	assert.True(t, IsValidationError(err))
}

func TestGeneration_Generate_FallbackWhenNoPatternMatches(t *testing.T) {
	svc, _ := newGeneration(t, nil, nil)

	response, err := svc.Generate(context.Background(), GenerateRequest{Goal: "zzz qqq xyzzy"})

	require.NoError(t, err)
	assert.True(t, response.UsedFallback)
	assert.Empty(t, response.Matches)
	require.Len(t, response.Graph.Nodes, 2)
	assert.Equal(t, "pkg.manualTrigger", response.Graph.Nodes[0].Type)
	assert.True(t, response.Success)
}

func TestGeneration_Generate_DegradesWhenInsightsUnavailable(t *testing.T) {
	stub := &stubInsight{err: &retry.CollaboratorUnavailableError{Op: "insight.query"}}
	svc, _ := newGeneration(t, stub, nil)

	response, err := svc.Generate(context.Background(), GenerateRequest{Goal: "send a slack notification"})

	require.NoError(t, err)
	assert.False(t, response.UsedInsights)
	assert.False(t, response.UsedFallback)
	assert.Equal(t, 1, stub.calls)
}

func TestGeneration_Generate_AppliesInsights(t *testing.T) {
	stub := &stubInsight{insights: &models.Insights{
		Edges: []models.InsightEdge{{From: "pkg.slack", To: "pkg.emailSend", Weight: 0.8}},
	}}
	svc, _ := newGeneration(t, stub, nil)

	response, err := svc.Generate(context.Background(), GenerateRequest{Goal: "send a slack notification"})

	require.NoError(t, err)
	assert.True(t, response.UsedInsights)

	var types []string
	for _, node := range response.Graph.Nodes {
		types = append(types, node.Type)
	}

	assert.Contains(t, types, "pkg.emailSend")
}

func TestGeneration_Generate_PublishesOutcomeEvent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pub, sub, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)
	t.Cleanup(func() { _ = bus.Close() })

	received := make(chan events.Event, 1)
	require.NoError(t, bus.Subscribe(ctx, events.WorkflowGeneratedEvent, func(ctx context.Context, event events.Event) error {
		received <- event

		return nil
	}))

	svc, _ := newGeneration(t, nil, bus)

	response, err := svc.Generate(ctx, GenerateRequest{Goal: "send a slack notification"})
	require.NoError(t, err)

	select {
	case event := <-received:
		generated, ok := event.(*events.WorkflowGenerated)
		require.True(t, ok)
		assert.Equal(t, response.WorkflowID, generated.WorkflowID)
		assert.Equal(t, "slack-notification", generated.PatternID)
		assert.True(t, generated.Valid)
	case <-time.After(2 * time.Second):
		t.Fatal("generation event was not delivered")
	}
}
