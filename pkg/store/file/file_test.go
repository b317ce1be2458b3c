package file

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowforge/flowforge/pkg/models"
	"github.com/flowforge/flowforge/pkg/store"
)

func testGraph(name string) *models.WorkflowGraph {
	return &models.WorkflowGraph{
		Name: name,
		Nodes: []*models.Node{
			{Name: "Manual Trigger", Type: "pkg.manualTrigger", TypeVersion: 1, Position: [2]int{240, 300}},
			{Name: "Slack", Type: "pkg.slack", TypeVersion: 2, Position: [2]int{460, 300}},
		},
		Connections: map[string][]*models.Connection{
			"Manual Trigger": {{
				Output:  models.DefaultOutputPort,
				Targets: []*models.ConnectionTarget{{Node: "Slack", Port: models.DefaultOutputPort}},
			}},
		},
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := NewStore(t.TempDir())
	require.NoError(t, err)

	return s
}

func TestStore_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Create(ctx, "wf-1", testGraph("Notify")))

	graph, err := s.Get(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, "Notify", graph.Name)
	require.Len(t, graph.Nodes, 2)
	assert.Equal(t, "Slack", graph.Connections["Manual Trigger"][0].Targets[0].Node)
}

func TestStore_CreateRejectsDuplicateID(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Create(ctx, "wf-1", testGraph("First")))

	err := s.Create(ctx, "wf-1", testGraph("Second"))
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrWorkflowAlreadyExists)
}

func TestStore_GetMissingWorkflow(t *testing.T) {
	s := newTestStore(t)

	graph, err := s.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.Nil(t, graph)
	assert.True(t, store.IsNotFound(err))
}

func TestStore_UpdateRequiresExistingWorkflow(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	err := s.Update(ctx, "missing", testGraph("Renamed"))
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrWorkflowNotFound)

	require.NoError(t, s.Create(ctx, "wf-1", testGraph("Before")))
	require.NoError(t, s.Update(ctx, "wf-1", testGraph("After")))

	graph, err := s.Get(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, "After", graph.Name)
}

func TestStore_Delete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Create(ctx, "wf-1", testGraph("Gone")))
	require.NoError(t, s.Delete(ctx, "wf-1"))

	_, err := s.Get(ctx, "wf-1")
	assert.True(t, store.IsNotFound(err))

	err = s.Delete(ctx, "wf-1")
	assert.ErrorIs(t, err, store.ErrWorkflowNotFound)
}

func TestStore_ExecuteUnsupported(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.Execute(ctx, "missing")
	assert.True(t, store.IsNotFound(err))

	require.NoError(t, s.Create(ctx, "wf-1", testGraph("Run")))

	result, err := s.Execute(ctx, "wf-1")
	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, store.ErrExecuteUnsupported)
}

func TestStore_HealthCheck(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.HealthCheck(context.Background()))
}
