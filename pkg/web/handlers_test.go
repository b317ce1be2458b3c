package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowforge/flowforge/pkg/catalog"
	"github.com/flowforge/flowforge/pkg/diff"
	"github.com/flowforge/flowforge/pkg/generator"
	"github.com/flowforge/flowforge/pkg/ledger"
	"github.com/flowforge/flowforge/pkg/models"
	"github.com/flowforge/flowforge/pkg/patterns"
	"github.com/flowforge/flowforge/pkg/services"
	"github.com/flowforge/flowforge/pkg/store"
	filestore "github.com/flowforge/flowforge/pkg/store/file"
	"github.com/flowforge/flowforge/pkg/validation"
	"github.com/flowforge/flowforge/pkg/web"
)

func setupTestApp(t *testing.T) (*fiber.App, store.Store) {
	t.Helper()

	workflowStore, err := filestore.NewStore(t.TempDir())
	require.NoError(t, err)

	cat := catalog.NewDefaultStatic()
	matcher := patterns.NewDefaultMatcher()
	memory := ledger.NewMemory(0, nil)
	graphValidator := validation.New(cat)

	generation := services.NewGeneration(
		matcher,
		generator.New(cat, nil),
		graphValidator,
		nil,
		memory,
		nil,
		nil,
	)
	edit := services.NewEdit(workflowStore, diff.NewEngine(graphValidator, nil), memory, nil, nil)

	handlers := web.NewAPIHandlers(
		generation,
		edit,
		workflowStore,
		matcher,
		memory,
		validator.New(validator.WithRequiredStructEnabled()),
	)

	app := fiber.New()
	web.Register(app, handlers)

	return app, workflowStore
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader

	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	payload, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()

	return resp, payload
}

func TestGenerateWorkflow(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, body := doJSON(t, app, http.MethodPost, "/workflows/generate", web.GenerateWorkflowRequest{
		Goal: "send a slack notification when something changes",
	})

	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var response services.GenerateResponse
	require.NoError(t, json.Unmarshal(body, &response))
	assert.True(t, response.Success)
	assert.NotEmpty(t, response.WorkflowID)
	assert.NotEmpty(t, response.Graph.Nodes)
	assert.False(t, response.UsedFallback)
}

func TestGenerateWorkflow_MissingGoal(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, body := doJSON(t, app, http.MethodPost, "/workflows/generate", map[string]any{})

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "validation_error")
}

func TestWorkflowCRUD(t *testing.T) {
	app, _ := setupTestApp(t)

	graph := &models.WorkflowGraph{
		Name: "Notify",
		Nodes: []*models.Node{
			{Name: "Manual Trigger", Type: "pkg.manualTrigger", TypeVersion: 1},
		},
	}

	resp, _ := doJSON(t, app, http.MethodPost, "/workflows", web.CreateWorkflowRequest{ID: "wf-1", Graph: graph})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPost, "/workflows", web.CreateWorkflowRequest{ID: "wf-1", Graph: graph})
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, body := doJSON(t, app, http.MethodGet, "/workflows/wf-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var fetched models.WorkflowGraph
	require.NoError(t, json.Unmarshal(body, &fetched))
	assert.Equal(t, "Notify", fetched.Name)

	graph.Name = "Renamed"
	resp, _ = doJSON(t, app, http.MethodPatch, "/workflows/wf-1", graph)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodDelete, "/workflows/wf-1", nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodGet, "/workflows/wf-1", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestEditWorkflow_AppliesAndPersists(t *testing.T) {
	app, workflowStore := setupTestApp(t)

	require.NoError(t, workflowStore.Create(context.Background(), "wf-1", &models.WorkflowGraph{
		Name: "Notify",
		Nodes: []*models.Node{
			{Name: "Manual Trigger", Type: "pkg.manualTrigger", TypeVersion: 1},
		},
	}))

	request := diff.NewRequest("wf-1", &models.UpdateNameOperation{Name: "Notify Team"})

	resp, body := doJSON(t, app, http.MethodPost, "/workflows/wf-1/edit", web.EditWorkflowRequest{
		Operations: request.Operations,
	})

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result diff.Result
	require.NoError(t, json.Unmarshal(body, &result))
	assert.True(t, result.Success)
	assert.Equal(t, 1, result.AppliedCount)

	persisted, err := workflowStore.Get(context.Background(), "wf-1")
	require.NoError(t, err)
	assert.Equal(t, "Notify Team", persisted.Name)
}

func TestEditWorkflow_RejectionIs422(t *testing.T) {
	app, workflowStore := setupTestApp(t)

	require.NoError(t, workflowStore.Create(context.Background(), "wf-1", &models.WorkflowGraph{
		Name: "Notify",
		Nodes: []*models.Node{
			{Name: "Manual Trigger", Type: "pkg.manualTrigger", TypeVersion: 1},
		},
	}))

	request := diff.NewRequest("wf-1",
		&models.AddNodeOperation{Node: &models.Node{Name: "Manual Trigger", Type: "pkg.manualTrigger", TypeVersion: 1}},
	)

	resp, body := doJSON(t, app, http.MethodPost, "/workflows/wf-1/edit", web.EditWorkflowRequest{
		Operations: request.Operations,
	})

	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var rejection web.EditRejectionResponse
	require.NoError(t, json.Unmarshal(body, &rejection))
	assert.False(t, rejection.Success)
	assert.Equal(t, diff.StageOperationApplication, rejection.FailedStage)
	require.NotEmpty(t, rejection.Issues)
	assert.Equal(t, 0, rejection.Issues[0].OperationIndex)
}

func TestEditWorkflow_UnknownWorkflow(t *testing.T) {
	app, _ := setupTestApp(t)

	request := diff.NewRequest("ghost", &models.UpdateNameOperation{Name: "X"})

	resp, _ := doJSON(t, app, http.MethodPost, "/workflows/ghost/edit", web.EditWorkflowRequest{
		Operations: request.Operations,
	})

	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMatchPatterns(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, body := doJSON(t, app, http.MethodGet, "/patterns/match?goal=send+a+slack+notification", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var response web.MatchPatternsResponse
	require.NoError(t, json.Unmarshal(body, &response))
	require.NotEmpty(t, response.Matches)
	assert.Equal(t, "slack-notification", response.Matches[0].Pattern.ID)

	resp, _ = doJSON(t, app, http.MethodGet, "/patterns/match", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestQueryMemory(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, _ := doJSON(t, app, http.MethodPost, "/workflows/generate", web.GenerateWorkflowRequest{
		Goal: "send a slack notification",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := doJSON(t, app, http.MethodGet, "/memory?pattern=workflow_generation:*", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var response web.MemoryResponse
	require.NoError(t, json.Unmarshal(body, &response))
	assert.Equal(t, 1, response.Count)
	require.Len(t, response.Entries, 1)
	assert.Equal(t, models.MemoryEntryValidation, response.Entries[0].Type)

	resp, _ = doJSON(t, app, http.MethodGet, "/memory?max_age_hours=abc", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHealthCheck(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, body := doJSON(t, app, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "healthy")
}
