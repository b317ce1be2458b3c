package engine

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowforge/flowforge/pkg/models"
	"github.com/flowforge/flowforge/pkg/retry"
	"github.com/flowforge/flowforge/pkg/store"
)

func fastPolicy() retry.Policy {
	return retry.Policy{
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
		MaxAttempts:     3,
	}
}

func TestStore_Get(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/workflows/wf-1", r.URL.Path)

		json.NewEncoder(w).Encode(models.WorkflowGraph{Name: "Notify"})
	}))
	defer server.Close()

	s := NewStore(server.URL, WithRetryPolicy(fastPolicy()))

	graph, err := s.Get(context.Background(), "wf-1")
	require.NoError(t, err)
	assert.Equal(t, "Notify", graph.Name)
}

func TestStore_GetMissingWorkflow(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	s := NewStore(server.URL, WithRetryPolicy(fastPolicy()))

	_, err := s.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, store.IsNotFound(err))
	assert.Equal(t, int32(1), calls.Load(), "not-found must not be retried")
}

func TestStore_GetRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)

			return
		}

		json.NewEncoder(w).Encode(models.WorkflowGraph{Name: "Eventually"})
	}))
	defer server.Close()

	s := NewStore(server.URL, WithRetryPolicy(fastPolicy()))

	graph, err := s.Get(context.Background(), "wf-1")
	require.NoError(t, err)
	assert.Equal(t, "Eventually", graph.Name)
	assert.Equal(t, int32(2), calls.Load())
}

func TestStore_CreateAndUpdate(t *testing.T) {
	var sawCreate, sawUpdate bool

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var graph models.WorkflowGraph
		require.NoError(t, json.NewDecoder(r.Body).Decode(&graph))
		assert.Equal(t, "Notify", graph.Name)

		switch r.Method {
		case http.MethodPost:
			sawCreate = true
			w.WriteHeader(http.StatusCreated)
		case http.MethodPut:
			sawUpdate = true
		default:
			t.Errorf("unexpected method %s", r.Method)
		}
	}))
	defer server.Close()

	s := NewStore(server.URL, WithRetryPolicy(fastPolicy()))
	graph := &models.WorkflowGraph{Name: "Notify"}

	require.NoError(t, s.Create(context.Background(), "wf-1", graph))
	require.NoError(t, s.Update(context.Background(), "wf-1", graph))
	assert.True(t, sawCreate)
	assert.True(t, sawUpdate)
}

func TestStore_CreateConflict(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))
	defer server.Close()

	s := NewStore(server.URL, WithRetryPolicy(fastPolicy()))

	err := s.Create(context.Background(), "wf-1", &models.WorkflowGraph{Name: "Dup"})
	assert.ErrorIs(t, err, store.ErrWorkflowAlreadyExists)
}

func TestStore_Delete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	s := NewStore(server.URL, WithRetryPolicy(fastPolicy()))
	assert.NoError(t, s.Delete(context.Background(), "wf-1"))
}

func TestStore_Execute(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/workflows/wf-1/execute", r.URL.Path)
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(store.ExecutionResult{ExecutionID: "exec-9", Status: "running"})
	}))
	defer server.Close()

	s := NewStore(server.URL, WithRetryPolicy(fastPolicy()))

	result, err := s.Execute(context.Background(), "wf-1")
	require.NoError(t, err)
	assert.Equal(t, "exec-9", result.ExecutionID)
	assert.Equal(t, "running", result.Status)
}

func TestStore_HealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)

			return
		}

		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	s := NewStore(server.URL, WithRetryPolicy(fastPolicy()))
	assert.NoError(t, s.HealthCheck(context.Background()))
}
