// Package engine implements store.Store against the remote automation
// engine's HTTP API. CRUD calls use the standard timeout class; Execute uses
// the slow class because the engine may run the workflow synchronously.
package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/flowforge/flowforge/pkg/log"
	"github.com/flowforge/flowforge/pkg/models"
	"github.com/flowforge/flowforge/pkg/retry"
	"github.com/flowforge/flowforge/pkg/store"
)

// Store is the HTTP client to the automation engine.
type Store struct {
	baseURL string
	client  *http.Client
	policy  retry.Policy
	logger  *slog.Logger
}

// Option customizes a Store.
type Option func(*Store)

// WithRetryPolicy overrides the default backoff schedule.
func WithRetryPolicy(policy retry.Policy) Option {
	return func(s *Store) { s.policy = policy }
}

// WithHTTPClient overrides the underlying transport.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Store) { s.client = client }
}

// NewStore creates an engine store for the API at baseURL.
func NewStore(baseURL string, opts ...Option) *Store {
	s := &Store{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: retry.StandardTimeout},
		policy:  retry.DefaultPolicy(),
		logger:  log.WithModule("store.engine"),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *Store) Get(ctx context.Context, id string) (*models.WorkflowGraph, error) {
	graph, err := retry.Do(ctx, s.policy, retry.ClassifyError, func(ctx context.Context) (*models.WorkflowGraph, error) {
		return s.fetch(ctx, id)
	})
	if err != nil {
		s.logger.WarnContext(ctx, "workflow fetch failed", "workflow_id", id, "error", err)

		return nil, wrap("get", id, err)
	}

	return graph, nil
}

func (s *Store) Create(ctx context.Context, id string, graph *models.WorkflowGraph) error {
	return s.send(ctx, "create", http.MethodPost, s.workflowURL(id), id, graph)
}

func (s *Store) Update(ctx context.Context, id string, graph *models.WorkflowGraph) error {
	return s.send(ctx, "update", http.MethodPut, s.workflowURL(id), id, graph)
}

func (s *Store) Delete(ctx context.Context, id string) error {
	return s.send(ctx, "delete", http.MethodDelete, s.workflowURL(id), id, nil)
}

// Execute triggers a run of the stored workflow and waits for the engine's
// acknowledgement under the slow timeout class.
func (s *Store) Execute(ctx context.Context, id string) (*store.ExecutionResult, error) {
	ctx, cancel := context.WithTimeout(ctx, retry.SlowTimeout)
	defer cancel()

	result, err := retry.Do(ctx, s.policy, retry.ClassifyError, func(ctx context.Context) (*store.ExecutionResult, error) {
		return s.execute(ctx, id)
	})
	if err != nil {
		return nil, wrap("execute", id, err)
	}

	return result, nil
}

func (s *Store) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/health", nil)
	if err != nil {
		return store.NewError("health_check", "", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return store.NewError("health_check", "", err)
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusOK {
		return store.NewError("health_check", "", &retry.HTTPStatusError{Op: "store.health_check", Status: resp.StatusCode})
	}

	return nil
}

func (s *Store) Close(_ context.Context) error {
	s.client.CloseIdleConnections()

	return nil
}

func (s *Store) fetch(ctx context.Context, id string) (*models.WorkflowGraph, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.workflowURL(id), nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer drain(resp)

	if resp.StatusCode == http.StatusNotFound {
		return nil, store.ErrWorkflowNotFound
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &retry.HTTPStatusError{Op: "store.get", Status: resp.StatusCode}
	}

	var graph models.WorkflowGraph
	if err := json.NewDecoder(resp.Body).Decode(&graph); err != nil {
		return nil, fmt.Errorf("decode workflow response: %w", err)
	}

	return &graph, nil
}

func (s *Store) execute(ctx context.Context, id string) (*store.ExecutionResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.workflowURL(id)+"/execute", nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer drain(resp)

	if resp.StatusCode == http.StatusNotFound {
		return nil, store.ErrWorkflowNotFound
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return nil, &retry.HTTPStatusError{Op: "store.execute", Status: resp.StatusCode}
	}

	result := &store.ExecutionResult{Status: "accepted", StartedAt: time.Now().UTC()}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode execution response: %w", err)
	}

	return result, nil
}

func (s *Store) send(ctx context.Context, op, method, endpoint, id string, graph *models.WorkflowGraph) error {
	_, err := retry.Do(ctx, s.policy, retry.ClassifyError, func(ctx context.Context) (struct{}, error) {
		var body io.Reader

		if graph != nil {
			data, err := json.Marshal(graph)
			if err != nil {
				return struct{}{}, fmt.Errorf("encode workflow: %w", err)
			}

			body = bytes.NewReader(data)
		}

		req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
		if err != nil {
			return struct{}{}, err
		}

		if graph != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := s.client.Do(req)
		if err != nil {
			return struct{}{}, err
		}
		defer drain(resp)

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return struct{}{}, store.ErrWorkflowNotFound
		case resp.StatusCode == http.StatusConflict:
			return struct{}{}, store.ErrWorkflowAlreadyExists
		case resp.StatusCode >= 300:
			return struct{}{}, &retry.HTTPStatusError{Op: "store." + op, Status: resp.StatusCode}
		}

		return struct{}{}, nil
	})
	if err != nil {
		return wrap(op, id, err)
	}

	return nil
}

func (s *Store) workflowURL(id string) string {
	return fmt.Sprintf("%s/workflows/%s", s.baseURL, url.PathEscape(id))
}

func wrap(op, id string, err error) error {
	return store.NewError(op, id, err)
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
