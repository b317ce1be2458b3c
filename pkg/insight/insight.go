// Package insight queries the external graph-insight collaborator for node
// compatibility data. Insight is an optional input: callers on the
// generation path treat every failure here as a degradation signal, not a
// fatal error.
package insight

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/flowforge/flowforge/pkg/log"
	"github.com/flowforge/flowforge/pkg/models"
	"github.com/flowforge/flowforge/pkg/retry"
)

// Client fetches relationship insights for a matched pattern.
type Client interface {
	// Query returns node/edge insights for the pattern. A nil result with a
	// nil error means the backend knows nothing about the pattern.
	Query(ctx context.Context, patternID string) (*models.Insights, error)
}

// HTTPClient talks to the insight service over HTTP with the short timeout
// class and the shared retry policy.
type HTTPClient struct {
	baseURL string
	client  *http.Client
	policy  retry.Policy
	logger  *slog.Logger
}

// Option customizes an HTTPClient.
type Option func(*HTTPClient)

// WithRetryPolicy overrides the default backoff schedule.
func WithRetryPolicy(policy retry.Policy) Option {
	return func(c *HTTPClient) { c.policy = policy }
}

// WithHTTPClient overrides the underlying transport.
func WithHTTPClient(client *http.Client) Option {
	return func(c *HTTPClient) { c.client = client }
}

// NewHTTPClient creates a client for the insight service at baseURL.
func NewHTTPClient(baseURL string, opts ...Option) *HTTPClient {
	client := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: retry.ShortTimeout},
		policy:  retry.DefaultPolicy(),
		logger:  log.WithModule("insight"),
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

func (c *HTTPClient) Query(ctx context.Context, patternID string) (*models.Insights, error) {
	if patternID == "" {
		return nil, nil
	}

	endpoint := fmt.Sprintf("%s/insights/%s", c.baseURL, url.PathEscape(patternID))

	insights, err := retry.Do(ctx, c.policy, retry.ClassifyError, func(ctx context.Context) (*models.Insights, error) {
		return c.fetch(ctx, endpoint)
	})
	if err != nil {
		c.logger.WarnContext(ctx, "insight query failed", "pattern_id", patternID, "error", err)

		return nil, classifyFailure("insight.query", err)
	}

	return insights, nil
}

func (c *HTTPClient) fetch(ctx context.Context, endpoint string) (*models.Insights, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build insight request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)

		return nil, &retry.HTTPStatusError{Op: "insight.query", Status: resp.StatusCode}
	}

	var insights models.Insights
	if err := json.NewDecoder(resp.Body).Decode(&insights); err != nil {
		return nil, fmt.Errorf("decode insight response: %w", err)
	}

	return &insights, nil
}

// classifyFailure wraps transport failures in the collaborator error
// taxonomy so the generation pipeline can decide to degrade.
func classifyFailure(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &retry.CollaboratorTimeoutError{Op: op, Timeout: retry.ShortTimeout}
	}

	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &retry.CollaboratorTimeoutError{Op: op, Timeout: retry.ShortTimeout}
	}

	return &retry.CollaboratorUnavailableError{Op: op, Err: err}
}
