// Package retry is the shared resilience policy for external collaborator
// calls. Every call site classifies its outcome as success, retryable or
// fatal; this package owns backoff, attempt limits and timeout classes so
// retry logic is never duplicated per call site.
package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Class is the three-valued outcome of a collaborator call.
type Class int

const (
	Success Class = iota
	Retryable
	Fatal
)

// Timeout classes per collaborator kind. Catalog and metadata lookups are
// short, store CRUD is standard, execution-triggering calls are slow.
const (
	ShortTimeout    = 10 * time.Second
	StandardTimeout = 30 * time.Second
	SlowTimeout     = 90 * time.Second
)

// Policy describes an exponential backoff schedule.
type Policy struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxAttempts     uint64
}

// DefaultPolicy starts at 1s, doubles, caps at 16s and gives up after 5
// attempts.
func DefaultPolicy() Policy {
	return Policy{
		InitialInterval: time.Second,
		MaxInterval:     16 * time.Second,
		MaxAttempts:     5,
	}
}

// Do runs op under the policy, retrying only outcomes the classifier marks
// Retryable. Fatal outcomes and context cancellation end the loop
// immediately; the zero T and the last error are returned on failure.
func Do[T any](ctx context.Context, policy Policy, classify func(error) Class, op func(ctx context.Context) (T, error)) (T, error) {
	var result T

	if policy.MaxAttempts == 0 {
		policy.MaxAttempts = 1
	}

	schedule := backoff.NewExponentialBackOff()
	schedule.InitialInterval = policy.InitialInterval
	schedule.MaxInterval = policy.MaxInterval
	schedule.Multiplier = 2

	attempt := func() error {
		value, err := op(ctx)
		if err == nil {
			result = value

			return nil
		}

		if classify(err) == Retryable {
			return err
		}

		return backoff.Permanent(err)
	}

	err := backoff.Retry(attempt, backoff.WithContext(
		backoff.WithMaxRetries(schedule, policy.MaxAttempts-1), ctx))

	return result, err
}

// ClassifyHTTPStatus maps response codes to retry classes: rate limiting and
// upstream unavailability are transient, every other non-2xx is not.
func ClassifyHTTPStatus(status int) Class {
	switch {
	case status >= 200 && status < 300:
		return Success
	case status == http.StatusTooManyRequests,
		status == http.StatusServiceUnavailable,
		status == http.StatusGatewayTimeout:
		return Retryable
	default:
		return Fatal
	}
}

// ClassifyError marks connection resets and network timeouts as retryable.
// Context cancellation is fatal: the caller's deadline owns the budget.
func ClassifyError(err error) Class {
	if err == nil {
		return Success
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Fatal
	}

	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) {
		return Retryable
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return Retryable
	}

	var httpErr *HTTPStatusError
	if errors.As(err, &httpErr) {
		return ClassifyHTTPStatus(httpErr.Status)
	}

	return Fatal
}

// HTTPStatusError carries a non-2xx collaborator response so the classifier
// can grade it.
type HTTPStatusError struct {
	Op     string
	Status int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.Op, e.Status)
}

// CollaboratorTimeoutError marks a collaborator call that exceeded its
// timeout class. It is retryable, unlike a validation failure.
type CollaboratorTimeoutError struct {
	Op      string
	Timeout time.Duration
}

func (e *CollaboratorTimeoutError) Error() string {
	return fmt.Sprintf("%s: collaborator call timed out after %s", e.Op, e.Timeout)
}

// CollaboratorUnavailableError marks a collaborator that could not be
// reached at all. Consumers on optional paths degrade gracefully instead of
// failing the request.
type CollaboratorUnavailableError struct {
	Op  string
	Err error
}

func (e *CollaboratorUnavailableError) Error() string {
	return fmt.Sprintf("%s: collaborator unavailable: %v", e.Op, e.Err)
}

func (e *CollaboratorUnavailableError) Unwrap() error {
	return e.Err
}
