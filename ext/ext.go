// Package ext defines the extension system for the dispatch client.
// Extensions are notified of request lifecycle events (enqueued,
// attempt started, completed, retrying, failed) and can react to them —
// logging, metrics, progress reporting, etc.
//
// Each lifecycle hook is a separate interface so extensions opt in only
// to the events they care about.
package ext

import (
	"context"
	"time"

	"github.com/cozodb/openai-multi-client/request"
)

// Extension is the base interface all extensions must implement.
type Extension interface {
	// Name returns a unique human-readable name for the extension.
	Name() string
}

// RequestEnqueued is called after a request is accepted for dispatch.
type RequestEnqueued interface {
	OnRequestEnqueued(ctx context.Context, seq uint64, endpoint string) error
}

// AttemptStarted is called when a worker begins a remote invocation.
type AttemptStarted interface {
	OnAttemptStarted(ctx context.Context, a *request.Attempt) error
}

// RequestCompleted is called after a request produces a successful
// outcome. a.Number is the total number of invocations used.
type RequestCompleted interface {
	OnRequestCompleted(ctx context.Context, a *request.Attempt, elapsed time.Duration) error
}

// RequestRetrying is called when an attempt fails but the request will
// be retried after the given delay.
type RequestRetrying interface {
	OnRequestRetrying(ctx context.Context, a *request.Attempt, delay time.Duration) error
}

// RequestFailed is called when a request fails terminally, with its
// retries exhausted.
type RequestFailed interface {
	OnRequestFailed(ctx context.Context, a *request.Attempt, err error) error
}

// Shutdown is called during graceful shutdown.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
