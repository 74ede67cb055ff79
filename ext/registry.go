package ext

import (
	"context"
	"log/slog"
	"time"

	"github.com/cozodb/openai-multi-client/request"
)

// Named entry types pair a hook implementation with the extension name
// captured at registration time. This avoids type-asserting back to
// Extension inside the emit methods.
type requestEnqueuedEntry struct {
	name string
	hook RequestEnqueued
}

type attemptStartedEntry struct {
	name string
	hook AttemptStarted
}

type requestCompletedEntry struct {
	name string
	hook RequestCompleted
}

type requestRetryingEntry struct {
	name string
	hook RequestRetrying
}

type requestFailedEntry struct {
	name string
	hook RequestFailed
}

type shutdownEntry struct {
	name string
	hook Shutdown
}

// Registry holds registered extensions and dispatches lifecycle events
// to them. It type-caches extensions at registration time so emit calls
// iterate only over extensions that implement the relevant hook.
// Hook errors are logged, never propagated: an extension cannot affect
// dispatch.
type Registry struct {
	extensions []Extension
	logger     *slog.Logger

	// Type-cached slices for each lifecycle hook.
	requestEnqueued  []requestEnqueuedEntry
	attemptStarted   []attemptStartedEntry
	requestCompleted []requestCompletedEntry
	requestRetrying  []requestRetryingEntry
	requestFailed    []requestFailedEntry
	shutdown         []shutdownEntry
}

// NewRegistry creates an extension registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{logger: logger}
}

// Register adds an extension and type-asserts it into all applicable
// hook caches. Extensions are notified in registration order.
func (r *Registry) Register(e Extension) {
	r.extensions = append(r.extensions, e)
	name := e.Name()

	if h, ok := e.(RequestEnqueued); ok {
		r.requestEnqueued = append(r.requestEnqueued, requestEnqueuedEntry{name, h})
	}
	if h, ok := e.(AttemptStarted); ok {
		r.attemptStarted = append(r.attemptStarted, attemptStartedEntry{name, h})
	}
	if h, ok := e.(RequestCompleted); ok {
		r.requestCompleted = append(r.requestCompleted, requestCompletedEntry{name, h})
	}
	if h, ok := e.(RequestRetrying); ok {
		r.requestRetrying = append(r.requestRetrying, requestRetryingEntry{name, h})
	}
	if h, ok := e.(RequestFailed); ok {
		r.requestFailed = append(r.requestFailed, requestFailedEntry{name, h})
	}
	if h, ok := e.(Shutdown); ok {
		r.shutdown = append(r.shutdown, shutdownEntry{name, h})
	}
}

// Extensions returns all registered extensions.
func (r *Registry) Extensions() []Extension { return r.extensions }

// EmitRequestEnqueued notifies all extensions that implement RequestEnqueued.
func (r *Registry) EmitRequestEnqueued(ctx context.Context, seq uint64, endpoint string) {
	for _, e := range r.requestEnqueued {
		if err := e.hook.OnRequestEnqueued(ctx, seq, endpoint); err != nil {
			r.logHookError("OnRequestEnqueued", e.name, err)
		}
	}
}

// EmitAttemptStarted notifies all extensions that implement AttemptStarted.
func (r *Registry) EmitAttemptStarted(ctx context.Context, a *request.Attempt) {
	for _, e := range r.attemptStarted {
		if err := e.hook.OnAttemptStarted(ctx, a); err != nil {
			r.logHookError("OnAttemptStarted", e.name, err)
		}
	}
}

// EmitRequestCompleted notifies all extensions that implement RequestCompleted.
func (r *Registry) EmitRequestCompleted(ctx context.Context, a *request.Attempt, elapsed time.Duration) {
	for _, e := range r.requestCompleted {
		if err := e.hook.OnRequestCompleted(ctx, a, elapsed); err != nil {
			r.logHookError("OnRequestCompleted", e.name, err)
		}
	}
}

// EmitRequestRetrying notifies all extensions that implement RequestRetrying.
func (r *Registry) EmitRequestRetrying(ctx context.Context, a *request.Attempt, delay time.Duration) {
	for _, e := range r.requestRetrying {
		if err := e.hook.OnRequestRetrying(ctx, a, delay); err != nil {
			r.logHookError("OnRequestRetrying", e.name, err)
		}
	}
}

// EmitRequestFailed notifies all extensions that implement RequestFailed.
func (r *Registry) EmitRequestFailed(ctx context.Context, a *request.Attempt, reqErr error) {
	for _, e := range r.requestFailed {
		if err := e.hook.OnRequestFailed(ctx, a, reqErr); err != nil {
			r.logHookError("OnRequestFailed", e.name, err)
		}
	}
}

// EmitShutdown notifies all extensions that implement Shutdown.
func (r *Registry) EmitShutdown(ctx context.Context) {
	for _, e := range r.shutdown {
		if err := e.hook.OnShutdown(ctx); err != nil {
			r.logHookError("OnShutdown", e.name, err)
		}
	}
}

func (r *Registry) logHookError(hook, extension string, err error) {
	r.logger.Warn("extension hook error",
		slog.String("hook", hook),
		slog.String("extension", extension),
		slog.String("error", err.Error()),
	)
}
