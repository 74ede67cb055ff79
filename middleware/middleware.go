// Package middleware provides composable middleware around remote
// invocations. Middleware wraps each invoker attempt synchronously and
// can modify execution (recover from panics, log, enforce deadlines,
// record metrics, add tracing).
package middleware

import (
	"context"

	"github.com/cozodb/openai-multi-client/request"
)

// Handler is the terminal function that performs the remote call for
// one attempt.
type Handler func(ctx context.Context) (any, error)

// Middleware wraps a Handler with cross-cutting logic. It receives the
// current context, the attempt being made, and the next handler to
// call. Middleware MUST call next to continue the chain (unless
// short-circuiting on error).
type Middleware func(ctx context.Context, a *request.Attempt, next Handler) (any, error)

// Chain composes multiple middleware into a single Middleware.
// Middleware are applied right-to-left: the first middleware in the
// list is the outermost wrapper.
//
// Example: Chain(logging, recover, timeout) executes as:
//
//	logging → recover → timeout → invoker
func Chain(mws ...Middleware) Middleware {
	return func(ctx context.Context, a *request.Attempt, next Handler) (any, error) {
		// Build the chain from the end backwards.
		h := next
		for i := len(mws) - 1; i >= 0; i-- {
			mw := mws[i]
			prev := h
			h = func(ctx context.Context) (any, error) {
				return mw(ctx, a, prev)
			}
		}
		return h(ctx)
	}
}
