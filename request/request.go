// Package request defines the unit of work handed to the dispatcher —
// the request record, its terminal outcome, and the Invoker contract
// that performs the actual remote call.
package request

import "context"

// Request is one unit of work: a payload to send to a remote endpoint,
// plus caller metadata that is carried through to the outcome unchanged.
//
// M is the metadata value type. Callers that don't care use `any`.
//
// A Request is owned by the client facade until it is handed to a worker;
// from then on the executing worker owns it for the duration of the
// attempt chain. Attempts is mutated by that worker only.
type Request[M any] struct {
	// Seq is assigned atomically at submission time and defines
	// submission order. Sequence numbers start at 1.
	Seq uint64

	// Payload is the request body handed to the Invoker. The client
	// merges its payload template under it before submission.
	Payload map[string]any

	// Metadata is an opaque caller-defined mapping, passed through to
	// the Outcome untouched.
	Metadata map[string]M

	// Endpoint selects which remote capability to call
	// (e.g. "completions", "chats").
	Endpoint string

	// Callback, if set, is invoked synchronously by the delivering
	// worker once the outcome exists, before it is published.
	Callback func(*Outcome[M])

	// Attempts counts invocations made so far. Starts at 0.
	Attempts int
}

// Outcome is the terminal result of processing one Request: either a
// response value or the last error after retries were exhausted.
// Exactly one Outcome is produced per Request, by the worker that
// completed it. Immutable after creation.
type Outcome[M any] struct {
	// Seq and Metadata reference the originating request.
	Seq      uint64
	Metadata map[string]M

	// Endpoint the request was dispatched to.
	Endpoint string

	// Failed reports whether retries were exhausted without success.
	Failed bool

	// Response holds the Invoker's return value on success.
	Response any

	// Err holds the last invocation error on failure.
	Err error

	// Attempts is the total number of invocations made.
	Attempts int
}

// Attempt is the non-generic view of a single invocation, passed to
// middleware and lifecycle hooks.
type Attempt struct {
	// Seq is the originating request's sequence number.
	Seq uint64

	// Endpoint the attempt targets.
	Endpoint string

	// Number is the 1-indexed attempt number.
	Number int
}

// Invoker performs the actual remote call. It is supplied by the caller:
// a real network client in production, a function substitute in tests.
//
// Every error is treated as retryable up to the configured maximum; the
// dispatcher has no visibility into whether a failure is semantically
// retryable (a permanent auth error retries the same as a timeout). This
// mirrors the upstream contract and is a known limitation.
type Invoker interface {
	Invoke(ctx context.Context, endpoint string, payload map[string]any) (any, error)
}

// Func adapts an ordinary function to the Invoker interface.
type Func func(ctx context.Context, endpoint string, payload map[string]any) (any, error)

// Invoke implements Invoker.
func (f Func) Invoke(ctx context.Context, endpoint string, payload map[string]any) (any, error) {
	return f(ctx, endpoint, payload)
}
