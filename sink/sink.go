// Package sink provides the consumable result streams outcomes are
// published into: an unordered sink yielding outcomes in completion
// order, and an ordered sink that buffers out-of-order outcomes until
// their predecessors by sequence number have been delivered.
//
// Both sinks are unbounded: Push never blocks a worker, so a caller that
// drains via callbacks alone (without iterating) cannot deadlock the
// pool. Next blocks the consumer until an outcome is available, the
// stream ends, or its context is done.
package sink

import (
	"context"
	"errors"

	"github.com/cozodb/openai-multi-client/request"
)

// ErrDone is returned by Next once the sink has been closed and every
// buffered outcome has been consumed.
var ErrDone = errors.New("sink: end of stream")

// Sink is the outcome-delivery contract shared by both orderings.
//
// Push may be called by any worker concurrently. Next is intended for a
// single consumer loop. CloseSink signals end-of-stream; it is called
// exactly once, after all submitted requests have produced outcomes.
type Sink[M any] interface {
	Push(o *request.Outcome[M])
	Next(ctx context.Context) (*request.Outcome[M], error)
	CloseSink()
}
