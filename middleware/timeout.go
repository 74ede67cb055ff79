package middleware

import (
	"context"
	"time"

	"github.com/cozodb/openai-multi-client/request"
)

// Timeout returns middleware that enforces a per-attempt deadline.
// When the deadline is exceeded the attempt context is cancelled and
// the invoker should return context.DeadlineExceeded, which retries
// like any other failure. A zero duration disables the deadline.
func Timeout(d time.Duration) Middleware {
	return func(ctx context.Context, _ *request.Attempt, next Handler) (any, error) {
		if d > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, d)
			defer cancel()
		}
		return next(ctx)
	}
}
