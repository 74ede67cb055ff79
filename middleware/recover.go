package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/cozodb/openai-multi-client/request"
)

// Recover returns middleware that recovers from panics in the invoker.
// Panics are converted to errors and logged with a stack trace, so a
// panicking invoker counts as a failed attempt instead of crashing the
// worker pool.
func Recover(logger *slog.Logger) Middleware {
	return func(ctx context.Context, a *request.Attempt, next Handler) (resp any, retErr error) {
		defer func() {
			if r := recover(); r != nil {
				stack := string(debug.Stack())
				logger.Error("invoker panicked",
					slog.Uint64("seq", a.Seq),
					slog.String("endpoint", a.Endpoint),
					slog.Int("attempt", a.Number),
					slog.Any("panic", r),
					slog.String("stack", stack),
				)
				resp = nil
				retErr = fmt.Errorf("panic in invoker for request %d: %v", a.Seq, r)
			}
		}()
		return next(ctx)
	}
}
