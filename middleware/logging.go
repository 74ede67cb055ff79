package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/cozodb/openai-multi-client/request"
)

// Logging returns middleware that logs each attempt's start and result.
func Logging(logger *slog.Logger) Middleware {
	return func(ctx context.Context, a *request.Attempt, next Handler) (any, error) {
		logger.Debug("attempt started",
			slog.Uint64("seq", a.Seq),
			slog.String("endpoint", a.Endpoint),
			slog.Int("attempt", a.Number),
		)

		start := time.Now()
		resp, err := next(ctx)
		elapsed := time.Since(start)

		if err != nil {
			logger.Warn("attempt failed",
				slog.Uint64("seq", a.Seq),
				slog.String("endpoint", a.Endpoint),
				slog.Int("attempt", a.Number),
				slog.Duration("elapsed", elapsed),
				slog.String("error", err.Error()),
			)
		} else {
			logger.Debug("attempt succeeded",
				slog.Uint64("seq", a.Seq),
				slog.String("endpoint", a.Endpoint),
				slog.Int("attempt", a.Number),
				slog.Duration("elapsed", elapsed),
			)
		}

		return resp, err
	}
}
