package multiclient

import (
	"log/slog"
	"time"

	"github.com/cozodb/openai-multi-client/backoff"
	"github.com/cozodb/openai-multi-client/ext"
	"github.com/cozodb/openai-multi-client/middleware"
	"github.com/cozodb/openai-multi-client/throttle"
)

// options collects everything New needs before the generic Client is
// built, so Option functions stay free of type parameters.
type options struct {
	cfg      Config
	logger   *slog.Logger
	strategy backoff.Strategy
	mws      []middleware.Middleware
	hooks    *ext.Registry
	throttle *throttle.Manager
}

// Option configures a Client.
type Option func(*options) error

// WithConfig replaces the whole configuration at once. Later options
// still apply on top.
func WithConfig(cfg Config) Option {
	return func(o *options) error {
		o.cfg = cfg
		return nil
	}
}

// WithConcurrency sets the number of concurrent workers.
func WithConcurrency(n int) Option {
	return func(o *options) error {
		o.cfg.Concurrency = n
		return nil
	}
}

// WithMaxRetries sets the total invocations allowed per request.
func WithMaxRetries(n int) Option {
	return func(o *options) error {
		o.cfg.MaxRetries = n
		return nil
	}
}

// WithRetryDelay sets the base delay before the first retry.
func WithRetryDelay(d time.Duration) Option {
	return func(o *options) error {
		o.cfg.RetryDelay = d
		return nil
	}
}

// WithRetryMultiplier sets the exponential backoff multiplier.
func WithRetryMultiplier(m float64) Option {
	return func(o *options) error {
		o.cfg.RetryMultiplier = m
		return nil
	}
}

// WithBackoff overrides the retry strategy entirely; RetryDelay and
// RetryMultiplier are ignored when set.
func WithBackoff(b backoff.Strategy) Option {
	return func(o *options) error {
		o.strategy = b
		return nil
	}
}

// WithEndpoint sets the default target sub-resource.
func WithEndpoint(endpoint string) Option {
	return func(o *options) error {
		o.cfg.Endpoint = endpoint
		return nil
	}
}

// WithTemplate sets the payload template merged under each request's
// payload.
func WithTemplate(template map[string]any) Option {
	return func(o *options) error {
		o.cfg.Template = template
		return nil
	}
}

// WithOrdered makes the consumer observe outcomes in exactly
// submission order.
func WithOrdered() Option {
	return func(o *options) error {
		o.cfg.Ordered = true
		return nil
	}
}

// WithShutdownTimeout bounds how long the pool may take to wind down.
func WithShutdownTimeout(d time.Duration) Option {
	return func(o *options) error {
		o.cfg.ShutdownTimeout = d
		return nil
	}
}

// WithLogger sets the structured logger for the client.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) error {
		o.logger = l
		return nil
	}
}

// WithMiddleware sets the middleware applied around each invocation,
// outermost first.
func WithMiddleware(mws ...middleware.Middleware) Option {
	return func(o *options) error {
		o.mws = mws
		return nil
	}
}

// WithHooks sets the lifecycle extension registry.
func WithHooks(r *ext.Registry) Option {
	return func(o *options) error {
		o.hooks = r
		return nil
	}
}

// WithThrottle sets per-endpoint rate limits applied before each
// attempt.
func WithThrottle(m *throttle.Manager) Option {
	return func(o *options) error {
		o.throttle = m
		return nil
	}
}
