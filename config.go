package multiclient

import "time"

// Config holds configuration for the Client.
type Config struct {
	// Concurrency is the number of worker goroutines performing remote
	// invocations.
	Concurrency int

	// MaxRetries is the total number of invocations allowed per
	// request, including the first. A request fails terminally after
	// its MaxRetries-th failed invocation.
	MaxRetries int

	// RetryDelay is the base delay before the first retry.
	RetryDelay time.Duration

	// RetryMultiplier scales the delay for each further retry:
	// delay = RetryDelay * RetryMultiplier^(attempt-1).
	RetryMultiplier float64

	// Endpoint is the default target sub-resource for requests that
	// don't specify one.
	Endpoint string

	// Template is merged under each request's payload before dispatch;
	// request keys win on conflict.
	Template map[string]any

	// Ordered selects strict submission-order delivery. This is a
	// construction-time choice, not switchable at runtime.
	Ordered bool

	// ShutdownTimeout is the maximum time to wait for the worker pool
	// to wind down after the last outcome is delivered.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Concurrency:     10,
		MaxRetries:      3,
		RetryDelay:      1 * time.Second,
		RetryMultiplier: 2,
		Endpoint:        "completions",
		ShutdownTimeout: 30 * time.Second,
	}
}
