// Package throttle provides per-endpoint rate limiting and concurrency
// caps for remote invocations.
//
// Remote APIs typically enforce both a sustained request rate and a
// concurrent-request ceiling per capability. A [Manager] holds one
// token-bucket limiter (golang.org/x/time/rate) and one concurrency
// gate per configured endpoint; workers call Wait before each attempt
// and Release after it finishes. Endpoints without a [Config] are
// unlimited.
package throttle

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Config defines the limits for a single endpoint.
type Config struct {
	// Endpoint is the target sub-resource identifier the limits apply
	// to (e.g. "completions", "chats").
	Endpoint string

	// RateLimit is the maximum sustained attempts per second against
	// this endpoint. Zero disables rate limiting.
	RateLimit float64

	// RateBurst is the burst size for the token-bucket rate limiter.
	// Defaults to 1 if RateLimit is set but RateBurst is zero.
	RateBurst int

	// MaxConcurrency limits how many attempts against this endpoint may
	// be in flight simultaneously. Zero means no endpoint-specific
	// limit (pool-wide concurrency still applies).
	MaxConcurrency int
}

// endpointState tracks runtime state for a single endpoint.
type endpointState struct {
	config  Config
	limiter *rate.Limiter
	slots   chan struct{}
}

func newEndpointState(cfg Config) *endpointState {
	st := &endpointState{config: cfg}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		st.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	if cfg.MaxConcurrency > 0 {
		st.slots = make(chan struct{}, cfg.MaxConcurrency)
	}
	return st
}

// Manager enforces per-endpoint rate and concurrency limits. It is safe
// for concurrent use.
type Manager struct {
	mu        sync.Mutex
	endpoints map[string]*endpointState
}

// NewManager creates a Manager with the given endpoint configurations.
// Endpoints not listed here have no limits.
func NewManager(configs ...Config) *Manager {
	m := &Manager{endpoints: make(map[string]*endpointState, len(configs))}
	for _, cfg := range configs {
		m.endpoints[cfg.Endpoint] = newEndpointState(cfg)
	}
	return m
}

// Wait blocks until the endpoint's rate limiter grants a token and a
// concurrency slot is free, or ctx is done. The caller MUST call
// Release with the same endpoint once the attempt finishes, unless Wait
// returned an error.
func (m *Manager) Wait(ctx context.Context, endpoint string) error {
	m.mu.Lock()
	st := m.endpoints[endpoint]
	m.mu.Unlock()

	if st == nil {
		return nil
	}

	if st.limiter != nil {
		if err := st.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	if st.slots != nil {
		select {
		case st.slots <- struct{}{}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return nil
}

// Release frees the endpoint's concurrency slot acquired by Wait.
func (m *Manager) Release(endpoint string) {
	m.mu.Lock()
	st := m.endpoints[endpoint]
	m.mu.Unlock()

	if st == nil || st.slots == nil {
		return
	}

	select {
	case <-st.slots:
	default:
	}
}

// SetConfig dynamically updates (or creates) an endpoint configuration.
// In-flight attempts against the endpoint keep their old slots.
func (m *Manager) SetConfig(cfg Config) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.endpoints[cfg.Endpoint] = newEndpointState(cfg)
}

// Active returns the number of concurrency slots currently held for an
// endpoint. Always zero for endpoints without a MaxConcurrency limit.
func (m *Manager) Active(endpoint string) int {
	m.mu.Lock()
	st := m.endpoints[endpoint]
	m.mu.Unlock()

	if st == nil || st.slots == nil {
		return 0
	}
	return len(st.slots)
}
