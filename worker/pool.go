// Package worker provides the dispatch engine — a fixed-size pool of
// executor goroutines that drain a shared work queue, perform remote
// invocations through a middleware chain, apply the retry policy, and
// publish exactly one outcome per request to the active result sink.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cozodb/openai-multi-client/backoff"
	"github.com/cozodb/openai-multi-client/ext"
	"github.com/cozodb/openai-multi-client/middleware"
	"github.com/cozodb/openai-multi-client/request"
	"github.com/cozodb/openai-multi-client/sink"
	"github.com/cozodb/openai-multi-client/throttle"
)

// settings holds the non-generic knobs shared by all pool
// instantiations, so Option functions stay free of type parameters.
type settings struct {
	concurrency int
	maxRetries  int
	strategy    backoff.Strategy
	mws         []middleware.Middleware
	hooks       *ext.Registry
	throttle    *throttle.Manager
	sleep       func(ctx context.Context, d time.Duration)
}

// Option configures a Pool.
type Option func(*settings)

// WithConcurrency sets the number of concurrent executor goroutines.
func WithConcurrency(n int) Option {
	return func(s *settings) { s.concurrency = n }
}

// WithMaxRetries sets the total number of invocations allowed per
// request, including the first. A request fails terminally after its
// n-th failed invocation.
func WithMaxRetries(n int) Option {
	return func(s *settings) { s.maxRetries = n }
}

// WithBackoff sets the retry delay strategy.
func WithBackoff(b backoff.Strategy) Option {
	return func(s *settings) { s.strategy = b }
}

// WithMiddleware sets the middleware applied around each invocation,
// outermost first.
func WithMiddleware(mws ...middleware.Middleware) Option {
	return func(s *settings) { s.mws = mws }
}

// WithHooks sets the lifecycle extension registry.
func WithHooks(r *ext.Registry) Option {
	return func(s *settings) { s.hooks = r }
}

// WithThrottle sets the per-endpoint rate limiter applied before each
// attempt.
func WithThrottle(m *throttle.Manager) Option {
	return func(s *settings) { s.throttle = m }
}

// WithSleep replaces the function used to wait out backoff delays.
// Tests inject a recorder here instead of asserting on wall-clock time.
func WithSleep(fn func(ctx context.Context, d time.Duration)) Option {
	return func(s *settings) { s.sleep = fn }
}

// Pool manages a set of concurrent executor goroutines that drain the
// work queue and invoke the remote Invoker per item.
//
// Every request submitted is guaranteed to eventually produce exactly
// one outcome — success or terminal failure — on the sink. No silent
// drops, no duplicates; an invoker failure never crashes the pool.
type Pool[M any] struct {
	invoker request.Invoker
	out     sink.Sink[M]
	logger  *slog.Logger

	settings
	chain middleware.Middleware

	mu      sync.Mutex
	cond    *sync.Cond
	queue   []*request.Request[M]
	running bool
	stopped bool
	wg      sync.WaitGroup
}

// New creates a worker pool publishing outcomes to out.
func New[M any](invoker request.Invoker, out sink.Sink[M], logger *slog.Logger, opts ...Option) *Pool[M] {
	p := &Pool[M]{
		invoker: invoker,
		out:     out,
		logger:  logger,
		settings: settings{
			concurrency: 10,
			maxRetries:  3,
			strategy:    backoff.DefaultStrategy(),
			sleep:       sleepContext,
		},
	}
	for _, opt := range opts {
		opt(&p.settings)
	}
	if p.concurrency < 1 {
		p.concurrency = 1
	}
	if p.maxRetries < 1 {
		p.maxRetries = 1
	}
	if p.hooks == nil {
		p.hooks = ext.NewRegistry(logger)
	}
	p.chain = middleware.Chain(p.mws...)
	p.cond = sync.NewCond(&p.mu)
	return p
}

// Start launches the executor goroutines. It returns immediately.
func (p *Pool[M]) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return
	}
	p.running = true

	p.logger.Info("worker pool starting",
		slog.Int("concurrency", p.concurrency),
		slog.Int("max_retries", p.maxRetries),
	)

	for range p.concurrency {
		p.wg.Add(1)
		go p.dequeueLoop()
	}
}

// Submit enqueues a request for execution. It never blocks: the queue
// is unbounded and a free executor is woken if one is waiting.
func (p *Pool[M]) Submit(req *request.Request[M]) {
	p.mu.Lock()
	p.queue = append(p.queue, req)
	p.mu.Unlock()
	p.cond.Signal()
}

// QueueLen returns the number of requests waiting for an executor.
func (p *Pool[M]) QueueLen() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

// Stop signals the executors to exit once the queue has drained and
// waits for them to finish, or until ctx expires. It never aborts an
// in-progress remote call.
func (p *Pool[M]) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running || p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.stopped = true
	p.mu.Unlock()
	p.cond.Broadcast()

	p.logger.Info("worker pool stopping")

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("worker pool stopped gracefully")
		p.hooks.EmitShutdown(ctx)
		return nil
	case <-ctx.Done():
		p.logger.Warn("worker pool shutdown timed out")
		return ctx.Err()
	}
}

// dequeueLoop is run by each executor goroutine.
func (p *Pool[M]) dequeueLoop() {
	defer p.wg.Done()

	for {
		req, ok := p.dequeue()
		if !ok {
			return
		}
		p.process(req)
	}
}

// dequeue blocks until a request is available or the pool is stopped
// with an empty queue. Queued work is always drained before exit.
func (p *Pool[M]) dequeue() (*request.Request[M], bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for len(p.queue) == 0 && !p.stopped {
		p.cond.Wait()
	}
	if len(p.queue) == 0 {
		return nil, false
	}
	req := p.queue[0]
	p.queue = p.queue[1:]
	return req, true
}

// process runs one request's attempt chain to its terminal outcome.
func (p *Pool[M]) process(req *request.Request[M]) {
	ctx := context.Background()
	start := time.Now()

	for {
		req.Attempts++
		att := &request.Attempt{Seq: req.Seq, Endpoint: req.Endpoint, Number: req.Attempts}

		resp, err := p.attempt(ctx, att, req)
		if err == nil {
			p.hooks.EmitRequestCompleted(ctx, att, time.Since(start))
			p.deliver(req, &request.Outcome[M]{
				Seq:      req.Seq,
				Metadata: req.Metadata,
				Endpoint: req.Endpoint,
				Response: resp,
				Attempts: req.Attempts,
			})
			return
		}

		if req.Attempts >= p.maxRetries {
			p.hooks.EmitRequestFailed(ctx, att, err)
			p.logger.Warn("request failed after exhausting retries",
				slog.Uint64("seq", req.Seq),
				slog.String("endpoint", req.Endpoint),
				slog.Int("attempts", req.Attempts),
				slog.String("error", err.Error()),
			)
			p.deliver(req, &request.Outcome[M]{
				Seq:      req.Seq,
				Metadata: req.Metadata,
				Endpoint: req.Endpoint,
				Failed:   true,
				Err:      err,
				Attempts: req.Attempts,
			})
			return
		}

		delay := p.strategy.Delay(req.Attempts)
		p.hooks.EmitRequestRetrying(ctx, att, delay)
		p.logger.Debug("request scheduled for retry",
			slog.Uint64("seq", req.Seq),
			slog.String("endpoint", req.Endpoint),
			slog.Int("attempt", req.Attempts),
			slog.Int("max_retries", p.maxRetries),
			slog.Duration("delay", delay),
			slog.String("error", err.Error()),
		)

		// Suspends only this executor; siblings keep processing.
		p.sleep(ctx, delay)
	}
}

// attempt performs one invocation through throttling and middleware.
func (p *Pool[M]) attempt(ctx context.Context, att *request.Attempt, req *request.Request[M]) (any, error) {
	if p.throttle != nil {
		if err := p.throttle.Wait(ctx, req.Endpoint); err != nil {
			return nil, err
		}
		defer p.throttle.Release(req.Endpoint)
	}

	p.hooks.EmitAttemptStarted(ctx, att)

	return p.chain(ctx, att, func(ctx context.Context) (any, error) {
		return p.invoker.Invoke(ctx, req.Endpoint, req.Payload)
	})
}

// deliver runs the request's callback synchronously, then publishes the
// outcome to the sink.
func (p *Pool[M]) deliver(req *request.Request[M], o *request.Outcome[M]) {
	if req.Callback != nil {
		req.Callback(o)
	}
	p.out.Push(o)
}

func sleepContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
