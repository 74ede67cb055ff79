package multiclient

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"maps"
	"sync"

	"github.com/cozodb/openai-multi-client/backoff"
	"github.com/cozodb/openai-multi-client/ext"
	"github.com/cozodb/openai-multi-client/request"
	"github.com/cozodb/openai-multi-client/sink"
	"github.com/cozodb/openai-multi-client/worker"
)

// Invoker performs the actual remote call. See [request.Invoker].
type Invoker = request.Invoker

// InvokerFunc adapts an ordinary function to the Invoker interface.
type InvokerFunc = request.Func

// Outcome is the terminal result of one request. See [request.Outcome].
type Outcome[M any] = request.Outcome[M]

// clientState is the facade lifecycle: Open accepts submissions,
// Draining processes outstanding work only, Closed has delivered
// end-of-stream.
type clientState int

const (
	stateOpen clientState = iota
	stateDraining
	stateClosed
)

// Submission describes one request to dispatch.
type Submission[M any] struct {
	// Payload is the request body; the client's template is merged
	// under it, request keys winning.
	Payload map[string]any

	// Metadata is carried through to the outcome unchanged.
	Metadata map[string]M

	// Endpoint overrides the client's default target sub-resource.
	Endpoint string

	// Callback, if set, is invoked synchronously by the delivering
	// worker before the outcome is published.
	Callback func(*Outcome[M])
}

// Client dispatches submissions to a worker pool and exposes the
// resulting outcome stream. M is the metadata value type; use `any`
// when metadata values are heterogeneous.
//
// Producers may call Submit from multiple goroutines while a consumer
// iterates. After Close (or after a Produce function returns), the
// client drains outstanding work and then signals end-of-stream.
type Client[M any] struct {
	cfg    Config
	logger *slog.Logger
	hooks  *ext.Registry
	pool   *worker.Pool[M]
	out    sink.Sink[M]

	mu           sync.Mutex
	state        clientState
	seq          uint64
	inFlight     int
	producerErr  error
	producerDone chan struct{}

	// done closes when the client reaches Closed.
	done chan struct{}
}

// countingSink decorates the active sink so the facade observes every
// outcome publication: the in-flight counter must be decremented only
// after the outcome is visible to the consumer, or end-of-stream could
// race ahead of the final outcome.
type countingSink[M any] struct {
	sink.Sink[M]
	finish func()
}

func (s *countingSink[M]) Push(o *request.Outcome[M]) {
	s.Sink.Push(o)
	s.finish()
}

// New creates a Client around the given invoker and starts its worker
// pool.
func New[M any](invoker Invoker, opts ...Option) (*Client[M], error) {
	if invoker == nil {
		return nil, ErrNilInvoker
	}

	o := options{cfg: DefaultConfig(), logger: slog.Default()}
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return nil, err
		}
	}

	strategy := o.strategy
	if strategy == nil {
		strategy = backoff.NewExponential(o.cfg.RetryDelay, o.cfg.RetryMultiplier, 0)
	}
	hooks := o.hooks
	if hooks == nil {
		hooks = ext.NewRegistry(o.logger)
	}

	var out sink.Sink[M]
	if o.cfg.Ordered {
		out = sink.NewOrdered[M](1)
	} else {
		out = sink.NewUnordered[M]()
	}

	c := &Client[M]{
		cfg:    o.cfg,
		logger: o.logger,
		hooks:  hooks,
		out:    out,
		done:   make(chan struct{}),
	}

	poolOpts := []worker.Option{
		worker.WithConcurrency(o.cfg.Concurrency),
		worker.WithMaxRetries(o.cfg.MaxRetries),
		worker.WithBackoff(strategy),
		worker.WithMiddleware(o.mws...),
		worker.WithHooks(hooks),
	}
	if o.throttle != nil {
		poolOpts = append(poolOpts, worker.WithThrottle(o.throttle))
	}

	c.pool = worker.New[M](invoker, &countingSink[M]{Sink: out, finish: c.finish}, o.logger, poolOpts...)
	c.pool.Start()

	return c, nil
}

// Submit enqueues one request. It returns immediately; ErrClosed is
// reported if the client is no longer accepting submissions.
func (c *Client[M]) Submit(sub Submission[M]) error {
	c.mu.Lock()
	if c.state != stateOpen {
		c.mu.Unlock()
		return ErrClosed
	}
	c.seq++
	seq := c.seq
	c.inFlight++
	c.mu.Unlock()

	endpoint := sub.Endpoint
	if endpoint == "" {
		endpoint = c.cfg.Endpoint
	}

	req := &request.Request[M]{
		Seq:      seq,
		Payload:  c.mergeTemplate(sub.Payload),
		Metadata: sub.Metadata,
		Endpoint: endpoint,
		Callback: sub.Callback,
	}

	c.hooks.EmitRequestEnqueued(context.Background(), seq, endpoint)
	c.pool.Submit(req)
	return nil
}

// Put is shorthand for Submit with just a payload and metadata, using
// the client's default endpoint.
func (c *Client[M]) Put(payload map[string]any, metadata map[string]M) error {
	return c.Submit(Submission[M]{Payload: payload, Metadata: metadata})
}

// mergeTemplate lays the configured template under the payload;
// payload keys win.
func (c *Client[M]) mergeTemplate(payload map[string]any) map[string]any {
	if len(c.cfg.Template) == 0 {
		return payload
	}
	merged := maps.Clone(c.cfg.Template)
	maps.Copy(merged, payload)
	return merged
}

// Close declares that no more submissions will occur. Outstanding work
// keeps draining; once every submitted request has produced an outcome
// the stream ends. Calling Close again returns ErrAlreadyClosed.
func (c *Client[M]) Close() error {
	c.mu.Lock()
	if c.state != stateOpen {
		c.mu.Unlock()
		return ErrAlreadyClosed
	}
	c.state = stateDraining
	closed := c.inFlight == 0
	if closed {
		c.state = stateClosed
	}
	c.mu.Unlock()

	if closed {
		c.shutdown()
	}
	return nil
}

// finish is called by the counting sink after each outcome
// publication.
func (c *Client[M]) finish() {
	c.mu.Lock()
	c.inFlight--
	closed := c.state == stateDraining && c.inFlight == 0
	if closed {
		c.state = stateClosed
	}
	c.mu.Unlock()

	if closed {
		c.shutdown()
	}
}

// shutdown signals end-of-stream and winds the pool down in the
// background. Workers are idle by now (nothing in flight), so Stop
// returns promptly; it runs off the publish path because the last
// publishing worker is the one that triggered it.
func (c *Client[M]) shutdown() {
	c.out.CloseSink()
	close(c.done)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.cfg.ShutdownTimeout)
		defer cancel()
		if err := c.pool.Stop(ctx); err != nil {
			c.logger.Warn("worker pool shutdown", slog.String("error", err.Error()))
		}
	}()
}

// Produce runs fn on its own goroutine and automatically closes the
// client when fn returns, so producer and consumer loops can run
// concurrently without an explicit hand-off. fn's error is retained
// and surfaced by Err and Wait.
func (c *Client[M]) Produce(fn func() error) {
	c.mu.Lock()
	if c.producerDone != nil {
		c.mu.Unlock()
		c.logger.Warn("producer already running, ignoring Produce call")
		return
	}
	done := make(chan struct{})
	c.producerDone = done
	c.mu.Unlock()

	go func() {
		defer close(done)

		err := fn()
		if err != nil {
			c.mu.Lock()
			c.producerErr = err
			c.mu.Unlock()
			c.logger.Error("producer failed", slog.String("error", err.Error()))
		}

		if cerr := c.Close(); cerr != nil && !errors.Is(cerr, ErrAlreadyClosed) {
			c.logger.Warn("close after producer", slog.String("error", cerr.Error()))
		}
	}()
}

// Err returns the error of a Produce function, if it has failed.
func (c *Client[M]) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.producerErr
}

// Next returns the next outcome from the active sink. It blocks until
// one is available, the stream ends (ErrDone), or ctx is done.
func (c *Client[M]) Next(ctx context.Context) (*Outcome[M], error) {
	return c.out.Next(ctx)
}

// All returns an iterator over outcomes until end-of-stream. Intended
// for a single consumer loop:
//
//	for o := range api.All() { ... }
func (c *Client[M]) All() iter.Seq[*Outcome[M]] {
	return func(yield func(*Outcome[M]) bool) {
		for {
			o, err := c.Next(context.Background())
			if err != nil {
				return
			}
			if !yield(o) {
				return
			}
		}
	}
}

// Wait blocks until the client is Closed — every submitted request has
// produced an outcome — without consuming the stream. For
// callback-only usage. Returns the producer's error, if any.
func (c *Client[M]) Wait(ctx context.Context) error {
	select {
	case <-c.done:
		return c.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// InFlight returns the number of submitted requests that have not yet
// produced an outcome.
func (c *Client[M]) InFlight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}
