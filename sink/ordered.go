package sink

import (
	"context"
	"sync"

	"github.com/cozodb/openai-multi-client/request"
)

// Ordered yields outcomes in exactly submission-sequence order,
// regardless of completion order at the worker pool. Out-of-sequence
// outcomes are held in a buffer keyed by sequence number until the
// contiguous run starting at the cursor can be released.
//
// The buffer's worst-case occupancy is bounded by the number of requests
// in flight concurrently minus one: only currently-executing requests
// can be out of order, and every predecessor eventually produces an
// outcome (the pool never silently drops work), so no gap is permanent.
type Ordered[M any] struct {
	mu     sync.Mutex
	cond   *sync.Cond
	cursor uint64                        // next sequence number to emit
	held   map[uint64]*request.Outcome[M] // out-of-order arrivals
	ready  []*request.Outcome[M]          // contiguous run, consumer-visible
	closed bool
}

// NewOrdered creates an ordered sink. start is the first sequence number
// that will be emitted (the facade assigns sequence numbers from 1).
func NewOrdered[M any](start uint64) *Ordered[M] {
	s := &Ordered[M]{
		cursor: start,
		held:   make(map[uint64]*request.Outcome[M]),
	}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Push stores or releases an outcome. If the outcome's sequence number
// equals the cursor, it and any contiguous successors already held are
// moved to the consumer-visible run; otherwise it is buffered. Push
// never blocks.
func (s *Ordered[M]) Push(o *request.Outcome[M]) {
	s.mu.Lock()
	s.held[o.Seq] = o
	s.flushContiguous()
	s.mu.Unlock()
	s.cond.Broadcast()
}

// flushContiguous releases the contiguous run starting at the cursor.
// Caller holds s.mu.
func (s *Ordered[M]) flushContiguous() {
	for {
		o, ok := s.held[s.cursor]
		if !ok {
			return
		}
		delete(s.held, s.cursor)
		s.ready = append(s.ready, o)
		s.cursor++
	}
}

// Next blocks until the next in-sequence outcome is releasable, the
// stream has ended (ErrDone), or ctx is done.
func (s *Ordered[M]) Next(ctx context.Context) (*request.Outcome[M], error) {
	stop := context.AfterFunc(ctx, func() {
		s.mu.Lock()
		s.cond.Broadcast()
		s.mu.Unlock()
	})
	defer stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	for len(s.ready) == 0 {
		if s.closed {
			return nil, ErrDone
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s.cond.Wait()
	}

	o := s.ready[0]
	s.ready = s.ready[1:]
	return o, nil
}

// CloseSink marks end-of-stream. Already-released outcomes remain
// consumable; once the ready run drains, Next returns ErrDone.
func (s *Ordered[M]) CloseSink() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cond.Broadcast()
}

// Pending returns the number of out-of-order outcomes currently held
// back waiting for their predecessors.
func (s *Ordered[M]) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.held)
}
