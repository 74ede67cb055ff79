package sink

import (
	"context"
	"sync"

	"github.com/cozodb/openai-multi-client/request"
)

// Unordered yields outcomes in completion order. Delivery order has no
// relation to submission order.
type Unordered[M any] struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []*request.Outcome[M]
	closed bool
}

// NewUnordered creates an unordered sink.
func NewUnordered[M any]() *Unordered[M] {
	s := &Unordered[M]{}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Push appends an outcome and wakes a pending consumer. It never blocks.
func (s *Unordered[M]) Push(o *request.Outcome[M]) {
	s.mu.Lock()
	s.queue = append(s.queue, o)
	s.mu.Unlock()
	s.cond.Signal()
}

// Next blocks until an outcome is available, the stream has ended
// (ErrDone), or ctx is done.
func (s *Unordered[M]) Next(ctx context.Context) (*request.Outcome[M], error) {
	stop := context.AfterFunc(ctx, func() {
		s.mu.Lock()
		s.cond.Broadcast()
		s.mu.Unlock()
	})
	defer stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	for len(s.queue) == 0 {
		if s.closed {
			return nil, ErrDone
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s.cond.Wait()
	}

	o := s.queue[0]
	s.queue = s.queue[1:]
	return o, nil
}

// CloseSink marks end-of-stream. Outcomes already buffered remain
// consumable; once drained, Next returns ErrDone.
func (s *Unordered[M]) CloseSink() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cond.Broadcast()
}

// Len returns the number of outcomes buffered and not yet consumed.
func (s *Unordered[M]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}
