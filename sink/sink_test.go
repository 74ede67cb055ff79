package sink_test

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/cozodb/openai-multi-client/request"
	"github.com/cozodb/openai-multi-client/sink"
)

func outcome(seq uint64) *request.Outcome[any] {
	return &request.Outcome[any]{Seq: seq}
}

func TestUnordered_YieldsInCompletionOrder(t *testing.T) {
	s := sink.NewUnordered[any]()

	s.Push(outcome(3))
	s.Push(outcome(1))
	s.Push(outcome(2))
	s.CloseSink()

	var got []uint64
	for {
		o, err := s.Next(context.Background())
		if err == sink.ErrDone {
			break
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got = append(got, o.Seq)
	}

	want := []uint64{3, 1, 2}
	if len(got) != len(want) {
		t.Fatalf("got %d outcomes, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("outcome[%d].Seq = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestUnordered_NextBlocksUntilPush(t *testing.T) {
	s := sink.NewUnordered[any]()

	go func() {
		time.Sleep(20 * time.Millisecond)
		s.Push(outcome(7))
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	o, err := s.Next(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.Seq != 7 {
		t.Errorf("Seq = %d, want 7", o.Seq)
	}
}

func TestUnordered_NextHonorsContext(t *testing.T) {
	s := sink.NewUnordered[any]()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := s.Next(ctx)
	if err != context.DeadlineExceeded {
		t.Fatalf("err = %v, want context.DeadlineExceeded", err)
	}
}

func TestUnordered_DrainsBufferedAfterClose(t *testing.T) {
	s := sink.NewUnordered[any]()
	s.Push(outcome(1))
	s.Push(outcome(2))
	s.CloseSink()

	for want := 1; want <= 2; want++ {
		o, err := s.Next(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if o.Seq != uint64(want) {
			t.Errorf("Seq = %d, want %d", o.Seq, want)
		}
	}
	if _, err := s.Next(context.Background()); err != sink.ErrDone {
		t.Fatalf("err = %v, want ErrDone", err)
	}
}

func TestOrdered_HoldsOutOfOrderUntilPredecessor(t *testing.T) {
	s := sink.NewOrdered[any](1)

	s.Push(outcome(2))
	s.Push(outcome(3))

	if got := s.Pending(); got != 2 {
		t.Errorf("Pending() = %d, want 2", got)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := s.Next(ctx); err != context.DeadlineExceeded {
		t.Fatalf("Next before seq 1 arrived: err = %v, want deadline exceeded", err)
	}

	// Arrival of seq 1 releases the whole contiguous run.
	s.Push(outcome(1))
	for want := uint64(1); want <= 3; want++ {
		o, err := s.Next(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if o.Seq != want {
			t.Errorf("Seq = %d, want %d", o.Seq, want)
		}
	}
	if got := s.Pending(); got != 0 {
		t.Errorf("Pending() = %d, want 0", got)
	}
}

func TestOrdered_RandomCompletionOrderYieldsSequence(t *testing.T) {
	const n = 200
	s := sink.NewOrdered[any](1)

	seqs := rand.Perm(n)
	go func() {
		for _, i := range seqs {
			s.Push(outcome(uint64(i + 1)))
		}
		s.CloseSink()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var got []uint64
	for {
		o, err := s.Next(ctx)
		if err == sink.ErrDone {
			break
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got = append(got, o.Seq)
	}

	if len(got) != n {
		t.Fatalf("got %d outcomes, want %d", len(got), n)
	}
	for i, seq := range got {
		if seq != uint64(i+1) {
			t.Fatalf("outcome[%d].Seq = %d, want %d", i, seq, i+1)
		}
	}
}

func TestOrdered_StartOffset(t *testing.T) {
	s := sink.NewOrdered[any](5)
	s.Push(outcome(6))
	s.Push(outcome(5))
	s.CloseSink()

	for want := uint64(5); want <= 6; want++ {
		o, err := s.Next(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if o.Seq != want {
			t.Errorf("Seq = %d, want %d", o.Seq, want)
		}
	}
}

func TestOrdered_MetadataCarriedThrough(t *testing.T) {
	s := sink.NewOrdered[int](1)
	s.Push(&request.Outcome[int]{Seq: 1, Metadata: map[string]int{"id": 42}})
	s.CloseSink()

	o, err := s.Next(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.Metadata["id"] != 42 {
		t.Errorf("Metadata[id] = %d, want 42", o.Metadata["id"])
	}
}
