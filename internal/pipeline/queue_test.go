package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestQueue_FIFO(t *testing.T) {
	q := NewQueue[int](8)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := q.Send(ctx, i); err != nil {
			t.Fatalf("Send(%d): %v", i, err)
		}
	}
	for i := 0; i < 5; i++ {
		got, ok := q.Receive()
		if !ok {
			t.Fatal("unexpected end of stream")
		}
		if got != i {
			t.Errorf("item %d = %d, want %d", i, got, i)
		}
	}
}

func TestQueue_SendBlocksWhenFull(t *testing.T) {
	q := NewQueue[int](1)
	ctx := context.Background()

	if err := q.Send(ctx, 1); err != nil {
		t.Fatalf("Send: %v", err)
	}

	blocked, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if err := q.Send(blocked, 2); err == nil {
		t.Fatal("Send into a full queue should block until the context expires")
	}

	// Draining one item frees capacity.
	if _, ok := q.Receive(); !ok {
		t.Fatal("unexpected end of stream")
	}
	if err := q.Send(ctx, 2); err != nil {
		t.Fatalf("Send after drain: %v", err)
	}
}

func TestQueue_CloseSignalsEndOfStream(t *testing.T) {
	q := NewQueue[string](4)
	ctx := context.Background()

	_ = q.Send(ctx, "a")
	_ = q.Send(ctx, "b")
	q.Close()
	q.Close() // safe to repeat

	if got, ok := q.Receive(); !ok || got != "a" {
		t.Fatalf("Receive = (%q, %v), want (a, true)", got, ok)
	}
	if got, ok := q.Receive(); !ok || got != "b" {
		t.Fatalf("Receive = (%q, %v), want (b, true)", got, ok)
	}
	if _, ok := q.Receive(); ok {
		t.Fatal("drained closed queue should signal end of stream")
	}
}

func TestQueue_SendAfterCloseErrors(t *testing.T) {
	q := NewQueue[int](4)
	q.Close()

	if err := q.Send(context.Background(), 1); !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("Send after close = %v, want ErrQueueClosed", err)
	}
}

func TestQueue_SendRacingCloseNeverPanics(t *testing.T) {
	const producers = 8
	q := NewQueue[int](2)
	ctx := context.Background()

	// Producers keep sending while the queue closes underneath them; a
	// consumer drains so blocked sends can finish. Every send must end
	// in delivery or ErrQueueClosed, never a closed-channel panic.
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; ; i++ {
				if err := q.Send(ctx, p*1000+i); err != nil {
					if !errors.Is(err, ErrQueueClosed) {
						t.Errorf("Send: %v", err)
					}
					return
				}
			}
		}(p)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, ok := q.Receive(); !ok {
				return
			}
		}
	}()

	time.Sleep(10 * time.Millisecond)
	q.Close()
	wg.Wait()
	<-done
}

func TestQueue_CompetingConsumers(t *testing.T) {
	const items = 100
	q := NewQueue[int](items)
	ctx := context.Background()

	for i := 0; i < items; i++ {
		if err := q.Send(ctx, i); err != nil {
			t.Fatalf("Send: %v", err)
		}
	}
	q.Close()

	var mu sync.Mutex
	seen := make(map[int]int)

	var wg sync.WaitGroup
	for c := 0; c < 4; c++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				item, ok := q.Receive()
				if !ok {
					return
				}
				mu.Lock()
				seen[item]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != items {
		t.Fatalf("received %d distinct items, want %d", len(seen), items)
	}
	for item, count := range seen {
		if count != 1 {
			t.Errorf("item %d delivered %d times, want exactly once", item, count)
		}
	}
}
