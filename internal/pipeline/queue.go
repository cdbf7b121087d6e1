// Package pipeline implements the bounded queue fabric and the three
// stage run loops connecting ingestion to anchoring and storage.
package pipeline

import (
	"context"
	"errors"
	"sync"
)

// ErrQueueClosed is returned by Send once the queue has been closed.
var ErrQueueClosed = errors.New("pipeline: queue closed")

// Queue is a bounded FIFO carrying one stage's inbound messages.
// Send blocks while the queue is full, giving upstream producers
// backpressure; it never drops. Receive blocks until an item arrives or
// the queue is closed and drained. The receiving end may be shared by
// any number of consumer goroutines: each item is delivered to exactly
// one of them.
type Queue[T any] struct {
	ch   chan T
	once sync.Once

	// mu serializes Send against Close: senders hold it shared for the
	// duration of the enqueue, Close takes it exclusively before
	// closing the channel, so a late Send sees ErrQueueClosed instead
	// of panicking on a closed channel.
	mu     sync.RWMutex
	closed bool
}

// NewQueue creates a queue with the given capacity.
func NewQueue[T any](capacity int) *Queue[T] {
	return &Queue[T]{ch: make(chan T, capacity)}
}

// Send enqueues item, blocking while the queue is full. It returns
// ErrQueueClosed once the queue is closed, or the context error if ctx
// is done before space frees up.
func (q *Queue[T]) Send(ctx context.Context, item T) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.ch <- item:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Receive dequeues the next item. ok is false once the queue is closed
// and fully drained: the end-of-stream signal for consumers.
func (q *Queue[T]) Receive() (item T, ok bool) {
	item, ok = <-q.ch
	return item, ok
}

// Close marks the queue as having no more producers. It waits for
// in-flight Send calls to finish, so every item already admitted
// remains receivable. Safe to call more than once.
func (q *Queue[T]) Close() {
	q.once.Do(func() {
		q.mu.Lock()
		q.closed = true
		close(q.ch)
		q.mu.Unlock()
	})
}

// Len reports the number of items currently buffered.
func (q *Queue[T]) Len() int {
	return len(q.ch)
}
