package transceiver

import "context"

// Queue is a bounded FIFO with non-blocking, drop-on-full offers and
// blocking receives: the link and the producer never stall broadcast on
// a slow consumer, they simply drop.
type Queue[T any] struct {
	ch chan T
}

// NewQueue allocates a queue with the given capacity.
func NewQueue[T any](capacity int) *Queue[T] {
	return &Queue[T]{ch: make(chan T, capacity)}
}

// Offer attempts to enqueue v without blocking. It returns false if the
// queue is full, in which case the caller is responsible for logging the
// drop at critical severity.
func (q *Queue[T]) Offer(v T) bool {
	select {
	case q.ch <- v:
		return true
	default:
		return false
	}
}

// Receive blocks until a value is available or ctx is done. ok is false
// only when ctx ended first.
func (q *Queue[T]) Receive(ctx context.Context) (v T, ok bool) {
	select {
	case v = <-q.ch:
		return v, true
	case <-ctx.Done():
		return v, false
	}
}
