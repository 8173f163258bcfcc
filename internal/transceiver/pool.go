package transceiver

import "context"

// WorkerPool is the bounded compute pool crypto work (sign, verify,
// extract) is offloaded to, keeping it off the goroutines that drive
// the link and the queues. Sized by the num_threads setting.
type WorkerPool struct {
	tokens chan struct{}
}

// NewWorkerPool returns a pool that admits at most size concurrent jobs.
func NewWorkerPool(size int) *WorkerPool {
	if size < 1 {
		size = 1
	}
	return &WorkerPool{tokens: make(chan struct{}, size)}
}

// Submit runs fn on a pool slot, blocking until one is free or ctx ends.
// Acquiring a slot and running fn are both suspension points the event
// loop never shares a thread with; the result is returned synchronously
// to the caller, which itself typically runs in its own goroutine.
func (p *WorkerPool) Submit(ctx context.Context, fn func() (any, error)) (any, error) {
	select {
	case p.tokens <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-p.tokens }()

	return fn()
}
