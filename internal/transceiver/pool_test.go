package transceiver

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestWorkerPoolBoundsConcurrency(t *testing.T) {
	pool := NewWorkerPool(2)
	var active, maxActive int32

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	done := make(chan struct{})
	for i := 0; i < 5; i++ {
		go func() {
			_, _ = pool.Submit(ctx, func() (any, error) {
				n := atomic.AddInt32(&active, 1)
				for {
					cur := atomic.LoadInt32(&maxActive)
					if n <= cur || atomic.CompareAndSwapInt32(&maxActive, cur, n) {
						break
					}
				}
				time.Sleep(20 * time.Millisecond)
				atomic.AddInt32(&active, -1)
				return nil, nil
			})
			done <- struct{}{}
		}()
	}
	for i := 0; i < 5; i++ {
		<-done
	}

	if atomic.LoadInt32(&maxActive) > 2 {
		t.Errorf("observed %d concurrent jobs, want <= 2", maxActive)
	}
}

func TestWorkerPoolPropagatesResult(t *testing.T) {
	pool := NewWorkerPool(1)
	result, err := pool.Submit(context.Background(), func() (any, error) {
		return 7, nil
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if result.(int) != 7 {
		t.Fatalf("result = %v, want 7", result)
	}
}

func TestWorkerPoolSubmitRespectsCancellation(t *testing.T) {
	pool := NewWorkerPool(1)
	block := make(chan struct{})
	go pool.Submit(context.Background(), func() (any, error) {
		<-block
		return nil, nil
	})
	time.Sleep(10 * time.Millisecond) // let the first job take the only slot

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := pool.Submit(ctx, func() (any, error) { return nil, nil })
	if err == nil {
		t.Fatalf("expected Submit to fail once its context expires while waiting for a slot")
	}
	close(block)
}
