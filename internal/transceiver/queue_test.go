package transceiver

import (
	"context"
	"testing"
	"time"
)

func TestQueueOfferAndReceive(t *testing.T) {
	q := NewQueue[int](1)
	if !q.Offer(42) {
		t.Fatalf("expected Offer to succeed on an empty queue")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	v, ok := q.Receive(ctx)
	if !ok || v != 42 {
		t.Fatalf("Receive() = %d, %v, want 42, true", v, ok)
	}
}

func TestQueueDropsOnFull(t *testing.T) {
	q := NewQueue[int](1)
	if !q.Offer(1) {
		t.Fatalf("first Offer should succeed")
	}
	if q.Offer(2) {
		t.Fatalf("second Offer into a full queue of capacity 1 should be dropped")
	}
}

func TestQueueReceiveUnblocksOnContextDone(t *testing.T) {
	q := NewQueue[int](1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok := q.Receive(ctx)
	if ok {
		t.Fatalf("expected Receive to report !ok after context cancellation")
	}
}
