package transceiver

import (
	"context"
	"testing"
	"time"
)

func TestLinkSendsAndReceivesOnLoopbackMulticast(t *testing.T) {
	receive := NewQueue[TimestampedMessage](4)
	transmit := NewQueue[[]byte](4)
	link := &Link{
		GroupAddr: "239.255.7.7",
		Port:      17935,
		Receive:   receive,
		Transmit:  transmit,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	runErr := make(chan error, 1)
	go func() { runErr <- link.Run(ctx) }()
	time.Sleep(100 * time.Millisecond) // let the socket join the group before we send

	if !transmit.Offer([]byte("hello v2v")) {
		t.Fatalf("transmit queue should accept an offer immediately after startup")
	}

	select {
	case got, ok := <-receive.ch:
		if !ok {
			t.Fatalf("receive queue closed unexpectedly")
		}
		if string(got.Bytes) != "hello v2v" {
			t.Fatalf("received %q, want %q", got.Bytes, "hello v2v")
		}
	case <-time.After(1500 * time.Millisecond):
		t.Fatalf("did not receive the looped-back multicast datagram in time")
	}

	cancel()
	<-runErr
}
