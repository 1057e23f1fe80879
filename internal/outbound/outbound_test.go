package outbound

import (
	"testing"
	"time"

	"github.com/nano-kit/zenoh-remote-bridge/internal/wire"
)

func TestSendRecvOrder(t *testing.T) {
	q := New()
	q.Send(wire.Ok{RequestTag: 1}, nil)
	q.Send(wire.Ok{RequestTag: 2}, nil)

	e1, ok := q.Recv()
	if !ok || e1.Msg.(wire.Ok).RequestTag != 1 {
		t.Fatalf("unexpected first envelope: %+v ok=%v", e1, ok)
	}
	e2, ok := q.Recv()
	if !ok || e2.Msg.(wire.Ok).RequestTag != 2 {
		t.Fatalf("unexpected second envelope: %+v ok=%v", e2, ok)
	}
}

func TestRecvBlocksUntilSend(t *testing.T) {
	q := New()
	done := make(chan Envelope, 1)
	go func() {
		e, ok := q.Recv()
		if !ok {
			return
		}
		done <- e
	}()

	select {
	case <-done:
		t.Fatal("Recv returned before Send")
	case <-time.After(20 * time.Millisecond):
	}

	q.Send(wire.Ok{RequestTag: 7}, nil)

	select {
	case e := <-done:
		if e.Msg.(wire.Ok).RequestTag != 7 {
			t.Fatalf("unexpected envelope %+v", e)
		}
	case <-time.After(time.Second):
		t.Fatal("Recv never returned after Send")
	}
}

func TestCloseUnblocksRecv(t *testing.T) {
	q := New()
	done := make(chan bool, 1)
	go func() {
		_, ok := q.Recv()
		done <- ok
	}()
	time.Sleep(10 * time.Millisecond)
	q.Close()

	select {
	case ok := <-done:
		if ok {
			t.Fatal("expected ok=false after Close with no pending items")
		}
	case <-time.After(time.Second):
		t.Fatal("Recv never unblocked after Close")
	}
}

func TestSendAfterCloseIsNoop(t *testing.T) {
	q := New()
	q.Close()
	q.Send(wire.Ok{RequestTag: 1}, nil)
	_, ok := q.Recv()
	if ok {
		t.Fatal("expected no envelopes after Close")
	}
}

func TestCloseDrainsQueuedItemsFirst(t *testing.T) {
	q := New()
	q.Send(wire.Ok{RequestTag: 1}, nil)
	q.Close()

	e, ok := q.Recv()
	if !ok || e.Msg.(wire.Ok).RequestTag != 1 {
		t.Fatalf("expected queued item to drain before close takes effect, got %+v ok=%v", e, ok)
	}
	_, ok = q.Recv()
	if ok {
		t.Fatal("expected queue empty after drain")
	}
}
