// Package outbound is the per-connection fan-in: fabric callbacks (which may
// run on arbitrary goroutines and must never block) hand finished
// wire.OutMessage values to a single writer goroutine through an unbounded
// mutex-and-condvar-backed queue, keeping request handling and socket writes
// on separate goroutines.
package outbound

import (
	"sync"

	"github.com/nano-kit/zenoh-remote-bridge/internal/wire"
)

// Envelope pairs an outbound message with the seq_id to ack, when the
// triggering inbound message requested one.
type Envelope struct {
	Msg   wire.OutMessage
	SeqID *uint32
}

// Queue is an unbounded MPSC queue. Send never blocks: it appends to an
// internal slice guarded by a mutex and signals a condition variable; only
// the single consumer goroutine (Bridge's writer) calls Recv.
type Queue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []Envelope
	closed bool
}

func New() *Queue {
	q := &Queue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Send enqueues msg for delivery. It is safe to call from any goroutine,
// including fabric callbacks holding no other locks. Send on a closed queue
// is a silent no-op: the connection is tearing down and nothing is left to
// deliver to.
func (q *Queue) Send(msg wire.OutMessage, seqID *uint32) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.items = append(q.items, Envelope{Msg: msg, SeqID: seqID})
	q.cond.Signal()
}

// Recv blocks until an envelope is available or the queue is closed. The
// second return value is false once the queue is closed and drained.
func (q *Queue) Recv() (Envelope, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		return Envelope{}, false
	}
	e := q.items[0]
	q.items = q.items[1:]
	return e, true
}

// Close marks the queue closed and wakes the consumer. Any envelopes already
// queued are still drained by Recv; afterward Recv returns ok=false.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.cond.Broadcast()
}
