package o3

import (
	"sync"
)

// Ring is the job-queue contract the engine consumes: Get retrieves the
// task at a cursor, Done releases it so the producer can
// reuse the slot. Producers handle backpressure; the consumer side never
// blocks on publication.
//
// The production worker-pool / job-queue substrate is out of scope for
// this module — it is a generic single-producer-single-consumer ring the
// engine treats as an external collaborator. BoundedRing below is a
// minimal, real bounded SPSC implementation used to exercise o3.Job
// end-to-end in this module's own tests and examples.
type Ring interface {
	// Get blocks until a task is available (or the ring is closed), and
	// returns it along with a cursor identifying its slot.
	Get() (task *CopyTask, cursor int64, ok bool)
	// Done releases the slot at cursor, permitting the producer to reuse it.
	Done(cursor int64)
}

// Producer is the publish side of a BoundedRing: Publish blocks until a
// slot is free.
type Producer interface {
	Publish(task *CopyTask)
	Close()
}

// BoundedRing is a fixed-capacity single-producer-single-consumer ring
// buffer satisfying both Ring and Producer. It blocks the producer when
// full and the consumer when empty, using a condition variable rather than
// a lock-free cursor scheme, appropriate here since this implementation
// exists only to drive tests and examples.
type BoundedRing struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	notFull  *sync.Cond

	buf     []*CopyTask
	pending []bool // pending[i] true once published, cleared by Done
	head    int64  // next cursor the consumer will Get
	tail    int64  // next cursor the producer will Publish to
	count   int    // number of published, not-yet-Done slots
	closed  bool
}

// NewBoundedRing creates a ring with the given capacity (must be > 0).
func NewBoundedRing(capacity int) *BoundedRing {
	r := &BoundedRing{
		buf:     make([]*CopyTask, capacity),
		pending: make([]bool, capacity),
	}
	r.notEmpty = sync.NewCond(&r.mu)
	r.notFull = sync.NewCond(&r.mu)

	return r
}

// Publish blocks until a free slot exists, then publishes task.
func (r *BoundedRing) Publish(task *CopyTask) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for r.count == len(r.buf) && !r.closed {
		r.notFull.Wait()
	}

	if r.closed {
		return
	}

	slot := int(r.tail) % len(r.buf)
	r.buf[slot] = task
	r.pending[slot] = true
	r.tail++
	r.count++

	r.notEmpty.Signal()
}

// Close marks the ring closed; blocked Get calls return ok=false once
// drained, and blocked Publish calls return without publishing.
func (r *BoundedRing) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true
	r.notEmpty.Broadcast()
	r.notFull.Broadcast()
}

// Get blocks until a task is available, returning it and its cursor.
func (r *BoundedRing) Get() (*CopyTask, int64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for r.head == r.tail && !r.closed {
		r.notEmpty.Wait()
	}

	if r.head == r.tail {
		return nil, 0, false
	}

	cursor := r.head
	slot := int(cursor) % len(r.buf)
	task := r.buf[slot]
	r.head++

	return task, cursor, true
}

// Done releases the slot at cursor, clearing it and waking any producer
// blocked on a full ring.
func (r *BoundedRing) Done(cursor int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	slot := int(cursor) % len(r.buf)
	r.buf[slot] = nil
	r.pending[slot] = false
	r.count--

	r.notFull.Signal()
}
