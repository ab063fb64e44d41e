// Package o3 implements the O3 Copy Job and the O3 Partition Task
// envelope: the consumer side of the per-partition, per-column copy task
// fan-out, its atomic reference counters, and the partition completion
// latch.
package o3

import (
	"fmt"
	"sync/atomic"

	"github.com/colbase/tsmerge/errs"
)

// Counter is a monotonically-decreasing atomic reference counter, modeling
// a column's outstanding-copy count and a partition's in-flight-column
// count. It is never reused: once it reaches zero, further CountDown calls
// are an invariant violation.
//
// CountDown returns whether the caller observed the transition to zero
// (an atomic decrement returning a prior value of 1).
type Counter struct {
	n atomic.Int64
}

// NewCounter creates a Counter initialized to n outstanding units of work.
func NewCounter(n int) *Counter {
	c := &Counter{}
	c.n.Store(int64(n))

	return c
}

// CountDown decrements the counter by one and reports whether this call
// observed the counter reach zero — i.e. whether the caller is the last
// holder. Calling CountDown after the counter has already reached zero is
// an invariant violation: the counters are monotonically decreasing and
// never reused.
func (c *Counter) CountDown() (isLast bool, err error) {
	prior := c.n.Add(-1) + 1
	if prior <= 0 {
		return false, fmt.Errorf("counter decremented past zero: %w", errs.ErrCounterUnderflow)
	}

	return prior == 1, nil
}

// Value returns the counter's current value, for diagnostics/tests.
func (c *Counter) Value() int64 {
	return c.n.Load()
}

// Latch is a single-signal countdown primitive: the partition completion
// latch. Exactly one CountDown call per partition is expected to observe
// isLast==true from the owning Counter and signal the latch; Signal
// enforces that contract by failing on a second call, since a double signal
// here is a logic bug in the caller, not a recoverable runtime condition.
type Latch struct {
	signalled atomic.Bool
	done      chan struct{}
}

// NewLatch creates an unsignalled completion latch.
func NewLatch() *Latch {
	return &Latch{done: make(chan struct{})}
}

// Signal fires the latch. It must be called exactly once; a second call
// returns errs.ErrLatchDoubleSignal instead of silently succeeding, so a
// violation of the signalled-exactly-once invariant surfaces immediately
// rather than masking a counter bug.
func (l *Latch) Signal() error {
	if !l.signalled.CompareAndSwap(false, true) {
		return fmt.Errorf("latch signalled more than once: %w", errs.ErrLatchDoubleSignal)
	}

	close(l.done)

	return nil
}

// Wait blocks until Signal has been called.
func (l *Latch) Wait() {
	<-l.done
}

// Done returns a channel that closes when Signal has been called, for use in
// select statements alongside a context's Done channel.
func (l *Latch) Done() <-chan struct{} {
	return l.done
}

// Signalled reports whether Signal has already fired.
func (l *Latch) Signalled() bool {
	return l.signalled.Load()
}
