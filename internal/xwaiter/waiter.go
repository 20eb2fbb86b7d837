// Package xwaiter implements the Waiter primitive (C7): a one-shot
// "first success" signal observed by many callers. Token Cache (C2),
// Discovery (C5), and the Load Balancer (C4) all complete one of these
// exactly once. The Driver has no Wait method of its own that gates on
// all three together.
package xwaiter

import (
	"context"
	"sync"
)

// Waiter completes exactly once, on the first call to Signal. Wait may
// be called by any number of goroutines, before or after Signal.
type Waiter struct {
	once sync.Once
	ch   chan struct{}
}

// New returns a ready-to-use Waiter.
func New() *Waiter {
	return &Waiter{ch: make(chan struct{})}
}

// Signal completes the waiter. Subsequent calls are no-ops.
func (w *Waiter) Signal() {
	w.once.Do(func() { close(w.ch) })
}

// Done returns a channel closed once Signal has been called.
func (w *Waiter) Done() <-chan struct{} {
	return w.ch
}

// Wait blocks until Signal has been called or ctx is done, whichever
// happens first.
func (w *Waiter) Wait(ctx context.Context) error {
	select {
	case <-w.ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Fired reports whether Signal has already been called, without blocking.
func (w *Waiter) Fired() bool {
	select {
	case <-w.ch:
		return true
	default:
		return false
	}
}

// All returns a Waiter that completes once every one of ws has
// completed. Nothing else in the module calls it.
func All(ws ...*Waiter) *Waiter {
	out := New()
	if len(ws) == 0 {
		out.Signal()
		return out
	}
	go func() {
		for _, w := range ws {
			<-w.Done()
		}
		out.Signal()
	}()
	return out
}
