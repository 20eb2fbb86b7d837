// Package xpump coordinates the goroutine pairs that every bidi stream
// consumer in this driver needs: one loop pumping frames out, one
// pumping responses in, with a fault in either tearing down both.
//
// Grounded on the teacher's xrun.Group (errgroup.Group layered over
// context.WithCancelCause), shrunk from a process-wide service runner
// down to a single stream's send/receive pair.
package xpump

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Pump runs a fixed set of loops under one errgroup and one cancelable
// context: any loop returning a non-nil error cancels the others' context.
type Pump struct {
	eg     *errgroup.Group
	ctx    context.Context
	cancel context.CancelCauseFunc
}

// New derives a Pump from parent. The Pump's Context is cancelled when
// any Go'd function returns a non-nil error, or Stop is called.
func New(parent context.Context) *Pump {
	causeCtx, cancel := context.WithCancelCause(parent)
	eg, ctx := errgroup.WithContext(causeCtx)
	return &Pump{eg: eg, ctx: ctx, cancel: cancel}
}

// Context returns the Pump's derived context.
func (p *Pump) Context() context.Context { return p.ctx }

// Go runs fn under the Pump's errgroup.
func (p *Pump) Go(fn func() error) {
	p.eg.Go(fn)
}

// Stop cancels the Pump's context with cause, signalling every running
// loop to exit. Safe to call more than once; only the first cause sticks.
func (p *Pump) Stop(cause error) {
	p.cancel(cause)
}

// Wait blocks until every Go'd function has returned and reports the
// first non-nil error.
func (p *Pump) Wait() error {
	defer p.cancel(nil)
	return p.eg.Wait()
}
