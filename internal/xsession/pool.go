package xsession

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Session is the driver-facing view of a server-side session: an
// opaque identifier plus whatever the façade layer needs to reuse it
// across calls.
type Session interface {
	ID() string
}

// Create constructs a new Session against the cluster.
type Create[S Session] func(ctx context.Context) (S, error)

// Destroy releases server-side resources for a Session being dropped
// (bad-session eviction or over-soft-cap trim).
type Destroy[S Session] func(ctx context.Context, s S)

// Keepalive probes an idle Session; a non-nil error marks it bad.
type Keepalive[S Session] func(ctx context.Context, s S) error

// Pool is the Session Pool (C8): bounded by a semaphore (default
// 1000), with a free list of idle sessions and exactly-once permit
// return even when the caller's operation panics.
type Pool[S Session] struct {
	sem     chan struct{}
	create  Create[S]
	destroy Destroy[S]
	ka      Keepalive[S]

	softCap int

	mu     sync.Mutex
	free   []S
	closed atomic.Bool

	stopKeepalive chan struct{}
}

// Option configures a Pool at construction time.
type Option[S Session] func(*Pool[S])

// WithMax overrides the default permit count of 1000.
func WithMax[S Session](max int) Option[S] {
	return func(p *Pool[S]) {
		if max > 0 {
			p.sem = make(chan struct{}, max)
		}
	}
}

// WithSoftCap bounds the free list's size; sessions released beyond it
// are destroyed instead of recycled.
func WithSoftCap[S Session](cap int) Option[S] {
	return func(p *Pool[S]) {
		if cap > 0 {
			p.softCap = cap
		}
	}
}

// WithKeepalive enables periodic probing of idle sessions at the given
// interval; a failing probe marks the session bad and destroys it.
func WithKeepalive[S Session](interval time.Duration, ka Keepalive[S]) Option[S] {
	return func(p *Pool[S]) {
		if interval > 0 && ka != nil {
			p.ka = ka
			go p.keepaliveLoop(interval)
		}
	}
}

// New constructs a Pool. create/destroy must be non-nil.
func New[S Session](create Create[S], destroy Destroy[S], opts ...Option[S]) *Pool[S] {
	p := &Pool[S]{
		sem:           make(chan struct{}, 1000),
		create:        create,
		destroy:       destroy,
		softCap:       1000,
		stopKeepalive: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Handle wraps an acquired Session with its exactly-once drop
// callback (spec §4.6: "returns its permit exactly once even on
// panic/unwind").
type Handle[S Session] struct {
	Session  S
	pool     *Pool[S]
	returned atomic.Bool
}

// Acquire awaits a permit, then takes an idle session from the free
// list or creates one.
func (p *Pool[S]) Acquire(ctx context.Context) (*Handle[S], error) {
	if p.closed.Load() {
		return nil, ErrPoolClosed
	}

	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	p.mu.Lock()
	var s S
	var ok bool
	if n := len(p.free); n > 0 {
		s = p.free[n-1]
		p.free = p.free[:n-1]
		ok = true
	}
	p.mu.Unlock()

	if !ok {
		created, err := p.create(ctx)
		if err != nil {
			<-p.sem // give the permit back: creation never happened
			return nil, fmt.Errorf("%w: %w", ErrCreateFailed, err)
		}
		s = created
	}

	return &Handle[S]{Session: s, pool: p}, nil
}

// Release returns the session. bad destroys it instead of recycling;
// otherwise it goes back to the free list, or is destroyed if the free
// list is already at the soft cap. Release is safe to call more than
// once — only the first call has effect, matching the exactly-once
// permit-return invariant.
func (h *Handle[S]) Release(ctx context.Context, bad bool) {
	if !h.returned.CompareAndSwap(false, true) {
		return
	}
	p := h.pool

	if bad {
		p.destroy(ctx, h.Session)
		<-p.sem
		return
	}

	p.mu.Lock()
	if len(p.free) >= p.softCap {
		p.mu.Unlock()
		p.destroy(ctx, h.Session)
		<-p.sem
		return
	}
	p.free = append(p.free, h.Session)
	p.mu.Unlock()
	<-p.sem
}

// Do borrows a session for the duration of fn. The permit is returned
// exactly once, even if fn panics: the deferred release runs during
// unwind, the session is marked bad, and the panic is re-raised
// unchanged.
func (p *Pool[S]) Do(ctx context.Context, fn func(S) error) error {
	h, err := p.Acquire(ctx)
	if err != nil {
		return err
	}

	bad := false
	defer func() {
		if r := recover(); r != nil {
			h.Release(context.Background(), true)
			panic(r)
		}
		h.Release(context.Background(), bad)
	}()

	if err = fn(h.Session); err != nil {
		if be, ok := any(err).(interface{ BadSession() bool }); ok && be.BadSession() {
			bad = true
		}
	}
	return err
}

func (p *Pool[S]) keepaliveLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-p.stopKeepalive:
			return
		case <-ticker.C:
			p.probeIdle()
		}
	}
}

func (p *Pool[S]) probeIdle() {
	p.mu.Lock()
	batch := append([]S(nil), p.free...)
	p.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, s := range batch {
		if err := p.ka(ctx, s); err != nil {
			p.mu.Lock()
			for i, f := range p.free {
				if f.ID() == s.ID() {
					p.free = append(p.free[:i], p.free[i+1:]...)
					break
				}
			}
			p.mu.Unlock()
			p.destroy(ctx, s)
		}
	}
}

// Close stops keepalive probing and destroys every idle session. The
// pool is unusable afterward.
func (p *Pool[S]) Close(ctx context.Context) {
	if !p.closed.CompareAndSwap(false, true) {
		return
	}
	close(p.stopKeepalive)

	p.mu.Lock()
	free := p.free
	p.free = nil
	p.mu.Unlock()

	for _, s := range free {
		p.destroy(ctx, s)
	}
}

// Len reports the number of sessions currently idle in the free list.
func (p *Pool[S]) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.free)
}
