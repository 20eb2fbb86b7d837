package xdiscovery

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ydbgo/ydbgo/internal/xlog"
	"github.com/ydbgo/ydbgo/internal/xwaiter"
)

// ErrDiscovery is returned by Start when no listing has succeeded
// within the configured startup budget (spec §4.3).
var ErrDiscovery = errors.New("xdiscovery: initial endpoint listing failed")

// Lister performs one round of the cluster's list-endpoints RPC over
// the bootstrap channel. Kept as a function type rather than an
// interface coupling Discovery to internal/xconn + internal/xwire
// directly — the client wiring (client.go) supplies the closure.
type Lister func(ctx context.Context) ([]Endpoint, string, error)

// Discovery implements C5: periodically lists endpoints and publishes
// immutable snapshots to subscribers.
type Discovery struct {
	list Lister
	log  xlog.Logger

	interval      time.Duration
	startupBudget time.Duration

	current atomic.Pointer[Snapshot]
	seq     atomic.Uint64

	mu          sync.Mutex
	subscribers []chan *Snapshot

	waiter     *xwaiter.Waiter
	pessimize  chan string
	stop       chan struct{}
	stopped    sync.Once
	loopExited chan struct{}
}

// Option configures a Discovery at construction time.
type Option func(*Discovery)

func WithInterval(d time.Duration) Option {
	return func(d2 *Discovery) {
		if d > 0 {
			d2.interval = d
		}
	}
}

func WithStartupBudget(d time.Duration) Option {
	return func(d2 *Discovery) {
		if d > 0 {
			d2.startupBudget = d
		}
	}
}

func WithLogger(l xlog.Logger) Option {
	return func(d *Discovery) {
		if l != nil {
			d.log = l
		}
	}
}

// New constructs a Discovery. Call Start to begin polling.
func New(list Lister, opts ...Option) *Discovery {
	d := &Discovery{
		list:          list,
		log:           xlog.Nop(),
		interval:      time.Minute,
		startupBudget: 10 * time.Second,
		waiter:        xwaiter.New(),
		pessimize:     make(chan string, 16),
		stop:          make(chan struct{}),
		loopExited:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start performs the first listing synchronously, retrying failed
// attempts until one succeeds or the startup budget runs out, and then
// begins the background refresh loop. Returns ErrDiscovery if the
// first listing never succeeds in time.
func (d *Discovery) Start(ctx context.Context) error {
	startCtx, cancel := context.WithTimeout(ctx, d.startupBudget)
	defer cancel()

	for d.attempt(startCtx) != nil {
		select {
		case <-startCtx.Done():
			return ErrDiscovery
		case <-time.After(100 * time.Millisecond):
		}
	}

	go d.loop(ctx)
	return nil
}

func (d *Discovery) attempt(ctx context.Context) error {
	endpoints, self, err := d.list(ctx)
	if err != nil {
		d.log.Warn(ctx, "xdiscovery: list endpoints failed", slog.Any(xlog.KeyError, err))
		return err
	}
	d.publish(endpoints, self)
	return nil
}

func (d *Discovery) publish(endpoints []Endpoint, self string) {
	snap := newSnapshot(endpoints, self, d.seq.Add(1))
	d.current.Store(snap)
	d.waiter.Signal()

	d.mu.Lock()
	subs := append([]chan *Snapshot(nil), d.subscribers...)
	d.mu.Unlock()

	// Publication order is preserved: subscribers are fed from this
	// single goroutine, one snapshot at a time, so no subscriber ever
	// observes an older snapshot after a newer one (spec §5).
	for _, ch := range subs {
		select {
		case ch <- snap:
		default:
			// A slow subscriber drops an intermediate snapshot rather than
			// stalling publication for everyone else; it will pick up the
			// latest on its next receive via Snapshot().
		}
	}
}

func (d *Discovery) loop(ctx context.Context) {
	defer close(d.loopExited)

	timer := time.NewTimer(jitter(d.interval))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-d.stop:
			return
		case hint := <-d.pessimize:
			d.log.Info(ctx, "xdiscovery: pessimization hint triggered early refresh", slog.String(xlog.KeyEndpoint, hint))
			_ = d.attempt(ctx)
			if !timer.Stop() {
				<-timer.C
			}
			timer.Reset(jitter(d.interval))
		case <-timer.C:
			_ = d.attempt(ctx)
			timer.Reset(jitter(d.interval))
		}
	}
}

func jitter(base time.Duration) time.Duration {
	if base <= 0 {
		return time.Second
	}
	// +/- 10%
	delta := time.Duration(rand.Int63n(int64(base) / 5))
	return base - base/10 + delta
}

// Pessimize schedules an early refresh. Advisory: the hint is never
// required to be honoured immediately, and an unhealthy endpoint is
// never removed from the snapshot just because it was pessimized —
// only Discovery's own listing decides membership (spec §4.3).
func (d *Discovery) Pessimize(endpointURI string) {
	select {
	case d.pessimize <- endpointURI:
	default:
	}
}

// Snapshot returns the current Discovery State. Never nil after Start
// has succeeded once.
func (d *Discovery) Snapshot() *Snapshot {
	return d.current.Load()
}

// Subscribe returns a channel fed with every published Snapshot, in
// publication order, for as long as Discovery runs.
func (d *Discovery) Subscribe() <-chan *Snapshot {
	ch := make(chan *Snapshot, 4)
	d.mu.Lock()
	d.subscribers = append(d.subscribers, ch)
	d.mu.Unlock()
	return ch
}

// Wait blocks until the first Snapshot has been published or ctx ends.
func (d *Discovery) Wait(ctx context.Context) error {
	return d.waiter.Wait(ctx)
}

// Stop ends the background refresh loop, waits for it to exit, and
// closes every channel handed out by Subscribe.
func (d *Discovery) Stop() {
	d.stopped.Do(func() { close(d.stop) })
	<-d.loopExited

	d.mu.Lock()
	for _, ch := range d.subscribers {
		close(ch)
	}
	d.subscribers = nil
	d.mu.Unlock()
}
