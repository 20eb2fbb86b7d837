package coordination

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"google.golang.org/grpc"

	"github.com/ydbgo/ydbgo/internal/xdispatch"
	"github.com/ydbgo/ydbgo/internal/xlog"
	"github.com/ydbgo/ydbgo/internal/xpump"
	"github.com/ydbgo/ydbgo/internal/xwire"
)

// State is the Coordination Session State (spec §3): Detached →
// Attaching → Attached → {Detached | Expired}.
type State int32

const (
	StateDetached State = iota
	StateAttaching
	StateAttached
	StateExpired
)

func (s State) String() string {
	switch s {
	case StateAttaching:
		return "Attaching"
	case StateAttached:
		return "Attached"
	case StateExpired:
		return "Expired"
	default:
		return "Detached"
	}
}

// Opener establishes the single bidi gRPC stream a Session rides on.
// Supplied by the client wiring: a Connection Pool entry's
// NewStream(ctx, &desc, method, grpc.CallContentSubtype(xwire.CodecName)).
type Opener func(ctx context.Context) (grpc.ClientStream, error)

// Session is the Coordination Session (C12).
type Session struct {
	nodePath string
	log      xlog.Logger

	stream  *xwire.Stream[xwire.CoordinationFrame, xwire.CoordinationFrameResponse]
	pending *xdispatch.Keyed[*xwire.CoordinationResponseEnvelope]

	state     atomic.Int32
	sessionID atomic.Uint64

	watchMu  chan struct{} // binary mutex over watchers, avoids importing sync for one map
	watchers map[string][]chan xwire.SemaphoreChanged

	leaseMu chan struct{} // binary mutex over leases, same idiom as watchMu
	leases  map[string][]*Lease

	pingOpaque atomic.Uint64
	lastPong   atomic.Int64

	pump    *xpump.Pump
	closing atomic.Bool
}

// Open attaches a new Coordination Session to nodePath over a freshly
// opened stream (spec §4.10: sends SessionStart, expects SessionStarted).
func Open(ctx context.Context, nodePath string, sessionSeed string, timeout time.Duration, open Opener, log xlog.Logger) (*Session, error) {
	if log == nil {
		log = xlog.Nop()
	}
	cs, err := open(ctx)
	if err != nil {
		return nil, err
	}

	s := &Session{
		nodePath: nodePath,
		log:      log,
		stream:   xwire.NewStream[xwire.CoordinationFrame, xwire.CoordinationFrameResponse](cs),
		pending:  xdispatch.NewKeyed[*xwire.CoordinationResponseEnvelope](),
		watchMu:  make(chan struct{}, 1),
		watchers: make(map[string][]chan xwire.SemaphoreChanged),
		leaseMu:  make(chan struct{}, 1),
		leases:   make(map[string][]*Lease),
	}
	s.state.Store(int32(StateAttaching))

	s.stream.Send(xwire.CoordinationFrame{
		SessionStart: &xwire.CoordinationSessionStart{
			NodePath:    nodePath,
			SessionSeed: sessionSeed,
			TimeoutMS:   timeout.Milliseconds(),
		},
	})

	resp, err := s.stream.Receive(ctx)
	if err != nil {
		s.state.Store(int32(StateExpired))
		_ = s.stream.Close()
		return nil, err
	}
	if resp.SessionStarted == nil {
		s.state.Store(int32(StateExpired))
		_ = s.stream.Close()
		return nil, ErrSessionDetached
	}
	s.sessionID.Store(resp.SessionStarted.SessionID)
	s.state.Store(int32(StateAttached))
	s.lastPong.Store(time.Now().UnixNano())

	s.pump = xpump.New(context.Background())
	s.pump.Go(s.dispatchLoop)
	s.pump.Go(func() error { return s.pingLoop(s.pump.Context(), timeout) })

	return s, nil
}

// State returns the session's current lifecycle state.
func (s *Session) State() State { return State(s.state.Load()) }

// dispatchLoop routes every inbound frame: operation responses go to
// the pending-request table keyed by request id, pushed semaphore
// changes fan out to watchers, pongs refresh the liveness clock. An
// unknown request id is logged and dropped (spec §4.10).
//
// It returns the stream error that ended it (non-nil, even on a plain
// close) so the pump's shared context cancels and pingLoop exits too.
func (s *Session) dispatchLoop() error {
	ctx := context.Background()
	for {
		resp, err := s.stream.Receive(ctx)
		if err != nil {
			if !s.closing.Load() {
				s.state.Store(int32(StateExpired))
			}
			s.pending.Close()
			s.closeAllLeases()
			return err
		}

		switch {
		case resp.Response != nil:
			env := resp.Response
			if !s.pending.Resolve(env.RequestID, env) {
				s.log.Warn(ctx, "coordination: response for unknown request id", slog.Uint64("request_id", env.RequestID))
			}
			if env.SemaphoreChanged != nil {
				s.fanOutChange(*env.SemaphoreChanged)
			}
		case resp.SemaphoreChanged != nil:
			s.fanOutChange(*resp.SemaphoreChanged)
		case resp.Pong != nil:
			s.lastPong.Store(time.Now().UnixNano())
		}
	}
}

func (s *Session) fanOutChange(ch xwire.SemaphoreChanged) {
	s.watchMu <- struct{}{}
	subs := append([]chan xwire.SemaphoreChanged(nil), s.watchers[ch.Name]...)
	<-s.watchMu

	for _, sub := range subs {
		select {
		case sub <- ch:
		default:
		}
	}

	if ch.Gone {
		s.closeLeasesForResource(ch.Name)
	}
}

// registerLease tracks l so its Done channel can be closed on
// ownership loss (the server reporting Gone) or session loss.
func (s *Session) registerLease(l *Lease) {
	s.leaseMu <- struct{}{}
	s.leases[l.resource] = append(s.leases[l.resource], l)
	<-s.leaseMu
}

// unregisterLease drops l from the registry, e.g. once Release has run.
func (s *Session) unregisterLease(l *Lease) {
	s.leaseMu <- struct{}{}
	ls := s.leases[l.resource]
	for i, other := range ls {
		if other == l {
			s.leases[l.resource] = append(ls[:i], ls[i+1:]...)
			break
		}
	}
	<-s.leaseMu
}

// closeLeasesForResource marks every lease held on name lost: the
// server reported this owner Gone.
func (s *Session) closeLeasesForResource(name string) {
	s.leaseMu <- struct{}{}
	ls := s.leases[name]
	delete(s.leases, name)
	<-s.leaseMu

	for _, l := range ls {
		l.markLost()
	}
}

// closeAllLeases marks every still-registered lease lost: the session
// itself was expired or closed, so no lease it holds can be assumed
// alive anymore.
func (s *Session) closeAllLeases() {
	s.leaseMu <- struct{}{}
	all := s.leases
	s.leases = make(map[string][]*Lease)
	<-s.leaseMu

	for _, ls := range all {
		for _, l := range ls {
			l.markLost()
		}
	}
}

// WatchSemaphore registers a channel fed with every SemaphoreChanged
// push for name, for as long as the session stays attached.
func (s *Session) WatchSemaphore(name string) <-chan xwire.SemaphoreChanged {
	ch := make(chan xwire.SemaphoreChanged, 4)
	s.watchMu <- struct{}{}
	s.watchers[name] = append(s.watchers[name], ch)
	<-s.watchMu
	return ch
}

// pingLoop sends a keepalive every timeout/3 and expires the session
// once no pong has arrived for more than 2*timeout (spec §4.10 "server
// pings"). It
// exits as soon as ctx is cancelled, whether that's because Close was
// called or because dispatchLoop's stream died first.
func (s *Session) pingLoop(ctx context.Context, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ticker := time.NewTicker(timeout / 3)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			opaque := s.pingOpaque.Add(1)
			s.stream.Send(xwire.CoordinationFrame{Request: &xwire.CoordinationRequestEnvelope{
				Ping: &xwire.CoordinationPing{Opaque: opaque},
			}})
			if time.Since(time.Unix(0, s.lastPong.Load())) > 2*timeout {
				s.state.Store(int32(StateExpired))
				return nil
			}
		}
	}
}

// call sends an operation envelope and waits for its correlated
// response, honoring ctx cancellation by forgetting the registration
// (spec §4.10's per-session monotone request-id dispatch).
func (s *Session) call(ctx context.Context, req xwire.CoordinationRequestEnvelope) (*xwire.CoordinationResponseEnvelope, error) {
	if s.State() != StateAttached {
		return nil, ErrSessionDetached
	}

	id, wait, err := s.pending.Next()
	if err != nil {
		return nil, ErrSessionExpired
	}
	req.RequestID = id
	s.stream.Send(xwire.CoordinationFrame{Request: &req})

	type result struct {
		resp *xwire.CoordinationResponseEnvelope
		ok   bool
	}
	done := make(chan result, 1)
	go func() {
		v, ok := wait()
		done <- result{v, ok}
	}()

	select {
	case r := <-done:
		if !r.ok {
			return nil, ErrSessionExpired
		}
		return r.resp, nil
	case <-ctx.Done():
		s.pending.Forget(id)
		return nil, ctx.Err()
	}
}

// Close detaches the session and tears down its stream. Idempotent.
func (s *Session) Close() error {
	if !s.closing.CompareAndSwap(false, true) {
		return nil
	}
	if s.State() != StateExpired {
		s.state.Store(int32(StateDetached))
	}
	s.pending.Close()
	s.closeAllLeases()
	err := s.stream.Close()
	s.pump.Stop(nil)
	_ = s.pump.Wait()
	return err
}
