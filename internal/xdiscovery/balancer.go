package xdiscovery

import (
	"context"
	"errors"
	"math/rand"
	"sync/atomic"

	"github.com/ydbgo/ydbgo/internal/xwaiter"
)

// ErrNoEndpoint is returned when a service has no advertised endpoints
// in the current snapshot (spec §4.2).
var ErrNoEndpoint = errors.New("xdiscovery: no endpoint advertises this service")

// Balancer picks an endpoint URI for a service from the latest
// Discovery snapshot (C4). It also implements the Waiter capability:
// it completes once it first observes a non-empty snapshot.
type Balancer interface {
	Endpoint(service string) (string, error)
	Wait(ctx context.Context) error
}

// Static always returns the same URI and never refreshes.
type Static struct {
	uri string
}

func NewStatic(uri string) *Static { return &Static{uri: uri} }

func (s *Static) Endpoint(string) (string, error) { return s.uri, nil }
func (s *Static) Wait(context.Context) error       { return nil }

// dynamic is the shared plumbing for Random and NearestDatacentre: an
// atomic reference to the current Discovery snapshot, replaced on
// notification, plus the Waiter capability.
type dynamic struct {
	current atomic.Pointer[Snapshot]
	waiter  *xwaiter.Waiter
}

func newDynamic(d *Discovery) *dynamic {
	dyn := &dynamic{waiter: xwaiter.New()}
	if snap := d.Snapshot(); !snap.Empty() {
		dyn.current.Store(snap)
		dyn.waiter.Signal()
	}
	go dyn.watch(d.Subscribe())
	return dyn
}

func (d *dynamic) watch(ch <-chan *Snapshot) {
	for snap := range ch {
		d.current.Store(snap)
		if !snap.Empty() {
			d.waiter.Signal()
		}
	}
}

func (d *dynamic) Wait(ctx context.Context) error {
	return d.waiter.Wait(ctx)
}

func (d *dynamic) snapshot() *Snapshot {
	return d.current.Load()
}

// Random picks uniformly among the endpoints advertising the requested
// service.
type Random struct {
	*dynamic
}

func NewRandom(d *Discovery) *Random {
	return &Random{dynamic: newDynamic(d)}
}

func (r *Random) Endpoint(service string) (string, error) {
	snap := r.snapshot()
	if snap == nil {
		return "", ErrNoEndpoint
	}
	eps := snap.ByService[service]
	if len(eps) == 0 {
		return "", ErrNoEndpoint
	}
	return eps[rand.Intn(len(eps))].URI(), nil
}

// NearestDatacentre prefers endpoints whose Location equals the
// discovered self-location, falling back to Random among the rest.
type NearestDatacentre struct {
	*dynamic
}

func NewNearestDatacentre(d *Discovery) *NearestDatacentre {
	return &NearestDatacentre{dynamic: newDynamic(d)}
}

func (n *NearestDatacentre) Endpoint(service string) (string, error) {
	snap := n.snapshot()
	if snap == nil {
		return "", ErrNoEndpoint
	}
	eps := snap.ByService[service]
	if len(eps) == 0 {
		return "", ErrNoEndpoint
	}

	var local []Endpoint
	for _, ep := range eps {
		if ep.Location == snap.SelfLocation {
			local = append(local, ep)
		}
	}
	if len(local) > 0 {
		return local[rand.Intn(len(local))].URI(), nil
	}
	return eps[rand.Intn(len(eps))].URI(), nil
}

var (
	_ Balancer = (*Static)(nil)
	_ Balancer = (*Random)(nil)
	_ Balancer = (*NearestDatacentre)(nil)
)
