package ydbgo

import (
	"time"

	"github.com/ydbgo/ydbgo/internal/xauth"
	"github.com/ydbgo/ydbgo/internal/xconf"
	"github.com/ydbgo/ydbgo/internal/xdiscovery"
	"github.com/ydbgo/ydbgo/internal/xlog"
)

// config collects every knob Open accepts, merging xconf.Tunables
// defaults with the connection string's own endpoint/database/credential.
type config struct {
	tunables   xconf.Tunables
	log        xlog.Logger
	balancer   func(*xdiscovery.Discovery) xdiscovery.Balancer
	credential xauth.Provider // overrides the connection string's own, if set
}

// Option configures Open.
type Option func(*config)

// WithTunables overrides the built-in xconf defaults wholesale.
func WithTunables(t xconf.Tunables) Option {
	return func(c *config) { c.tunables = t }
}

// WithLogger overrides the driver's no-op default logger.
func WithLogger(l xlog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.log = l
		}
	}
}

// WithCredential overrides any credential resolved from the connection
// string or environment.
func WithCredential(p xauth.Provider) Option {
	return func(c *config) {
		if p != nil {
			c.credential = p
		}
	}
}

// BalancerKind selects one of the Load Balancer strategies spec §4.2 names.
type BalancerKind int

const (
	BalanceRandom BalancerKind = iota
	BalanceNearestDatacentre
)

// WithBalancer selects the Load Balancer strategy; defaults to
// BalanceRandom.
func WithBalancer(kind BalancerKind) Option {
	return func(c *config) {
		switch kind {
		case BalanceNearestDatacentre:
			c.balancer = func(d *xdiscovery.Discovery) xdiscovery.Balancer { return xdiscovery.NewNearestDatacentre(d) }
		default:
			c.balancer = func(d *xdiscovery.Discovery) xdiscovery.Balancer { return xdiscovery.NewRandom(d) }
		}
	}
}

// WithDiscoveryInterval overrides the steady-state endpoint refresh period.
func WithDiscoveryInterval(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.tunables.DiscoveryInterval = d
		}
	}
}

// WithSessionPoolMax overrides the Session Pool's permit ceiling.
func WithSessionPoolMax(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.tunables.SessionPoolMax = n
		}
	}
}

func defaultConfig() config {
	return config{
		tunables: xconf.Defaults(),
		log:      xlog.Nop(),
		balancer: func(d *xdiscovery.Discovery) xdiscovery.Balancer { return xdiscovery.NewRandom(d) },
	}
}
