package xauth

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ydbgo/ydbgo/internal/xlog"
	"github.com/ydbgo/ydbgo/internal/xwaiter"
)

// tokenKey is the singleflight.Group's only key: the cache holds
// exactly one credential (spec §3), unlike the teacher's multi-tenant
// TokenCache which keys by tenant/credential identity.
const tokenKey = "token"

// entry is the cache's current token-info, swapped atomically as a
// whole value — never mutated in place.
type entry struct {
	token     string
	nextRenew time.Time
}

// Cache is the Token Cache (C2): holds the latest token, drives
// at-most-one background refresh, and wakes waiters on first success.
// Grounded on the teacher's TokenCache — same singleflight.Group renew
// guard and stale-value-until-truly-expired semantics — collapsed from
// its multi-tenant L1/L2 design down to the spec's single-credential
// shape, so the Group only ever has one key in flight.
type Cache struct {
	cred Provider
	log  xlog.Logger

	current atomic.Pointer[entry]
	group   singleflight.Group

	waiter *xwaiter.Waiter
}

// New constructs a Cache around a credential Provider. The first call
// to Token triggers the first (blocking) fetch; afterwards Token never
// blocks.
func New(cred Provider, opts ...Option) *Cache {
	c := &Cache{
		cred:   cred,
		log:    xlog.Nop(),
		waiter: xwaiter.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Option configures a Cache at construction time.
type Option func(*Cache)

// WithLogger overrides the no-op logger.
func WithLogger(l xlog.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.log = l
		}
	}
}

// Token is non-blocking once warm: if the cached token is past its
// next-renew instant, it kicks off a background refresh (deduplicated
// by the singleflight.Group if one is already in flight) and returns
// the (still usable) stale token. The very first call, with nothing
// cached yet, blocks for the initial fetch (spec §3 "created lazily on
// first use").
func (c *Cache) Token(ctx context.Context) (string, error) {
	e := c.current.Load()
	if e == nil {
		return c.fetchBlocking(ctx)
	}

	if time.Now().After(e.nextRenew) {
		c.refreshInBackground()
	}
	return e.token, nil
}

// Wait blocks until the first successful fetch has completed.
func (c *Cache) Wait(ctx context.Context) error {
	return c.waiter.Wait(ctx)
}

func (c *Cache) fetchBlocking(ctx context.Context) (string, error) {
	v, err, _ := c.group.Do(tokenKey, func() (any, error) {
		return c.fetch(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// refreshInBackground joins an in-flight renewal if one exists, or
// starts one; either way the caller never blocks on it (spec §4.4
// invariant: at most one refresh in flight).
func (c *Cache) refreshInBackground() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if _, err, _ := c.group.Do(tokenKey, func() (any, error) {
			return c.fetch(ctx)
		}); err != nil {
			c.log.Warn(ctx, "xauth: background token refresh failed, keeping stale token", slog.Any(xlog.KeyError, err))
		}
	}()
}

func (c *Cache) fetch(ctx context.Context) (string, error) {
	info, err := c.cred.Token(ctx)
	if err != nil {
		return "", err
	}
	c.current.Store(&entry{token: info.Token, nextRenew: info.NextRenew})
	c.waiter.Signal()
	return info.Token, nil
}
