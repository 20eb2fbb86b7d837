package xconn

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sony/gobreaker/v2"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
)

// Entry is a Channel Entry (spec §3): a lazily-connected transport plus
// the bookkeeping the pool and its callers need. Entries outlive any
// single call.
type Entry struct {
	URI     string
	conn    *grpc.ClientConn
	lastUse atomic.Int64 // unix nano, updated lock-free on every hit
	breaker *gobreaker.CircuitBreaker[any]
}

// Conn returns the underlying (lazily dialled) channel.
func (e *Entry) Conn() *grpc.ClientConn { return e.conn }

// LastUse returns the instant of the most recent Connection() hit for this URI.
func (e *Entry) LastUse() time.Time { return time.Unix(0, e.lastUse.Load()) }

// Breaker returns the per-endpoint circuit breaker. Callers wrap RPC
// execution in it; the pool itself never calls it — this keeps the
// pool's job limited to "hand back a channel", per spec §4.1.
func (e *Entry) Breaker() *gobreaker.CircuitBreaker[any] { return e.breaker }

// Pool is the Connection Pool (C3). The zero value is not usable; use New.
type Pool struct {
	mu      sync.Mutex
	entries map[string]*Entry

	keepalive time.Duration

	unaryInterceptors  []grpc.UnaryClientInterceptor
	streamInterceptors []grpc.StreamClientInterceptor

	caOnce sync.Once
	caPool *x509.CertPool
	caErr  error
	caPath string

	closed atomic.Bool
}

// Option configures a Pool at construction time.
type Option func(*Pool)

// WithKeepalive overrides the default 15s TCP keepalive (spec §4.1).
func WithKeepalive(d time.Duration) Option {
	return func(p *Pool) {
		if d > 0 {
			p.keepalive = d
		}
	}
}

// WithCACertificate sets the PEM bundle path added to the TLS roots for
// every grpcs:// endpoint. Loaded at most once, lazily, on first grpcs
// dial (spec §4.1 "one path, loaded once").
func WithCACertificate(path string) Option {
	return func(p *Pool) { p.caPath = path }
}

// WithUnaryInterceptor chains a client interceptor onto every unary
// call made over channels this pool dials — the Auth Interceptor (C6)
// rides in here.
func WithUnaryInterceptor(i grpc.UnaryClientInterceptor) Option {
	return func(p *Pool) {
		if i != nil {
			p.unaryInterceptors = append(p.unaryInterceptors, i)
		}
	}
}

// WithStreamInterceptor chains a client interceptor onto every stream
// opened over channels this pool dials.
func WithStreamInterceptor(i grpc.StreamClientInterceptor) Option {
	return func(p *Pool) {
		if i != nil {
			p.streamInterceptors = append(p.streamInterceptors, i)
		}
	}
}

// New constructs an empty Connection Pool.
func New(opts ...Option) *Pool {
	p := &Pool{
		entries:   make(map[string]*Entry),
		keepalive: 15 * time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Connection returns the channel for uri, dialling lazily on first use.
// Repeat calls between resets return the identical *grpc.ClientConn
// (spec §8 testable property).
func (p *Pool) Connection(uri string) (*Entry, error) {
	if p.closed.Load() {
		return nil, ErrClosed
	}

	target, useTLS, err := parseEndpointURI(uri)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	if e, ok := p.entries[uri]; ok {
		p.mu.Unlock()
		e.lastUse.Store(time.Now().UnixNano())
		return e, nil
	}
	p.mu.Unlock()

	conn, err := p.dial(target, useTLS)
	if err != nil {
		return nil, err
	}

	e := &Entry{
		URI:  uri,
		conn: conn,
		breaker: gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
			Name:        uri,
			MaxRequests: 1,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
	}
	e.lastUse.Store(time.Now().UnixNano())

	p.mu.Lock()
	if existing, ok := p.entries[uri]; ok {
		// Lost a race with a concurrent dial of the same URI; keep the
		// winner and close our redundant channel rather than leaking it.
		p.mu.Unlock()
		_ = conn.Close()
		existing.lastUse.Store(time.Now().UnixNano())
		return existing, nil
	}
	p.entries[uri] = e
	p.mu.Unlock()

	return e, nil
}

// Reset closes and forgets the channel for uri, if any, forcing the
// next Connection(uri) to redial.
func (p *Pool) Reset(uri string) error {
	p.mu.Lock()
	e, ok := p.entries[uri]
	if ok {
		delete(p.entries, uri)
	}
	p.mu.Unlock()
	if !ok {
		return nil
	}
	return e.conn.Close()
}

// Close closes every pooled channel. The pool is unusable afterward.
func (p *Pool) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	p.mu.Lock()
	entries := p.entries
	p.entries = make(map[string]*Entry)
	p.mu.Unlock()

	var firstErr error
	for _, e := range entries {
		if err := e.conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// SweepIdle closes channels whose LastUse is older than ttl. The base
// design never evicts; calling this is an implementer's choice the
// spec leaves unobservable to callers (spec §4.1).
func (p *Pool) SweepIdle(ttl time.Duration) {
	cutoff := time.Now().Add(-ttl).UnixNano()

	p.mu.Lock()
	var stale []*Entry
	for uri, e := range p.entries {
		if e.lastUse.Load() < cutoff {
			stale = append(stale, e)
			delete(p.entries, uri)
		}
	}
	p.mu.Unlock()

	for _, e := range stale {
		_ = e.conn.Close()
	}
}

func (p *Pool) dial(target string, useTLS bool) (*grpc.ClientConn, error) {
	var transportCreds credentials.TransportCredentials
	if useTLS {
		pool, err := p.caCertPool()
		if err != nil {
			return nil, err
		}
		tlsConfig := &tls.Config{MinVersion: tls.VersionTLS12}
		if pool != nil {
			tlsConfig.RootCAs = pool
		}
		transportCreds = credentials.NewTLS(tlsConfig)
	} else {
		transportCreds = insecure.NewCredentials()
	}

	opts := []grpc.DialOption{
		grpc.WithTransportCredentials(transportCreds),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                p.keepalive,
			Timeout:             p.keepalive,
			PermitWithoutStream: true,
		}),
	}
	if len(p.unaryInterceptors) > 0 {
		opts = append(opts, grpc.WithChainUnaryInterceptor(p.unaryInterceptors...))
	}
	if len(p.streamInterceptors) > 0 {
		opts = append(opts, grpc.WithChainStreamInterceptor(p.streamInterceptors...))
	}

	// grpc.NewClient does not dial eagerly: the socket opens on the
	// first RPC, matching the "lazy" requirement in spec §4.1.
	return grpc.NewClient(target, opts...)
}

func (p *Pool) caCertPool() (*x509.CertPool, error) {
	if p.caPath == "" {
		return nil, nil
	}
	p.caOnce.Do(func() {
		data, err := os.ReadFile(p.caPath)
		if err != nil {
			p.caErr = fmt.Errorf("%w: %w", ErrCAUnreadable, err)
			return
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(data) {
			p.caErr = fmt.Errorf("%w: no certificates found in %s", ErrCAUnreadable, p.caPath)
			return
		}
		p.caPool = pool
	})
	return p.caPool, p.caErr
}

// parseEndpointURI rewrites the connection string's scheme into a bare
// grpc.NewClient target and reports whether TLS is required
// (grpc:// → cleartext, grpcs:// → TLS, spec §4.1).
func parseEndpointURI(raw string) (target string, useTLS bool, err error) {
	u, parseErr := url.Parse(raw)
	if parseErr != nil || u.Host == "" {
		return "", false, fmt.Errorf("%w: %s", ErrMalformedURI, raw)
	}

	switch strings.ToLower(u.Scheme) {
	case "grpc":
		useTLS = false
	case "grpcs":
		useTLS = true
	default:
		return "", false, fmt.Errorf("%w: %s", ErrUnknownScheme, u.Scheme)
	}

	host := u.Hostname()
	port := u.Port()
	if port == "" {
		if useTLS {
			port = "2135"
		} else {
			port = "2136"
		}
	}
	if _, err := strconv.Atoi(port); err != nil {
		return "", false, fmt.Errorf("%w: bad port %s", ErrMalformedURI, port)
	}

	return host + ":" + port, useTLS, nil
}
