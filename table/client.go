package table

import (
	"context"
	"time"

	"google.golang.org/grpc"

	"github.com/ydbgo/ydbgo/internal/xretry"
	"github.com/ydbgo/ydbgo/internal/xsession"
)

// Client is the table façade: a Session Pool and a Transaction Runner
// wired together over one gRPC channel, exposing spec §4.7's three
// retry entry points.
type Client struct {
	pool   *xsession.Pool[*Session]
	runner *xretry.Runner
}

// Option configures a Client at construction time.
type Option func(*clientConfig)

type clientConfig struct {
	maxSessions     int
	softCap         int
	keepaliveEvery  time.Duration
}

// WithMaxSessions overrides the Session Pool's permit count.
func WithMaxSessions(n int) Option {
	return func(c *clientConfig) { c.maxSessions = n }
}

// WithKeepaliveInterval overrides how often idle sessions are probed.
func WithKeepaliveInterval(d time.Duration) Option {
	return func(c *clientConfig) { c.keepaliveEvery = d }
}

// NewClient wraps conn for table calls. methodPrefix is the gRPC
// method path prefix, e.g. "/Ydb.Table.V1.TableService/".
func NewClient(conn *grpc.ClientConn, methodPrefix string, opts ...Option) *Client {
	cfg := clientConfig{maxSessions: 1000, softCap: 1000, keepaliveEvery: 2 * time.Minute}
	for _, opt := range opts {
		opt(&cfg)
	}

	poolOpts := []xsession.Option[*Session]{
		xsession.WithMax[*Session](cfg.maxSessions),
		xsession.WithSoftCap[*Session](cfg.softCap),
		xsession.WithKeepalive[*Session](cfg.keepaliveEvery, keepaliveSession),
	}
	pool := xsession.New[*Session](createSession(conn, methodPrefix), destroySession, poolOpts...)

	acquire := func(ctx context.Context, fn func(xretry.Session) error) error {
		return pool.Do(ctx, func(s *Session) error { return fn(s) })
	}
	runner := xretry.NewRunner(acquire, nil, nil)

	return &Client{pool: pool, runner: runner}
}

// RetryTransaction runs op inside a transaction, retrying per spec
// §4.7 until opts.Budget is exhausted. op's TxHandle is the concrete
// *table.TxHandle downcast from the Runner's abstract interface, so
// callers get Execute in addition to Commit/Rollback.
func (c *Client) RetryTransaction(ctx context.Context, opts xretry.Options, op func(*TxHandle) error) error {
	return c.runner.RetryTransaction(ctx, opts, func(tx xretry.TxHandle) error {
		return op(tx.(*TxHandle))
	})
}

// RetryExecuteSchemeQuery runs DDL text with the same retry
// classification as RetryTransaction, but outside any transaction.
func (c *Client) RetryExecuteSchemeQuery(ctx context.Context, opts xretry.Options, yql string) error {
	opts.Idempotent = false // DDL is not idempotent: Aborted/Undetermined never retry; transport failures and other retryable statuses still do
	return c.runner.RetryOperation(ctx, opts, func(s xretry.Session) error {
		return s.(*Session).ExecuteSchemeQuery(ctx, yql)
	})
}

// RetryExecuteBulkUpsert writes rows to table with the same retry
// classification as RetryTransaction, but outside any transaction.
func (c *Client) RetryExecuteBulkUpsert(ctx context.Context, opts xretry.Options, table string, rows []any) error {
	opts.Idempotent = true // a full-row upsert by key is safe to repeat
	return c.runner.RetryOperation(ctx, opts, func(s xretry.Session) error {
		return s.(*Session).BulkUpsert(ctx, table, rows)
	})
}

// Close stops the Session Pool's keepalive loop and destroys its free
// sessions. Safe to call once during driver shutdown.
func (c *Client) Close(ctx context.Context) {
	c.pool.Close(ctx)
}
