package ydbgo

import (
	"context"

	"google.golang.org/grpc"

	"github.com/ydbgo/ydbgo/coordination"
	"github.com/ydbgo/ydbgo/internal/xauth"
	"github.com/ydbgo/ydbgo/internal/xconn"
	"github.com/ydbgo/ydbgo/internal/xdiscovery"
	"github.com/ydbgo/ydbgo/internal/xretry"
	"github.com/ydbgo/ydbgo/internal/xwire"
	"github.com/ydbgo/ydbgo/scheme"
	"github.com/ydbgo/ydbgo/table"
	"github.com/ydbgo/ydbgo/topic"
)

const (
	discoveryPrefix    = "/Ydb.Discovery.V1.DiscoveryService/"
	authPrefix         = "/Ydb.Auth.V1.AuthService/"
	tablePrefix        = "/Ydb.Table.V1.TableService/"
	schemePrefix       = "/Ydb.Scheme.V1.SchemeService/"
	coordinationPrefix = "/Ydb.Coordination.V1.CoordinationService/"
	topicPrefix        = "/Ydb.Topic.V1.TopicService/"
)

// Driver is the top-level client: the Connection Pool, Discovery,
// Load Balancer, Token Cache and Auth Interceptor wired together, with
// Table/Scheme/Coordination/Topic façades riding the balanced channel.
type Driver struct {
	cfg      config
	database string

	conns       *xconn.Pool
	disc        *xdiscovery.Discovery
	bal         xdiscovery.Balancer
	auth        *xauth.Cache
	interceptor *xauth.Interceptor

	table  *table.Client
	scheme *scheme.Client
}

// Open parses connectionString (spec §6) and wires up every
// component, blocking until the first Discovery listing and the first
// credential fetch both succeed or ctx ends.
func Open(ctx context.Context, connectionString string, opts ...Option) (*Driver, error) {
	cs, err := parseConnString(connectionString)
	if err != nil {
		return nil, err
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.credential != nil {
		cs.credential = cfg.credential
	}

	credential := cs.credential
	if credential == nil {
		// token_static_username/password: the Login exchange itself must
		// happen unauthenticated, over a throwaway channel — the pool
		// every other component shares is built below, already carrying
		// the Auth Interceptor, and must never see this one-off dial.
		var err error
		credential, err = loginOverThrowawayChannel(ctx, cs.endpointURI, cs.caCertPath, cs.loginUser, cs.loginPass)
		if err != nil {
			return nil, err
		}
	}

	authCache := xauth.New(credential, xauth.WithLogger(cfg.log))
	if _, err := authCache.Token(ctx); err != nil {
		return nil, newError(KindAuth, "initial token fetch", err)
	}

	interceptor, err := xauth.NewInterceptor(cs.database, authCache)
	if err != nil {
		return nil, newError(KindAuth, "invalid database for auth headers", err)
	}

	conns := xconn.New(
		xconn.WithKeepalive(cfg.tunables.ChannelKeepalive),
		xconn.WithCACertificate(cs.caCertPath),
		xconn.WithUnaryInterceptor(interceptor.Unary()),
		xconn.WithStreamInterceptor(interceptor.Stream()),
	)

	bootstrap, err := conns.Connection(cs.endpointURI)
	if err != nil {
		_ = conns.Close()
		return nil, newError(KindTransport, "dial bootstrap endpoint", err)
	}

	disc := xdiscovery.New(
		discoveryLister(bootstrap.Conn(), cs.database),
		xdiscovery.WithInterval(cfg.tunables.DiscoveryInterval),
		xdiscovery.WithStartupBudget(cfg.tunables.DiscoveryStartupBudget),
		xdiscovery.WithLogger(cfg.log),
	)
	if err := disc.Start(ctx); err != nil {
		_ = conns.Close()
		return nil, newError(KindTransport, "initial discovery", err)
	}
	bal := cfg.balancer(disc)

	d := &Driver{
		cfg:         cfg,
		database:    cs.database,
		conns:       conns,
		disc:        disc,
		bal:         bal,
		auth:        authCache,
		interceptor: interceptor,
	}

	tableConn, err := d.balancedConn(ctx, "table_service")
	if err != nil {
		_ = d.Close()
		return nil, err
	}
	d.table = table.NewClient(tableConn, tablePrefix,
		table.WithMaxSessions(cfg.tunables.SessionPoolMax),
		table.WithKeepaliveInterval(cfg.tunables.SessionKeepaliveInterval))

	schemeConn, err := d.balancedConn(ctx, "scheme_service")
	if err != nil {
		_ = d.Close()
		return nil, err
	}
	d.scheme = scheme.New(schemeConn, schemePrefix)

	return d, nil
}

// balancedConn resolves the balanced endpoint for service and returns
// its pooled channel, with the auth interceptor attached.
func (d *Driver) balancedConn(ctx context.Context, service string) (*grpc.ClientConn, error) {
	if err := d.bal.Wait(ctx); err != nil {
		return nil, newError(KindTransport, "waiting for "+service+" endpoint", err)
	}
	uri, err := d.bal.Endpoint(service)
	if err != nil {
		return nil, newError(KindTransport, "resolving "+service+" endpoint", err)
	}
	entry, err := d.conns.Connection(uri)
	if err != nil {
		return nil, newError(KindTransport, "dial "+service+" endpoint", err)
	}
	return entry.Conn(), nil
}

// Table returns the table data-plane façade.
func (d *Driver) Table() *table.Client { return d.table }

// Scheme returns the scheme management façade.
func (d *Driver) Scheme() *scheme.Client { return d.scheme }

// OpenCoordinationSession attaches a coordination session to the node
// at nodePath.
func (d *Driver) OpenCoordinationSession(ctx context.Context, nodePath, sessionSeed string) (*coordination.Session, error) {
	conn, err := d.balancedConn(ctx, "coordination_service")
	if err != nil {
		return nil, err
	}
	opener := func(ctx context.Context) (grpc.ClientStream, error) {
		return conn.NewStream(ctx, &grpc.StreamDesc{ClientStreams: true, ServerStreams: true}, coordinationPrefix+"Session", grpc.CallContentSubtype(xwire.CodecName))
	}
	return coordination.Open(ctx, nodePath, sessionSeed, d.cfg.tunables.CoordinationPingInterval, opener, d.cfg.log)
}

// CoordinationNodes returns a client for coordination node lifecycle
// management (CreateNode/DropNode/DescribeNode).
func (d *Driver) CoordinationNodes(ctx context.Context) (*coordination.NodeClient, error) {
	conn, err := d.balancedConn(ctx, "coordination_service")
	if err != nil {
		return nil, err
	}
	return coordination.NewNodeClient(conn, coordinationPrefix), nil
}

// Topics returns a client for topic management (CreateTopic/DropTopic/
// DescribeConsumer). Writer/reader sessions are opened separately via
// OpenTopicWriter/OpenTopicReader since those ride their own bidi stream.
func (d *Driver) Topics(ctx context.Context) (*topic.Client, error) {
	conn, err := d.balancedConn(ctx, "topic_service")
	if err != nil {
		return nil, err
	}
	return topic.NewClient(conn, topicPrefix), nil
}

// OpenTopicWriter opens a writer session for path.
func (d *Driver) OpenTopicWriter(ctx context.Context, path, producerID string, opts ...topic.Option) (*topic.Writer, error) {
	conn, err := d.balancedConn(ctx, "topic_service")
	if err != nil {
		return nil, err
	}
	opener := func(ctx context.Context) (grpc.ClientStream, error) {
		return conn.NewStream(ctx, &grpc.StreamDesc{ClientStreams: true, ServerStreams: true}, topicPrefix+"StreamWrite", grpc.CallContentSubtype(xwire.CodecName))
	}
	return topic.Open(ctx, path, producerID, opener, opts...)
}

// OpenTopicReader opens a reader session for path under consumer.
func (d *Driver) OpenTopicReader(ctx context.Context, path, consumer string) (*topic.Reader, error) {
	conn, err := d.balancedConn(ctx, "topic_service")
	if err != nil {
		return nil, err
	}
	opener := func(ctx context.Context) (grpc.ClientStream, error) {
		return conn.NewStream(ctx, &grpc.StreamDesc{ClientStreams: true, ServerStreams: true}, topicPrefix+"StreamRead", grpc.CallContentSubtype(xwire.CodecName))
	}
	return topic.OpenReader(ctx, path, consumer, opener)
}

// RetryTransaction is a thin pass-through to the Table façade's
// Transaction Runner, exposed at the top level so a caller never needs
// to import table/ directly for the common case.
func (d *Driver) RetryTransaction(ctx context.Context, opts xretry.Options, op func(*table.TxHandle) error) error {
	return d.table.RetryTransaction(ctx, opts, op)
}

// Close tears down every background loop and pooled channel.
func (d *Driver) Close() error {
	if d.disc != nil {
		d.disc.Stop()
	}
	if d.table != nil {
		d.table.Close(context.Background())
	}
	if d.conns != nil {
		return d.conns.Close()
	}
	return nil
}

func discoveryLister(conn *grpc.ClientConn, database string) xdiscovery.Lister {
	return func(ctx context.Context) ([]xdiscovery.Endpoint, string, error) {
		var resp xwire.ListEndpointsResponse
		req := xwire.ListEndpointsRequest{Database: database}
		if err := conn.Invoke(ctx, discoveryPrefix+"ListEndpoints", &req, &resp, grpc.CallContentSubtype(xwire.CodecName)); err != nil {
			return nil, "", err
		}
		if code, issues := resp.Status(); code != xwire.StatusSuccess {
			return nil, "", newStatusError(uint32(code), classifyStatus(code), "list endpoints", toIssues(issues))
		}
		endpoints := make([]xdiscovery.Endpoint, 0, len(resp.Endpoints))
		for _, e := range resp.Endpoints {
			endpoints = append(endpoints, xdiscovery.Endpoint{
				FQDN: e.FQDN, Port: e.Port, SSL: e.SSL, Location: e.Location, Services: e.Services,
			})
		}
		return endpoints, resp.SelfLocation, nil
	}
}

func loginOverThrowawayChannel(ctx context.Context, endpointURI, caCertPath, user, pass string) (xauth.Provider, error) {
	p := xconn.New(xconn.WithCACertificate(caCertPath))
	defer func() { _ = p.Close() }()

	entry, err := p.Connection(endpointURI)
	if err != nil {
		return nil, newError(KindTransport, "dial bootstrap endpoint for login", err)
	}

	var resp xwire.LoginResponse
	req := xwire.LoginRequest{User: user, Password: pass}
	if err := entry.Conn().Invoke(ctx, authPrefix+"Login", &req, &resp, grpc.CallContentSubtype(xwire.CodecName)); err != nil {
		return nil, newError(KindAuth, "login", err)
	}
	if code, issues := resp.Status(); code != xwire.StatusSuccess {
		return nil, newStatusError(uint32(code), classifyStatus(code), "login", toIssues(issues))
	}
	return xauth.Static(resp.Token), nil
}

func toIssues(wire []xwire.Issue) []Issue {
	out := make([]Issue, 0, len(wire))
	for _, w := range wire {
		out = append(out, Issue{Code: w.Code, Severity: w.Severity, Message: w.Message, Nested: toIssues(w.Nested)})
	}
	return out
}
