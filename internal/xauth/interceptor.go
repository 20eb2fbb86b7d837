package xauth

import (
	"context"
	"unicode"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

const (
	headerDatabase  = "x-ydb-database"
	headerAuth      = "x-ydb-auth-ticket"
	headerBuildInfo = "x-ydb-sdk-build-info"
)

// BuildInfo is injected as x-ydb-sdk-build-info on every call. Set once
// at process init.
var BuildInfo = "ydbgo/dev"

// Interceptor is the Auth Interceptor (C6): a transparent per-call
// layer that injects the database, token, and build-info headers. It
// never itself blocks on renewal — it asks the Cache for whatever
// token is current and relies on C2's background refresh model.
type Interceptor struct {
	database string
	cache    *Cache
}

// NewInterceptor validates database at construction time (spec §4.5:
// "constant, validated at build").
func NewInterceptor(database string, cache *Cache) (*Interceptor, error) {
	if !isHeaderSafe(database) {
		return nil, ErrTokenUnusable
	}
	return &Interceptor{database: database, cache: cache}, nil
}

func (i *Interceptor) headers(ctx context.Context) (metadata.MD, error) {
	token, err := i.cache.Token(ctx)
	if err != nil {
		return nil, err
	}
	if !isHeaderSafe(token) {
		return nil, ErrTokenUnusable
	}
	return metadata.Pairs(
		headerDatabase, i.database,
		headerAuth, token,
		headerBuildInfo, BuildInfo,
	), nil
}

// Unary returns a grpc.UnaryClientInterceptor that attaches the three
// headers to every unary call.
func (i *Interceptor) Unary() grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		md, err := i.headers(ctx)
		if err != nil {
			return err
		}
		return invoker(metadata.NewOutgoingContext(ctx, md), method, req, reply, cc, opts...)
	}
}

// Stream returns a grpc.StreamClientInterceptor that attaches the three
// headers when the stream is opened.
func (i *Interceptor) Stream() grpc.StreamClientInterceptor {
	return func(ctx context.Context, desc *grpc.StreamDesc, cc *grpc.ClientConn, method string, streamer grpc.Streamer, opts ...grpc.CallOption) (grpc.ClientStream, error) {
		md, err := i.headers(ctx)
		if err != nil {
			return nil, err
		}
		return streamer(metadata.NewOutgoingContext(ctx, md), desc, cc, method, opts...)
	}
}

// isHeaderSafe reports whether s is a valid gRPC ASCII metadata value
// (spec §4.5: Auth fails the call on a non-ASCII header value).
func isHeaderSafe(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r > unicode.MaxASCII || r < 0x20 {
			return false
		}
	}
	return true
}
