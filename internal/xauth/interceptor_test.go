package xauth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestCache(token string) *Cache {
	return New(Static(token))
}

func TestNewInterceptorRejectsUnsafeDatabase(t *testing.T) {
	_, err := NewInterceptor("db\nwith-newline", newTestCache("tok"))
	assert.ErrorIs(t, err, ErrTokenUnusable)
}

func TestNewInterceptorRejectsEmptyDatabase(t *testing.T) {
	_, err := NewInterceptor("", newTestCache("tok"))
	assert.ErrorIs(t, err, ErrTokenUnusable)
}

func TestUnaryInterceptorInjectsHeaders(t *testing.T) {
	i, err := NewInterceptor("/local", newTestCache("sometoken"))
	require.NoError(t, err)

	var gotMD metadata.MD
	invoker := func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		gotMD, _ = metadata.FromOutgoingContext(ctx)
		return nil
	}

	err = i.Unary()(context.Background(), "/Service/Method", nil, nil, nil, invoker)
	require.NoError(t, err)

	assert.Equal(t, []string{"/local"}, gotMD.Get(headerDatabase))
	assert.Equal(t, []string{"sometoken"}, gotMD.Get(headerAuth))
	assert.Equal(t, []string{BuildInfo}, gotMD.Get(headerBuildInfo))
}

func TestUnaryInterceptorRejectsUnusableToken(t *testing.T) {
	i, err := NewInterceptor("/local", newTestCache("bad\ntoken"))
	require.NoError(t, err)

	invoker := func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		t.Fatal("invoker must not be called when the token is unusable")
		return nil
	}

	err = i.Unary()(context.Background(), "/Service/Method", nil, nil, nil, invoker)
	assert.ErrorIs(t, err, ErrTokenUnusable)
}

func TestStreamInterceptorInjectsHeaders(t *testing.T) {
	i, err := NewInterceptor("/local", newTestCache("sometoken"))
	require.NoError(t, err)

	var gotMD metadata.MD
	streamer := func(ctx context.Context, desc *grpc.StreamDesc, cc *grpc.ClientConn, method string, opts ...grpc.CallOption) (grpc.ClientStream, error) {
		gotMD, _ = metadata.FromOutgoingContext(ctx)
		return nil, nil
	}

	_, err = i.Stream()(context.Background(), &grpc.StreamDesc{}, nil, "/Service/Method", streamer)
	require.NoError(t, err)
	assert.Equal(t, []string{"sometoken"}, gotMD.Get(headerAuth))
}

func TestIsHeaderSafe(t *testing.T) {
	assert.True(t, isHeaderSafe("abc-123_ABC"))
	assert.False(t, isHeaderSafe(""))
	assert.False(t, isHeaderSafe("has\nnewline"))
	assert.False(t, isHeaderSafe("unicode-é"))
}

func TestBuildInfoDefault(t *testing.T) {
	assert.NotEmpty(t, BuildInfo)
}
