package xdiscovery

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticBalancerAlwaysReturnsSameURI(t *testing.T) {
	s := NewStatic("grpc://fixed:2136")
	uri, err := s.Endpoint("table")
	require.NoError(t, err)
	assert.Equal(t, "grpc://fixed:2136", uri)
	assert.NoError(t, s.Wait(context.Background()))
}

func TestRandomBalancerPicksAmongService(t *testing.T) {
	d := New(listerOf([]Endpoint{
		{FQDN: "a", Services: []string{"table"}},
		{FQDN: "b", Services: []string{"table"}},
	}, "dc1", nil), WithInterval(time.Hour))
	require.NoError(t, d.Start(context.Background()))
	defer d.Stop()

	b := NewRandom(d)
	require.NoError(t, b.Wait(context.Background()))

	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		uri, err := b.Endpoint("table")
		require.NoError(t, err)
		seen[uri] = true
	}
	assert.NotEmpty(t, seen)
}

func TestRandomBalancerNoEndpointForService(t *testing.T) {
	d := New(listerOf([]Endpoint{{FQDN: "a", Services: []string{"scheme"}}}, "dc1", nil), WithInterval(time.Hour))
	require.NoError(t, d.Start(context.Background()))
	defer d.Stop()

	b := NewRandom(d)
	require.NoError(t, b.Wait(context.Background()))
	_, err := b.Endpoint("table")
	assert.ErrorIs(t, err, ErrNoEndpoint)
}

func TestNearestDatacentrePrefersLocalEndpoints(t *testing.T) {
	d := New(listerOf([]Endpoint{
		{FQDN: "local", Services: []string{"table"}, Location: "dc1"},
		{FQDN: "remote", Services: []string{"table"}, Location: "dc2"},
	}, "dc1", nil), WithInterval(time.Hour))
	require.NoError(t, d.Start(context.Background()))
	defer d.Stop()

	b := NewNearestDatacentre(d)
	require.NoError(t, b.Wait(context.Background()))

	for i := 0; i < 20; i++ {
		uri, err := b.Endpoint("table")
		require.NoError(t, err)
		assert.Equal(t, "grpc://local:2136", uri)
	}
}

func TestNearestDatacentreFallsBackWhenNoLocalMatch(t *testing.T) {
	d := New(listerOf([]Endpoint{
		{FQDN: "remote", Services: []string{"table"}, Location: "dc2"},
	}, "dc1", nil), WithInterval(time.Hour))
	require.NoError(t, d.Start(context.Background()))
	defer d.Stop()

	b := NewNearestDatacentre(d)
	require.NoError(t, b.Wait(context.Background()))
	uri, err := b.Endpoint("table")
	require.NoError(t, err)
	assert.Equal(t, "grpc://remote:2136", uri)
}
