package coordination

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ydbgo/ydbgo/internal/xwire"
)

func TestMutexLockSucceeds(t *testing.T) {
	s, fs := openTestSession(t, time.Minute)
	defer func() { _ = s.Close() }()

	go func() {
		require.Eventually(t, func() bool { return fs.sentCount() >= 2 }, time.Second, time.Millisecond)
		req := fs.lastSent().Request
		fs.push(xwire.CoordinationFrameResponse{Response: &xwire.CoordinationResponseEnvelope{
			RequestID:        req.RequestID,
			AcquireSemaphore: &xwire.AcquireSemaphoreResp{Acquired: true},
		}})
	}()

	m := NewMutex(s, "lock1")
	lease, err := m.Lock(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "lock1", lease.Resource())
}

func TestMutexTryLockReturnsNilWhenHeldElsewhere(t *testing.T) {
	s, fs := openTestSession(t, time.Minute)
	defer func() { _ = s.Close() }()

	go func() {
		require.Eventually(t, func() bool { return fs.sentCount() >= 2 }, time.Second, time.Millisecond)
		req := fs.lastSent().Request
		fs.push(xwire.CoordinationFrameResponse{Response: &xwire.CoordinationResponseEnvelope{
			RequestID:        req.RequestID,
			AcquireSemaphore: &xwire.AcquireSemaphoreResp{Acquired: false},
		}})
	}()

	m := NewMutex(s, "lock1")
	lease, err := m.TryLock(context.Background(), 50*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, lease)
}

func TestMutexTryLockPropagatesTransportError(t *testing.T) {
	s, _ := openTestSession(t, time.Minute)
	require.NoError(t, s.Close())

	m := NewMutex(s, "lock1")
	lease, err := m.TryLock(context.Background(), 50*time.Millisecond)
	assert.ErrorIs(t, err, ErrSessionDetached)
	assert.Nil(t, lease)
}
