package xwaiter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestWaiterSignalUnblocksWait(t *testing.T) {
	w := New()
	assert.False(t, w.Fired())

	w.Signal()

	require.NoError(t, w.Wait(context.Background()))
	assert.True(t, w.Fired())
}

func TestWaiterSignalIsIdempotent(t *testing.T) {
	w := New()
	w.Signal()
	assert.NotPanics(t, func() { w.Signal() })
	assert.True(t, w.Fired())
}

func TestWaiterWaitHonorsContextCancellation(t *testing.T) {
	w := New()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := w.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWaiterDoneChannelClosesOnSignal(t *testing.T) {
	w := New()
	select {
	case <-w.Done():
		t.Fatal("Done channel must not be closed before Signal")
	default:
	}
	w.Signal()
	select {
	case <-w.Done():
	default:
		t.Fatal("Done channel must be closed after Signal")
	}
}

func TestAllWithNoWaitersSignalsImmediately(t *testing.T) {
	w := All()
	assert.True(t, w.Fired())
}

func TestAllCompletesOnlyAfterEveryWaiter(t *testing.T) {
	w1, w2 := New(), New()
	combined := All(w1, w2)

	assert.False(t, combined.Fired())

	w1.Signal()
	time.Sleep(10 * time.Millisecond)
	assert.False(t, combined.Fired(), "must not fire until every waiter has signalled")

	w2.Signal()
	require.NoError(t, combined.Wait(context.Background()))
}
