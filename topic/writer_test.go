package topic

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/ydbgo/ydbgo/internal/xwire"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeWriterStream is a minimal grpc.ClientStream driving
// TopicWriterFrame/TopicWriterFrameResponse: every sent frame lands on
// sent, and queued responses (including an Init result) are served in
// order. Closing in surfaces io.EOF once drained, modeling a dropped
// connection for the writer's reconnect path.
type fakeWriterStream struct {
	mu      sync.Mutex
	sent    []xwire.TopicWriterFrame
	in      chan xwire.TopicWriterFrameResponse
	closeCh chan struct{}
	once    sync.Once
}

func newFakeWriterStream(lastSeqNo int64) *fakeWriterStream {
	f := &fakeWriterStream{in: make(chan xwire.TopicWriterFrameResponse, 32), closeCh: make(chan struct{})}
	f.in <- xwire.TopicWriterFrameResponse{InitResult: &xwire.TopicWriteInitResult{LastSeqNo: lastSeqNo}}
	return f
}

func (f *fakeWriterStream) Header() (metadata.MD, error) { return nil, nil }
func (f *fakeWriterStream) Trailer() metadata.MD         { return nil }
func (f *fakeWriterStream) CloseSend() error {
	f.once.Do(func() { close(f.closeCh) })
	return nil
}
func (f *fakeWriterStream) Context() context.Context { return context.Background() }

func (f *fakeWriterStream) SendMsg(m any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, m.(xwire.TopicWriterFrame))
	return nil
}

func (f *fakeWriterStream) RecvMsg(m any) error {
	select {
	case resp, ok := <-f.in:
		if !ok {
			return io.EOF
		}
		*m.(*xwire.TopicWriterFrameResponse) = resp
		return nil
	case <-f.closeCh:
		return io.EOF
	}
}

func (f *fakeWriterStream) push(resp xwire.TopicWriterFrameResponse) { f.in <- resp }

func (f *fakeWriterStream) writeFrames() []xwire.TopicWriteRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []xwire.TopicWriteRequest
	for _, fr := range f.sent {
		if fr.Write != nil {
			out = append(out, *fr.Write)
		}
	}
	return out
}

func openTestWriter(t *testing.T, opts ...Option) (*Writer, *fakeWriterStream) {
	t.Helper()
	fs := newFakeWriterStream(0)
	w, err := Open(context.Background(), "/local/topic", "producer-1", func(ctx context.Context) (grpc.ClientStream, error) {
		return fs, nil
	}, opts...)
	require.NoError(t, err)
	return w, fs
}

func TestWriterOpenReachesReady(t *testing.T) {
	w, _ := openTestWriter(t)
	defer func() { _ = w.Stop(time.Second) }()
	assert.Equal(t, StateReady, w.State())
}

func TestWriterOpenFailsWithoutInitResult(t *testing.T) {
	fs := &fakeWriterStream{in: make(chan xwire.TopicWriterFrameResponse, 1), closeCh: make(chan struct{})}
	fs.in <- xwire.TopicWriterFrameResponse{}

	_, err := Open(context.Background(), "/local/topic", "producer-1", func(ctx context.Context) (grpc.ClientStream, error) {
		return fs, nil
	})
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestWriterWriteRejectsWhenNotReady(t *testing.T) {
	w := &Writer{}
	w.state.Store(int32(StateDisconnected))
	_, err := w.Write([]byte("x"), false)
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestWriterWriteFireAndForgetReturnsNilWait(t *testing.T) {
	w, fs := openTestWriter(t, WithChunkSize(1), WithPeriod(time.Hour))
	defer func() { _ = w.Stop(30 * time.Millisecond) }()

	wait, err := w.Write([]byte("payload"), false)
	require.NoError(t, err)
	assert.Nil(t, wait)

	require.Eventually(t, func() bool { return len(fs.writeFrames()) == 1 }, time.Second, time.Millisecond)
}

func TestWriterWriteAckRoundTrip(t *testing.T) {
	w, fs := openTestWriter(t, WithChunkSize(1), WithPeriod(time.Hour))
	defer func() { _ = w.Stop(time.Second) }()

	wait, err := w.Write([]byte("payload"), true)
	require.NoError(t, err)
	require.NotNil(t, wait)

	require.Eventually(t, func() bool { return len(fs.writeFrames()) == 1 }, time.Second, time.Millisecond)
	seqNo := fs.writeFrames()[0].Messages[0].SeqNo

	fs.push(xwire.TopicWriterFrameResponse{Write: &xwire.TopicWriteResponse{
		Acks: []xwire.TopicAck{{SeqNo: seqNo, Status: xwire.AckWritten, Offset: 7}},
	}})

	ack, ok := wait()
	assert.True(t, ok)
	assert.Equal(t, xwire.AckWritten, ack.Status)
	assert.Equal(t, int64(7), ack.Offset)
}

func TestWriterFlushReturnsImmediatelyWhenNothingOutstanding(t *testing.T) {
	w, _ := openTestWriter(t)
	defer func() { _ = w.Stop(time.Second) }()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, w.Flush(ctx))
}

func TestWriterFlushWaitsForAck(t *testing.T) {
	w, fs := openTestWriter(t, WithChunkSize(1), WithPeriod(time.Hour))
	defer func() { _ = w.Stop(time.Second) }()

	_, err := w.Write([]byte("payload"), false)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(fs.writeFrames()) == 1 }, time.Second, time.Millisecond)
	seqNo := fs.writeFrames()[0].Messages[0].SeqNo

	done := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		done <- w.Flush(ctx)
	}()

	fs.push(xwire.TopicWriterFrameResponse{Write: &xwire.TopicWriteResponse{
		Acks: []xwire.TopicAck{{SeqNo: seqNo, Status: xwire.AckWritten}},
	}})

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Flush never observed the ack")
	}
}

func TestWriterFlushHonorsContextCancellation(t *testing.T) {
	w, _ := openTestWriter(t, WithChunkSize(1), WithPeriod(time.Hour))
	defer func() { _ = w.Stop(30 * time.Millisecond) }()

	_, err := w.Write([]byte("payload"), false)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, w.Flush(ctx), context.DeadlineExceeded)
}

func TestWriterStopOnTimeoutResolvesPendingTicketsUnknown(t *testing.T) {
	w, fs := openTestWriter(t, WithChunkSize(1), WithPeriod(time.Hour))

	wait, err := w.Write([]byte("payload"), true)
	require.NoError(t, err)
	require.NotNil(t, wait)
	require.Eventually(t, func() bool { return len(fs.writeFrames()) == 1 }, time.Second, time.Millisecond)

	assert.ErrorIs(t, w.Stop(30*time.Millisecond), ErrDrainTimeout)

	ack, ok := wait()
	assert.True(t, ok)
	assert.Equal(t, xwire.AckUnknown, ack.Status)
}

func TestWriterReconnectsAndReplaysUnacked(t *testing.T) {
	first := newFakeWriterStream(0)
	second := newFakeWriterStream(5)
	var openCount int
	var mu sync.Mutex

	open := func(ctx context.Context) (grpc.ClientStream, error) {
		mu.Lock()
		defer mu.Unlock()
		openCount++
		if openCount == 1 {
			return first, nil
		}
		return second, nil
	}

	w, err := Open(context.Background(), "/local/topic", "producer-1", open, WithChunkSize(1), WithPeriod(time.Hour))
	require.NoError(t, err)
	defer func() { _ = w.Stop(30 * time.Millisecond) }()

	_, werr := w.Write([]byte("payload"), false)
	require.NoError(t, werr)
	require.Eventually(t, func() bool { return len(first.writeFrames()) == 1 }, time.Second, time.Millisecond)

	firstSeqNo := first.writeFrames()[0].Messages[0].SeqNo
	close(first.in)

	require.Eventually(t, func() bool { return len(second.writeFrames()) == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, firstSeqNo, second.writeFrames()[0].Messages[0].SeqNo)
	assert.Equal(t, StateReady, w.State())

	mu.Lock()
	assert.Equal(t, 2, openCount)
	mu.Unlock()
}
