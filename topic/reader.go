package topic

import (
	"context"
	"sync/atomic"

	"google.golang.org/grpc"

	"github.com/ydbgo/ydbgo/internal/xwire"
)

// Message is a single inbound record from a Reader, along with the
// commit coordinates a consumer needs to acknowledge it.
type Message struct {
	PartitionID int64
	Offset      int64
	Data        []byte
}

// Reader is a supplemented feature (present in the original Rust
// implementation's topicreader, dropped by the distilled spec): a
// consumer-group reader with explicit commit, mirroring the Writer's
// shape but unidirectional in the messages a caller cares about.
type Reader struct {
	stream *xwire.Stream[xwire.TopicReadCommit, xwire.TopicReadResponse]
	closed atomic.Bool
}

// OpenReader opens the reader stream and immediately sends the Init
// handshake, a zero-value TopicReadCommit. path and consumer are not
// sent: the Init frame carries neither.
func OpenReader(ctx context.Context, path, consumer string, open func(ctx context.Context) (grpc.ClientStream, error)) (*Reader, error) {
	cs, err := open(ctx)
	if err != nil {
		return nil, err
	}
	s := xwire.NewStream[xwire.TopicReadCommit, xwire.TopicReadResponse](cs)
	// The Init handshake rides the same request slot as a (zero-value)
	// commit would; the server distinguishes it positionally as message 1.
	s.Send(xwire.TopicReadCommit{})
	return &Reader{stream: s}, nil
}

// Receive blocks for the next batch of inbound messages.
func (r *Reader) Receive(ctx context.Context) ([]Message, error) {
	resp, err := r.stream.Receive(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Message, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		out = append(out, Message{PartitionID: m.PartitionID, Offset: m.Offset, Data: m.Data})
	}
	return out, nil
}

// Commit acknowledges every message up to and including offset on
// partitionID.
func (r *Reader) Commit(partitionID, offset int64) {
	r.stream.Send(xwire.TopicReadCommit{PartitionID: partitionID, Offset: offset})
}

// Close tears down the reader's stream. Idempotent.
func (r *Reader) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}
	return r.stream.Close()
}
