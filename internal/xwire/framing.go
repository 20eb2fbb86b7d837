package xwire

import (
	"context"
	"fmt"
	"sync"

	"google.golang.org/grpc"
)

// StreamError is what a non-success OperationStatus on an inbound frame
// becomes before any higher-level decode runs (spec §4.8): the request
// type (topic writer, coordination session, …) never sees a "successful"
// envelope wrapping a failed operation.
type StreamError struct {
	Code   StatusCode
	Issues []Issue
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("xwire: stream status %d (%d issues)", e.Code, len(e.Issues))
}

// Sender is a cloneable handle onto a Stream's outbound queue. It is
// handed to background tasks (e.g. a topic writer's batch dispatcher)
// that must be able to enqueue without holding the full Stream —
// sending on a channel is inherently safe to share (spec §5 "Stream
// Framing ... holds an unbounded outbound queue").
type Sender[Req any] struct {
	out chan<- Req
}

// Send enqueues msg. It never blocks on the network — only on the
// internal unbounded-queue goroutine scheduling, which is effectively
// instantaneous — and never returns an error: a broken transport is
// reported to Receive callers instead, matching the original's
// "broken pipe surfaces on the read side" framing of bidi streams.
func (s Sender[Req]) Send(msg Req) {
	s.out <- msg
}

type recvResult[Resp any] struct {
	resp Resp
	err  error
}

// Stream is the generic bidirectional RPC wrapper (C10). Req is the
// outbound message type, Resp the inbound one; Resp must expose the
// status field every inbound frame carries.
type Stream[Req any, Resp StatusCarrier] struct {
	cs grpc.ClientStream

	out     chan<- Req
	in      <-chan recvResult[Resp]
	done    chan struct{}
	closeMu sync.Mutex
	closed  bool

	wg sync.WaitGroup
}

// NewStream wraps an already-established grpc.ClientStream (typically
// obtained via conn.NewStream with CodecName as the call's content
// subtype — see internal/xconn) in the send/receive framing described
// in spec §4.8.
func NewStream[Req any, Resp StatusCarrier](cs grpc.ClientStream) *Stream[Req, Resp] {
	s := &Stream[Req, Resp]{cs: cs, done: make(chan struct{})}

	rawOut, pumpOut := unbounded[Req](s.done)
	s.out = rawOut

	in := make(chan recvResult[Resp], 1)
	s.in = in

	s.wg.Add(2)
	go s.sendLoop(pumpOut)
	go s.recvLoop(in)

	return s
}

func (s *Stream[Req, Resp]) sendLoop(pumpOut <-chan Req) {
	defer s.wg.Done()
	for {
		select {
		case msg, ok := <-pumpOut:
			if !ok {
				return
			}
			if err := s.cs.SendMsg(msg); err != nil {
				return
			}
		case <-s.done:
			return
		}
	}
}

func (s *Stream[Req, Resp]) recvLoop(in chan<- recvResult[Resp]) {
	defer s.wg.Done()
	defer close(in)

	for {
		var resp Resp
		if err := s.cs.RecvMsg(&resp); err != nil {
			select {
			case in <- recvResult[Resp]{err: err}:
			case <-s.done:
			}
			return
		}

		code, issues := resp.Status()
		var deliverErr error
		if code != StatusSuccess {
			deliverErr = &StreamError{Code: code, Issues: issues}
		}

		select {
		case in <- recvResult[Resp]{resp: resp, err: deliverErr}:
		case <-s.done:
			return
		}
	}
}

// Send enqueues an outbound message without blocking on the network.
func (s *Stream[Req, Resp]) Send(msg Req) {
	select {
	case s.out <- msg:
	case <-s.done:
	}
}

// Sender returns a cloneable handle for background tasks.
func (s *Stream[Req, Resp]) Sender() Sender[Req] {
	return Sender[Req]{out: s.out}
}

// Receive blocks until the next inbound frame, the stream ends, or ctx
// is cancelled.
func (s *Stream[Req, Resp]) Receive(ctx context.Context) (Resp, error) {
	var zero Resp
	select {
	case r, ok := <-s.in:
		if !ok {
			return zero, context.Canceled
		}
		return r.resp, r.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Close tears down the stream's pumps. Idempotent.
func (s *Stream[Req, Resp]) Close() error {
	s.closeMu.Lock()
	if s.closed {
		s.closeMu.Unlock()
		return nil
	}
	s.closed = true
	s.closeMu.Unlock()

	close(s.done)
	err := s.cs.CloseSend()
	s.wg.Wait()
	return err
}
