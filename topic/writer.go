package topic

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"google.golang.org/grpc"

	"github.com/ydbgo/ydbgo/internal/xdispatch"
	"github.com/ydbgo/ydbgo/internal/xlog"
	"github.com/ydbgo/ydbgo/internal/xpump"
	"github.com/ydbgo/ydbgo/internal/xwire"
)

// State is the Topic Writer's lifecycle (spec §4.9):
// Disconnected → Connecting → InitSent → Ready → {Ready|Draining} → Closed.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateInitSent
	StateReady
	StateDraining
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "Connecting"
	case StateInitSent:
		return "InitSent"
	case StateReady:
		return "Ready"
	case StateDraining:
		return "Draining"
	case StateClosed:
		return "Closed"
	default:
		return "Disconnected"
	}
}

// Ack is the resolved outcome of a Pending Write Ticket (spec §4.9's
// four acknowledgement shapes).
type Ack struct {
	Status xwire.AckStatus
	Offset int64
	Reason string
}

// Opener establishes the writer's bidi gRPC stream, freshly, every
// (re)connect.
type Opener func(ctx context.Context) (grpc.ClientStream, error)

// Writer is the Topic Writer (C11).
type Writer struct {
	path       string
	producerID string
	codecs     []string
	open       Opener
	log        xlog.Logger

	chunkSize int
	period    time.Duration

	state  atomic.Int32
	stream atomic.Pointer[xwire.Stream[xwire.TopicWriterFrame, xwire.TopicWriterFrameResponse]]

	seq *xdispatch.Sequence[Ack]

	mu       sync.Mutex
	pending  []xwire.TopicMessageData   // buffered, not yet dispatched to the wire
	unacked  map[int64]xwire.TopicMessageData // dispatched, awaiting ack — replayed on reconnect
	lastAcked int64

	drainMu      sync.Mutex
	drainWaiters []drainWaiter

	wake      chan struct{}
	stopBatch chan struct{}
	stopOnce  sync.Once
	pump      *xpump.Pump
}

type drainWaiter struct {
	upto int64
	done chan struct{}
}

// Option configures a Writer at construction time.
type Option func(*Writer)

func WithChunkSize(n int) Option {
	return func(w *Writer) {
		if n > 0 {
			w.chunkSize = n
		}
	}
}

func WithPeriod(d time.Duration) Option {
	return func(w *Writer) {
		if d > 0 {
			w.period = d
		}
	}
}

func WithCodecs(codecs ...string) Option {
	return func(w *Writer) { w.codecs = codecs }
}

func WithLogger(l xlog.Logger) Option {
	return func(w *Writer) {
		if l != nil {
			w.log = l
		}
	}
}

// Open transitions Disconnected → Connecting → InitSent → Ready,
// sending the Init handshake and starting the batch dispatcher and
// acknowledgement loop.
func Open(ctx context.Context, path, producerID string, open Opener, opts ...Option) (*Writer, error) {
	w := &Writer{
		path:       path,
		producerID: producerID,
		open:       open,
		log:        xlog.Nop(),
		chunkSize:  10,
		period:     time.Second,
		unacked:    make(map[int64]xwire.TopicMessageData),
		wake:       make(chan struct{}, 1),
		stopBatch:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	if err := w.connect(ctx); err != nil {
		return nil, err
	}

	w.pump = xpump.New(context.Background())
	w.pump.Go(func() error { return w.batchLoop(w.pump.Context()) })
	w.pump.Go(func() error { return w.recvLoop(w.pump.Context()) })

	return w, nil
}

func (w *Writer) connect(ctx context.Context) error {
	w.state.Store(int32(StateConnecting))

	cs, err := w.open(ctx)
	if err != nil {
		w.state.Store(int32(StateDisconnected))
		return err
	}
	stream := xwire.NewStream[xwire.TopicWriterFrame, xwire.TopicWriterFrameResponse](cs)
	w.state.Store(int32(StateInitSent))

	stream.Send(xwire.TopicWriterFrame{Init: &xwire.TopicWriteInit{
		Path:       w.path,
		ProducerID: w.producerID,
		Codecs:     w.codecs,
		AutoSeqNo:  true,
	}})

	resp, err := stream.Receive(ctx)
	if err != nil {
		w.state.Store(int32(StateDisconnected))
		return err
	}
	if resp.InitResult == nil {
		w.state.Store(int32(StateDisconnected))
		return ErrNotReady
	}

	if w.seq == nil {
		w.seq = xdispatch.NewSequence[Ack](uint64(resp.InitResult.LastSeqNo) + 1)
	}
	w.stream.Store(stream)
	w.state.Store(int32(StateReady))

	w.replayUnacked()
	return nil
}

// replayUnacked re-sends every message dispatched-but-unacknowledged
// before a reconnect, in sequence-number order (spec §4.9).
func (w *Writer) replayUnacked() {
	w.mu.Lock()
	msgs := make([]xwire.TopicMessageData, 0, len(w.unacked))
	for _, m := range w.unacked {
		msgs = append(msgs, m)
	}
	w.mu.Unlock()

	if len(msgs) == 0 {
		return
	}
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].SeqNo < msgs[j].SeqNo })
	w.streamSend(xwire.TopicWriterFrame{Write: &xwire.TopicWriteRequest{Messages: msgs}})
}

func (w *Writer) State() State { return State(w.state.Load()) }

// Write enqueues data for publication. If ackRequested, the returned
// wait func blocks until the server's acknowledgement for this message
// arrives; otherwise it is nil (fire-and-forget).
func (w *Writer) Write(data []byte, ackRequested bool) (wait func() (Ack, bool), err error) {
	if st := w.State(); st != StateReady {
		if st == StateClosed {
			return nil, ErrClosed
		}
		return nil, ErrNotReady
	}

	seqNo, waitTicket, regErr := w.seq.Register()
	if regErr != nil {
		return nil, ErrClosed
	}
	msg := xwire.TopicMessageData{SeqNo: int64(seqNo), Data: data, CreatedAt: time.Now().UnixNano()}

	w.mu.Lock()
	w.pending = append(w.pending, msg)
	full := len(w.pending) >= w.chunkSize
	w.mu.Unlock()

	if full {
		select {
		case w.wake <- struct{}{}:
		default:
		}
	}

	if !ackRequested {
		return nil, nil
	}
	return func() (Ack, bool) { return waitTicket(), true }, nil
}

// Flush returns once every message enqueued so far has been
// acknowledged. If nothing is outstanding it returns immediately (spec
// §4.9).
func (w *Writer) Flush(ctx context.Context) error {
	w.mu.Lock()
	tail := int64(-1)
	for _, m := range w.pending {
		if m.SeqNo > tail {
			tail = m.SeqNo
		}
	}
	for seqNo := range w.unacked {
		if seqNo > tail {
			tail = seqNo
		}
	}
	w.mu.Unlock()

	if tail < 0 {
		return nil
	}

	w.drainMu.Lock()
	if atomic.LoadInt64(&w.lastAcked) >= tail {
		w.drainMu.Unlock()
		return nil
	}
	dw := drainWaiter{upto: tail, done: make(chan struct{})}
	w.drainWaiters = append(w.drainWaiters, dw)
	w.drainMu.Unlock()

	select {
	case <-dw.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Writer) batchLoop(ctx context.Context) error {
	ticker := time.NewTicker(w.period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.dispatch()
			return nil
		case <-w.stopBatch:
			w.dispatch()
			return nil
		case <-w.wake:
			w.dispatch()
		case <-ticker.C:
			w.dispatch()
		}
	}
}

func (w *Writer) dispatch() {
	w.mu.Lock()
	if len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	batch := w.pending
	w.pending = nil
	for _, m := range batch {
		w.unacked[m.SeqNo] = m
	}
	w.mu.Unlock()

	w.streamSend(xwire.TopicWriterFrame{Write: &xwire.TopicWriteRequest{Messages: batch}})
}

func (w *Writer) streamSend(frame xwire.TopicWriterFrame) {
	if s := w.stream.Load(); s != nil {
		s.Send(frame)
	}
}

// recvLoop reads acknowledgements until the stream is closed (by Stop)
// or a reconnect attempt fails. It deliberately receives on a
// background context rather than ctx: Stop lets the dispatched-but-
// unacknowledged backlog drain before tearing the stream down, so this
// loop must outlive the batch loop's exit. ctx is only consulted to
// join the pump's fault propagation if the *other* loop dies first.
func (w *Writer) recvLoop(ctx context.Context) error {
	bg := context.Background()
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		s := w.stream.Load()
		if s == nil {
			return nil
		}
		resp, err := s.Receive(bg)
		if err != nil {
			if w.State() == StateClosed {
				return nil
			}
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			w.log.Warn(bg, "topic: writer stream broken, reconnecting", slog.Any(xlog.KeyError, err))
			if cerr := w.connect(bg); cerr != nil {
				w.log.Error(bg, "topic: writer reconnect failed", slog.Any(xlog.KeyError, cerr))
				return cerr
			}
			continue
		}
		if resp.Write == nil {
			continue
		}
		for _, ack := range resp.Write.Acks {
			w.seq.Resolve(Ack{Status: ack.Status, Offset: ack.Offset, Reason: ack.Reason})

			w.mu.Lock()
			delete(w.unacked, ack.SeqNo)
			w.mu.Unlock()

			atomic.StoreInt64(&w.lastAcked, ack.SeqNo)
			w.releaseDrainWaiters(ack.SeqNo)
		}
	}
}

func (w *Writer) releaseDrainWaiters(upto int64) {
	w.drainMu.Lock()
	defer w.drainMu.Unlock()
	remaining := w.drainWaiters[:0]
	for _, dw := range w.drainWaiters {
		if dw.upto <= upto {
			close(dw.done)
		} else {
			remaining = append(remaining, dw)
		}
	}
	w.drainWaiters = remaining
}

// Stop transitions Ready → Draining: no new writes are accepted, and
// the loop exits once the Reception Queue empties or timeout elapses.
func (w *Writer) Stop(timeout time.Duration) error {
	w.state.Store(int32(StateDraining))
	w.stopOnce.Do(func() { close(w.stopBatch) })

	deadline := time.After(timeout)
	for {
		if w.seq.Len() == 0 {
			w.state.Store(int32(StateClosed))
			if s := w.stream.Load(); s != nil {
				_ = s.Close()
			}
			w.pump.Stop(nil)
			return w.pump.Wait()
		}
		select {
		case <-deadline:
			w.state.Store(int32(StateClosed))
			if s := w.stream.Load(); s != nil {
				_ = s.Close()
			}
			w.seq.Close(Ack{Status: xwire.AckUnknown, Reason: "writer stopped before acknowledgement"})
			w.pump.Stop(ErrDrainTimeout)
			_ = w.pump.Wait()
			return ErrDrainTimeout
		case <-time.After(10 * time.Millisecond):
		}
	}
}
