// Package topic implements the Topic Writer (C11) state machine and a
// supplemented Reader. The Reception Queue and its ordered
// acknowledgement dispatch are built on internal/xdispatch.Sequence;
// the batch dispatcher's chunk/period batching is grounded on the
// teacher's xpool worker-pool shape (bounded queue, background loop,
// panic-safe handler), generalized from "run one task" to "flush one
// batch".
package topic
