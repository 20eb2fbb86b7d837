// Package ydbgo is a client driver for a distributed SQL/NewSQL
// database accessed over gRPC: connection pooling, cluster discovery
// and load balancing, credential management, a pooled-session
// transaction runner, and topic/coordination façades, wired together
// behind Open.
//
// The generated request/response wire messages, value-type conversion,
// and credential source implementations beyond their basic shape are
// out of scope; see internal/xwire and value for the stand-ins this
// driver binds against instead.
package ydbgo
