// Package xconn implements the Connection Pool (C3): one lazily
// dialled gRPC channel per endpoint URI, keyed under a short
// critical-section mutex, never evicted by the base design (spec §4.1).
//
// Each entry additionally carries a circuit breaker (sony/gobreaker/v2,
// following the teacher's pkg/resilience/xbreaker wrapper) so a
// chronically failing endpoint can be skipped by the caller without
// waiting out a full RPC timeout on every attempt — the breaker never
// removes an endpoint Discovery (C5) still advertises, it only hints
// that a request to it should fail fast.
package xconn
