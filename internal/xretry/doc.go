// Package xretry implements the Transaction Runner (C9): retrying a
// caller-supplied operation closure across transaction attempts,
// classifying every failure into retryable-idempotent,
// retryable-if-declared-idempotent, or fatal, and backing off between
// attempts. Grounded on the teacher's pkg/resilience/xretry — the
// RetryPolicy/BackoffPolicy split and the avast/retry-go/v5 wiring
// carry over unchanged; classify.go replaces the teacher's generic
// RetryableError interface with the closed RetryClass table driving
// YDB's retry rules (spec §4.7).
package xretry
