// Package xdispatch implements the shared monotone-id → registered
// one-shot sink → ordered dispatch pattern that spec §9 calls out as
// common to the Topic Writer's Reception Queue and the Coordination
// Session's pending-request table: Sequence for the former (strict
// gap-free FIFO order) and Keyed for the latter (arbitrary id lookup).
package xdispatch
