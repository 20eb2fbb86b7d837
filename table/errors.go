package table

import (
	"fmt"

	"github.com/ydbgo/ydbgo/internal/xwire"
)

// class is table's own copy of the root package's retry
// classification (spec §7): table cannot import the root package
// (which wires a Runner over table) without a cycle, so Retryable/
// BadSession/Overloaded/UndeterminedOnly are derived locally from the
// same status-code table.
type class int

const (
	classNone class = iota
	classBadSession
	classSessionExpired
	classUnavailable
	classOverloaded
	classAborted
	classUndetermined
	classFatal
)

func classify(code xwire.StatusCode) class {
	switch code {
	case xwire.StatusBadSession:
		return classBadSession
	case xwire.StatusSessionExpired:
		return classSessionExpired
	case xwire.StatusUnavailable:
		return classUnavailable
	case xwire.StatusOverloaded:
		return classOverloaded
	case xwire.StatusAborted:
		return classAborted
	case xwire.StatusUndetermined:
		return classUndetermined
	default:
		return classFatal
	}
}

// StatusError wraps a non-success operation status returned by a
// table call. It implements the structural interfaces
// internal/xretry's classifier looks for (Retryable/BadSession/
// Overloaded/UndeterminedOnly), so a *Runner wired over this package
// classifies it exactly like the root package's own *Error would.
type StatusError struct {
	Code   xwire.StatusCode
	Issues []xwire.Issue
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("table: status %d (%d issues)", e.Code, len(e.Issues))
}

// Retryable reports whether this status is ever worth a retry attempt.
func (e *StatusError) Retryable() bool {
	switch classify(e.Code) {
	case classBadSession, classSessionExpired, classUnavailable,
		classOverloaded, classAborted, classUndetermined:
		return true
	default:
		return false
	}
}

// BadSession marks the owning session as unusable for further attempts.
func (e *StatusError) BadSession() bool {
	c := classify(e.Code)
	return c == classBadSession || c == classSessionExpired
}

// Overloaded selects the runner's steeper backoff curve.
func (e *StatusError) Overloaded() bool {
	return classify(e.Code) == classOverloaded
}

// UndeterminedOnly marks a status that only idempotent callers should retry.
func (e *StatusError) UndeterminedOnly() bool {
	return classify(e.Code) == classUndetermined
}

// Aborted marks a transaction conflict: always safe to retry inside a
// fresh transaction attempt, only safe standalone when the caller
// declared the operation idempotent.
func (e *StatusError) Aborted() bool {
	return classify(e.Code) == classAborted
}

func statusError(st xwire.OperationStatus) error {
	if code, issues := st.Status(); code != xwire.StatusSuccess {
		return &StatusError{Code: code, Issues: issues}
	}
	return nil
}
