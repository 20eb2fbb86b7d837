package ydbgo

import (
	"errors"
	"fmt"
)

// Kind classifies an error raised by the driver.
//
// Kind is a closed set. The Transaction Runner (C9) does not read it:
// retry decisions go through the Retryable, BadSession, Overloaded,
// UndeterminedOnly and Aborted methods below, which derive from Class.
type Kind int

const (
	// KindUnknown is the zero-value fallback; it should never appear on a normal path.
	KindUnknown Kind = iota

	// KindConfig covers connection-string or certificate misconfiguration: malformed URI, unknown scheme, unreadable CA.
	KindConfig

	// KindAuth covers authentication failures: rejected credentials, malformed token.
	KindAuth

	// KindTransport covers transport-layer failures: broken connection, transport timeout.
	KindTransport

	// KindStatus wraps a non-success operation status from the server, carrying its status code and issue list.
	KindStatus

	// KindConvert marks a value-type conversion failure: the server's value can't satisfy the type the caller asked for.
	KindConvert

	// KindCustom marks a broken internal invariant: an implementation defect, not a retryable transient failure.
	KindCustom

	// KindCustomer marks an error the application code raised from inside a retry_transaction closure; never retried.
	KindCustomer
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "Config"
	case KindAuth:
		return "Auth"
	case KindTransport:
		return "Transport"
	case KindStatus:
		return "Status"
	case KindConvert:
		return "Convert"
	case KindCustom:
		return "Custom"
	case KindCustomer:
		return "Customer"
	default:
		return "Unknown"
	}
}

// RetryClass is the canonical retry classification derived from a
// status code (spec §7). The zero value RetryClassNone means the
// error isn't a classified service status error.
type RetryClass int

const (
	RetryClassNone RetryClass = iota
	RetryClassBadSession
	RetryClassSessionExpired
	RetryClassUnavailable
	RetryClassOverloaded
	RetryClassAborted
	RetryClassUndetermined
	RetryClassBadRequest
	RetryClassSchemeError
	RetryClassPreconditionFailed
	RetryClassUnauthorized
)

func (c RetryClass) String() string {
	switch c {
	case RetryClassBadSession:
		return "BadSession"
	case RetryClassSessionExpired:
		return "SessionExpired"
	case RetryClassUnavailable:
		return "Unavailable"
	case RetryClassOverloaded:
		return "Overloaded"
	case RetryClassAborted:
		return "Aborted"
	case RetryClassUndetermined:
		return "Undetermined"
	case RetryClassBadRequest:
		return "BadRequest"
	case RetryClassSchemeError:
		return "SchemeError"
	case RetryClassPreconditionFailed:
		return "PreconditionFailed"
	case RetryClassUnauthorized:
		return "Unauthorized"
	default:
		return "None"
	}
}

// Issue is a structured diagnostic record attached to a non-success operation status (spec §7).
type Issue struct {
	Code     uint32
	Severity string
	Message  string
	Nested   []Issue
}

// Error is the driver's single exported error type.
//
// Each variant carries enough context for logging: Status errors
// carry the status code and issue list; Transport/Auth/Config/Custom
// errors carry the wrapped underlying error.
type Error struct {
	Kind  Kind
	Class RetryClass

	// StatusCode is the server's numeric status code; only meaningful when Kind == KindStatus.
	StatusCode uint32
	Issues     []Issue

	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Kind == KindStatus {
		if e.Class != RetryClassNone {
			return fmt.Sprintf("ydbgo: status %d (%s): %s", e.StatusCode, e.Class, e.Message)
		}
		return fmt.Sprintf("ydbgo: status %d: %s", e.StatusCode, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("ydbgo: %s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("ydbgo: %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Retryable satisfies internal/xretry.classifiableError: the
// Transaction Runner's classifier calls it to decide whether a failed
// attempt may be retried. The answer derives from Class, which
// classify.go's mapping table sets from the status code.
func (e *Error) Retryable() bool {
	if e == nil {
		return false
	}
	switch e.Class {
	case RetryClassBadSession, RetryClassSessionExpired, RetryClassUnavailable,
		RetryClassOverloaded, RetryClassAborted, RetryClassUndetermined:
		return true
	default:
		return false
	}
}

// BadSession is used by internal/xretry and internal/xsession:
// BadSession/SessionExpired means the current session must be
// discarded and the next attempt must acquire a fresh one from the
// Session Pool.
func (e *Error) BadSession() bool {
	return e != nil && (e.Class == RetryClassBadSession || e.Class == RetryClassSessionExpired)
}

// Overloaded is used by internal/xretry to select the more aggressive backoff curve.
func (e *Error) Overloaded() bool {
	return e != nil && e.Class == RetryClassOverloaded
}

// UndeterminedOnly is used by internal/xretry: Undetermined only
// retries when the caller declared the operation idempotent,
// otherwise it's fatal.
func (e *Error) UndeterminedOnly() bool {
	return e != nil && e.Class == RetryClassUndetermined
}

// Aborted is used by internal/xretry for standalone (non-transactional)
// operations: a transaction conflict only retries there when the
// caller declared the operation idempotent.
func (e *Error) Aborted() bool {
	return e != nil && e.Class == RetryClassAborted
}

func newError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func newStatusError(code uint32, class RetryClass, message string, issues []Issue) *Error {
	return &Error{Kind: KindStatus, Class: class, StatusCode: code, Message: message, Issues: issues}
}

// AsError unwraps any error into a *Error, letting callers branch on Kind/Class.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
