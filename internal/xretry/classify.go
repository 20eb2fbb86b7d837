package xretry

import "errors"

// classifiableError is satisfied by *ydbgo.Error (see its Retryable
// method); xretry never imports the root package — that would be an
// import cycle, since the root package wires a Runner — so the
// relationship is structural only.
type classifiableError interface {
	error
	Retryable() bool
}

// sessionFaulter is optionally satisfied by a classifiableError to mark
// BadSession/SessionExpired: the runner must drop the session and take
// a fresh one from the Session Pool before the next attempt.
type sessionFaulter interface {
	BadSession() bool
}

// overloader is optionally satisfied to select the steeper backoff
// curve.
type overloader interface {
	Overloaded() bool
}

// conditionalRetrier is optionally satisfied for Undetermined: retry
// only when the caller declared the operation idempotent.
type conditionalRetrier interface {
	UndeterminedOnly() bool
}

// transactionConflict is optionally satisfied for Aborted. Inside a
// transaction the whole attempt restarts from scratch, so a conflict is
// always safe to retry; standalone (no enclosing transaction) it's only
// safe when the caller declared the operation idempotent, same as
// Undetermined.
type transactionConflict interface {
	Aborted() bool
}

// OperationKind tells DefaultClassify whether the failing call ran
// inside a transaction or standalone, since that changes whether an
// Aborted status is safe to retry regardless of idempotency.
type OperationKind int

const (
	// KindTransaction is RetryTransaction's attempt closure.
	KindTransaction OperationKind = iota
	// KindStandalone is RetryOperation's direct session call (scheme
	// query, bulk upsert): no transaction to restart, so Aborted only
	// retries when the caller declared the operation idempotent.
	KindStandalone
)

// DefaultClassify implements spec §4.7's three-way split. transport
// errors and anything that doesn't implement classifiableError at all
// are treated as Retryable-idempotent transport failures, matching the
// teacher's IsRetryable default of "unknown errors are retryable".
func DefaultClassify(idempotent bool, kind OperationKind) Classifier {
	return func(err error) (Outcome, bool) {
		if err == nil {
			return OutcomeFatal, false
		}

		var ce classifiableError
		if !errors.As(err, &ce) {
			return OutcomeRetry, false
		}

		var sf sessionFaulter
		if errors.As(err, &sf) && sf.BadSession() {
			return OutcomeBadSession, false
		}

		var cr conditionalRetrier
		if errors.As(err, &cr) && cr.UndeterminedOnly() {
			if idempotent {
				return OutcomeRetryIfIdempotent, false
			}
			return OutcomeFatal, false
		}

		if kind == KindStandalone && !idempotent {
			var tc transactionConflict
			if errors.As(err, &tc) && tc.Aborted() {
				return OutcomeFatal, false
			}
		}

		if !ce.Retryable() {
			return OutcomeFatal, false
		}

		var ov overloader
		aggressive := errors.As(err, &ov) && ov.Overloaded()
		return OutcomeRetry, aggressive
	}
}
