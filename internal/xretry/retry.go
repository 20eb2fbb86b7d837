package xretry

import (
	"context"
	"time"
)

// BackoffPolicy computes the delay before the next attempt.
type BackoffPolicy interface {
	// NextDelay returns the delay before attempt (1-based).
	NextDelay(attempt int) time.Duration
}

// Budget bounds a run of attempts: a max-attempt count, a total-time
// budget, or both — whichever expires first surfaces the last error
// (spec §4.7).
type Budget struct {
	MaxAttempts int
	MaxElapsed  time.Duration
}

func (b Budget) exhausted(attempt int, started time.Time) bool {
	if b.MaxAttempts > 0 && attempt >= b.MaxAttempts {
		return true
	}
	if b.MaxElapsed > 0 && time.Since(started) >= b.MaxElapsed {
		return true
	}
	return false
}

// Outcome is what classify.go decides to do with a failed attempt.
type Outcome int

const (
	// OutcomeFatal never retries.
	OutcomeFatal Outcome = iota
	// OutcomeRetry always retries (subject to budget).
	OutcomeRetry
	// OutcomeRetryIfIdempotent retries only when the caller declared the
	// operation idempotent.
	OutcomeRetryIfIdempotent
	// OutcomeBadSession retries like OutcomeRetry but additionally tells
	// the runner to drop the current session and acquire a fresh one.
	OutcomeBadSession
)

// Classifier turns an error into a retry Outcome, plus whether the
// failure warrants the aggressive ("overloaded") backoff curve instead
// of the normal one.
type Classifier func(err error) (Outcome, aggressive bool)

// runState groups a run's context, start time and attempt count. The
// Runner does not use it.
type runState struct {
	ctx     context.Context
	started time.Time
	attempt int
}
