package xretry

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	retry "github.com/avast/retry-go/v5"
)

// Isolation names the transaction isolation modes a Runner can start
// (spec §4.7).
type Isolation int

const (
	SerializableReadWrite Isolation = iota
	OnlineReadOnly
	OnlineReadOnlyInconsistent
	StaleReadOnly
	SnapshotReadOnly
)

// Session is the minimal view the Runner needs of a pooled resource:
// something that can begin a transaction (rollback goes through the
// returned TxHandle).
type Session interface {
	BeginTransaction(ctx context.Context, mode Isolation) (TxHandle, error)
}

// TxHandle is a started transaction: the caller's closure issues
// queries against it, then explicitly commits or rolls back. The
// Runner never calls Commit itself — only a best-effort Rollback
// between failed attempts (spec §4.7).
type TxHandle interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Acquirer hands the Runner a fresh Session, e.g. internal/xsession.Pool.Do.
type Acquirer func(ctx context.Context, fn func(Session) error) error

// Options configures a single retry_transaction call.
type Options struct {
	Isolation  Isolation
	Idempotent bool
	Budget     Budget
	OnRetry    func(attempt int, err error)
}

// Runner is the Transaction Runner (C9): wraps a caller-supplied
// operation closure with retry across transaction attempts. Grounded
// on the teacher's Retryer — same avast/retry-go/v5 wiring and the
// same "rebuild options per Do call" shape — generalized with
// classify.go's YDB-specific three-way split in place of the generic
// RetryableError interface.
type Runner struct {
	acquire  Acquirer
	classify func(idempotent bool, kind OperationKind) Classifier
	backoff  *dual
}

// NewRunner constructs a Runner. acquire is normally
// (*internal/xsession.Pool[S]).Do adapted to the Session interface.
func NewRunner(acquire Acquirer, normal, aggressive BackoffPolicy) *Runner {
	if normal == nil {
		normal = NewExponential()
	}
	if aggressive == nil {
		aggressive = NewExponential(WithInitialDelay(50*time.Millisecond), WithMultiplier(3))
	}
	return &Runner{
		acquire:  acquire,
		classify: DefaultClassify,
		backoff:  &dual{normal: normal, aggressive: aggressive},
	}
}

// retryOptions builds the avast/retry-go options shared by
// RetryTransaction and RetryOperation: same budget, classification and
// dual backoff curve, differing only in what each attempt actually runs.
func (r *Runner) retryOptions(ctx context.Context, opts Options, kind OperationKind) []retry.Option {
	classify := r.classify(opts.Idempotent, kind)
	started := time.Now()

	opt := []retry.Option{
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	}
	if opts.Budget.MaxAttempts > 0 {
		opt = append(opt, retry.Attempts(safeIntToUint(opts.Budget.MaxAttempts)))
	} else {
		opt = append(opt, retry.UntilSucceeded())
	}

	var attemptCount atomic.Int64
	var lastAggressive atomic.Bool

	opt = append(opt, retry.RetryIf(func(err error) bool {
		attemptCount.Add(1)

		if opts.Budget.exhausted(int(attemptCount.Load()), started) {
			return false
		}

		outcome, aggressive := classify(err)
		lastAggressive.Store(aggressive)
		switch outcome {
		case OutcomeRetry, OutcomeRetryIfIdempotent, OutcomeBadSession:
			return true
		default:
			return false
		}
	}))

	opt = append(opt, retry.DelayType(func(n uint, _ error, _ retry.DelayContext) time.Duration {
		attempt := safeUintToInt(n)
		if lastAggressive.Load() {
			return r.backoff.aggressiveDelay(attempt)
		}
		return r.backoff.NextDelay(attempt)
	}))

	if opts.OnRetry != nil {
		opt = append(opt, retry.OnRetry(func(n uint, err error) {
			opts.OnRetry(safeUintToInt(n)+1, err)
		}))
	}

	return opt
}

// RetryTransaction runs op inside a transaction, retrying per spec
// §4.7's classification table until opts.Budget is exhausted.
func (r *Runner) RetryTransaction(ctx context.Context, opts Options, op func(TxHandle) error) error {
	return retry.New(r.retryOptions(ctx, opts, KindTransaction)...).Do(func() error {
		return r.attempt(ctx, opts, op)
	})
}

// RetryOperation runs op directly against an acquired Session, with no
// transaction wrapper. This is spec §4.7's retry_execute_scheme_query
// and retry_execute_bulk_upsert: both classify and back off exactly
// like RetryTransaction, but neither runs inside a transaction.
func (r *Runner) RetryOperation(ctx context.Context, opts Options, op func(Session) error) error {
	return retry.New(r.retryOptions(ctx, opts, KindStandalone)...).Do(func() error {
		return r.acquire(ctx, op)
	})
}

// attempt starts one session+transaction and runs op once. Partial
// state is discarded server-side via best-effort rollback whenever op
// fails — the retry layer above decides whether to try again (spec
// §4.7: "between attempts the partial transaction state is discarded
// server-side via best-effort rollback").
func (r *Runner) attempt(ctx context.Context, opts Options, op func(TxHandle) error) error {
	return r.acquire(ctx, func(s Session) error {
		tx, err := s.BeginTransaction(ctx, opts.Isolation)
		if err != nil {
			return err
		}

		opErr := op(tx)
		if opErr != nil {
			// Best-effort: a rollback failure never masks the operation's
			// own error, which is what the retry classifier needs to see.
			_ = tx.Rollback(ctx)
		}
		return opErr
	})
}

func safeIntToUint(n int) uint {
	if n <= 0 {
		return 0
	}
	return uint(n)
}

func safeUintToInt(n uint) int {
	if n > uint(math.MaxInt) {
		return math.MaxInt
	}
	return int(n)
}
