package xretry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTx struct {
	rolledBack bool
}

func (tx *fakeTx) Commit(ctx context.Context) error { return nil }
func (tx *fakeTx) Rollback(ctx context.Context) error {
	tx.rolledBack = true
	return nil
}

type fakeSession struct {
	txFails bool
}

func (s *fakeSession) BeginTransaction(ctx context.Context, mode Isolation) (TxHandle, error) {
	if s.txFails {
		return nil, errors.New("begin failed")
	}
	return &fakeTx{}, nil
}

func fakeAcquirer(sess Session) Acquirer {
	return func(ctx context.Context, fn func(Session) error) error {
		return fn(sess)
	}
}

func fastBackoff() *Exponential {
	return NewExponential(WithInitialDelay(time.Millisecond), WithMaxDelay(time.Millisecond), WithJitter(0))
}

func TestRunnerRetryTransactionSucceedsFirstTry(t *testing.T) {
	r := NewRunner(fakeAcquirer(&fakeSession{}), fastBackoff(), fastBackoff())

	calls := 0
	err := r.RetryTransaction(context.Background(), Options{Budget: Budget{MaxAttempts: 3}}, func(tx TxHandle) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRunnerRetryTransactionRetriesOnRetryableError(t *testing.T) {
	r := NewRunner(fakeAcquirer(&fakeSession{}), fastBackoff(), fastBackoff())

	calls := 0
	err := r.RetryTransaction(context.Background(), Options{Budget: Budget{MaxAttempts: 5}}, func(tx TxHandle) error {
		calls++
		if calls < 3 {
			return &fakeErr{retryable: true}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRunnerRetryTransactionStopsOnFatalError(t *testing.T) {
	r := NewRunner(fakeAcquirer(&fakeSession{}), fastBackoff(), fastBackoff())

	calls := 0
	fatal := &fakeErr{msg: "fatal", retryable: false}
	err := r.RetryTransaction(context.Background(), Options{Budget: Budget{MaxAttempts: 5}}, func(tx TxHandle) error {
		calls++
		return fatal
	})
	assert.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, calls)
}

func TestRunnerRetryTransactionExhaustsBudget(t *testing.T) {
	r := NewRunner(fakeAcquirer(&fakeSession{}), fastBackoff(), fastBackoff())

	calls := 0
	err := r.RetryTransaction(context.Background(), Options{Budget: Budget{MaxAttempts: 2}}, func(tx TxHandle) error {
		calls++
		return &fakeErr{retryable: true}
	})
	assert.Error(t, err)
	assert.Equal(t, 2, calls)
}

func TestRunnerRetryTransactionRollsBackOnFailure(t *testing.T) {
	sess := &fakeSession{}
	r := NewRunner(fakeAcquirer(sess), fastBackoff(), fastBackoff())

	var seenTx *fakeTx
	_ = r.RetryTransaction(context.Background(), Options{Budget: Budget{MaxAttempts: 1}}, func(tx TxHandle) error {
		seenTx = tx.(*fakeTx)
		return &fakeErr{retryable: true}
	})
	require.NotNil(t, seenTx)
	assert.True(t, seenTx.rolledBack)
}

func TestRunnerRetryOperationRunsWithoutTransaction(t *testing.T) {
	called := false
	acquire := func(ctx context.Context, fn func(Session) error) error {
		called = true
		return fn(&fakeSession{})
	}
	r := NewRunner(acquire, fastBackoff(), fastBackoff())

	err := r.RetryOperation(context.Background(), Options{Budget: Budget{MaxAttempts: 1}}, func(s Session) error {
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
}

func TestRunnerRetryOperationUndeterminedRespectsIdempotency(t *testing.T) {
	r := NewRunner(fakeAcquirer(&fakeSession{}), fastBackoff(), fastBackoff())

	calls := 0
	err := r.RetryOperation(context.Background(), Options{Idempotent: false, Budget: Budget{MaxAttempts: 3}}, func(s Session) error {
		calls++
		return &fakeErr{retryable: true, undeterminedOnly: true}
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRunnerOnRetryCallback(t *testing.T) {
	r := NewRunner(fakeAcquirer(&fakeSession{}), fastBackoff(), fastBackoff())

	var attempts []int
	calls := 0
	_ = r.RetryTransaction(context.Background(), Options{
		Budget: Budget{MaxAttempts: 3},
		OnRetry: func(attempt int, err error) {
			attempts = append(attempts, attempt)
		},
	}, func(tx TxHandle) error {
		calls++
		if calls < 3 {
			return &fakeErr{retryable: true}
		}
		return nil
	})
	assert.Equal(t, []int{1, 2}, attempts)
}

func TestRunnerRetryTransactionHonorsContextCancellation(t *testing.T) {
	r := NewRunner(fakeAcquirer(&fakeSession{}), fastBackoff(), fastBackoff())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := r.RetryTransaction(ctx, Options{Budget: Budget{MaxAttempts: 5}}, func(tx TxHandle) error {
		return &fakeErr{retryable: true}
	})
	assert.Error(t, err)
}
