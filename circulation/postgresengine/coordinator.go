package postgresengine

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/shelfwise/circulation-go/circulation"
	"github.com/shelfwise/circulation-go/circulation/postgresengine/internal/adapters"
)

const (
	retryBaseDelay    = 10 * time.Millisecond
	retryJitterFactor = 0.3
)

// txWork is a unit of work executed against one open serializable transaction.
// It must be safe to re-execute from the top: all reads and writes go through
// the transaction handle, and no externally visible side effects happen outside it.
type txWork func(ctx context.Context, tx adapters.DBTx) error

// runSerializable executes the unit of work inside a serializable transaction
// and retries the whole unit from scratch when the store aborts it with a
// serialization conflict, up to the configured attempt budget.
//
// Retry schedule (default budget of 3): 0 ms, 10 ms, 20 ms (with 30% jitter).
//
// Only serialization conflicts are retried. Every other failure is
// deterministic - validation, not-found, business-rule violations - so it
// propagates immediately; retrying could not change the outcome. Exhausting
// the budget yields circulation.ErrTransactionExhausted, which classifies as
// a server fault rather than the caller's.
func (e Engine) runSerializable(ctx context.Context, operation string, work txWork) error {
	var lastErr error

	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		if attempt > 1 {
			if waitErr := e.backoff(ctx, attempt); waitErr != nil {
				return waitErr
			}
		}

		lastErr = e.runAttempt(ctx, work)
		if lastErr == nil {
			return nil
		}

		if !e.isSerializationConflict(lastErr) {
			return lastErr
		}

		e.logOperation(ctx, logMsgSerializationConflict,
			logAttrOperation, operation,
			logAttrAttempt, attempt,
			logAttrMaxAttempts, e.maxAttempts)
		e.incrementCounter(ctx, metricSerializationConflicts, map[string]string{spanAttrOperation: operation})

		if attempt < e.maxAttempts {
			e.incrementCounter(ctx, metricTxRetries, map[string]string{spanAttrOperation: operation})
		}
	}

	e.logError(ctx, logMsgRetriesExhausted, lastErr, logAttrOperation, operation, logAttrMaxAttempts, e.maxAttempts)
	e.incrementCounter(ctx, metricTxExhausted, map[string]string{spanAttrOperation: operation})

	return errors.Join(circulation.ErrTransactionExhausted, lastErr)
}

// runAttempt executes one begin/work/commit cycle.
func (e Engine) runAttempt(ctx context.Context, work txWork) error {
	tx, beginErr := e.db.BeginSerializable(ctx)
	if beginErr != nil {
		e.logError(ctx, logMsgBeginTxFailed, beginErr)

		return errors.Join(circulation.ErrBeginningTxFailed, beginErr)
	}

	if workErr := work(ctx, tx); workErr != nil {
		e.rollback(ctx, tx)

		return workErr
	}

	if commitErr := tx.Commit(ctx); commitErr != nil {
		e.rollback(ctx, tx)

		if e.db.IsSerializationConflict(commitErr) {
			return errors.Join(circulation.ErrSerializationConflict, commitErr)
		}

		e.logError(ctx, logMsgCommitTxFailed, commitErr)

		return errors.Join(circulation.ErrCommittingTxFailed, commitErr)
	}

	return nil
}

// rollback rolls a transaction back, logging failure at warn level only:
// after a failed attempt the original error is the one worth surfacing.
func (e Engine) rollback(ctx context.Context, tx adapters.DBTx) {
	if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
		e.logWarn(ctx, logMsgRollbackTxFailed, logAttrError, rollbackErr.Error())
	}
}

// backoff sleeps before a retry attempt using exponential backoff with jitter
// to prevent a thundering herd of colliding retries.
func (e Engine) backoff(ctx context.Context, attempt int) error {
	delay := retryBaseDelay * time.Duration(1<<(attempt-2))
	jitter := rand.Float64() * float64(delay) * retryJitterFactor //nolint:gosec // math/rand is sufficient for jitter

	select {
	case <-time.After(delay + time.Duration(jitter)):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// isSerializationConflict reports whether the error is the store's
// serialization-conflict signal, either already classified by a statement
// helper or still carrying the raw driver error.
func (e Engine) isSerializationConflict(err error) bool {
	return circulation.IsRetryable(err) || e.db.IsSerializationConflict(err)
}
