package postgresengine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/shelfwise/circulation-go/circulation"
	"github.com/shelfwise/circulation-go/circulation/postgresengine/internal/adapters"
)

// stubAdapter implements adapters.DBAdapter in memory so the retry
// coordination can be exercised without a database.
type stubAdapter struct {
	beginErr     error
	commitErr    error
	commitErrs   []error
	beginCalls   int
	commitCalls  int
	rollbackCall int
}

func (s *stubAdapter) Query(_ context.Context, _ string) (adapters.DBRows, error) {
	return nil, errors.New("not implemented")
}

func (s *stubAdapter) Exec(_ context.Context, _ string) (adapters.DBResult, error) {
	return nil, errors.New("not implemented")
}

func (s *stubAdapter) BeginSerializable(_ context.Context) (adapters.DBTx, error) {
	s.beginCalls++

	if s.beginErr != nil {
		return nil, s.beginErr
	}

	return &stubTx{adapter: s}, nil
}

func (s *stubAdapter) IsSerializationConflict(err error) bool {
	return errors.Is(err, errStubSerializationFailure)
}

type stubTx struct {
	adapter *stubAdapter
}

func (t *stubTx) Query(_ context.Context, _ string) (adapters.DBRows, error) {
	return nil, errors.New("not implemented")
}

func (t *stubTx) Exec(_ context.Context, _ string) (adapters.DBResult, error) {
	return nil, errors.New("not implemented")
}

func (t *stubTx) Commit(_ context.Context) error {
	t.adapter.commitCalls++

	if len(t.adapter.commitErrs) > 0 {
		err := t.adapter.commitErrs[0]
		t.adapter.commitErrs = t.adapter.commitErrs[1:]

		return err
	}

	return t.adapter.commitErr
}

func (t *stubTx) Rollback(_ context.Context) error {
	t.adapter.rollbackCall++

	return nil
}

var errStubSerializationFailure = errors.New("stub serialization failure")

func engineWithStub(stub *stubAdapter, maxAttempts int) Engine {
	return Engine{db: stub, maxAttempts: maxAttempts}
}

func Test_RunSerializable_Succeeds_OnFirstAttempt(t *testing.T) {
	// setup
	stub := &stubAdapter{}
	engine := engineWithStub(stub, 3)

	// act
	err := engine.runSerializable(context.Background(), "test", func(_ context.Context, _ adapters.DBTx) error {
		return nil
	})

	// assert
	assert.NoError(t, err)
	assert.Equal(t, 1, stub.beginCalls)
	assert.Equal(t, 1, stub.commitCalls)
	assert.Equal(t, 0, stub.rollbackCall)
}

func Test_RunSerializable_Retries_SerializationConflicts_UntilSuccess(t *testing.T) {
	// setup
	stub := &stubAdapter{}
	engine := engineWithStub(stub, 3)
	attempts := 0

	// act
	err := engine.runSerializable(context.Background(), "test", func(_ context.Context, _ adapters.DBTx) error {
		attempts++
		if attempts < 3 {
			return errors.Join(circulation.ErrSerializationConflict, errStubSerializationFailure)
		}

		return nil
	})

	// assert
	assert.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, 3, stub.beginCalls)
	assert.Equal(t, 2, stub.rollbackCall, "each failed attempt should roll back")
}

func Test_RunSerializable_Fails_WhenTheAttemptBudget_Is_Exhausted(t *testing.T) {
	// setup
	stub := &stubAdapter{}
	engine := engineWithStub(stub, 3)
	attempts := 0

	// act
	err := engine.runSerializable(context.Background(), "test", func(_ context.Context, _ adapters.DBTx) error {
		attempts++

		return errors.Join(circulation.ErrSerializationConflict, errStubSerializationFailure)
	})

	// assert
	assert.Error(t, err)
	assert.ErrorIs(t, err, circulation.ErrTransactionExhausted)
	assert.ErrorIs(t, err, circulation.ErrSerializationConflict)
	assert.Equal(t, 3, attempts, "the budget counts total attempts, not retries")
	assert.Equal(t, circulation.KindServer, circulation.Classify(err))
}

func Test_RunSerializable_DoesNotRetry_BusinessErrors(t *testing.T) {
	// setup
	stub := &stubAdapter{}
	engine := engineWithStub(stub, 3)
	attempts := 0

	// act
	err := engine.runSerializable(context.Background(), "test", func(_ context.Context, _ adapters.DBTx) error {
		attempts++

		return circulation.ErrCopyNotAvailable
	})

	// assert
	assert.Error(t, err)
	assert.ErrorIs(t, err, circulation.ErrCopyNotAvailable)
	assert.Equal(t, 1, attempts, "deterministic failures must not be retried")
	assert.Equal(t, 1, stub.rollbackCall)
}

func Test_RunSerializable_Retries_ConflictsDetected_AtCommit(t *testing.T) {
	// setup
	stub := &stubAdapter{commitErrs: []error{errStubSerializationFailure, nil}}
	engine := engineWithStub(stub, 3)

	// act
	err := engine.runSerializable(context.Background(), "test", func(_ context.Context, _ adapters.DBTx) error {
		return nil
	})

	// assert
	assert.NoError(t, err)
	assert.Equal(t, 2, stub.beginCalls, "a commit-time conflict should trigger a retry")
}

func Test_RunSerializable_Fails_WhenBeginFails(t *testing.T) {
	// setup
	beginFailure := errors.New("connection refused")
	stub := &stubAdapter{beginErr: beginFailure}
	engine := engineWithStub(stub, 3)

	// act
	err := engine.runSerializable(context.Background(), "test", func(_ context.Context, _ adapters.DBTx) error {
		return nil
	})

	// assert
	assert.Error(t, err)
	assert.ErrorIs(t, err, circulation.ErrBeginningTxFailed)
	assert.ErrorIs(t, err, beginFailure)
	assert.Equal(t, 1, stub.beginCalls, "a begin failure is not a serialization conflict")
}

func Test_RunSerializable_Stops_WhenTheContext_Is_Cancelled_DuringBackoff(t *testing.T) {
	// setup
	stub := &stubAdapter{}
	engine := engineWithStub(stub, 3)
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0

	// act
	err := engine.runSerializable(ctx, "test", func(_ context.Context, _ adapters.DBTx) error {
		attempts++
		cancel() // the backoff before the next attempt should observe this

		return errors.Join(circulation.ErrSerializationConflict, errStubSerializationFailure)
	})

	// assert
	assert.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}

func Test_Backoff_Delays_Grow_PerAttempt(t *testing.T) {
	// setup
	engine := engineWithStub(&stubAdapter{}, 5)

	// act
	start := time.Now()
	err := engine.backoff(context.Background(), 4) // 40ms base delay plus jitter
	elapsed := time.Since(start)

	// assert
	assert.NoError(t, err)
	assert.GreaterOrEqual(t, elapsed, 40*time.Millisecond)
	assert.Less(t, elapsed, 200*time.Millisecond)
}
