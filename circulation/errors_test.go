package circulation_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shelfwise/circulation-go/circulation"
)

func Test_Classify_MapsEveryErrorToItsKind(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		expected circulation.Kind
	}{
		{"checkout input missing", circulation.ErrCheckoutInputMissing, circulation.KindValidation},
		{"return input missing", circulation.ErrReturnInputMissing, circulation.KindValidation},
		{"title and author required", circulation.ErrTitleAndAuthorRequired, circulation.KindValidation},
		{"invalid total copies", circulation.ErrInvalidTotalCopies, circulation.KindValidation},
		{"borrower not found", circulation.ErrBorrowerNotFound, circulation.KindNotFound},
		{"librarian not found", circulation.ErrLibrarianNotFound, circulation.KindNotFound},
		{"book not found", circulation.ErrBookNotFound, circulation.KindNotFound},
		{"book copy not found", circulation.ErrBookCopyNotFound, circulation.KindNotFound},
		{"borrower deactivated", circulation.ErrBorrowerDeactivated, circulation.KindForbidden},
		{"librarian deactivated", circulation.ErrLibrarianDeactivated, circulation.KindForbidden},
		{"loan cap reached", circulation.ErrLoanCapReached, circulation.KindConflict},
		{"copy not available", circulation.ErrCopyNotAvailable, circulation.KindConflict},
		{"no active loan", circulation.ErrNoActiveLoan, circulation.KindConflict},
		{"return state conflict", circulation.ErrReturnStateConflict, circulation.KindConflict},
		{"copy has active loan", circulation.ErrCopyHasActiveLoan, circulation.KindConflict},
		{"transaction exhausted", circulation.ErrTransactionExhausted, circulation.KindServer},
		{"querying rows failed", circulation.ErrQueryingRowsFailed, circulation.KindServer},
		{"unknown error", errors.New("something else"), circulation.KindServer},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert.Equal(t, testCase.expected, circulation.Classify(testCase.err))
		})
	}
}

func Test_Classify_SeesThrough_JoinedErrors(t *testing.T) {
	// arrange
	cause := errors.New("sqlstate 40001")
	joined := errors.Join(circulation.ErrTransactionExhausted, errors.Join(circulation.ErrSerializationConflict, cause))

	// assert
	assert.Equal(t, circulation.KindServer, circulation.Classify(joined))
	assert.True(t, errors.Is(joined, circulation.ErrSerializationConflict))
}

func Test_Classify_WithNilError(t *testing.T) {
	assert.Equal(t, circulation.KindServer, circulation.Classify(nil))
}

func Test_Kind_String_IsStable(t *testing.T) {
	assert.Equal(t, "server", circulation.KindServer.String())
	assert.Equal(t, "validation", circulation.KindValidation.String())
	assert.Equal(t, "not_found", circulation.KindNotFound.String())
	assert.Equal(t, "forbidden", circulation.KindForbidden.String())
	assert.Equal(t, "conflict", circulation.KindConflict.String())
}

func Test_IsRetryable_OnlyForSerializationConflicts(t *testing.T) {
	// arrange
	cause := errors.New("sqlstate 40001")

	// assert
	assert.True(t, circulation.IsRetryable(circulation.ErrSerializationConflict))
	assert.True(t, circulation.IsRetryable(errors.Join(circulation.ErrSerializationConflict, cause)))
	assert.False(t, circulation.IsRetryable(circulation.ErrLoanCapReached))
	assert.False(t, circulation.IsRetryable(circulation.ErrCopyNotAvailable))
	assert.False(t, circulation.IsRetryable(nil))
}
