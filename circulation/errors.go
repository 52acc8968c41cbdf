package circulation

import (
	"errors"
)

var (
	// ErrNilDatabaseConnection is returned when a nil database connection is supplied to an engine constructor.
	ErrNilDatabaseConnection = errors.New("database connection must not be nil")

	// ErrEmptyTablePrefix is returned when an empty table prefix is supplied via WithTablePrefix.
	ErrEmptyTablePrefix = errors.New("empty table prefix supplied")

	// ErrInvalidMaxAttempts is returned when the configured transaction attempt budget is not positive.
	ErrInvalidMaxAttempts = errors.New("max attempts must be positive")

	// ErrCheckoutInputMissing is returned when a checkout command lacks one of the required identifiers.
	ErrCheckoutInputMissing = errors.New("borrower ID, librarian ID, and book copy ID are required")

	// ErrReturnInputMissing is returned when a return command lacks the book copy identifier.
	ErrReturnInputMissing = errors.New("book copy ID is required")

	// ErrTitleAndAuthorRequired is returned when a book is created without title or author.
	ErrTitleAndAuthorRequired = errors.New("title and author are required")

	// ErrInvalidTotalCopies is returned when a book is created with a non-positive copy count.
	ErrInvalidTotalCopies = errors.New("total copies must be a positive integer")

	// ErrBorrowerNotFound is returned when the borrower referenced by a command does not exist.
	ErrBorrowerNotFound = errors.New("borrower not found")

	// ErrLibrarianNotFound is returned when the librarian referenced by a command does not exist.
	ErrLibrarianNotFound = errors.New("librarian not found")

	// ErrBookNotFound is returned when the referenced book does not exist.
	ErrBookNotFound = errors.New("book not found")

	// ErrBookCopyNotFound is returned when the referenced book copy does not exist.
	ErrBookCopyNotFound = errors.New("book copy not found")

	// ErrBorrowerDeactivated is returned when the borrower's account is not active.
	ErrBorrowerDeactivated = errors.New("borrower account is deactivated")

	// ErrLibrarianDeactivated is returned when the librarian's account is not active.
	ErrLibrarianDeactivated = errors.New("librarian account is deactivated")

	// ErrLoanCapReached is returned when the borrower already has the maximum allowed active loans.
	ErrLoanCapReached = errors.New("borrower has reached the maximum allowed active loans")

	// ErrCopyNotAvailable is returned when the conditional AVAILABLE -> BORROWED transition affects no rows.
	ErrCopyNotAvailable = errors.New("book copy is not available for checkout")

	// ErrNoActiveLoan is returned when a return is attempted for a copy without an active loan.
	ErrNoActiveLoan = errors.New("no active borrowing transaction found for this copy")

	// ErrReturnStateConflict is returned when the conditional BORROWED -> AVAILABLE transition affects no rows.
	ErrReturnStateConflict = errors.New("book copy state conflict during return")

	// ErrCopyHasActiveLoan is returned when an administrative edit would mark a copy available
	// while an active borrowing transaction still references it.
	ErrCopyHasActiveLoan = errors.New("cannot mark copy as available while a borrowing transaction is active")

	// ErrSerializationConflict signals that the storage layer aborted a serializable transaction
	// because of concurrent modification. It is the only error the transaction coordinator retries.
	ErrSerializationConflict = errors.New("serialization conflict, transaction aborted by the store")

	// ErrTransactionExhausted is returned when repeated serialization conflicts exceed the retry budget.
	ErrTransactionExhausted = errors.New("transaction failed after retry attempts")

	// ErrBuildingQueryFailed is returned when an SQL statement cannot be built.
	ErrBuildingQueryFailed = errors.New("failed to build sql query")

	// ErrQueryingRowsFailed is returned when a read statement fails to execute.
	ErrQueryingRowsFailed = errors.New("querying database rows failed")

	// ErrScanningDBRowFailed is returned when a database row cannot be scanned into its destination.
	ErrScanningDBRowFailed = errors.New("scanning database row failed")

	// ErrExecutingStatementFailed is returned when a write statement fails to execute.
	ErrExecutingStatementFailed = errors.New("executing database statement failed")

	// ErrGettingRowsAffectedFailed is returned when the affected-row count cannot be read.
	ErrGettingRowsAffectedFailed = errors.New("failed to get rows affected count")

	// ErrBeginningTxFailed is returned when a serializable transaction cannot be started.
	ErrBeginningTxFailed = errors.New("beginning serializable transaction failed")

	// ErrCommittingTxFailed is returned when a transaction commit fails for a reason
	// other than a serialization conflict.
	ErrCommittingTxFailed = errors.New("committing transaction failed")
)

// Kind is a coarse classification of engine errors, mappable to a
// conventional transport status (bad input, not found, forbidden,
// conflict, server error).
type Kind int

const (
	// KindServer covers operational failures that are not the caller's fault,
	// including retry exhaustion and storage errors. It is the zero value, so
	// unrecognized errors classify as server faults.
	KindServer Kind = iota

	// KindValidation covers missing or malformed input.
	KindValidation

	// KindNotFound covers references to absent entities.
	KindNotFound

	// KindForbidden covers operations attempted by deactivated accounts.
	KindForbidden

	// KindConflict covers business-rule and state-transition violations.
	KindConflict
)

// String returns a stable lowercase name for the kind, suitable for metrics labels.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	default:
		return "server"
	}
}

// Classify maps an error returned by the engine to its Kind.
// Wrapped and joined errors are matched with errors.Is, so callers can
// classify errors that carry a storage cause.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindServer

	case errors.Is(err, ErrCheckoutInputMissing),
		errors.Is(err, ErrReturnInputMissing),
		errors.Is(err, ErrTitleAndAuthorRequired),
		errors.Is(err, ErrInvalidTotalCopies):
		return KindValidation

	case errors.Is(err, ErrBorrowerNotFound),
		errors.Is(err, ErrLibrarianNotFound),
		errors.Is(err, ErrBookNotFound),
		errors.Is(err, ErrBookCopyNotFound):
		return KindNotFound

	case errors.Is(err, ErrBorrowerDeactivated),
		errors.Is(err, ErrLibrarianDeactivated):
		return KindForbidden

	case errors.Is(err, ErrLoanCapReached),
		errors.Is(err, ErrCopyNotAvailable),
		errors.Is(err, ErrNoActiveLoan),
		errors.Is(err, ErrReturnStateConflict),
		errors.Is(err, ErrCopyHasActiveLoan):
		return KindConflict

	default:
		return KindServer
	}
}

// IsRetryable reports whether an error is a transient serialization
// conflict that a coordinator may retry. All other errors are
// deterministic and must fail fast.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrSerializationConflict)
}
