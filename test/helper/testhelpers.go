package helper

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/shelfwise/circulation-go/circulation"
	"github.com/shelfwise/circulation-go/test/postgreswrapper"
)

// GivenUniqueID generates a unique UUID for testing.
func GivenUniqueID(t testing.TB) uuid.UUID {
	id, err := uuid.NewV7()
	assert.NoError(t, err, "error in arranging test data")

	return id
}

// GivenRole seeds a role with a unique name and returns its ID.
func GivenRole(t testing.TB, wrapper postgreswrapper.Wrapper, name string) uuid.UUID {
	roleID := GivenUniqueID(t)

	wrapper.Exec(t,
		`INSERT INTO roles (id, name) VALUES ($1, $2)`,
		roleID.String(), fmt.Sprintf("%s-%s", name, roleID.String()),
	)

	return roleID
}

// GivenUser seeds a user with the given role and activation state.
func GivenUser(t testing.TB, wrapper postgreswrapper.Wrapper, roleID uuid.UUID, isActive bool) uuid.UUID {
	userID := GivenUniqueID(t)

	wrapper.Exec(t,
		`INSERT INTO users (id, full_name, email, is_active, role_id) VALUES ($1, $2, $3, $4, $5)`,
		userID.String(),
		"Test User "+userID.String(),
		userID.String()+"@example.com",
		isActive,
		roleID.String(),
	)

	return userID
}

// GivenBorrower seeds an active user in a fresh role and returns both IDs.
func GivenBorrower(t testing.TB, wrapper postgreswrapper.Wrapper) (borrowerID uuid.UUID, roleID uuid.UUID) {
	roleID = GivenRole(t, wrapper, "member")
	borrowerID = GivenUser(t, wrapper, roleID, true)

	return borrowerID, roleID
}

// GivenLibrarian seeds an active user in a fresh staff role.
func GivenLibrarian(t testing.TB, wrapper postgreswrapper.Wrapper) uuid.UUID {
	roleID := GivenRole(t, wrapper, "librarian")

	return GivenUser(t, wrapper, roleID, true)
}

// GivenBorrowingPolicy seeds a policy row for the given role.
func GivenBorrowingPolicy(
	t testing.TB,
	wrapper postgreswrapper.Wrapper,
	roleID uuid.UUID,
	loanDurationDays int,
	maxBooksAllowed int,
) {

	wrapper.Exec(t,
		`INSERT INTO borrowing_policies (id, role_id, loan_duration_days, max_books_allowed) VALUES ($1, $2, $3, $4)`,
		GivenUniqueID(t).String(), roleID.String(), loanDurationDays, maxBooksAllowed,
	)
}

// GivenBook seeds a book row and returns its ID.
func GivenBook(t testing.TB, wrapper postgreswrapper.Wrapper) uuid.UUID {
	bookID := GivenUniqueID(t)

	wrapper.Exec(t,
		`INSERT INTO books (id, title, author) VALUES ($1, $2, $3)`,
		bookID.String(), "Learning Domain-Driven Design", "Vlad Khononov",
	)

	return bookID
}

// GivenBookCopy seeds a copy of the given book with the given status.
func GivenBookCopy(
	t testing.TB,
	wrapper postgreswrapper.Wrapper,
	bookID uuid.UUID,
	status circulation.CopyStatus,
) uuid.UUID {

	copyID := GivenUniqueID(t)

	wrapper.Exec(t,
		`INSERT INTO book_copies (id, book_id, barcode, location, status) VALUES ($1, $2, $3, $4, $5)`,
		copyID.String(), bookID.String(), "BC-"+copyID.String(), "Shelf A-1", string(status),
	)

	return copyID
}

// GivenActiveLoan seeds an ACTIVE borrowing transaction for the given copy and
// marks the copy BORROWED, mirroring the state a checkout leaves behind.
func GivenActiveLoan(
	t testing.TB,
	wrapper postgreswrapper.Wrapper,
	copyID uuid.UUID,
	borrowerID uuid.UUID,
	librarianID uuid.UUID,
	checkoutDate time.Time,
) uuid.UUID {

	loanID := GivenUniqueID(t)

	wrapper.Exec(t,
		`INSERT INTO borrowing_transactions
			(id, book_copy_id, borrower_id, librarian_id, checkout_date, due_date, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		loanID.String(), copyID.String(), borrowerID.String(), librarianID.String(),
		checkoutDate, circulation.DefaultBorrowingPolicy().DueDate(checkoutDate),
		string(circulation.LoanStatusActive),
	)

	wrapper.Exec(t,
		`UPDATE book_copies SET status = $1 WHERE id = $2`,
		string(circulation.CopyStatusBorrowed), copyID.String(),
	)

	return loanID
}

// QueryCopyStatus reads the persisted status of a book copy.
func QueryCopyStatus(t testing.TB, wrapper postgreswrapper.Wrapper, copyID uuid.UUID) circulation.CopyStatus {
	var status string
	wrapper.QueryRowScan(t,
		`SELECT status FROM book_copies WHERE id = $1`,
		[]any{copyID.String()},
		&status,
	)

	return circulation.CopyStatus(status)
}

// QueryLoanStatus reads the persisted status of a borrowing transaction.
func QueryLoanStatus(t testing.TB, wrapper postgreswrapper.Wrapper, loanID uuid.UUID) circulation.LoanStatus {
	var status string
	wrapper.QueryRowScan(t,
		`SELECT status FROM borrowing_transactions WHERE id = $1`,
		[]any{loanID.String()},
		&status,
	)

	return circulation.LoanStatus(status)
}

// QueryActiveLoanCount counts ACTIVE borrowing transactions for a borrower.
func QueryActiveLoanCount(t testing.TB, wrapper postgreswrapper.Wrapper, borrowerID uuid.UUID) int {
	var count int
	wrapper.QueryRowScan(t,
		`SELECT count(*) FROM borrowing_transactions WHERE borrower_id = $1 AND status = $2`,
		[]any{borrowerID.String(), string(circulation.LoanStatusActive)},
		&count,
	)

	return count
}

// QueryAuditEntryCount counts audit entries recorded for the given entity ID.
func QueryAuditEntryCount(t testing.TB, wrapper postgreswrapper.Wrapper, entityID uuid.UUID) int {
	var count int
	wrapper.QueryRowScan(t,
		`SELECT count(*) FROM audit_log WHERE entity_id = $1`,
		[]any{entityID.String()},
		&count,
	)

	return count
}
