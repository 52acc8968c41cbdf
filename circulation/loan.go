package circulation

import (
	"time"

	"github.com/google/uuid"
)

// LoanStatus is the lifecycle state of a borrowing transaction.
// A loan is created ACTIVE and terminally closed RETURNED; it is never
// deleted or reopened.
type LoanStatus string

const (
	LoanStatusActive   LoanStatus = "ACTIVE"
	LoanStatusReturned LoanStatus = "RETURNED"
)

// Loan is a borrowing transaction: it links one book copy, the borrower,
// and the librarian who performed the checkout.
type Loan struct {
	ID           uuid.UUID
	BookCopyID   uuid.UUID
	BorrowerID   uuid.UUID
	LibrarianID  uuid.UUID
	CheckoutDate time.Time
	DueDate      time.Time
	ReturnDate   *time.Time
	Status       LoanStatus
	Notes        string
}

// LoanSummary is the loan record enriched with borrower and copy/book
// summary fields, as returned by the checkout and return workflows.
type LoanSummary struct {
	Loan
	Borrower UserSummary
	Copy     CopySummary
}

// LoanResult is the outcome of a checkout or return workflow: the
// created or closed loan record plus a fresh inventory snapshot for the
// affected book, both observed in the same transactional snapshot.
type LoanResult struct {
	Loan      LoanSummary
	Inventory InventoryCounts
}

// CheckoutCommand carries the input for the checkout workflow.
// CheckoutDate defaults to the current time when zero.
type CheckoutCommand struct {
	BorrowerID   uuid.UUID
	LibrarianID  uuid.UUID
	BookCopyID   uuid.UUID
	CheckoutDate time.Time
	Notes        string
}

// Validate checks that all required identifiers are present.
func (c CheckoutCommand) Validate() error {
	if c.BorrowerID == uuid.Nil || c.LibrarianID == uuid.Nil || c.BookCopyID == uuid.Nil {
		return ErrCheckoutInputMissing
	}

	return nil
}

// ReturnCommand carries the input for the return workflow.
// ReturnDate defaults to the current time when zero.
type ReturnCommand struct {
	BookCopyID uuid.UUID
	ReturnDate time.Time
	Notes      string
}

// Validate checks that the book copy identifier is present.
func (c ReturnCommand) Validate() error {
	if c.BookCopyID == uuid.Nil {
		return ErrReturnInputMissing
	}

	return nil
}
