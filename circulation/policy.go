package circulation

import (
	"time"
)

const (
	// DefaultLoanDurationDays applies when a borrower's role has no policy row.
	DefaultLoanDurationDays = 14

	// DefaultMaxBooksAllowed applies when a borrower's role has no policy row.
	DefaultMaxBooksAllowed = 3
)

// BorrowingPolicy holds the lending rules resolved for a borrower's role:
// the loan duration added to the checkout date to compute the due date,
// and the cap on simultaneous active loans. A role without a policy row
// resolves to the system defaults.
type BorrowingPolicy struct {
	LoanDurationDays int
	MaxBooksAllowed  int
}

// DefaultBorrowingPolicy returns the system default policy (14 days, 3 books).
func DefaultBorrowingPolicy() BorrowingPolicy {
	return BorrowingPolicy{
		LoanDurationDays: DefaultLoanDurationDays,
		MaxBooksAllowed:  DefaultMaxBooksAllowed,
	}
}

// DueDate computes the loan due date for a checkout performed at the given time.
func (p BorrowingPolicy) DueDate(checkoutDate time.Time) time.Time {
	return checkoutDate.AddDate(0, 0, p.LoanDurationDays)
}
