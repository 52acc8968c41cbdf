// Package circulation provides the core abstractions and types for a
// book-lending circulation engine with finite countable inventory.
//
// Each catalog book owns a number of physical copies; every copy is lent
// and returned independently. Lending decisions respect per-role borrowing
// policies (loan duration, maximum simultaneous loans), and all state
// transitions are performed inside serializable storage transactions so
// that a copy can never be lent twice and inventory counts never drift.
//
// This package defines the domain entities (User, Book, BookCopy, Loan,
// BorrowingPolicy), the error taxonomy with kind classification for
// transport mapping, and the dependency-free observability interfaces
// implemented by engine backends.
//
// Key types:
//   - BookCopy / CopyStatus: a physical unit and its lifecycle states
//   - Loan / LoanStatus: the borrowing record linking copy, borrower and librarian
//   - BorrowingPolicy: per-role loan duration and loan cap, with system defaults
//   - Kind / Classify: maps any engine error to a transport-level classification
//
// Common usage pattern:
//
//	result, err := engine.CheckoutBookCopy(ctx, circulation.CheckoutCommand{
//		BorrowerID:  borrowerID,
//		LibrarianID: librarianID,
//		BookCopyID:  copyID,
//	})
//	if err != nil {
//		switch circulation.Classify(err) {
//		case circulation.KindConflict:
//			// copy already lent, or loan cap reached
//		case circulation.KindNotFound:
//			// unknown borrower, librarian or copy
//		}
//	}
package circulation
