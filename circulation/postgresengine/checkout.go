package postgresengine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/shelfwise/circulation-go/circulation"
	"github.com/shelfwise/circulation-go/circulation/postgresengine/internal/adapters"
)

const auditActionCheckout = "checkout"

// CheckoutBookCopy lends one physical copy to a borrower.
//
// The whole workflow runs inside a single serializable transaction with
// bounded retry: librarian verification, policy resolution and loan-cap
// check, the conditional AVAILABLE -> BORROWED copy transition, loan-record
// creation, the audit entry, and the inventory snapshot all observe the
// same storage snapshot. Two concurrent checkouts of the same copy are
// serialized by the store so that exactly one wins; the other fails with
// circulation.ErrCopyNotAvailable or is retried and then fails.
func (e Engine) CheckoutBookCopy(ctx context.Context, command circulation.CheckoutCommand) (circulation.LoanResult, error) {
	if validateErr := command.Validate(); validateErr != nil {
		return circulation.LoanResult{}, validateErr
	}

	start := time.Now()
	ctx, span := e.startSpan(ctx, operationCheckout)

	var result circulation.LoanResult

	err := e.runSerializable(ctx, operationCheckout, func(ctx context.Context, tx adapters.DBTx) error {
		var workErr error
		result, workErr = e.checkoutInTx(ctx, tx, command)

		return workErr
	})

	e.finishSpan(span, err)
	e.recordOperationDuration(ctx, operationCheckout, statusFor(err), time.Since(start))

	if err != nil {
		return circulation.LoanResult{}, err
	}

	e.logOperation(ctx, logMsgCheckoutCompleted,
		logAttrLoanID, result.Loan.ID.String(),
		logAttrBookCopyID, command.BookCopyID.String(),
		logAttrBorrowerID, command.BorrowerID.String(),
		logAttrDurationMS, e.toMilliseconds(time.Since(start)))

	return result, nil
}

// checkoutInTx is the retryable unit of work for one checkout attempt.
func (e Engine) checkoutInTx(ctx context.Context, tx adapters.DBTx, command circulation.CheckoutCommand) (
	circulation.LoanResult,
	error,
) {

	librarian, librarianFound, librarianErr := e.loadUser(ctx, tx, command.LibrarianID)
	if librarianErr != nil {
		return circulation.LoanResult{}, librarianErr
	}

	if !librarianFound {
		return circulation.LoanResult{}, circulation.ErrLibrarianNotFound
	}

	if !librarian.IsActive {
		return circulation.LoanResult{}, circulation.ErrLibrarianDeactivated
	}

	policy, _, policyErr := e.resolvePolicy(ctx, tx, command.BorrowerID)
	if policyErr != nil {
		return circulation.LoanResult{}, policyErr
	}

	activeLoans, countErr := e.countActiveLoans(ctx, tx, command.BorrowerID)
	if countErr != nil {
		return circulation.LoanResult{}, countErr
	}

	if activeLoans >= policy.MaxBooksAllowed {
		return circulation.LoanResult{}, circulation.ErrLoanCapReached
	}

	bookCopy, copyFound, copyErr := e.loadCopy(ctx, tx, command.BookCopyID)
	if copyErr != nil {
		return circulation.LoanResult{}, copyErr
	}

	if !copyFound {
		return circulation.LoanResult{}, circulation.ErrBookCopyNotFound
	}

	transitioned, transitionErr := e.transitionCopyStatus(
		ctx, tx, command.BookCopyID,
		circulation.CopyStatusAvailable, circulation.CopyStatusBorrowed,
	)
	if transitionErr != nil {
		return circulation.LoanResult{}, transitionErr
	}

	if !transitioned {
		return circulation.LoanResult{}, circulation.ErrCopyNotAvailable
	}

	checkoutDate := command.CheckoutDate
	if checkoutDate.IsZero() {
		checkoutDate = time.Now().UTC()
	}

	loanID, idErr := uuid.NewV7()
	if idErr != nil {
		return circulation.LoanResult{}, idErr
	}

	loan := circulation.Loan{
		ID:           loanID,
		BookCopyID:   command.BookCopyID,
		BorrowerID:   command.BorrowerID,
		LibrarianID:  command.LibrarianID,
		CheckoutDate: checkoutDate,
		DueDate:      policy.DueDate(checkoutDate),
		Status:       circulation.LoanStatusActive,
		Notes:        command.Notes,
	}

	if insertErr := e.insertLoan(ctx, tx, loan); insertErr != nil {
		return circulation.LoanResult{}, insertErr
	}

	if auditErr := e.recordAudit(ctx, tx, auditActionCheckout, loan); auditErr != nil {
		return circulation.LoanResult{}, auditErr
	}

	summary, summaryErr := e.loadLoanSummary(ctx, tx, loanID)
	if summaryErr != nil {
		return circulation.LoanResult{}, summaryErr
	}

	counts, countsErr := e.countCopies(ctx, tx, bookCopy.BookID)
	if countsErr != nil {
		return circulation.LoanResult{}, countsErr
	}

	return circulation.LoanResult{Loan: summary, Inventory: counts}, nil
}
