package postgresengine

import (
	"context"
	"time"

	"github.com/shelfwise/circulation-go/circulation"
	"github.com/shelfwise/circulation-go/circulation/postgresengine/internal/adapters"
)

const auditActionReturn = "return"

// ReturnBookCopy closes the current loan for one physical copy.
//
// Like checkout, the workflow runs inside a single serializable transaction
// with bounded retry: the active-loan lookup, the conditional BORROWED ->
// AVAILABLE copy transition, the loan closure, the audit entry, and the
// inventory snapshot all observe the same storage snapshot.
func (e Engine) ReturnBookCopy(ctx context.Context, command circulation.ReturnCommand) (circulation.LoanResult, error) {
	if validateErr := command.Validate(); validateErr != nil {
		return circulation.LoanResult{}, validateErr
	}

	start := time.Now()
	ctx, span := e.startSpan(ctx, operationReturn)

	var result circulation.LoanResult

	err := e.runSerializable(ctx, operationReturn, func(ctx context.Context, tx adapters.DBTx) error {
		var workErr error
		result, workErr = e.returnInTx(ctx, tx, command)

		return workErr
	})

	e.finishSpan(span, err)
	e.recordOperationDuration(ctx, operationReturn, statusFor(err), time.Since(start))

	if err != nil {
		return circulation.LoanResult{}, err
	}

	e.logOperation(ctx, logMsgReturnCompleted,
		logAttrLoanID, result.Loan.ID.String(),
		logAttrBookCopyID, command.BookCopyID.String(),
		logAttrDurationMS, e.toMilliseconds(time.Since(start)))

	return result, nil
}

// returnInTx is the retryable unit of work for one return attempt.
func (e Engine) returnInTx(ctx context.Context, tx adapters.DBTx, command circulation.ReturnCommand) (
	circulation.LoanResult,
	error,
) {

	loanID, loanFound, findErr := e.findActiveLoanID(ctx, tx, command.BookCopyID)
	if findErr != nil {
		return circulation.LoanResult{}, findErr
	}

	if !loanFound {
		return circulation.LoanResult{}, circulation.ErrNoActiveLoan
	}

	transitioned, transitionErr := e.transitionCopyStatus(
		ctx, tx, command.BookCopyID,
		circulation.CopyStatusBorrowed, circulation.CopyStatusAvailable,
	)
	if transitionErr != nil {
		return circulation.LoanResult{}, transitionErr
	}

	if !transitioned {
		return circulation.LoanResult{}, circulation.ErrReturnStateConflict
	}

	returnDate := command.ReturnDate
	if returnDate.IsZero() {
		returnDate = time.Now().UTC()
	}

	if closeErr := e.closeLoan(ctx, tx, loanID, returnDate, command.Notes); closeErr != nil {
		return circulation.LoanResult{}, closeErr
	}

	summary, summaryErr := e.loadLoanSummary(ctx, tx, loanID)
	if summaryErr != nil {
		return circulation.LoanResult{}, summaryErr
	}

	if auditErr := e.recordAudit(ctx, tx, auditActionReturn, summary.Loan); auditErr != nil {
		return circulation.LoanResult{}, auditErr
	}

	counts, countsErr := e.countCopies(ctx, tx, summary.Copy.Book.ID)
	if countsErr != nil {
		return circulation.LoanResult{}, countsErr
	}

	return circulation.LoanResult{Loan: summary, Inventory: counts}, nil
}
