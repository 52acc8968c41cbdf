package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"github.com/shelfwise/circulation-go/circulation"
	"github.com/shelfwise/circulation-go/circulation/postgresengine/internal/adapters"
)

// loadCopy reads one book copy row inside the current transaction snapshot.
// The second return value reports whether the copy exists.
func (e Engine) loadCopy(ctx context.Context, tx adapters.DBRunner, copyID uuid.UUID) (circulation.BookCopy, bool, error) {
	stmt := e.builder().
		From(e.table(tableCopies)).
		Select(colID, colBookID, colBarcode, colLocation, colStatus).
		Where(goqu.Ex{colID: copyID.String()})

	sqlQuery, buildErr := toSQL(stmt)
	if buildErr != nil {
		e.logError(ctx, logMsgBuildQueryFailed, buildErr)
		return circulation.BookCopy{}, false, buildErr
	}

	rows, _, queryErr := e.executeQuery(ctx, tx, sqlQuery)
	if queryErr != nil {
		return circulation.BookCopy{}, false, queryErr
	}
	defer e.closeRows(ctx, rows)

	if !rows.Next() {
		return circulation.BookCopy{}, false, nil
	}

	var idStr, bookIDStr, status string
	var barcode, location sql.NullString

	if scanErr := rows.Scan(&idStr, &bookIDStr, &barcode, &location, &status); scanErr != nil {
		e.logError(ctx, logMsgScanRowFailed, scanErr)
		return circulation.BookCopy{}, false, errors.Join(circulation.ErrScanningDBRowFailed, scanErr)
	}

	bookCopy := circulation.BookCopy{
		ID:       uuid.MustParse(idStr),
		BookID:   uuid.MustParse(bookIDStr),
		Barcode:  barcode.String,
		Location: location.String,
		Status:   circulation.CopyStatus(status),
	}

	return bookCopy, true, nil
}

// transitionCopyStatus performs the conditional status update that makes
// copy state transitions atomic: the row is mutated only where its current
// persisted status matches the expected one, and the affected-row count
// tells the caller whether this attempt won. A read-then-write pair would
// reintroduce the lost-update race this prevents.
func (e Engine) transitionCopyStatus(
	ctx context.Context,
	tx adapters.DBRunner,
	copyID uuid.UUID,
	from circulation.CopyStatus,
	to circulation.CopyStatus,
) (bool, error) {

	stmt := e.builder().
		Update(e.table(tableCopies)).
		Set(goqu.Record{colStatus: string(to)}).
		Where(goqu.Ex{
			colID:     copyID.String(),
			colStatus: string(from),
		})

	sqlQuery, buildErr := toSQL(stmt)
	if buildErr != nil {
		e.logError(ctx, logMsgBuildQueryFailed, buildErr)
		return false, buildErr
	}

	rowsAffected, _, execErr := e.executeStatement(ctx, tx, sqlQuery)
	if execErr != nil {
		return false, execErr
	}

	return rowsAffected == 1, nil
}

// insertLoan creates a new ACTIVE borrowing transaction row.
func (e Engine) insertLoan(ctx context.Context, tx adapters.DBRunner, loan circulation.Loan) error {
	stmt := e.builder().
		Insert(e.table(tableLoans)).
		Rows(goqu.Record{
			colID:           loan.ID.String(),
			colBookCopyID:   loan.BookCopyID.String(),
			colBorrowerID:   loan.BorrowerID.String(),
			colLibrarianID:  loan.LibrarianID.String(),
			colCheckoutDate: loan.CheckoutDate,
			colDueDate:      loan.DueDate,
			colStatus:       string(loan.Status),
			colNotes:        loan.Notes,
		})

	sqlQuery, buildErr := toSQL(stmt)
	if buildErr != nil {
		e.logError(ctx, logMsgBuildQueryFailed, buildErr)
		return buildErr
	}

	_, _, execErr := e.executeStatement(ctx, tx, sqlQuery)

	return execErr
}

// findActiveLoanID returns the most recent ACTIVE loan for a copy, ordered
// by checkout date descending so the current loan is picked deterministically
// even if the data ever became inconsistent. The second return value reports
// whether such a loan exists.
func (e Engine) findActiveLoanID(ctx context.Context, tx adapters.DBRunner, copyID uuid.UUID) (uuid.UUID, bool, error) {
	stmt := e.builder().
		From(e.table(tableLoans)).
		Select(colID).
		Where(goqu.Ex{
			colBookCopyID: copyID.String(),
			colStatus:     string(circulation.LoanStatusActive),
		}).
		Order(goqu.I(colCheckoutDate).Desc()).
		Limit(1)

	sqlQuery, buildErr := toSQL(stmt)
	if buildErr != nil {
		e.logError(ctx, logMsgBuildQueryFailed, buildErr)
		return uuid.Nil, false, buildErr
	}

	rows, _, queryErr := e.executeQuery(ctx, tx, sqlQuery)
	if queryErr != nil {
		return uuid.Nil, false, queryErr
	}
	defer e.closeRows(ctx, rows)

	if !rows.Next() {
		return uuid.Nil, false, nil
	}

	var idStr string

	if scanErr := rows.Scan(&idStr); scanErr != nil {
		e.logError(ctx, logMsgScanRowFailed, scanErr)
		return uuid.Nil, false, errors.Join(circulation.ErrScanningDBRowFailed, scanErr)
	}

	return uuid.MustParse(idStr), true, nil
}

// closeLoan marks a loan RETURNED with the given return date and notes.
func (e Engine) closeLoan(
	ctx context.Context,
	tx adapters.DBRunner,
	loanID uuid.UUID,
	returnDate time.Time,
	notes string,
) error {

	record := goqu.Record{
		colReturnDate: returnDate,
		colStatus:     string(circulation.LoanStatusReturned),
	}

	if notes != "" {
		record[colNotes] = notes
	}

	stmt := e.builder().
		Update(e.table(tableLoans)).
		Set(record).
		Where(goqu.Ex{colID: loanID.String()})

	sqlQuery, buildErr := toSQL(stmt)
	if buildErr != nil {
		e.logError(ctx, logMsgBuildQueryFailed, buildErr)
		return buildErr
	}

	_, _, execErr := e.executeStatement(ctx, tx, sqlQuery)

	return execErr
}

// loadLoanSummary reads a loan joined with its borrower, copy and book
// summary fields inside the current transaction snapshot.
func (e Engine) loadLoanSummary(ctx context.Context, tx adapters.DBRunner, loanID uuid.UUID) (circulation.LoanSummary, error) {
	loansTable := goqu.T(e.table(tableLoans)).As("l")
	usersTable := goqu.T(e.table(tableUsers)).As("u")
	copiesTable := goqu.T(e.table(tableCopies)).As("c")
	booksTable := goqu.T(e.table(tableBooks)).As("b")

	stmt := e.builder().
		From(loansTable).
		Join(usersTable, goqu.On(goqu.I("l."+colBorrowerID).Eq(goqu.I("u."+colID)))).
		Join(copiesTable, goqu.On(goqu.I("l."+colBookCopyID).Eq(goqu.I("c."+colID)))).
		Join(booksTable, goqu.On(goqu.I("c."+colBookID).Eq(goqu.I("b."+colID)))).
		Select(
			goqu.I("l."+colID),
			goqu.I("l."+colBookCopyID),
			goqu.I("l."+colBorrowerID),
			goqu.I("l."+colLibrarianID),
			goqu.I("l."+colCheckoutDate),
			goqu.I("l."+colDueDate),
			goqu.I("l."+colReturnDate),
			goqu.I("l."+colStatus),
			goqu.I("l."+colNotes),
			goqu.I("u."+colFullName),
			goqu.I("u."+colEmail),
			goqu.I("c."+colBarcode),
			goqu.I("b."+colID),
			goqu.I("b."+colTitle),
			goqu.I("b."+colAuthor),
		).
		Where(goqu.I("l." + colID).Eq(loanID.String()))

	sqlQuery, buildErr := toSQL(stmt)
	if buildErr != nil {
		e.logError(ctx, logMsgBuildQueryFailed, buildErr)
		return circulation.LoanSummary{}, buildErr
	}

	rows, _, queryErr := e.executeQuery(ctx, tx, sqlQuery)
	if queryErr != nil {
		return circulation.LoanSummary{}, queryErr
	}
	defer e.closeRows(ctx, rows)

	if !rows.Next() {
		return circulation.LoanSummary{}, circulation.ErrNoActiveLoan
	}

	var loanIDStr, copyIDStr, borrowerIDStr, librarianIDStr, status, bookIDStr string
	var checkoutDate, dueDate time.Time
	var returnDate sql.NullTime
	var notes, barcode sql.NullString
	var fullName, email, title, author string

	scanErr := rows.Scan(
		&loanIDStr, &copyIDStr, &borrowerIDStr, &librarianIDStr,
		&checkoutDate, &dueDate, &returnDate, &status, &notes,
		&fullName, &email, &barcode, &bookIDStr, &title, &author,
	)
	if scanErr != nil {
		e.logError(ctx, logMsgScanRowFailed, scanErr)
		return circulation.LoanSummary{}, errors.Join(circulation.ErrScanningDBRowFailed, scanErr)
	}

	summary := circulation.LoanSummary{
		Loan: circulation.Loan{
			ID:           uuid.MustParse(loanIDStr),
			BookCopyID:   uuid.MustParse(copyIDStr),
			BorrowerID:   uuid.MustParse(borrowerIDStr),
			LibrarianID:  uuid.MustParse(librarianIDStr),
			CheckoutDate: checkoutDate,
			DueDate:      dueDate,
			Status:       circulation.LoanStatus(status),
			Notes:        notes.String,
		},
		Borrower: circulation.UserSummary{
			ID:       uuid.MustParse(borrowerIDStr),
			FullName: fullName,
			Email:    email,
		},
		Copy: circulation.CopySummary{
			ID:      uuid.MustParse(copyIDStr),
			Barcode: barcode.String,
			Book: circulation.BookSummary{
				ID:     uuid.MustParse(bookIDStr),
				Title:  title,
				Author: author,
			},
		},
	}

	if returnDate.Valid {
		returned := returnDate.Time
		summary.ReturnDate = &returned
	}

	return summary, nil
}
