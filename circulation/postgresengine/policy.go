package postgresengine

import (
	"context"
	"errors"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"github.com/shelfwise/circulation-go/circulation"
	"github.com/shelfwise/circulation-go/circulation/postgresengine/internal/adapters"
)

// loadUser reads one user row inside the current transaction snapshot.
// The second return value reports whether the user exists.
func (e Engine) loadUser(ctx context.Context, tx adapters.DBRunner, userID uuid.UUID) (circulation.User, bool, error) {
	stmt := e.builder().
		From(e.table(tableUsers)).
		Select(colID, colFullName, colEmail, colIsActive, colRoleID).
		Where(goqu.Ex{colID: userID.String()})

	sqlQuery, buildErr := toSQL(stmt)
	if buildErr != nil {
		e.logError(ctx, logMsgBuildQueryFailed, buildErr)
		return circulation.User{}, false, buildErr
	}

	rows, _, queryErr := e.executeQuery(ctx, tx, sqlQuery)
	if queryErr != nil {
		return circulation.User{}, false, queryErr
	}
	defer e.closeRows(ctx, rows)

	if !rows.Next() {
		return circulation.User{}, false, nil
	}

	var idStr, fullName, email, roleIDStr string
	var isActive bool

	if scanErr := rows.Scan(&idStr, &fullName, &email, &isActive, &roleIDStr); scanErr != nil {
		e.logError(ctx, logMsgScanRowFailed, scanErr)
		return circulation.User{}, false, errors.Join(circulation.ErrScanningDBRowFailed, scanErr)
	}

	user := circulation.User{
		ID:       uuid.MustParse(idStr),
		FullName: fullName,
		Email:    email,
		IsActive: isActive,
		RoleID:   uuid.MustParse(roleIDStr),
	}

	return user, true, nil
}

// resolvePolicy determines the borrowing policy for a borrower inside the
// current transaction snapshot, so the policy cannot change between this
// check and its use. The borrower must exist and be active; a role without
// a policy row resolves to the system defaults.
func (e Engine) resolvePolicy(ctx context.Context, tx adapters.DBRunner, borrowerID uuid.UUID) (
	circulation.BorrowingPolicy,
	circulation.User,
	error,
) {

	borrower, found, loadErr := e.loadUser(ctx, tx, borrowerID)
	if loadErr != nil {
		return circulation.BorrowingPolicy{}, circulation.User{}, loadErr
	}

	if !found {
		return circulation.BorrowingPolicy{}, circulation.User{}, circulation.ErrBorrowerNotFound
	}

	if !borrower.IsActive {
		return circulation.BorrowingPolicy{}, circulation.User{}, circulation.ErrBorrowerDeactivated
	}

	stmt := e.builder().
		From(e.table(tablePolicies)).
		Select(colLoanDuration, colMaxBooksAllowed).
		Where(goqu.Ex{colRoleID: borrower.RoleID.String()})

	sqlQuery, buildErr := toSQL(stmt)
	if buildErr != nil {
		e.logError(ctx, logMsgBuildQueryFailed, buildErr)
		return circulation.BorrowingPolicy{}, circulation.User{}, buildErr
	}

	rows, _, queryErr := e.executeQuery(ctx, tx, sqlQuery)
	if queryErr != nil {
		return circulation.BorrowingPolicy{}, circulation.User{}, queryErr
	}
	defer e.closeRows(ctx, rows)

	if !rows.Next() {
		return circulation.DefaultBorrowingPolicy(), borrower, nil
	}

	var policy circulation.BorrowingPolicy

	if scanErr := rows.Scan(&policy.LoanDurationDays, &policy.MaxBooksAllowed); scanErr != nil {
		e.logError(ctx, logMsgScanRowFailed, scanErr)
		return circulation.BorrowingPolicy{}, circulation.User{}, errors.Join(circulation.ErrScanningDBRowFailed, scanErr)
	}

	return policy, borrower, nil
}

// countActiveLoans counts the borrower's ACTIVE loans inside the current
// transaction snapshot.
func (e Engine) countActiveLoans(ctx context.Context, tx adapters.DBRunner, borrowerID uuid.UUID) (int, error) {
	stmt := e.builder().
		From(e.table(tableLoans)).
		Where(goqu.Ex{
			colBorrowerID: borrowerID.String(),
			colStatus:     string(circulation.LoanStatusActive),
		})

	return e.queryCount(ctx, tx, stmt)
}

// queryCount executes a COUNT(*) over the given statement's FROM/WHERE clauses.
func (e Engine) queryCount(ctx context.Context, tx adapters.DBRunner, stmt *goqu.SelectDataset) (int, error) {
	sqlQuery, buildErr := toSQL(stmt.Select(goqu.COUNT(goqu.Star())))
	if buildErr != nil {
		e.logError(ctx, logMsgBuildQueryFailed, buildErr)
		return 0, buildErr
	}

	rows, _, queryErr := e.executeQuery(ctx, tx, sqlQuery)
	if queryErr != nil {
		return 0, queryErr
	}
	defer e.closeRows(ctx, rows)

	var count int64

	if rows.Next() {
		if scanErr := rows.Scan(&count); scanErr != nil {
			e.logError(ctx, logMsgScanRowFailed, scanErr)
			return 0, errors.Join(circulation.ErrScanningDBRowFailed, scanErr)
		}
	}

	return int(count), nil
}
