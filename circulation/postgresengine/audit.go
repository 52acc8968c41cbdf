package postgresengine

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"github.com/shelfwise/circulation-go/circulation"
	"github.com/shelfwise/circulation-go/circulation/postgresengine/internal/adapters"
)

const auditEntityLoan = "loan"

// loanAuditDetails is the JSON payload recorded for lending operations.
type loanAuditDetails struct {
	LoanID      string `json:"loanId"`
	BookCopyID  string `json:"bookCopyId"`
	BorrowerID  string `json:"borrowerId"`
	LibrarianID string `json:"librarianId"`
	Status      string `json:"status"`
}

// recordAudit writes one audit entry for a lending operation on the given
// transaction handle. Riding the workflow's transaction means a retried
// attempt never double-logs and a rolled-back attempt leaves no trace.
func (e Engine) recordAudit(ctx context.Context, tx adapters.DBRunner, action string, loan circulation.Loan) error {
	occurredAt := loan.CheckoutDate
	if loan.ReturnDate != nil {
		occurredAt = *loan.ReturnDate
	}

	entry, buildErr := circulation.BuildAuditEntry(
		auditEntityLoan,
		loan.ID,
		action,
		loan.LibrarianID,
		occurredAt,
		loanAuditDetails{
			LoanID:      loan.ID.String(),
			BookCopyID:  loan.BookCopyID.String(),
			BorrowerID:  loan.BorrowerID.String(),
			LibrarianID: loan.LibrarianID.String(),
			Status:      string(loan.Status),
		},
	)
	if buildErr != nil {
		return buildErr
	}

	stmt := e.builder().
		Insert(e.table(tableAuditLog)).
		Rows(goqu.Record{
			colID:         entry.ID.String(),
			colEntity:     entry.Entity,
			colEntityID:   entry.EntityID.String(),
			colAction:     entry.Action,
			colActorID:    entry.ActorID.String(),
			colOccurredAt: entry.OccurredAt,
			colDetails:    goqu.L(castJSONB, string(entry.Details)),
		})

	sqlQuery, toSQLErr := toSQL(stmt)
	if toSQLErr != nil {
		e.logError(ctx, logMsgBuildQueryFailed, toSQLErr)
		return toSQLErr
	}

	_, _, execErr := e.executeStatement(ctx, tx, sqlQuery)

	return execErr
}

// RecentAuditEntries returns the newest audit entries, most recent first.
// This is a plain read outside any workflow transaction.
func (e Engine) RecentAuditEntries(ctx context.Context, limit uint) ([]circulation.AuditEntry, error) {
	stmt := e.builder().
		From(e.table(tableAuditLog)).
		Select(colID, colEntity, colEntityID, colAction, colActorID, colOccurredAt, colDetails).
		Order(goqu.I(colOccurredAt).Desc()).
		Limit(limit)

	sqlQuery, buildErr := toSQL(stmt)
	if buildErr != nil {
		e.logError(ctx, logMsgBuildQueryFailed, buildErr)
		return nil, buildErr
	}

	rows, _, queryErr := e.executeQuery(ctx, e.db, sqlQuery)
	if queryErr != nil {
		return nil, queryErr
	}
	defer e.closeRows(ctx, rows)

	entries := make([]circulation.AuditEntry, 0)

	for rows.Next() {
		var idStr, entity, entityIDStr, action, actorIDStr string
		var occurredAt time.Time
		var details []byte

		if scanErr := rows.Scan(&idStr, &entity, &entityIDStr, &action, &actorIDStr, &occurredAt, &details); scanErr != nil {
			e.logError(ctx, logMsgScanRowFailed, scanErr)
			return nil, errors.Join(circulation.ErrScanningDBRowFailed, scanErr)
		}

		entries = append(entries, circulation.AuditEntry{
			ID:         uuid.MustParse(idStr),
			Entity:     entity,
			EntityID:   uuid.MustParse(entityIDStr),
			Action:     action,
			ActorID:    uuid.MustParse(actorIDStr),
			OccurredAt: occurredAt,
			Details:    json.RawMessage(details),
		})
	}

	return entries, nil
}
