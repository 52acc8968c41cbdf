package postgresengine

import (
	"context"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"github.com/shelfwise/circulation-go/circulation"
	"github.com/shelfwise/circulation-go/circulation/postgresengine/internal/adapters"
)

// AddBookCopy adds one physical copy to an existing book.
func (e Engine) AddBookCopy(ctx context.Context, command circulation.AddCopyCommand) (circulation.CopyWithCounts, error) {
	start := time.Now()
	ctx, span := e.startSpan(ctx, operationAddCopy)

	status := command.Status
	if status == "" {
		status = circulation.CopyStatusAvailable
	}

	newCopy := circulation.BookCopy{
		ID:       uuid.New(),
		BookID:   command.BookID,
		Barcode:  command.Barcode,
		Location: command.Location,
		Status:   status,
	}

	var result circulation.CopyWithCounts

	err := e.runSerializable(ctx, operationAddCopy, func(ctx context.Context, tx adapters.DBTx) error {
		_, found, loadErr := e.loadBook(ctx, tx, command.BookID)
		if loadErr != nil {
			return loadErr
		}

		if !found {
			return circulation.ErrBookNotFound
		}

		if insertErr := e.insertCopy(ctx, tx, newCopy); insertErr != nil {
			return insertErr
		}

		counts, countsErr := e.countCopies(ctx, tx, command.BookID)
		if countsErr != nil {
			return countsErr
		}

		result = circulation.CopyWithCounts{Copy: newCopy, Inventory: counts}

		return nil
	})

	e.finishSpan(span, err)
	e.recordOperationDuration(ctx, operationAddCopy, statusFor(err), time.Since(start))

	if err != nil {
		return circulation.CopyWithCounts{}, err
	}

	e.logOperation(ctx, logMsgCopyAdded,
		logAttrBookID, command.BookID.String(),
		logAttrBookCopyID, newCopy.ID.String(),
		logAttrTotalCopies, result.Inventory.TotalCopies)

	return result, nil
}

// UpdateBookCopy applies a partial administrative edit to one copy.
//
// Marking a copy AVAILABLE is rejected while an ACTIVE loan references it,
// because copy status and loan records must stay consistent. Setting an
// administrative status on a currently lent copy is deliberately allowed:
// a borrowed copy can be reported damaged or lost before it comes back.
func (e Engine) UpdateBookCopy(ctx context.Context, command circulation.UpdateCopyCommand) (circulation.CopyWithCounts, error) {
	start := time.Now()
	ctx, span := e.startSpan(ctx, operationUpdateCopy)

	var result circulation.CopyWithCounts

	err := e.runSerializable(ctx, operationUpdateCopy, func(ctx context.Context, tx adapters.DBTx) error {
		existing, found, loadErr := e.loadCopy(ctx, tx, command.BookCopyID)
		if loadErr != nil {
			return loadErr
		}

		if !found || existing.BookID != command.BookID {
			return circulation.ErrBookCopyNotFound
		}

		if command.Status != nil && *command.Status == circulation.CopyStatusAvailable {
			_, activeLoanExists, findErr := e.findActiveLoanID(ctx, tx, command.BookCopyID)
			if findErr != nil {
				return findErr
			}

			if activeLoanExists {
				return circulation.ErrCopyHasActiveLoan
			}
		}

		record := goqu.Record{}

		if command.Barcode != nil {
			record[colBarcode] = *command.Barcode
			existing.Barcode = *command.Barcode
		}

		if command.Location != nil {
			record[colLocation] = *command.Location
			existing.Location = *command.Location
		}

		if command.Status != nil {
			record[colStatus] = string(*command.Status)
			existing.Status = *command.Status
		}

		if len(record) > 0 {
			stmt := e.builder().
				Update(e.table(tableCopies)).
				Set(record).
				Where(goqu.Ex{colID: command.BookCopyID.String()})

			sqlQuery, buildErr := toSQL(stmt)
			if buildErr != nil {
				e.logError(ctx, logMsgBuildQueryFailed, buildErr)
				return buildErr
			}

			if _, _, execErr := e.executeStatement(ctx, tx, sqlQuery); execErr != nil {
				return execErr
			}
		}

		counts, countsErr := e.countCopies(ctx, tx, command.BookID)
		if countsErr != nil {
			return countsErr
		}

		result = circulation.CopyWithCounts{Copy: existing, Inventory: counts}

		return nil
	})

	e.finishSpan(span, err)
	e.recordOperationDuration(ctx, operationUpdateCopy, statusFor(err), time.Since(start))

	if err != nil {
		return circulation.CopyWithCounts{}, err
	}

	e.logOperation(ctx, logMsgCopyUpdated,
		logAttrBookID, command.BookID.String(),
		logAttrBookCopyID, command.BookCopyID.String())

	return result, nil
}

// insertCopy creates one book copy row.
func (e Engine) insertCopy(ctx context.Context, tx adapters.DBRunner, bookCopy circulation.BookCopy) error {
	stmt := e.builder().
		Insert(e.table(tableCopies)).
		Rows(goqu.Record{
			colID:       bookCopy.ID.String(),
			colBookID:   bookCopy.BookID.String(),
			colBarcode:  bookCopy.Barcode,
			colLocation: bookCopy.Location,
			colStatus:   string(bookCopy.Status),
		})

	sqlQuery, buildErr := toSQL(stmt)
	if buildErr != nil {
		e.logError(ctx, logMsgBuildQueryFailed, buildErr)
		return buildErr
	}

	_, _, execErr := e.executeStatement(ctx, tx, sqlQuery)

	return execErr
}
