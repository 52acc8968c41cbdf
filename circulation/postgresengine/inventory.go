package postgresengine

import (
	"context"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"github.com/shelfwise/circulation-go/circulation"
	"github.com/shelfwise/circulation-go/circulation/postgresengine/internal/adapters"
)

// GetCounts returns the derived inventory snapshot for one book: the total
// number of copies and the number currently AVAILABLE. Counts are always
// recomputed from the copy rows, never cached, so they cannot drift from
// the underlying state.
func (e Engine) GetCounts(ctx context.Context, bookID uuid.UUID) (circulation.InventoryCounts, error) {
	start := time.Now()
	ctx, span := e.startSpan(ctx, operationGetCounts)

	var counts circulation.InventoryCounts

	err := e.runSerializable(ctx, operationGetCounts, func(ctx context.Context, tx adapters.DBTx) error {
		var countErr error
		counts, countErr = e.countCopies(ctx, tx, bookID)

		return countErr
	})

	e.finishSpan(span, err)
	e.recordOperationDuration(ctx, operationGetCounts, statusFor(err), time.Since(start))

	if err != nil {
		return circulation.InventoryCounts{}, err
	}

	e.logOperation(ctx, logMsgCountsQueried,
		logAttrBookID, bookID.String(),
		logAttrTotalCopies, counts.TotalCopies,
		logAttrAvailable, counts.AvailableCopies)

	return counts, nil
}

// countCopies computes the inventory snapshot inside the caller's transaction,
// so workflows return counts consistent with the state they just wrote.
func (e Engine) countCopies(ctx context.Context, tx adapters.DBRunner, bookID uuid.UUID) (circulation.InventoryCounts, error) {
	total, totalErr := e.queryCount(ctx, tx, e.builder().
		From(e.table(tableCopies)).
		Where(goqu.Ex{colBookID: bookID.String()}))
	if totalErr != nil {
		return circulation.InventoryCounts{}, totalErr
	}

	available, availableErr := e.queryCount(ctx, tx, e.builder().
		From(e.table(tableCopies)).
		Where(goqu.Ex{
			colBookID: bookID.String(),
			colStatus: string(circulation.CopyStatusAvailable),
		}))
	if availableErr != nil {
		return circulation.InventoryCounts{}, availableErr
	}

	return circulation.InventoryCounts{
		BookID:          bookID,
		TotalCopies:     total,
		AvailableCopies: available,
	}, nil
}

// statusFor maps an operation outcome to a metrics status label.
func statusFor(err error) string {
	switch {
	case err == nil:
		return statusSuccess
	case circulation.Classify(err) == circulation.KindConflict:
		return statusConflict
	default:
		return statusError
	}
}
