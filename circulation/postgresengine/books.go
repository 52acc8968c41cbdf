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

// CreateBook adds a catalog book together with its initial AVAILABLE copies.
// Book row and copy rows are created in one serializable transaction, so the
// returned counts always match the copies that were actually created.
func (e Engine) CreateBook(ctx context.Context, command circulation.CreateBookCommand) (circulation.BookWithCounts, error) {
	if validateErr := command.Validate(); validateErr != nil {
		return circulation.BookWithCounts{}, validateErr
	}

	totalCopies := command.TotalCopies
	if totalCopies == 0 {
		totalCopies = 1
	}

	start := time.Now()
	ctx, span := e.startSpan(ctx, operationCreateBook)

	book := circulation.Book{
		ID:              uuid.New(),
		Title:           command.Title,
		Author:          command.Author,
		ISBN:            command.ISBN,
		Category:        command.Category,
		Publisher:       command.Publisher,
		PublicationYear: command.PublicationYear,
		Description:     command.Description,
	}

	var result circulation.BookWithCounts

	err := e.runSerializable(ctx, operationCreateBook, func(ctx context.Context, tx adapters.DBTx) error {
		if insertErr := e.insertBook(ctx, tx, book); insertErr != nil {
			return insertErr
		}

		for i := 0; i < totalCopies; i++ {
			newCopy := circulation.BookCopy{
				ID:     uuid.New(),
				BookID: book.ID,
				Status: circulation.CopyStatusAvailable,
			}

			if insertErr := e.insertCopy(ctx, tx, newCopy); insertErr != nil {
				return insertErr
			}
		}

		counts, countsErr := e.countCopies(ctx, tx, book.ID)
		if countsErr != nil {
			return countsErr
		}

		result = circulation.BookWithCounts{Book: book, Inventory: counts}

		return nil
	})

	e.finishSpan(span, err)
	e.recordOperationDuration(ctx, operationCreateBook, statusFor(err), time.Since(start))

	if err != nil {
		return circulation.BookWithCounts{}, err
	}

	e.logOperation(ctx, logMsgBookCreated,
		logAttrBookID, book.ID.String(),
		logAttrTotalCopies, result.Inventory.TotalCopies)

	return result, nil
}

// GetBook returns one catalog book with its derived inventory snapshot.
func (e Engine) GetBook(ctx context.Context, bookID uuid.UUID) (circulation.BookWithCounts, error) {
	start := time.Now()
	ctx, span := e.startSpan(ctx, operationGetBook)

	var result circulation.BookWithCounts

	err := e.runSerializable(ctx, operationGetBook, func(ctx context.Context, tx adapters.DBTx) error {
		book, found, loadErr := e.loadBook(ctx, tx, bookID)
		if loadErr != nil {
			return loadErr
		}

		if !found {
			return circulation.ErrBookNotFound
		}

		counts, countsErr := e.countCopies(ctx, tx, bookID)
		if countsErr != nil {
			return countsErr
		}

		result = circulation.BookWithCounts{Book: book, Inventory: counts}

		return nil
	})

	e.finishSpan(span, err)
	e.recordOperationDuration(ctx, operationGetBook, statusFor(err), time.Since(start))

	if err != nil {
		return circulation.BookWithCounts{}, err
	}

	return result, nil
}

// insertBook creates one catalog book row.
func (e Engine) insertBook(ctx context.Context, tx adapters.DBRunner, book circulation.Book) error {
	stmt := e.builder().
		Insert(e.table(tableBooks)).
		Rows(goqu.Record{
			colID:              book.ID.String(),
			colTitle:           book.Title,
			colAuthor:          book.Author,
			colISBN:            book.ISBN,
			colCategory:        book.Category,
			colPublisher:       book.Publisher,
			colPublicationYear: book.PublicationYear,
			colDescription:     book.Description,
		})

	sqlQuery, buildErr := toSQL(stmt)
	if buildErr != nil {
		e.logError(ctx, logMsgBuildQueryFailed, buildErr)
		return buildErr
	}

	_, _, execErr := e.executeStatement(ctx, tx, sqlQuery)

	return execErr
}

// loadBook reads one book row inside the current transaction snapshot.
// The second return value reports whether the book exists.
func (e Engine) loadBook(ctx context.Context, tx adapters.DBRunner, bookID uuid.UUID) (circulation.Book, bool, error) {
	stmt := e.builder().
		From(e.table(tableBooks)).
		Select(colID, colTitle, colAuthor, colISBN, colCategory, colPublisher, colPublicationYear, colDescription).
		Where(goqu.Ex{colID: bookID.String()})

	sqlQuery, buildErr := toSQL(stmt)
	if buildErr != nil {
		e.logError(ctx, logMsgBuildQueryFailed, buildErr)
		return circulation.Book{}, false, buildErr
	}

	rows, _, queryErr := e.executeQuery(ctx, tx, sqlQuery)
	if queryErr != nil {
		return circulation.Book{}, false, queryErr
	}
	defer e.closeRows(ctx, rows)

	if !rows.Next() {
		return circulation.Book{}, false, nil
	}

	var idStr, title, author string
	var isbn, category, publisher, description sql.NullString
	var publicationYear sql.NullInt64

	scanErr := rows.Scan(&idStr, &title, &author, &isbn, &category, &publisher, &publicationYear, &description)
	if scanErr != nil {
		e.logError(ctx, logMsgScanRowFailed, scanErr)
		return circulation.Book{}, false, errors.Join(circulation.ErrScanningDBRowFailed, scanErr)
	}

	book := circulation.Book{
		ID:              uuid.MustParse(idStr),
		Title:           title,
		Author:          author,
		ISBN:            isbn.String,
		Category:        category.String,
		Publisher:       publisher.String,
		PublicationYear: int(publicationYear.Int64),
		Description:     description.String,
	}

	return book, true, nil
}
