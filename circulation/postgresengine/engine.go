package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect import
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/shelfwise/circulation-go/circulation"
	"github.com/shelfwise/circulation-go/circulation/postgresengine/internal/adapters"
)

const (
	defaultMaxAttempts = 3

	tableUsers      = "users"
	tablePolicies   = "borrowing_policies"
	tableBooks      = "books"
	tableCopies     = "book_copies"
	tableLoans      = "borrowing_transactions"
	tableAuditLog   = "audit_log"
	dialectPostgres = "postgres"

	colID              = "id"
	colIsActive        = "is_active"
	colRoleID          = "role_id"
	colFullName        = "full_name"
	colEmail           = "email"
	colLoanDuration    = "loan_duration_days"
	colMaxBooksAllowed = "max_books_allowed"
	colTitle           = "title"
	colAuthor          = "author"
	colISBN            = "isbn"
	colCategory        = "category"
	colPublisher       = "publisher"
	colPublicationYear = "publication_year"
	colDescription     = "description"
	colBookID          = "book_id"
	colBarcode         = "barcode"
	colLocation        = "location"
	colStatus          = "status"
	colBookCopyID      = "book_copy_id"
	colBorrowerID      = "borrower_id"
	colLibrarianID     = "librarian_id"
	colCheckoutDate    = "checkout_date"
	colDueDate         = "due_date"
	colReturnDate      = "return_date"
	colNotes           = "notes"
	colEntity          = "entity"
	colEntityID        = "entity_id"
	colAction          = "action"
	colActorID         = "actor_id"
	colOccurredAt      = "occurred_at"
	colDetails         = "details"

	logMsgSQLExecuted            = "executed sql for: "
	logMsgOperation              = "circulation operation: "
	logMsgBuildQueryFailed       = "failed to build sql query"
	logMsgDBQueryFailed          = "database query execution failed"
	logMsgDBExecFailed           = "database statement execution failed"
	logMsgCloseRowsFailed        = "failed to close database rows"
	logMsgScanRowFailed          = "failed to scan database row"
	logMsgRowsAffectedFailed     = "failed to get rows affected count"
	logMsgBeginTxFailed          = "failed to begin serializable transaction"
	logMsgCommitTxFailed         = "failed to commit transaction"
	logMsgRollbackTxFailed       = "failed to roll back transaction"
	logMsgSerializationConflict  = "serialization conflict detected"
	logMsgRetriesExhausted       = "transaction retries exhausted"
	logMsgCheckoutCompleted      = "checkout completed"
	logMsgReturnCompleted        = "return completed"
	logMsgCountsQueried          = "inventory counts queried"
	logMsgBookCreated            = "book created"
	logMsgCopyAdded              = "book copy added"
	logMsgCopyUpdated            = "book copy updated"

	logAttrError        = "error"
	logAttrQuery        = "query"
	logAttrDurationMS   = "duration_ms"
	logAttrOperation    = "operation"
	logAttrAttempt      = "attempt"
	logAttrMaxAttempts  = "max_attempts"
	logAttrBookID       = "book_id"
	logAttrBookCopyID   = "book_copy_id"
	logAttrBorrowerID   = "borrower_id"
	logAttrLoanID       = "loan_id"
	logAttrTotalCopies  = "total_copies"
	logAttrAvailable    = "available_copies"

	castJSONB = "?::jsonb"

	logActionQuery = "query"
	logActionExec  = "exec"

	metricOperationDuration      = "circulation_operation_duration_seconds"
	metricDatabaseErrors         = "circulation_database_errors_total"
	metricSerializationConflicts = "circulation_serialization_conflicts_total"
	metricTxRetries              = "circulation_tx_retries_total"
	metricTxExhausted            = "circulation_tx_exhausted_total"

	spanNamePrefix      = "circulation."
	spanAttrOperation   = "operation"
	spanAttrErrorType   = "error_type"
	statusSuccess       = "success"
	statusError         = "error"
	statusConflict      = "conflict"

	operationCheckout   = "checkout"
	operationReturn     = "return"
	operationGetCounts  = "get_counts"
	operationCreateBook = "create_book"
	operationGetBook    = "get_book"
	operationAddCopy    = "add_copy"
	operationUpdateCopy = "update_copy"
	operationAuditRead  = "audit_read"
)

type (
	sqlQueryString    = string
	rowsAffectedInt64 = int64
)

// Engine executes the circulation workflows against PostgreSQL.
// All state transitions run inside serializable transactions with bounded
// retry on serialization conflicts; copy state changes use conditional
// updates checked by affected-row count, so a lost-update race surfaces
// as a conflict instead of silent corruption.
type Engine struct {
	db               adapters.DBAdapter
	tablePrefix      string
	maxAttempts      int
	logger           circulation.Logger
	contextualLogger circulation.ContextualLogger
	metricsCollector circulation.MetricsCollector
	tracingCollector circulation.TracingCollector
}

// Option defines a functional option for configuring an Engine.
type Option func(*Engine) error

// WithTablePrefix prefixes every table name used by the engine, so multiple
// deployments can share one database schema.
func WithTablePrefix(prefix string) Option {
	return func(e *Engine) error {
		if prefix == "" {
			return circulation.ErrEmptyTablePrefix
		}

		e.tablePrefix = prefix

		return nil
	}
}

// WithMaxAttempts overrides the transaction attempt budget (default 3 total attempts).
func WithMaxAttempts(attempts int) Option {
	return func(e *Engine) error {
		if attempts <= 0 {
			return circulation.ErrInvalidMaxAttempts
		}

		e.maxAttempts = attempts

		return nil
	}
}

// WithLogger sets the logger for the Engine.
// The logger will receive messages at different levels based on the logger's configured level:
//
// Debug level: SQL queries with execution timing (development use)
// Info level: operation outcomes, durations, serialization conflicts (production-safe)
// Warn level: non-critical issues like rollback failures
// Error level: critical failures that cause operation failures.
func WithLogger(logger circulation.Logger) Option {
	return func(e *Engine) error {
		e.logger = logger
		return nil
	}
}

// WithContextualLogger sets the contextual logger for the Engine.
// The contextual logger will receive log messages with context information including
// automatic trace/span correlation when tracing is enabled.
func WithContextualLogger(logger circulation.ContextualLogger) Option {
	return func(e *Engine) error {
		e.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the Engine.
// The metrics collector will receive operation durations, database errors,
// serialization conflicts, and retry counts.
func WithMetrics(collector circulation.MetricsCollector) Option {
	return func(e *Engine) error {
		e.metricsCollector = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the Engine.
// The tracing collector will receive span creation for every workflow,
// context propagation, and error tracking.
func WithTracing(collector circulation.TracingCollector) Option {
	return func(e *Engine) error {
		e.tracingCollector = collector
		return nil
	}
}

// NewEngineFromPGXPool creates a new Engine using a pgx pool with optional configuration.
func NewEngineFromPGXPool(db *pgxpool.Pool, options ...Option) (Engine, error) {
	if db == nil {
		return Engine{}, circulation.ErrNilDatabaseConnection
	}

	return buildEngine(adapters.NewPGXAdapter(db), options...)
}

// NewEngineFromSQLDB creates a new Engine using a sql.DB with optional configuration.
func NewEngineFromSQLDB(db *sql.DB, options ...Option) (Engine, error) {
	if db == nil {
		return Engine{}, circulation.ErrNilDatabaseConnection
	}

	return buildEngine(adapters.NewSQLAdapter(db), options...)
}

// NewEngineFromSQLX creates a new Engine using a sqlx.DB with optional configuration.
func NewEngineFromSQLX(db *sqlx.DB, options ...Option) (Engine, error) {
	if db == nil {
		return Engine{}, circulation.ErrNilDatabaseConnection
	}

	return buildEngine(adapters.NewSQLXAdapter(db), options...)
}

func buildEngine(db adapters.DBAdapter, options ...Option) (Engine, error) {
	engine := Engine{
		db:          db,
		maxAttempts: defaultMaxAttempts,
	}

	for _, option := range options {
		if err := option(&engine); err != nil {
			return Engine{}, err
		}
	}

	return engine, nil
}

// table returns the prefixed table name.
func (e Engine) table(name string) string {
	return e.tablePrefix + name
}

// builder returns a goqu statement builder for the Postgres dialect.
func (e Engine) builder() goqu.DialectWrapper {
	return goqu.Dialect(dialectPostgres)
}

// toSQL finalizes a goqu statement, wrapping build failures.
func toSQL(stmt interface{ ToSQL() (string, []interface{}, error) }) (sqlQueryString, error) {
	sqlQuery, _, toSQLErr := stmt.ToSQL()
	if toSQLErr != nil {
		return "", errors.Join(circulation.ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

// executeQuery runs a read statement on the given transaction handle and
// returns rows with timing information. Serialization aborts surface as
// circulation.ErrSerializationConflict so the coordinator can retry them.
func (e Engine) executeQuery(ctx context.Context, tx adapters.DBRunner, sqlQuery string) (
	adapters.DBRows,
	time.Duration,
	error,
) {

	start := time.Now()
	rows, queryErr := tx.Query(ctx, sqlQuery)
	duration := time.Since(start)
	e.logQueryWithDuration(ctx, sqlQuery, logActionQuery, duration)

	if queryErr != nil {
		if e.db.IsSerializationConflict(queryErr) {
			return nil, duration, errors.Join(circulation.ErrSerializationConflict, queryErr)
		}

		e.logError(ctx, logMsgDBQueryFailed, queryErr, logAttrQuery, sqlQuery)

		return nil, duration, errors.Join(circulation.ErrQueryingRowsFailed, queryErr)
	}

	return rows, duration, nil
}

// executeStatement runs a write statement on the given transaction handle
// and returns the affected-row count with timing information.
func (e Engine) executeStatement(ctx context.Context, tx adapters.DBRunner, sqlQuery string) (
	rowsAffectedInt64,
	time.Duration,
	error,
) {

	start := time.Now()
	result, execErr := tx.Exec(ctx, sqlQuery)
	duration := time.Since(start)
	e.logQueryWithDuration(ctx, sqlQuery, logActionExec, duration)

	if execErr != nil {
		if e.db.IsSerializationConflict(execErr) {
			return 0, duration, errors.Join(circulation.ErrSerializationConflict, execErr)
		}

		e.logError(ctx, logMsgDBExecFailed, execErr, logAttrQuery, sqlQuery)

		return 0, duration, errors.Join(circulation.ErrExecutingStatementFailed, execErr)
	}

	rowsAffected, rowsAffectedErr := result.RowsAffected()
	if rowsAffectedErr != nil {
		e.logError(ctx, logMsgRowsAffectedFailed, rowsAffectedErr)

		return 0, duration, errors.Join(circulation.ErrGettingRowsAffectedFailed, rowsAffectedErr)
	}

	return rowsAffected, duration, nil
}

// closeRows safely closes database rows and logs any errors.
func (e Engine) closeRows(ctx context.Context, rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		e.logWarn(ctx, logMsgCloseRowsFailed, logAttrError, closeErr.Error())
	}
}
