package adapters

import "context"

// DBRunner defines the statement execution surface shared by pooled
// connections and open transactions.
type DBRunner interface {
	Query(ctx context.Context, query string) (DBRows, error)
	Exec(ctx context.Context, query string) (DBResult, error)
}

// DBAdapter defines the interface for database operations needed by the circulation engine.
type DBAdapter interface {
	DBRunner

	// BeginSerializable starts a transaction at serializable isolation.
	BeginSerializable(ctx context.Context) (DBTx, error)

	// IsSerializationConflict reports whether the driver error signals that the
	// store aborted a serializable transaction due to concurrent modification
	// (SQLSTATE 40001 serialization_failure or 40P01 deadlock_detected).
	IsSerializationConflict(err error) bool
}

// DBTx defines the interface for operations inside one open transaction.
type DBTx interface {
	DBRunner

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// DBRows defines the interface for query result rows.
type DBRows interface {
	Next() bool
	Scan(dest ...any) error
	Close() error
}

// DBResult defines the interface for execution results.
type DBResult interface {
	RowsAffected() (int64, error)
}
