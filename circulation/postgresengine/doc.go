// Package postgresengine implements the circulation workflows on PostgreSQL.
//
// The engine runs every state-changing workflow - checkout, return, catalog
// writes - inside a serializable transaction and retries the whole unit of
// work when the store aborts it with a serialization conflict, up to a
// bounded attempt budget. Copy state transitions use the conditional-update
// pattern: UPDATE ... WHERE status = <expected>, checked by affected-row
// count, so two concurrent checkouts of the same copy are serialized by the
// store and exactly one wins.
//
// Supported database libraries (one constructor each, same behavior):
//
//	engine, err := postgresengine.NewEngineFromPGXPool(pool)
//	engine, err := postgresengine.NewEngineFromSQLDB(db)
//	engine, err := postgresengine.NewEngineFromSQLX(dbx)
//
// Optional configuration uses functional options, e.g.:
//
//	engine, err := postgresengine.NewEngineFromPGXPool(
//		pool,
//		postgresengine.WithLogger(logger),
//		postgresengine.WithMetrics(collector),
//		postgresengine.WithMaxAttempts(5),
//	)
package postgresengine
