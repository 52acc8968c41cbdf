// Package adapters provides database adapter implementations for the PostgreSQL circulation engine.
//
// This package implements the adapter pattern to support multiple PostgreSQL database libraries:
// pgxpool.Pool, sql.DB, and sqlx.DB. All adapters provide equivalent functionality through
// a common DBAdapter interface, allowing the engine to work seamlessly with any supported
// database connection type.
//
// Beyond plain query execution, every adapter can begin a transaction at serializable
// isolation and classify its own driver's serialization-failure signal (SQLSTATE 40001
// and 40P01), so the transaction coordinator never has to know one driver's error taxonomy.
package adapters
