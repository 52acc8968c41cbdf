package postgreswrapper

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"

	"github.com/shelfwise/circulation-go/circulation/postgresengine"
	"github.com/shelfwise/circulation-go/test/config"
)

// Engine type constants
const (
	typePGXPool = "pgx.pool"
	typeSQLDB   = "sql.db"
	typeSQLXDB  = "sqlx.db"
)

// circulationTables lists every table the engine touches, in FK-safe truncation order.
var circulationTables = []string{
	"audit_log",
	"borrowing_transactions",
	"book_copies",
	"books",
	"borrowing_policies",
	"users",
	"roles",
}

// Wrapper interface to abstract over different adapter types
type Wrapper interface {
	GetEngine() postgresengine.Engine
	Exec(t testing.TB, query string, args ...any)
	QueryRowScan(t testing.TB, query string, args []any, dest ...any)
	Close()
}

// PGXPoolWrapper wraps pgxpool-based testing
type PGXPoolWrapper struct {
	pool   *pgxpool.Pool
	engine postgresengine.Engine
}

func (w *PGXPoolWrapper) GetEngine() postgresengine.Engine {
	return w.engine
}

func (w *PGXPoolWrapper) Exec(t testing.TB, query string, args ...any) {
	_, err := w.pool.Exec(context.Background(), query, args...)
	assert.NoError(t, err, "error executing statement in test setup")
}

func (w *PGXPoolWrapper) QueryRowScan(t testing.TB, query string, args []any, dest ...any) {
	err := w.pool.QueryRow(context.Background(), query, args...).Scan(dest...)
	assert.NoError(t, err, "error scanning row in test setup")
}

func (w *PGXPoolWrapper) Close() {
	w.pool.Close()
}

// SQLDBWrapper wraps sql.DB-based testing
type SQLDBWrapper struct {
	db     *sql.DB
	engine postgresengine.Engine
}

func (w *SQLDBWrapper) GetEngine() postgresengine.Engine {
	return w.engine
}

func (w *SQLDBWrapper) Exec(t testing.TB, query string, args ...any) {
	_, err := w.db.Exec(query, args...)
	assert.NoError(t, err, "error executing statement in test setup")
}

func (w *SQLDBWrapper) QueryRowScan(t testing.TB, query string, args []any, dest ...any) {
	err := w.db.QueryRow(query, args...).Scan(dest...)
	assert.NoError(t, err, "error scanning row in test setup")
}

func (w *SQLDBWrapper) Close() {
	_ = w.db.Close() // ignore error
}

// SQLXWrapper wraps sqlx.DB-based testing
type SQLXWrapper struct {
	db     *sqlx.DB
	engine postgresengine.Engine
}

func (w *SQLXWrapper) GetEngine() postgresengine.Engine {
	return w.engine
}

func (w *SQLXWrapper) Exec(t testing.TB, query string, args ...any) {
	_, err := w.db.Exec(query, args...)
	assert.NoError(t, err, "error executing statement in test setup")
}

func (w *SQLXWrapper) QueryRowScan(t testing.TB, query string, args []any, dest ...any) {
	err := w.db.QueryRow(query, args...).Scan(dest...)
	assert.NoError(t, err, "error scanning row in test setup")
}

func (w *SQLXWrapper) Close() {
	_ = w.db.Close() // ignore error
}

// CreateWrapperWithTestConfig creates the appropriate wrapper based on the environment variable
func CreateWrapperWithTestConfig(t testing.TB, options ...postgresengine.Option) Wrapper {
	engineTypeFromEnv := strings.ToLower(os.Getenv("ADAPTER_TYPE"))

	switch engineTypeFromEnv {
	case typePGXPool, "":
		connPool, err := pgxpool.NewWithConfig(context.Background(), config.PostgresPGXPoolTestConfig())
		assert.NoError(t, err, "error connecting to DB pool in test setup")

		engine, err := postgresengine.NewEngineFromPGXPool(connPool, options...)
		assert.NoError(t, err, "error creating circulation engine")

		return &PGXPoolWrapper{pool: connPool, engine: engine}

	case typeSQLDB:
		db := config.PostgresSQLDBTestConfig()

		engine, err := postgresengine.NewEngineFromSQLDB(db, options...)
		assert.NoError(t, err, "error creating circulation engine")

		return &SQLDBWrapper{db: db, engine: engine}

	case typeSQLXDB:
		db := config.PostgresSQLXTestConfig()

		engine, err := postgresengine.NewEngineFromSQLX(db, options...)
		assert.NoError(t, err, "error creating circulation engine")

		return &SQLXWrapper{db: db, engine: engine}

	default: // neither one of the known types nor empty
		panic(fmt.Sprintf("unsupported wrapper type from env: %s", engineTypeFromEnv))
	}
}

// CleanUp truncates all circulation tables for the given wrapper
func CleanUp(t testing.TB, wrapper Wrapper) {
	stmt := "TRUNCATE TABLE " + strings.Join(circulationTables, ", ") + " CASCADE"
	wrapper.Exec(t, stmt)
}
