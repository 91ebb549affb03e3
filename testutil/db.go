// Package testutil holds helpers for the Postgres integration tests.
// Everything here skips the calling test when TEST_DATABASE_URL is unset,
// so `go test ./...` passes on a machine without a database.
package testutil

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // "pgx" driver for database/sql, used by goose
)

// DatabaseURLEnv names the variable pointing at the test database.
const DatabaseURLEnv = "TEST_DATABASE_URL"

// Tables lists the park schema's tables in dependency order.
var Tables = []string{"campsites", "customers", "reservations", "atv_passes"}

// NewPool connects a pgx pool to the test database and closes it when t ends.
func NewPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := requireDSN(t)

	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("testutil.NewPool: open pool: %v", err)
	}
	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		t.Fatalf("testutil.NewPool: ping: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

// NewSQLDB is NewPool for callers that need database/sql, such as goose.
func NewSQLDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := openSQLDB(requireDSN(t))
	if err != nil {
		t.Fatalf("testutil.NewSQLDB: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// MustOpenSQLDB opens dsn for TestMain, which has no *testing.T, and panics
// on failure.
func MustOpenSQLDB(dsn string) *sql.DB {
	db, err := openSQLDB(dsn)
	if err != nil {
		panic("testutil.MustOpenSQLDB: " + err.Error())
	}
	return db
}

func openSQLDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func requireDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv(DatabaseURLEnv)
	if dsn == "" {
		t.Skip(DatabaseURLEnv + " not set; skipping integration test")
	}
	return dsn
}
