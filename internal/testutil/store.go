// Package testutil provides fixtures shared by package tests: an in-memory
// SQLite store with the production schema applied.
package testutil

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/cinebook/internal/database"
	"github.com/iliyamo/cinebook/internal/repository"
)

// NewDB opens a fresh in-memory SQLite database with the schema applied.
// The database is closed when the test ends.
func NewDB(t testing.TB) *sqlx.DB {
	t.Helper()
	db, err := database.Open(database.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := database.Migrate(context.Background(), db, database.DriverSQLite); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return db
}

// NewStore returns a repository.Store over NewDB.
func NewStore(t testing.TB) *repository.Store {
	t.Helper()
	return repository.NewStore(NewDB(t))
}

// Count returns the number of rows in table.
func Count(t testing.TB, db *sqlx.DB, table string) int {
	t.Helper()
	var n int
	if err := db.Get(&n, "SELECT COUNT(*) FROM "+table); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}
