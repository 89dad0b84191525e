//go:build integration

package data

import (
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// setupTestDB creates a fresh in-memory SQLite database with the full schema.
// Each test gets its own named database so tests stay isolated.
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		t.Fatalf("Failed to connect to sqlite test database: %v", err)
	}
	// A single connection keeps the shared in-memory database alive and serializes writers.
	db.SetMaxOpenConns(1)

	files, err := fs.Glob(MigrationsFS, "migrations/sqlite3/*.up.sql")
	if err != nil {
		t.Fatalf("Failed to list migrations: %v", err)
	}
	sort.Strings(files)
	for _, f := range files {
		schema, err := fs.ReadFile(MigrationsFS, f)
		if err != nil {
			t.Fatalf("Failed to read %s: %v", f, err)
		}
		db.MustExec(string(schema))
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func int64Ptr(v int64) *int64 { return &v }
