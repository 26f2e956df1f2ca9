// Package test opens throwaway databases for tests.
package test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/repo-analysis/repokeep/pkg/db"
)

// OpenSqlite opens a SQLite database in a temporary directory of tb. The
// test fails immediately when the database cannot be opened. The database is
// closed on cleanup.
func OpenSqlite(tb testing.TB) *db.DB {
	tb.Helper()
	dsn := filepath.Join(tb.TempDir(), "repokeep.db") + "?_pragma=foreign_keys(1)"
	dbx, err := db.Open(context.TODO(), "sqlite", dsn)
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}

	tb.Cleanup(func() {
		if err := dbx.Close(); err != nil {
			tb.Error(err)
		}
	})

	return dbx
}
