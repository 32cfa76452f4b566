// Package databasetest opens migrated throwaway databases for tests.
package databasetest

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"coaching-site-backend/internal/database"
)

// Open returns a migrated SQLite database in a temp dir, closed when the test
// ends.
func Open(t testing.TB) *sqlx.DB {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	path := filepath.Join(t.TempDir(), "test.db")

	db, err := database.Open(context.Background(), database.DriverSQLite, path, logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.Migrate(db, database.DriverSQLite, logger))
	return db
}

func Store(t testing.TB) *database.SQLStore {
	t.Helper()
	return database.NewSQLStore(Open(t))
}
