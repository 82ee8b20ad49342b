package migratortest

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/screwyprof/enos/migrator"
	"github.com/screwyprof/enos/pkg/pgxdb/pgxdbtest"
	"github.com/screwyprof/enos/pkg/sqlitedb"
	"github.com/screwyprof/enos/pkg/upsert"
)

// CreatePostgresTestDatabase creates a PostgreSQL test database cloned from a
// template that has the migrations applied. Needs a running server.
func CreatePostgresTestDatabase(t *testing.T, migrationsDir string) *pgxpool.Pool {
	t.Helper()

	pool, _ := pgxdbtest.CreateTestDatabase(t, migrator.NewSchemaMigrator(migrationsDir))
	t.Cleanup(pool.Close)

	return pool
}

// CreateSQLiteTestDatabase creates a migrated SQLite database file in a temporary directory.
// The database is closed when the test ends.
func CreateSQLiteTestDatabase(t *testing.T, migrationsDir string) *sql.DB {
	t.Helper()

	db, err := sqlitedb.NewConnection(t.Context(), filepath.Join(t.TempDir(), "enos.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = migrator.Apply(t.Context(), db, upsert.SQLite, migrationsDir, time.Now())
	require.NoError(t, err)

	return db
}
