//go:build acceptance

package migrator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screwyprof/enos/enos/store/dbrow"
	"github.com/screwyprof/enos/migrator"
	"github.com/screwyprof/enos/migrator/migratortest"
)

func TestApplyMigrationsPostgres(t *testing.T) {
	t.Parallel()

	t.Run("it finds the template schema up to date", func(t *testing.T) {
		t.Parallel()

		// Arrange
		pool := migratortest.CreatePostgresTestDatabase(t, "")

		// Act
		result, err := migrator.ApplyMigrations(t.Context(), pool, "")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, migrator.Result{Applied: 0, Version: embeddedMigrations}, result)

		for _, table := range dbrow.Tables() {
			var exists bool
			err := pool.QueryRow(t.Context(), "SELECT to_regclass($1) IS NOT NULL", table.Name).Scan(&exists)
			require.NoError(t, err)
			assert.True(t, exists, table.Name)
		}

		var version int64
		err = pool.QueryRow(t.Context(), "SELECT version FROM app_db_version WHERE app_code = $1", migrator.AppCode).Scan(&version)
		require.NoError(t, err)
		assert.Equal(t, int64(embeddedMigrations), version)
	})
}
