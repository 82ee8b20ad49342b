package upsert_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screwyprof/enos/pkg/upsert"
)

var (
	liquidityTable = upsert.Table{Name: "eno_liquidity", Key: []string{"unix_timestamp", "pool_id"}}
	versionTable   = upsert.Table{Name: "app_db_version", Key: []string{"app_code"}}

	liquidityColumns = []string{"unix_timestamp", "epoch_id", "pool_id", "liquid_stake"}
	versionColumns   = []string{"app_code", "version", "date_updated"}
)

func TestBuildInsert(t *testing.T) {
	t.Parallel()

	t.Run("it renders a strict insert for sqlite", func(t *testing.T) {
		t.Parallel()

		// Act
		stmt, err := upsert.Build(upsert.SQLite, liquidityTable, liquidityColumns, upsert.PolicyInsert, nil)

		// Assert
		require.NoError(t, err)
		assert.Equal(t,
			`INSERT INTO "eno_liquidity" ("unix_timestamp", "epoch_id", "pool_id", "liquid_stake") VALUES (?, ?, ?, ?)`,
			stmt.SQL)
		assert.Empty(t, stmt.Params)
	})

	t.Run("it numbers postgres placeholders", func(t *testing.T) {
		t.Parallel()

		// Act
		stmt, err := upsert.Build(upsert.Postgres, liquidityTable, liquidityColumns, upsert.PolicyInsert, nil)

		// Assert
		require.NoError(t, err)
		assert.Equal(t,
			`INSERT INTO "eno_liquidity" ("unix_timestamp", "epoch_id", "pool_id", "liquid_stake") VALUES ($1, $2, $3, $4)`,
			stmt.SQL)
	})

	t.Run("it quotes schema qualified tables and hostile identifiers", func(t *testing.T) {
		t.Parallel()

		// Arrange
		table := upsert.Table{Name: "public.eno_liquidity", Key: []string{"id"}}

		// Act
		stmt, err := upsert.Build(upsert.Postgres, table, []string{"id", `na"me`}, upsert.PolicyInsert, nil)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, `INSERT INTO "public"."eno_liquidity" ("id", "na""me") VALUES ($1, $2)`, stmt.SQL)
	})
}

func TestBuildReplace(t *testing.T) {
	t.Parallel()

	t.Run("it uses insert or replace on sqlite", func(t *testing.T) {
		t.Parallel()

		// Act
		stmt, err := upsert.Build(upsert.SQLite, liquidityTable, liquidityColumns, upsert.PolicyReplace, nil)

		// Assert
		require.NoError(t, err)
		assert.Equal(t,
			`INSERT OR REPLACE INTO "eno_liquidity" ("unix_timestamp", "epoch_id", "pool_id", "liquid_stake") VALUES (?, ?, ?, ?)`,
			stmt.SQL)
	})

	t.Run("it overwrites every non-key column on postgres", func(t *testing.T) {
		t.Parallel()

		// Act
		stmt, err := upsert.Build(upsert.Postgres, liquidityTable, liquidityColumns, upsert.PolicyReplace, nil)

		// Assert
		require.NoError(t, err)
		assert.Equal(t,
			`INSERT INTO "eno_liquidity" ("unix_timestamp", "epoch_id", "pool_id", "liquid_stake") VALUES ($1, $2, $3, $4)`+
				` ON CONFLICT ("unix_timestamp", "pool_id") DO UPDATE SET "epoch_id" = excluded."epoch_id", "liquid_stake" = excluded."liquid_stake"`,
			stmt.SQL)
	})

	t.Run("it does nothing on postgres when every column is part of the key", func(t *testing.T) {
		t.Parallel()

		// Act
		stmt, err := upsert.Build(upsert.Postgres, liquidityTable, []string{"unix_timestamp", "pool_id"}, upsert.PolicyReplace, nil)

		// Assert
		require.NoError(t, err)
		assert.Equal(t,
			`INSERT INTO "eno_liquidity" ("unix_timestamp", "pool_id") VALUES ($1, $2) ON CONFLICT ("unix_timestamp", "pool_id") DO NOTHING`,
			stmt.SQL)
	})

	t.Run("it rejects a postgres replace without a key", func(t *testing.T) {
		t.Parallel()

		// Act
		_, err := upsert.Build(upsert.Postgres, upsert.Table{Name: "keyless"}, []string{"a"}, upsert.PolicyReplace, nil)

		// Assert
		assert.ErrorIs(t, err, upsert.ErrMalformedConflict)
	})
}

func TestBuildOnConflict(t *testing.T) {
	t.Parallel()

	t.Run("it guards the update with a changed predicate", func(t *testing.T) {
		t.Parallel()

		// Arrange
		conflict := upsert.Conflict{Where: upsert.Changed("liquid_stake")}

		// Act
		stmt, err := upsert.Build(upsert.Postgres, liquidityTable, liquidityColumns, upsert.PolicyUpdate, &conflict)

		// Assert
		require.NoError(t, err)
		assert.Equal(t,
			`INSERT INTO "eno_liquidity" ("unix_timestamp", "epoch_id", "pool_id", "liquid_stake") VALUES ($1, $2, $3, $4)`+
				` ON CONFLICT ("unix_timestamp", "pool_id") DO UPDATE SET "epoch_id" = excluded."epoch_id", "liquid_stake" = excluded."liquid_stake"`+
				` WHERE ("eno_liquidity"."liquid_stake" IS DISTINCT FROM excluded."liquid_stake")`,
			stmt.SQL)
	})

	t.Run("it renders the sqlite distinct operator", func(t *testing.T) {
		t.Parallel()

		// Arrange
		conflict := upsert.Conflict{Where: upsert.Changed("epoch_id", "liquid_stake")}

		// Act
		stmt, err := upsert.Build(upsert.SQLite, liquidityTable, liquidityColumns, upsert.PolicyUpdate, &conflict)

		// Assert
		require.NoError(t, err)
		assert.Contains(t, stmt.SQL,
			` WHERE (("eno_liquidity"."epoch_id" IS NOT excluded."epoch_id") OR ("eno_liquidity"."liquid_stake" IS NOT excluded."liquid_stake"))`)
	})

	t.Run("it binds parameters after the row values", func(t *testing.T) {
		t.Parallel()

		// Arrange
		conflict := upsert.Conflict{
			Where: upsert.AllOf(
				upsert.Newer("version"),
				upsert.Greater(upsert.Excluded("version"), upsert.Param(0)),
			),
		}

		// Act
		stmt, err := upsert.Build(upsert.Postgres, versionTable, versionColumns, upsert.PolicyUpdate, &conflict)

		// Assert
		require.NoError(t, err)
		assert.Equal(t,
			`INSERT INTO "app_db_version" ("app_code", "version", "date_updated") VALUES ($1, $2, $3)`+
				` ON CONFLICT ("app_code") DO UPDATE SET "version" = excluded."version", "date_updated" = excluded."date_updated"`+
				` WHERE ((excluded."version" > "app_db_version"."version") AND (excluded."version" > $4))`,
			stmt.SQL)
		assert.Equal(t, []any{0}, stmt.Params)
	})

	t.Run("it honours an explicit target and assignment list", func(t *testing.T) {
		t.Parallel()

		// Arrange
		conflict := upsert.Conflict{
			Target: []string{"app_code"},
			Set:    []upsert.Assignment{upsert.Assign("version", upsert.Excluded("version"))},
		}

		// Act
		stmt, err := upsert.Build(upsert.SQLite, upsert.Table{Name: "app_db_version"}, versionColumns, upsert.PolicyUpdate, &conflict)

		// Assert
		require.NoError(t, err)
		assert.Equal(t,
			`INSERT INTO "app_db_version" ("app_code", "version", "date_updated") VALUES (?, ?, ?)`+
				` ON CONFLICT ("app_code") DO UPDATE SET "version" = excluded."version"`,
			stmt.SQL)
	})

	t.Run("it rejects specifications that reference unknown columns", func(t *testing.T) {
		t.Parallel()

		cases := map[string]upsert.Conflict{
			"excluded column outside batch": {Where: upsert.Changed("missing")},
			"target outside batch":          {Target: []string{"missing"}},
			"empty predicate":               {Where: upsert.AnyOf()},
			"incomplete assignment":         {Set: []upsert.Assignment{{Column: "version"}}},
		}

		for name, conflict := range cases {
			// Act
			_, err := upsert.Build(upsert.Postgres, versionTable, versionColumns, upsert.PolicyUpdate, &conflict)

			// Assert
			assert.ErrorIs(t, err, upsert.ErrMalformedConflict, name)
		}
	})

	t.Run("it requires a conflict specification", func(t *testing.T) {
		t.Parallel()

		// Act
		_, err := upsert.Build(upsert.Postgres, versionTable, versionColumns, upsert.PolicyUpdate, nil)

		// Assert
		assert.ErrorIs(t, err, upsert.ErrMalformedConflict)
	})
}
