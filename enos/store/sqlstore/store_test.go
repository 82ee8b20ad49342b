package sqlstore_test

import (
	"database/sql"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screwyprof/enos/enos"
	"github.com/screwyprof/enos/enos/store/dbrow"
	"github.com/screwyprof/enos/enos/store/sqlstore"
	"github.com/screwyprof/enos/migrator/migratortest"
	"github.com/screwyprof/enos/pkg/upsert"
)

func TestStoreSavePoolLiquidity(t *testing.T) {
	t.Parallel()

	t.Run("it saves every row of the batch", func(t *testing.T) {
		t.Parallel()

		// Arrange
		db := migratortest.CreateSQLiteTestDatabase(t, "")
		store := sqlstore.New(upsert.NewSQLWriter(db, upsert.SQLite))
		rows := []enos.PoolLiquidityRow{
			liquidityRow("pool-a.poolv1.near", 50, 0),
			liquidityRow("pool-b.poolv1.near", 0, 1000),
		}

		// Act
		err := store.SavePoolLiquidity(t.Context(), rows)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, rows, storedLiquidity(t, db))
	})

	t.Run("it replaces rows on a rerun by default", func(t *testing.T) {
		t.Parallel()

		// Arrange
		db := migratortest.CreateSQLiteTestDatabase(t, "")
		store := sqlstore.New(upsert.NewSQLWriter(db, upsert.SQLite))
		require.NoError(t, store.SavePoolLiquidity(t.Context(), []enos.PoolLiquidityRow{liquidityRow("pool-a.poolv1.near", 50, 0)}))

		// Act
		err := store.SavePoolLiquidity(t.Context(), []enos.PoolLiquidityRow{liquidityRow("pool-a.poolv1.near", 75, 5)})

		// Assert
		require.NoError(t, err)
		assert.Equal(t, []enos.PoolLiquidityRow{liquidityRow("pool-a.poolv1.near", 75, 5)}, storedLiquidity(t, db))
	})

	t.Run("it rejects the whole batch under the insert policy when a key is stored", func(t *testing.T) {
		t.Parallel()

		// Arrange
		db := migratortest.CreateSQLiteTestDatabase(t, "")
		store := sqlstore.New(upsert.NewSQLWriter(db, upsert.SQLite), sqlstore.WithWritePolicy(sqlstore.WriteInsert))
		stored := liquidityRow("pool-a.poolv1.near", 50, 0)
		require.NoError(t, store.SavePoolLiquidity(t.Context(), []enos.PoolLiquidityRow{stored}))

		// Act
		err := store.SavePoolLiquidity(t.Context(), []enos.PoolLiquidityRow{
			liquidityRow("pool-b.poolv1.near", 1, 1),
			liquidityRow("pool-a.poolv1.near", 99, 99),
		})

		// Assert
		assert.ErrorIs(t, err, sqlstore.ErrSaveFailed)
		assert.ErrorIs(t, err, upsert.ErrPersistence)
		assert.Equal(t, []enos.PoolLiquidityRow{stored}, storedLiquidity(t, db))
	})

	t.Run("it rejects the whole batch when a stake is not finite", func(t *testing.T) {
		t.Parallel()

		// Arrange
		db := migratortest.CreateSQLiteTestDatabase(t, "")
		store := sqlstore.New(upsert.NewSQLWriter(db, upsert.SQLite))

		// Act
		err := store.SavePoolLiquidity(t.Context(), []enos.PoolLiquidityRow{
			liquidityRow("pool-a.poolv1.near", 50, 0),
			liquidityRow("pool-b.poolv1.near", math.NaN(), 1),
		})

		// Assert
		assert.ErrorIs(t, err, sqlstore.ErrSaveFailed)
		assert.ErrorIs(t, err, upsert.ErrTransformFailed)
		assert.ErrorIs(t, err, upsert.ErrNonFiniteValue)
		assert.Empty(t, storedLiquidity(t, db))
	})

	t.Run("it treats an empty batch as a no-op", func(t *testing.T) {
		t.Parallel()

		// Arrange
		db := migratortest.CreateSQLiteTestDatabase(t, "")
		store := sqlstore.New(upsert.NewSQLWriter(db, upsert.SQLite))

		// Act
		err := store.SavePoolLiquidity(t.Context(), nil)

		// Assert
		require.NoError(t, err)
		assert.Empty(t, storedLiquidity(t, db))
	})
}

func TestStoreSaveDelegatorStakes(t *testing.T) {
	t.Parallel()

	t.Run("it keeps the minor bucket next to the major delegators", func(t *testing.T) {
		t.Parallel()

		// Arrange
		db := migratortest.CreateSQLiteTestDatabase(t, "")
		store, closer := sqlstore.NewSQLite(db)
		defer closer()
		rows := []enos.DelegatorStakeRow{
			delegatorRow("b.near", 200000),
			delegatorRow(enos.MinorDelegatorsKey, 50),
		}

		// Act
		err := store.SaveDelegatorStakes(t.Context(), rows)

		// Assert
		require.NoError(t, err)
		assert.ElementsMatch(t, rows, storedDelegators(t, db))
	})

	t.Run("it updates only changed rows under the update-changed policy", func(t *testing.T) {
		t.Parallel()

		// Arrange
		db := migratortest.CreateSQLiteTestDatabase(t, "")
		store := sqlstore.New(upsert.NewSQLWriter(db, upsert.SQLite), sqlstore.WithWritePolicy(sqlstore.WriteUpdateChanged))
		require.NoError(t, store.SaveDelegatorStakes(t.Context(), []enos.DelegatorStakeRow{
			delegatorRow("b.near", 200000),
			delegatorRow("c.near", 300000),
		}))

		// Act
		err := store.SaveDelegatorStakes(t.Context(), []enos.DelegatorStakeRow{
			delegatorRow("b.near", 200000),
			delegatorRow("c.near", 350000),
		})

		// Assert
		require.NoError(t, err)
		assert.ElementsMatch(t, []enos.DelegatorStakeRow{
			delegatorRow("b.near", 200000),
			delegatorRow("c.near", 350000),
		}, storedDelegators(t, db))
	})

	t.Run("it reports an unknown write policy", func(t *testing.T) {
		t.Parallel()

		// Arrange
		db := migratortest.CreateSQLiteTestDatabase(t, "")
		store := sqlstore.New(upsert.NewSQLWriter(db, upsert.SQLite), sqlstore.WithWritePolicy("merge"))

		// Act
		err := store.SaveDelegatorStakes(t.Context(), []enos.DelegatorStakeRow{delegatorRow("b.near", 200000)})

		// Assert
		assert.ErrorIs(t, err, sqlstore.ErrSaveFailed)
		assert.ErrorIs(t, err, sqlstore.ErrUnknownWritePolicy)
	})
}

func TestParseWritePolicy(t *testing.T) {
	t.Parallel()

	t.Run("it accepts known policies", func(t *testing.T) {
		t.Parallel()

		for _, name := range []string{"insert", "replace", "update-changed"} {
			policy, err := sqlstore.ParseWritePolicy(name)
			require.NoError(t, err)
			assert.Equal(t, sqlstore.WritePolicy(name), policy)
		}
	})

	t.Run("it rejects anything else", func(t *testing.T) {
		t.Parallel()

		// Act
		_, err := sqlstore.ParseWritePolicy("upsert")

		// Assert
		assert.ErrorIs(t, err, sqlstore.ErrUnknownWritePolicy)
	})
}

const (
	testTimestamp = 1698811200
	testEpochID   = "epoch-1"
)

func liquidityRow(pool string, nonLiquid, liquid float64) enos.PoolLiquidityRow {
	return enos.PoolLiquidityRow{
		UnixTimestamp:  testTimestamp,
		EpochID:        testEpochID,
		PoolID:         pool,
		NonLiquidStake: nonLiquid,
		LiquidStake:    liquid,
	}
}

func delegatorRow(account string, stake float64) enos.DelegatorStakeRow {
	return enos.DelegatorStakeRow{
		UnixTimestamp: testTimestamp,
		EpochID:       testEpochID,
		PoolID:        "pool-b.poolv1.near",
		AccountID:     account,
		Stake:         stake,
	}
}

func storedLiquidity(t *testing.T, db *sql.DB) []enos.PoolLiquidityRow {
	t.Helper()

	rows, err := db.QueryContext(t.Context(),
		"SELECT unix_timestamp, epoch_id, pool_id, non_liquid_stake, liquid_stake FROM eno_liquidity ORDER BY pool_id")
	require.NoError(t, err)
	defer rows.Close()

	var records []dbrow.PoolLiquidity
	for rows.Next() {
		var r dbrow.PoolLiquidity
		require.NoError(t, rows.Scan(&r.UnixTimestamp, &r.EpochID, &r.PoolID, &r.NonLiquidStake, &r.LiquidStake))
		records = append(records, r)
	}
	require.NoError(t, rows.Err())

	return dbrow.ToPoolLiquidityRows(records)
}

func storedDelegators(t *testing.T, db *sql.DB) []enos.DelegatorStakeRow {
	t.Helper()

	rows, err := db.QueryContext(t.Context(),
		"SELECT unix_timestamp, epoch_id, pool_id, account_id, stake FROM eno_delegators")
	require.NoError(t, err)
	defer rows.Close()

	var records []dbrow.DelegatorStake
	for rows.Next() {
		var r dbrow.DelegatorStake
		require.NoError(t, rows.Scan(&r.UnixTimestamp, &r.EpochID, &r.PoolID, &r.AccountID, &r.Stake))
		records = append(records, r)
	}
	require.NoError(t, rows.Err())

	return dbrow.ToDelegatorStakeRows(records)
}
