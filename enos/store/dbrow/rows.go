package dbrow

import (
	"time"

	"github.com/screwyprof/enos/enos"
	"github.com/screwyprof/enos/pkg/upsert"
)

// DateLayout is the text format of date columns
const DateLayout = "2006-01-02"

// PoolLiquidity represents an eno_liquidity record as stored in the database
type PoolLiquidity struct {
	UnixTimestamp  int64   `db:"unix_timestamp"`
	EpochID        string  `db:"epoch_id"`
	PoolID         string  `db:"pool_id"`
	NonLiquidStake float64 `db:"non_liquid_stake"`
	LiquidStake    float64 `db:"liquid_stake"`
}

// DelegatorStake represents an eno_delegators record as stored in the database
type DelegatorStake struct {
	UnixTimestamp int64   `db:"unix_timestamp"`
	EpochID       string  `db:"epoch_id"`
	PoolID        string  `db:"pool_id"`
	AccountID     string  `db:"account_id"`
	Stake         float64 `db:"stake"`
}

// AppVersion represents the app_db_version record of an application
type AppVersion struct {
	AppCode     string `db:"app_code"`
	Version     int64  `db:"version"`
	DateUpdated string `db:"date_updated"`
}

var (
	liquidityColumns  = []string{"unix_timestamp", "epoch_id", "pool_id", "non_liquid_stake", "liquid_stake"}
	delegatorColumns  = []string{"unix_timestamp", "epoch_id", "pool_id", "account_id", "stake"}
	appVersionColumns = []string{"app_code", "version", "date_updated"}
)

// PoolLiquidityBatch converts liquidity rows into an eno_liquidity batch
func PoolLiquidityBatch(rows []enos.PoolLiquidityRow) *upsert.Batch {
	batch := upsert.NewBatch(liquidityColumns...)
	for _, r := range rows {
		batch.Add(r.UnixTimestamp, r.EpochID, r.PoolID, r.NonLiquidStake, r.LiquidStake)
	}
	return batch
}

// DelegatorStakeBatch converts delegator rows into an eno_delegators batch
func DelegatorStakeBatch(rows []enos.DelegatorStakeRow) *upsert.Batch {
	batch := upsert.NewBatch(delegatorColumns...)
	for _, r := range rows {
		batch.Add(r.UnixTimestamp, r.EpochID, r.PoolID, r.AccountID, r.Stake)
	}
	return batch
}

// AppVersionBatch builds the single-row app_db_version batch.
// The update time is bound as time.Time and formatted by RowTransform.
func AppVersionBatch(appCode string, version int64, updated time.Time) *upsert.Batch {
	return upsert.NewBatch(appVersionColumns...).Add(appCode, version, updated)
}

// RowTransform guards stake values and renders dates before binding
var RowTransform = upsert.Chain(upsert.FiniteFloat, upsert.TimeAsDate(DateLayout))

// ToPoolLiquidityRows converts stored records back into domain rows
func ToPoolLiquidityRows(records []PoolLiquidity) []enos.PoolLiquidityRow {
	rows := make([]enos.PoolLiquidityRow, len(records))
	for i, r := range records {
		rows[i] = enos.PoolLiquidityRow(r)
	}
	return rows
}

// ToDelegatorStakeRows converts stored records back into domain rows
func ToDelegatorStakeRows(records []DelegatorStake) []enos.DelegatorStakeRow {
	rows := make([]enos.DelegatorStakeRow, len(records))
	for i, r := range records {
		rows[i] = enos.DelegatorStakeRow(r)
	}
	return rows
}
