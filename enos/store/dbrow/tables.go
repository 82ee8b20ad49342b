// Package dbrow declares the stored tables and converts domain rows into upsert batches
package dbrow

import "github.com/screwyprof/enos/pkg/upsert"

// Tables created by the migrations, keyed by their primary key
var (
	AppDBVersion              = upsert.Table{Name: "app_db_version", Key: []string{"app_code"}}
	Voters                    = upsert.Table{Name: "voters", Key: []string{"date", "account_id"}}
	VotersPerDayContractRound = upsert.Table{Name: "voters_per_day_contract_round", Key: []string{"date", "contract", "round"}}
	AvailableClaims           = upsert.Table{Name: "available_claims", Key: []string{"date", "account_id", "token_code"}}
	ENOLiquidity              = upsert.Table{Name: "eno_liquidity", Key: []string{"unix_timestamp", "pool_id"}}
	ENODelegators             = upsert.Table{Name: "eno_delegators", Key: []string{"unix_timestamp", "pool_id", "account_id"}}
)

// Tables lists every table of the schema
func Tables() []upsert.Table {
	return []upsert.Table{
		AppDBVersion,
		Voters,
		VotersPerDayContractRound,
		AvailableClaims,
		ENOLiquidity,
		ENODelegators,
	}
}

// NonKeyColumns returns the columns of the batch that are not part of the table key
func NonKeyColumns(table upsert.Table, columns []string) []string {
	key := make(map[string]struct{}, len(table.Key))
	for _, k := range table.Key {
		key[k] = struct{}{}
	}

	var rest []string
	for _, c := range columns {
		if _, ok := key[c]; !ok {
			rest = append(rest, c)
		}
	}
	return rest
}
