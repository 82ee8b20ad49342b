package enos

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// foldLiquidity sums a pool's stake into liquid and non-liquid totals.
// An empty snapshot still yields a row with zero sums.
func foldLiquidity(epoch EpochSnapshot, contract string, records []DelegatorRecord, liquid accountSet) (PoolLiquidityRow, error) {
	liquidStake, nonLiquidStake := decimal.Zero, decimal.Zero

	for _, r := range records {
		amount, err := parseStake(contract, epoch, r)
		if err != nil {
			return PoolLiquidityRow{}, err
		}
		if liquid.has(r.AccountID) {
			liquidStake = liquidStake.Add(amount)
		} else {
			nonLiquidStake = nonLiquidStake.Add(amount)
		}
	}

	return PoolLiquidityRow{
		UnixTimestamp:  epoch.UnixSeconds(),
		EpochID:        epoch.EpochID,
		PoolID:         contract,
		NonLiquidStake: nonLiquidStake.InexactFloat64(),
		LiquidStake:    liquidStake.InexactFloat64(),
	}, nil
}

// parseStake reads a staked amount exactly. Negative or non-numeric amounts are malformed.
func parseStake(contract string, epoch EpochSnapshot, r DelegatorRecord) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(r.StakedAmount)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %w: %s at epoch %s: account %q: %w",
			ErrSourceFetch, ErrMalformedRecord, contract, epoch.EpochID, r.AccountID, err)
	}
	if amount.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("%w: %w: %s at epoch %s: account %q: negative stake %s",
			ErrSourceFetch, ErrMalformedRecord, contract, epoch.EpochID, r.AccountID, r.StakedAmount)
	}
	return amount, nil
}
