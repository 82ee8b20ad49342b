package enos

import "github.com/shopspring/decimal"

var majorThreshold = decimal.NewFromInt(MajorStakeThreshold)

// foldDelegators emits one row per major delegator in order of first appearance,
// followed by a single MinorDelegatorsKey row when any minor delegator exists.
// A major account listed twice is summed so the pool total is preserved.
func foldDelegators(epoch EpochSnapshot, contract string, records []DelegatorRecord) ([]DelegatorStakeRow, error) {
	var (
		order    []string
		majors   = make(map[string]decimal.Decimal)
		minorSum = decimal.Zero
		hasMinor bool
	)

	for _, r := range records {
		amount, err := parseStake(contract, epoch, r)
		if err != nil {
			return nil, err
		}

		if amount.GreaterThan(majorThreshold) {
			sum, seen := majors[r.AccountID]
			if !seen {
				order = append(order, r.AccountID)
			}
			majors[r.AccountID] = sum.Add(amount)
			continue
		}

		minorSum = minorSum.Add(amount)
		hasMinor = true
	}

	rows := make([]DelegatorStakeRow, 0, len(order)+1)
	for _, account := range order {
		rows = append(rows, delegatorRow(epoch, contract, account, majors[account]))
	}
	if hasMinor {
		rows = append(rows, delegatorRow(epoch, contract, MinorDelegatorsKey, minorSum))
	}

	return rows, nil
}

func delegatorRow(epoch EpochSnapshot, contract, account string, stake decimal.Decimal) DelegatorStakeRow {
	return DelegatorStakeRow{
		UnixTimestamp: epoch.UnixSeconds(),
		EpochID:       epoch.EpochID,
		PoolID:        contract,
		AccountID:     account,
		Stake:         stake.InexactFloat64(),
	}
}
