package enos

import (
	"context"
	"fmt"

	"github.com/screwyprof/enos/pkg/throttle"
)

// AggregatorOption configures the Aggregator
// -------------------------------------------
type AggregatorOption func(*Aggregator)

// WithContracts replaces the pools visited for every epoch
func WithContracts(contracts ...string) AggregatorOption {
	return func(a *Aggregator) { a.contracts = contracts }
}

// WithLiquidStakingAccounts replaces the accounts whose stake counts as liquid
func WithLiquidStakingAccounts(accounts ...string) AggregatorOption {
	return func(a *Aggregator) { a.liquid = newAccountSet(accounts) }
}

// WithPause sets the pause taken after every (epoch, contract) fetch
func WithPause(p *throttle.Pause) AggregatorOption {
	return func(a *Aggregator) { a.pause = p }
}

// Aggregator walks the epochs of a window and folds every pool's delegator
// snapshot into rows. Fetches are strictly sequential.
type Aggregator struct {
	api       Client
	contracts []string
	liquid    accountSet
	pause     *throttle.Pause
}

// NewAggregator constructs an Aggregator.
// By default it visits DefaultContracts, treats DefaultLiquidStakingAccounts
// as liquid and pauses throttle.DefaultInterval after each fetch.
func NewAggregator(api Client, opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{
		api:       api,
		contracts: DefaultContracts(),
		liquid:    newAccountSet(DefaultLiquidStakingAccounts()),
		pause:     throttle.New(throttle.DefaultInterval),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Contracts returns the pools visited for every epoch
func (a *Aggregator) Contracts() []string {
	return a.contracts
}

// PoolLiquidity returns one liquidity row per (epoch, contract) pair in the window.
// Nothing is returned when any pair fails.
func (a *Aggregator) PoolLiquidity(ctx context.Context, w Window) ([]PoolLiquidityRow, error) {
	var rows []PoolLiquidityRow
	err := a.WalkPoolLiquidity(ctx, w, func(_ EpochSnapshot, epochRows []PoolLiquidityRow) error {
		rows = append(rows, epochRows...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// DelegatorStakes returns the major/minor delegator rows of every pair in the window.
// Nothing is returned when any pair fails.
func (a *Aggregator) DelegatorStakes(ctx context.Context, w Window) ([]DelegatorStakeRow, error) {
	var rows []DelegatorStakeRow
	err := a.WalkDelegatorStakes(ctx, w, func(_ EpochSnapshot, epochRows []DelegatorStakeRow) error {
		rows = append(rows, epochRows...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// WalkPoolLiquidity calls fn once per selected epoch with that epoch's liquidity rows
func (a *Aggregator) WalkPoolLiquidity(ctx context.Context, w Window, fn func(EpochSnapshot, []PoolLiquidityRow) error) error {
	return walk(ctx, a, w, func(epoch EpochSnapshot, contract string, records []DelegatorRecord) ([]PoolLiquidityRow, error) {
		row, err := foldLiquidity(epoch, contract, records, a.liquid)
		if err != nil {
			return nil, err
		}
		return []PoolLiquidityRow{row}, nil
	}, fn)
}

// WalkDelegatorStakes calls fn once per selected epoch with that epoch's delegator rows
func (a *Aggregator) WalkDelegatorStakes(ctx context.Context, w Window, fn func(EpochSnapshot, []DelegatorStakeRow) error) error {
	return walk(ctx, a, w, foldDelegators, fn)
}

// Epochs lists the epochs of the window in source order
func (a *Aggregator) Epochs(ctx context.Context, w Window) ([]EpochSnapshot, error) {
	listed, err := a.api.ListEpochs(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w: %w", ErrSourceFetch, ErrEpochListing, err)
	}

	epochs := make([]EpochSnapshot, len(listed))
	for i, e := range listed {
		ts, err := e.Timestamp.Int64()
		if err != nil {
			return nil, fmt.Errorf("%w: %w: epoch %q: %w", ErrSourceFetch, ErrMalformedRecord, e.EpochID, err)
		}
		epochs[i] = EpochSnapshot{EpochID: e.EpochID, Timestamp: ts}
	}

	return SelectEpochs(epochs, w), nil
}

// walk visits epochs in the outer loop and contracts in the inner loop, folding
// each pair and pausing after it. fn receives the rows of one epoch at a time.
func walk[R any](
	ctx context.Context,
	a *Aggregator,
	w Window,
	fold func(EpochSnapshot, string, []DelegatorRecord) ([]R, error),
	fn func(EpochSnapshot, []R) error,
) error {
	epochs, err := a.Epochs(ctx, w)
	if err != nil {
		return err
	}

	for _, epoch := range epochs {
		var rows []R
		for _, contract := range a.contracts {
			records, err := a.delegators(ctx, contract, epoch.EpochID)
			if err != nil {
				return err
			}

			pairRows, err := fold(epoch, contract, records)
			if err != nil {
				return err
			}
			rows = append(rows, pairRows...)

			if err := a.pause.Wait(ctx); err != nil {
				return err
			}
		}

		if err := fn(epoch, rows); err != nil {
			return err
		}
	}

	return nil
}

func (a *Aggregator) delegators(ctx context.Context, contract, epochID string) ([]DelegatorRecord, error) {
	listed, err := a.api.ListDelegators(ctx, contract, epochID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s at epoch %s: %w", ErrSourceFetch, contract, epochID, err)
	}

	records := make([]DelegatorRecord, len(listed))
	for i, d := range listed {
		records[i] = DelegatorRecord{AccountID: d.AccountID, StakedAmount: d.StakedAmount.String()}
	}
	return records, nil
}

type accountSet map[string]struct{}

func newAccountSet(accounts []string) accountSet {
	set := make(accountSet, len(accounts))
	for _, a := range accounts {
		set[a] = struct{}{}
	}
	return set
}

func (s accountSet) has(account string) bool {
	_, ok := s[account]
	return ok
}
