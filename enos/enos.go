// Package enos aggregates per-epoch delegator snapshots of ENO validator pools
// into time-series rows ready for idempotent persistence.
package enos

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/screwyprof/enos/pkg/stakingapi"
)

// Sentinel errors for failure cases
var (
	ErrSourceFetch     = errors.New("source fetch failed")
	ErrEpochListing    = errors.New("epoch listing failed")
	ErrMalformedRecord = errors.New("malformed source record")
	ErrSaveBatchFailed = errors.New("save batch failed")
	ErrUnknownMode     = errors.New("unknown aggregation mode")
)

// MinorDelegatorsKey is the reserved account id of the aggregate row holding
// every delegator at or below MajorStakeThreshold.
const MinorDelegatorsKey = "minor_delegators_sum"

// MajorStakeThreshold is the stake a delegator must strictly exceed to get its own row
const MajorStakeThreshold = 100000

// Client fetches epochs and delegator snapshots from the indexer API
// ------------------------------------------------------------------
type Client interface {
	ListEpochs(ctx context.Context) ([]stakingapi.Epoch, error)
	ListDelegators(ctx context.Context, contract, epochID string) ([]stakingapi.Delegator, error)
}

// Store persists aggregated rows
type Store interface {
	SavePoolLiquidity(ctx context.Context, rows []PoolLiquidityRow) error
	SaveDelegatorStakes(ctx context.Context, rows []DelegatorStakeRow) error
}

// Clock abstracts time for production and testing
type Clock interface {
	After(d time.Duration) <-chan time.Time
	Now() time.Time
}

// EpochSnapshot is one consensus epoch as reported by the source
type EpochSnapshot struct {
	EpochID   string
	Timestamp int64 // nanoseconds
}

// UnixSeconds truncates the nanosecond timestamp to whole seconds
func (e EpochSnapshot) UnixSeconds() int64 {
	return e.Timestamp / int64(time.Second)
}

// DelegatorRecord is one account's raw stake in a pool at an epoch
type DelegatorRecord struct {
	AccountID    string
	StakedAmount string
}

// PoolLiquidityRow splits a pool's stake at an epoch into liquid and non-liquid parts
type PoolLiquidityRow struct {
	UnixTimestamp  int64
	EpochID        string
	PoolID         string
	NonLiquidStake float64
	LiquidStake    float64
}

// DelegatorStakeRow is the stake of a major delegator, or of all minor
// delegators together, in a pool at an epoch.
type DelegatorStakeRow struct {
	UnixTimestamp int64
	EpochID       string
	PoolID        string
	AccountID     string
	Stake         float64
}

// Mode selects which aggregation a run performs
type Mode string

const (
	ModeLiquidity  Mode = "liquidity"
	ModeDelegators Mode = "delegators"
)

// ParseMode validates a mode name
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeLiquidity, ModeDelegators:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler so modes can be read from the environment
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Event represents a service lifecycle event
// ------------------------------------------
type Event any

type RunStarted struct {
	StartedAt time.Time
	Window    Window
	Modes     []Mode
}

type EpochFlushed struct {
	Mode    Mode
	Epoch   EpochSnapshot
	Rows    int
	Elapsed time.Duration
}

type ModeDone struct {
	Mode   Mode
	Epochs int
	Rows   int
}

type RunDone struct {
	Rows     int
	Duration time.Duration
}

type RunError struct {
	Mode Mode
	Err  error
}
