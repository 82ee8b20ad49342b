// Package throttle paces sequential calls to an external source with a fixed pause
package throttle

import (
	"context"
	"time"

	"github.com/screwyprof/enos/pkg/clock"
)

// DefaultInterval is the pause taken after every fetch
const DefaultInterval = 75 * time.Millisecond

// Clock abstracts waiting for production and testing
type Clock interface {
	After(d time.Duration) <-chan time.Time
}

// Option configures a Pause
type Option func(*Pause)

// WithClock injects a custom Clock (e.g., for testing)
func WithClock(c Clock) Option {
	return func(p *Pause) { p.clock = c }
}

// Pause blocks the caller for a fixed interval.
// It never retries and is meant to be used by a single sequential caller.
type Pause struct {
	interval time.Duration
	clock    Clock
}

// New creates a Pause with the given interval. A non-positive interval never blocks.
func New(interval time.Duration, opts ...Option) *Pause {
	p := &Pause{
		interval: interval,
		clock:    clock.SystemClock{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Interval reports the configured pause
func (p *Pause) Interval() time.Duration {
	if p == nil {
		return 0
	}
	return p.interval
}

// Wait blocks for the interval or until ctx is cancelled
func (p *Pause) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p == nil || p.interval <= 0 {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-p.clock.After(p.interval):
		return nil
	}
}
