package enos

import (
	"context"
	"fmt"

	"github.com/screwyprof/enos/pkg/clock"
)

// Option configures the Service
// ------------------------------------------------
type Option func(*Service)

// WithClock injects a custom Clock (e.g., for testing)
func WithClock(c Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithWindow fixes the window of the run instead of DefaultWindow
func WithWindow(w Window) Option {
	return func(s *Service) { s.window = &w }
}

// WithModes sets the aggregations performed, in order
func WithModes(modes ...Mode) Option {
	return func(s *Service) { s.modes = modes }
}

// WithFlushPerEpoch saves every epoch's rows as soon as they are folded.
// When disabled a mode's rows are saved in one batch after the whole window.
func WithFlushPerEpoch(enabled bool) Option {
	return func(s *Service) { s.flushPerEpoch = enabled }
}

// Service runs the aggregation pipeline once over a window and persists the rows
// -------------------------------------------------------------------------------
type Service struct {
	agg           *Aggregator
	store         Store
	clock         Clock
	window        *Window
	modes         []Mode
	flushPerEpoch bool
	events        chan Event
}

// NewService constructs a Service with required dependencies and options
// ---------------------------------------------------------------------
// By default, it uses a real clock, the default window ending now, both modes
// and flushes after every epoch.
func NewService(agg *Aggregator, store Store, opts ...Option) *Service {
	s := &Service{
		agg:           agg,
		store:         store,
		clock:         clock.SystemClock{},
		modes:         []Mode{ModeLiquidity, ModeDelegators},
		flushPerEpoch: true,
		events:        make(chan Event, 10),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches the run and returns the events channel and done channel.
//
// The events channel is closed once the run finishes, fails or is cancelled;
// done is closed right after. Cancel the context to abort the run early:
//
//	events, done := service.Start(ctx)
//	closer := enos.NewSubscriber(events, enos.OnRunError(...))
//	defer closer()
//	<-done
func (s *Service) Start(ctx context.Context) (<-chan Event, <-chan struct{}) {
	done := make(chan struct{})
	go func() {
		defer close(s.events)
		defer close(done)
		s.run(ctx)
	}()
	return s.events, done
}

func (s *Service) run(ctx context.Context) {
	start := s.clock.Now()

	w := DefaultWindow(s.clock)
	if s.window != nil {
		w = *s.window
	}

	s.events <- RunStarted{StartedAt: start, Window: w, Modes: s.modes}

	var total int
	for _, mode := range s.modes {
		done, err := s.runMode(ctx, mode, w)
		if err != nil {
			s.events <- RunError{Mode: mode, Err: err}
			return
		}
		total += done.Rows
		s.events <- done
	}

	s.events <- RunDone{Rows: total, Duration: s.clock.Now().Sub(start)}
}

func (s *Service) runMode(ctx context.Context, mode Mode, w Window) (ModeDone, error) {
	switch mode {
	case ModeLiquidity:
		return runMode(ctx, s, mode, w, s.agg.WalkPoolLiquidity, s.store.SavePoolLiquidity)
	case ModeDelegators:
		return runMode(ctx, s, mode, w, s.agg.WalkDelegatorStakes, s.store.SaveDelegatorStakes)
	default:
		return ModeDone{}, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
}

// runMode walks the window for one mode, saving either per epoch or once at the end
func runMode[R any](
	ctx context.Context,
	s *Service,
	mode Mode,
	w Window,
	walkFn func(context.Context, Window, func(EpochSnapshot, []R) error) error,
	save func(context.Context, []R) error,
) (ModeDone, error) {
	done := ModeDone{Mode: mode}
	var pending []R
	last := s.clock.Now()

	err := walkFn(ctx, w, func(epoch EpochSnapshot, rows []R) error {
		done.Epochs++
		if !s.flushPerEpoch {
			pending = append(pending, rows...)
			return nil
		}

		if err := save(ctx, rows); err != nil {
			return fmt.Errorf("%w: epoch %s: %w", ErrSaveBatchFailed, epoch.EpochID, err)
		}
		done.Rows += len(rows)

		now := s.clock.Now()
		s.events <- EpochFlushed{Mode: mode, Epoch: epoch, Rows: len(rows), Elapsed: now.Sub(last)}
		last = now
		return nil
	})
	if err != nil {
		return ModeDone{}, err
	}

	if !s.flushPerEpoch {
		if err := save(ctx, pending); err != nil {
			return ModeDone{}, fmt.Errorf("%w: %w", ErrSaveBatchFailed, err)
		}
		done.Rows = len(pending)
	}

	return done, nil
}
