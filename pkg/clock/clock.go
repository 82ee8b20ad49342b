// Package clock provides the wall clock shared by the pipeline and its pacing
package clock

import "time"

// SystemClock reads and waits on real time
type SystemClock struct{}

// After returns a channel that sends the current time after the specified duration
func (SystemClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// Now returns the current time
func (SystemClock) Now() time.Time {
	return time.Now()
}

// Fixed is a clock frozen at a single instant whose waits complete immediately.
// It lets runs over a time window be replayed deterministically.
type Fixed struct {
	At time.Time
}

// FixedAt returns a Fixed clock frozen at the given unix second
func FixedAt(unixSeconds int64) Fixed {
	return Fixed{At: time.Unix(unixSeconds, 0).UTC()}
}

// After returns an already fired channel
func (f Fixed) After(time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- f.At
	return ch
}

// Now returns the frozen instant
func (f Fixed) Now() time.Time {
	return f.At
}
