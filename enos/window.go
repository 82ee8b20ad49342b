package enos

// DefaultWindowStart is 2023-11-01 03:00:00 UTC, the start of the ENO programme data
const DefaultWindowStart int64 = 1698807600

// Window bounds a run in whole unix seconds. Both bounds are exclusive.
type Window struct {
	Start int64
	End   int64
}

// NewWindow builds a window from start to end. A zero end means "now" on the given clock.
func NewWindow(c Clock, start, end int64) Window {
	if end == 0 {
		end = c.Now().Unix()
	}
	return Window{Start: start, End: end}
}

// DefaultWindow spans from DefaultWindowStart to now
func DefaultWindow(c Clock) Window {
	return NewWindow(c, DefaultWindowStart, 0)
}

// Contains reports whether a unix second lies strictly inside the window
func (w Window) Contains(unixSeconds int64) bool {
	return w.Start < unixSeconds && unixSeconds < w.End
}

// SelectEpochs keeps the epochs whose truncated timestamp lies strictly inside
// the window. Input order is preserved and duplicates are kept.
func SelectEpochs(epochs []EpochSnapshot, w Window) []EpochSnapshot {
	selected := make([]EpochSnapshot, 0, len(epochs))
	for _, e := range epochs {
		if w.Contains(e.UnixSeconds()) {
			selected = append(selected, e)
		}
	}
	return selected
}
