package availability

import (
	"iter"
	"time"
)

// Params drive the slot generator. All times share one location.
type Params struct {
	Window Interval
	// Busy holds blocks and breaks; it does not need to be merged.
	Busy     []Interval
	Step     time.Duration
	Duration time.Duration
	// NotBefore drops candidates starting earlier. Zero disables the check.
	NotBefore time.Time
}

// Candidates yields, in ascending order, every start t on the Step grid
// anchored at Window.Start such that [t, t+Duration) fits the window, misses
// every busy interval and t is not before NotBefore. The sequence holds no
// state between iterations and can be ranged over any number of times.
func Candidates(p Params) iter.Seq[time.Time] {
	busy := Merge(p.Busy)
	return func(yield func(time.Time) bool) {
		if p.Step <= 0 || p.Duration <= 0 || p.Window.Empty() {
			return
		}
		for t := p.Window.Start; !t.Add(p.Duration).After(p.Window.End); t = t.Add(p.Step) {
			if !p.NotBefore.IsZero() && t.Before(p.NotBefore) {
				continue
			}
			if overlapsAny(Interval{Start: t, End: t.Add(p.Duration)}, busy) {
				continue
			}
			if !yield(t) {
				return
			}
		}
	}
}
