// Package availability computes bookable start times for a professional on a
// civil date. It performs no I/O: callers load the calendar, exceptions and
// appointments and pass them in with the tenant's location.
package availability

import (
	"slices"
	"time"
)

// Interval is the half-open range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

func (i Interval) Empty() bool {
	return !i.Start.Before(i.End)
}

// Overlaps implements [a,b) ∩ [c,d) ≠ ∅ ⇔ a < d && c < b.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start.Before(o.End) && o.Start.Before(i.End)
}

// Contains reports whether o lies entirely inside i.
func (i Interval) Contains(o Interval) bool {
	return !o.Start.Before(i.Start) && !o.End.After(i.End)
}

// Clip returns the part of i inside bound.
func (i Interval) Clip(bound Interval) (Interval, bool) {
	out := i
	if out.Start.Before(bound.Start) {
		out.Start = bound.Start
	}
	if out.End.After(bound.End) {
		out.End = bound.End
	}
	return out, !out.Empty()
}

// Merge sorts intervals and joins those that overlap or touch. Empty inputs
// are dropped. The input slice is not modified.
func Merge(in []Interval) []Interval {
	sorted := make([]Interval, 0, len(in))
	for _, iv := range in {
		if !iv.Empty() {
			sorted = append(sorted, iv)
		}
	}
	slices.SortFunc(sorted, func(a, b Interval) int {
		if c := a.Start.Compare(b.Start); c != 0 {
			return c
		}
		return a.End.Compare(b.End)
	})

	merged := make([]Interval, 0, len(sorted))
	for _, cur := range sorted {
		if n := len(merged); n > 0 && !cur.Start.After(merged[n-1].End) {
			if cur.End.After(merged[n-1].End) {
				merged[n-1].End = cur.End
			}
			continue
		}
		merged = append(merged, cur)
	}
	return merged
}

func overlapsAny(candidate Interval, busy []Interval) bool {
	for _, b := range busy {
		if candidate.Overlaps(b) {
			return true
		}
	}
	return false
}
