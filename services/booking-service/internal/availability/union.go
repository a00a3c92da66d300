package availability

import (
	"slices"
	"time"
)

// Union merges per-professional results for an unpinned query: a time is
// available when at least one professional has it available.
func Union(results []Result) Result {
	if len(results) == 0 {
		return Result{Slots: []Slot{}, Message: MessageNoWorkingHours}
	}

	out := Result{Date: results[0].Date, Slots: []Slot{}}
	byTime := map[int64]*Slot{}
	var messages []string
	for _, r := range results {
		out.Issues = append(out.Issues, r.Issues...)
		if r.Message != "" {
			messages = append(messages, r.Message)
		}
		if wh := r.WorkingHours; wh != nil {
			if out.WorkingHours == nil {
				w := *wh
				out.WorkingHours = &w
			} else {
				out.WorkingHours.Start = min(out.WorkingHours.Start, wh.Start)
				out.WorkingHours.End = max(out.WorkingHours.End, wh.End)
			}
		}
		for _, s := range r.Slots {
			key := s.Time.UnixNano()
			cur, ok := byTime[key]
			if !ok {
				cp := s
				byTime[key] = &cp
				continue
			}
			if s.Available && !cur.Available {
				cur.Available = true
				cur.Reason = ""
			}
		}
	}

	for _, s := range byTime {
		out.Slots = append(out.Slots, *s)
	}
	slices.SortFunc(out.Slots, func(a, b Slot) int { return a.Time.Compare(b.Time) })

	if _, ok := out.FirstAvailable(); !ok {
		out.Message = MessageNoSlots
		if len(out.Slots) == 0 && len(messages) == len(results) && allEqual(messages) {
			out.Message = messages[0]
		}
	}
	return out
}

func allEqual(s []string) bool {
	for _, v := range s[1:] {
		if v != s[0] {
			return false
		}
	}
	return true
}

// FirstAvailable returns the earliest available slot, if any.
func (r Result) FirstAvailable() (time.Time, bool) {
	for _, s := range r.Slots {
		if s.Available {
			return s.Time, true
		}
	}
	return time.Time{}, false
}
