package availability

import (
	"fmt"
	"time"

	"github.com/ybieul/saas-barbearia/services/booking-service/internal/civil"
	"github.com/ybieul/saas-barbearia/services/booking-service/internal/model"
)

// Overlay is the effect of one-off exceptions on a working window.
type Overlay struct {
	DayOff bool
	// Blocks are merged and clipped to the window.
	Blocks []Interval
}

// ApplyExceptions evaluates the exceptions that intersect day. A DAY_OFF
// covering the whole window removes the day; one covering only part of it
// blocks that part, like a BLOCK. Blocks are clipped to window and unioned.
// Malformed exceptions are skipped and reported.
func ApplyExceptions(window Interval, day civil.Date, loc *time.Location, exceptions []model.ScheduleException) (Overlay, []Issue) {
	dayStart, dayEnd := day.Bounds(loc)
	bounds := Interval{Start: dayStart, End: dayEnd}

	var (
		out    Overlay
		blocks []Interval
		issues []Issue
	)
	for _, e := range exceptions {
		if err := e.Validate(); err != nil {
			issues = append(issues, dataIntegrity(fmt.Sprintf("schedule exception %s ignored: %v", e.ID, err)))
			continue
		}
		span := Interval{Start: e.Start, End: e.End}
		if !span.Overlaps(bounds) {
			continue
		}
		if e.Type == model.ExceptionDayOff && span.Contains(window) {
			out.DayOff = true
			continue
		}
		if clipped, ok := span.Clip(window); ok {
			blocks = append(blocks, clipped)
		}
	}
	if out.DayOff {
		return Overlay{DayOff: true}, issues
	}
	out.Blocks = Merge(blocks)
	return out, issues
}

// breaksOn places the recurring breaks on day.
func breaksOn(day civil.Date, loc *time.Location, breaks []model.RecurringBreak) ([]Interval, []Issue) {
	var (
		out    []Interval
		issues []Issue
	)
	for _, b := range breaks {
		if err := b.Validate(); err != nil {
			issues = append(issues, dataIntegrity(fmt.Sprintf("recurring break %d ignored: %v", b.ID, err)))
			continue
		}
		out = append(out, Interval{Start: day.At(b.Start, loc), End: day.At(b.End, loc)})
	}
	return out, issues
}
