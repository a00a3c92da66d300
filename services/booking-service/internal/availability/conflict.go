package availability

import (
	"iter"
	"time"

	"github.com/ybieul/saas-barbearia/services/booking-service/internal/model"
)

const ReasonBooked = "booked"

// Slot is one candidate start time as shown to a client.
type Slot struct {
	Time      time.Time
	Available bool
	Reason    string
}

// BookedIntervals returns the intervals held by active appointments.
func BookedIntervals(appts []model.Appointment) []Interval {
	out := make([]Interval, 0, len(appts))
	for _, a := range appts {
		if !a.Status.Active() || a.Duration <= 0 {
			continue
		}
		out = append(out, Interval{Start: a.Start, End: a.End()})
	}
	return out
}

// MarkBooked marks each candidate unavailable when [t, t+duration) overlaps a
// booked interval. This is advisory; the commit path re-checks in the store.
func MarkBooked(candidates iter.Seq[time.Time], duration time.Duration, booked []Interval) []Slot {
	slots := []Slot{}
	for t := range candidates {
		s := Slot{Time: t, Available: true}
		if overlapsAny(Interval{Start: t, End: t.Add(duration)}, booked) {
			s.Available = false
			s.Reason = ReasonBooked
		}
		slots = append(slots, s)
	}
	return slots
}
