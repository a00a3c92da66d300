package availability

import (
	"time"

	"github.com/ybieul/saas-barbearia/services/booking-service/internal/civil"
	"github.com/ybieul/saas-barbearia/services/booking-service/internal/model"
)

// Messages returned with an empty or partial result.
const (
	MessageNoWorkingHours = "no working hours on this day"
	MessageDayOff         = "day off"
	MessageNoSlots        = "no available slots"
	MessageInvalidInput   = "availability could not be computed"
)

// Reasons a specific start time is rejected by Check.
const (
	ReasonPast         = "in the past"
	ReasonOutsideHours = "outside working hours"
	ReasonBlocked      = "blocked"
)

// Input is everything needed to compute one professional's day.
type Input struct {
	Day          civil.Date
	Location     *time.Location
	Now          time.Time
	Calendar     model.Calendar
	Exceptions   []model.ScheduleException
	Appointments []model.Appointment
	Duration     time.Duration
	Step         time.Duration
}

type Result struct {
	Date         civil.Date
	WorkingHours *Window
	Slots        []Slot
	Message      string
	Issues       []Issue
}

type plan struct {
	window Interval
	busy   []Interval
	booked []Interval
}

// prepare runs the resolver and the exception overlay. When the day has no
// availability it returns false with res.Message set.
func prepare(in Input) (plan, Result, bool) {
	res := Result{Date: in.Day, Slots: []Slot{}}
	if in.Location == nil || in.Duration <= 0 || in.Step <= 0 {
		res.Message = MessageInvalidInput
		return plan{}, res, false
	}

	win, ok, issues := ResolveWindow(in.Calendar, in.Day)
	res.Issues = append(res.Issues, issues...)
	if !ok {
		res.Message = MessageNoWorkingHours
		return plan{}, res, false
	}
	window := Interval{Start: in.Day.At(win.Start, in.Location), End: in.Day.At(win.End, in.Location)}

	overlay, issues := ApplyExceptions(window, in.Day, in.Location, in.Exceptions)
	res.Issues = append(res.Issues, issues...)
	if overlay.DayOff {
		res.Message = MessageDayOff
		return plan{}, res, false
	}
	res.WorkingHours = &win

	breaks, issues := breaksOn(in.Day, in.Location, in.Calendar.Breaks)
	res.Issues = append(res.Issues, issues...)

	return plan{
		window: window,
		busy:   append(overlay.Blocks, breaks...),
		booked: BookedIntervals(in.Appointments),
	}, res, true
}

// Compute runs the full pipeline for one professional. It never fails: an
// unusable day yields no slots and an explanatory message.
func Compute(in Input) Result {
	p, res, ok := prepare(in)
	if !ok {
		return res
	}
	candidates := Candidates(Params{
		Window:    p.window,
		Busy:      p.busy,
		Step:      in.Step,
		Duration:  in.Duration,
		NotBefore: in.Now.In(in.Location),
	})
	res.Slots = MarkBooked(candidates, in.Duration, p.booked)
	if _, ok := res.FirstAvailable(); !ok {
		res.Message = MessageNoSlots
	}
	return res
}

// Check decides whether an appointment may start at start. Unlike Compute it
// accepts any start inside the window, not only grid points.
func Check(in Input, start time.Time) (bool, string) {
	p, res, ok := prepare(in)
	if !ok {
		return false, res.Message
	}
	candidate := Interval{Start: start, End: start.Add(in.Duration)}
	switch {
	case start.Before(in.Now):
		return false, ReasonPast
	case !p.window.Contains(candidate):
		return false, ReasonOutsideHours
	case overlapsAny(candidate, Merge(p.busy)):
		return false, ReasonBlocked
	case overlapsAny(candidate, p.booked):
		return false, ReasonBooked
	}
	return true, ""
}
