package handlers

import (
	"time"

	"github.com/ybieul/saas-barbearia/services/booking-service/internal/availability"
	"github.com/ybieul/saas-barbearia/services/booking-service/internal/civil"
	"github.com/ybieul/saas-barbearia/services/booking-service/internal/model"
)

type window struct {
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

type slotItem struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

type availabilityResponse struct {
	Date         string     `json:"date"`
	DayOfWeek    int        `json:"dayOfWeek"`
	WorkingHours *window    `json:"workingHours"`
	Slots        []slotItem `json:"slots"`
	Message      string     `json:"message,omitempty"`
}

func toAvailability(date civil.Date, res availability.Result) availabilityResponse {
	out := availabilityResponse{
		Date:      date.String(),
		DayOfWeek: int(date.Weekday()),
		Slots:     make([]slotItem, 0, len(res.Slots)),
		Message:   res.Message,
	}
	if res.WorkingHours != nil {
		out.WorkingHours = &window{StartTime: res.WorkingHours.Start.String(), EndTime: res.WorkingHours.End.String()}
	}
	for _, s := range res.Slots {
		out.Slots = append(out.Slots, slotItem{
			Time:      civil.ClockOf(s.Time).String(),
			Available: s.Available,
			Reason:    s.Reason,
		})
	}
	return out
}

type appointmentItem struct {
	ID              string `json:"id"`
	ProfessionalID  string `json:"professionalId"`
	ServiceID       string `json:"serviceId"`
	ClientID        string `json:"clientId"`
	Start           string `json:"start"`
	End             string `json:"end"`
	DurationMinutes int    `json:"durationMinutes"`
	Status          string `json:"status"`
	CancelReason    string `json:"cancelReason,omitempty"`
}

func toAppointment(a model.Appointment) appointmentItem {
	loc := a.Start.Location()
	return appointmentItem{
		ID:              a.ID,
		ProfessionalID:  a.ProfessionalID,
		ServiceID:       a.ServiceID,
		ClientID:        a.ClientID,
		Start:           civil.FormatLocal(a.Start, loc),
		End:             civil.FormatLocal(a.End(), loc),
		DurationMinutes: int(a.Duration / time.Minute),
		Status:          string(a.Status),
		CancelReason:    a.CancelReason,
	}
}

type weeklyRuleItem struct {
	ID        int64  `json:"id"`
	DayOfWeek int    `json:"dayOfWeek"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	IsActive  bool   `json:"isActive"`
}

type breakItem struct {
	ID        int64  `json:"id,omitempty"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Label     string `json:"label,omitempty"`
}

type calendarResponse struct {
	ProfessionalID string           `json:"professionalId"`
	WeeklyRules    []weeklyRuleItem `json:"weeklyRules"`
	Breaks         []breakItem      `json:"breaks"`
}

func toRule(r model.WeeklyRule) weeklyRuleItem {
	return weeklyRuleItem{
		ID:        r.ID,
		DayOfWeek: int(r.Weekday),
		StartTime: r.Start.String(),
		EndTime:   r.End.String(),
		IsActive:  r.Active,
	}
}

func toBreaks(in []model.RecurringBreak) []breakItem {
	out := make([]breakItem, 0, len(in))
	for _, b := range in {
		out = append(out, breakItem{ID: b.ID, StartTime: b.Start.String(), EndTime: b.End.String(), Label: b.Label})
	}
	return out
}

func toCalendar(cal model.Calendar) calendarResponse {
	out := calendarResponse{
		ProfessionalID: cal.ProfessionalID,
		WeeklyRules:    make([]weeklyRuleItem, 0, len(cal.Rules)),
		Breaks:         toBreaks(cal.Breaks),
	}
	for _, r := range cal.Rules {
		out.WeeklyRules = append(out.WeeklyRules, toRule(r))
	}
	return out
}

type exceptionItem struct {
	ID             string `json:"id"`
	ProfessionalID string `json:"professionalId"`
	Start          string `json:"startDatetime"`
	End            string `json:"endDatetime"`
	Type           string `json:"type"`
	Reason         string `json:"reason,omitempty"`
}

func toException(e model.ScheduleException) exceptionItem {
	loc := e.Start.Location()
	return exceptionItem{
		ID:             e.ID,
		ProfessionalID: e.ProfessionalID,
		Start:          civil.FormatLocal(e.Start, loc),
		End:            civil.FormatLocal(e.End, loc),
		Type:           string(e.Type),
		Reason:         e.Reason,
	}
}
