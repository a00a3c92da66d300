package booking

import (
	"context"
	"fmt"
	"strings"

	"github.com/ybieul/saas-barbearia/services/booking-service/internal/civil"
	"github.com/ybieul/saas-barbearia/services/booking-service/internal/model"
	"github.com/ybieul/saas-barbearia/services/booking-service/internal/notify"
)

var actions = map[string]model.Status{
	"confirm":  model.StatusConfirmed,
	"start":    model.StatusInProgress,
	"complete": model.StatusCompleted,
	"cancel":   model.StatusCancelled,
	"no-show":  model.StatusNoShow,
}

// ParseAction maps a URL action to the status it moves an appointment to.
func ParseAction(action string) (model.Status, error) {
	st, ok := actions[strings.ToLower(strings.TrimSpace(action))]
	if !ok {
		return "", invalid("unknown action %q", action)
	}
	return st, nil
}

type TransitionRequest struct {
	TenantID      string
	AppointmentID string
	Next          model.Status
	Reason        string
	// ProfessionalScope restricts the change to that professional's
	// appointments. Others look not found.
	ProfessionalScope string
}

// Transition moves an appointment along the status table. Repeating the
// current status is a no-op. Cancelling or marking a no-show frees the slot.
func (s *Service) Transition(ctx context.Context, req TransitionRequest) (model.Appointment, error) {
	if req.TenantID == "" || req.AppointmentID == "" {
		return model.Appointment{}, invalid("tenant and appointment are required")
	}
	if _, err := model.ParseStatus(string(req.Next)); err != nil {
		return model.Appointment{}, invalid("%v", err)
	}
	loc, err := s.location(ctx, req.TenantID)
	if err != nil {
		return model.Appointment{}, err
	}

	var prev model.Status
	appt, err := s.appts.UpdateAppointment(ctx, req.TenantID, req.AppointmentID, loc, func(a *model.Appointment) error {
		if req.ProfessionalScope != "" && a.ProfessionalID != req.ProfessionalScope {
			return ErrAppointmentNotFound
		}
		prev = a.Status
		if a.Status == req.Next {
			return nil
		}
		if !a.Status.CanTransition(req.Next) {
			return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, a.Status, req.Next)
		}
		a.Status = req.Next
		if req.Next == model.StatusCancelled {
			a.CancelReason = strings.TrimSpace(req.Reason)
		}
		a.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		return model.Appointment{}, upstream("update appointment", err)
	}
	if prev != appt.Status {
		s.dispatchAsync(ctx, notify.Event{
			Type:           notify.TopicAppointmentStatusChanged,
			PreviousStatus: string(prev),
			Reason:         appt.CancelReason,
		}, appt, loc)
	}
	return appt, nil
}

type ListQuery struct {
	TenantID       string
	ProfessionalID string
	// Date is optional; the zero value lists every day.
	Date   civil.Date
	Status model.Status
	Limit  int
}

func (s *Service) ListAppointments(ctx context.Context, q ListQuery) ([]model.Appointment, error) {
	if q.TenantID == "" {
		return nil, invalid("tenant is required")
	}
	if q.Status != "" {
		if _, err := model.ParseStatus(string(q.Status)); err != nil {
			return nil, invalid("%v", err)
		}
	}
	if q.Limit <= 0 || q.Limit > 200 {
		q.Limit = 50
	}
	loc, err := s.location(ctx, q.TenantID)
	if err != nil {
		return nil, err
	}
	f := AppointmentFilter{
		TenantID:       q.TenantID,
		ProfessionalID: q.ProfessionalID,
		Status:         q.Status,
		Limit:          q.Limit,
	}
	if !q.Date.IsZero() {
		f.From, f.To = q.Date.Bounds(loc)
	}
	appts, err := s.appts.List(ctx, f, loc)
	if err != nil {
		return nil, upstream("list appointments", err)
	}
	return appts, nil
}
