package booking

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ybieul/saas-barbearia/services/booking-service/internal/civil"
	"github.com/ybieul/saas-barbearia/services/booking-service/internal/model"
	"github.com/ybieul/saas-barbearia/services/booking-service/internal/notify"
)

// dispatchAsync completes evt from appt and hands it to the dispatcher in the
// background. The request context is detached so a finished request does not
// cancel delivery; failures are only logged.
func (s *Service) dispatchAsync(ctx context.Context, evt notify.Event, appt model.Appointment, loc *time.Location) {
	if s.dispatch == nil {
		return
	}
	evt.ID = uuid.NewString()
	evt.TenantID = appt.TenantID
	evt.AppointmentID = appt.ID
	evt.ProfessionalID = appt.ProfessionalID
	evt.ServiceID = appt.ServiceID
	evt.ClientID = appt.ClientID
	evt.Start = civil.FormatLocal(appt.Start, loc)
	evt.Timezone = loc.String()
	evt.DurationMinutes = int(appt.Duration / time.Minute)
	evt.Status = string(appt.Status)
	evt.OccurredAt = s.now().UTC()

	detached := context.WithoutCancel(ctx)
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		ctx, cancel := context.WithTimeout(detached, s.cfg.DispatchTimeout)
		defer cancel()

		s.enrich(ctx, &evt)
		if err := s.dispatch.Dispatch(ctx, evt); err != nil {
			s.logger.Error("notification dispatch failed",
				"err", err,
				"event_type", evt.Type,
				"tenant_id", evt.TenantID,
				"appointment_id", evt.AppointmentID,
			)
		}
	}()
}

// enrich fills display names the caller did not have at hand.
func (s *Service) enrich(ctx context.Context, evt *notify.Event) {
	if evt.TenantName == "" {
		if t, err := s.dir.Tenant(ctx, evt.TenantID); err == nil {
			evt.TenantName = t.Name
		}
	}
	if evt.ProfessionalName == "" {
		if p, err := s.dir.Professional(ctx, evt.TenantID, evt.ProfessionalID); err == nil {
			evt.ProfessionalName = p.Name
		}
	}
	if evt.ServiceName == "" {
		if svc, err := s.dir.Service(ctx, evt.TenantID, evt.ServiceID); err == nil {
			evt.ServiceName = svc.Name
		}
	}
	if evt.ClientName == "" || evt.ClientPhone == "" {
		if c, err := s.dir.Client(ctx, evt.TenantID, evt.ClientID); err == nil {
			evt.ClientName = c.Name
			evt.ClientPhone = c.Phone
		}
	}
}
