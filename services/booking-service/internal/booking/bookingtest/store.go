// Package bookingtest provides an in-memory implementation of the booking
// ports for tests. Commits are serialized by a mutex, which gives the same
// guarantee the database gets from its per-professional lock.
package bookingtest

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ybieul/saas-barbearia/services/booking-service/internal/availability"
	"github.com/ybieul/saas-barbearia/services/booking-service/internal/booking"
	"github.com/ybieul/saas-barbearia/services/booking-service/internal/model"
)

type Store struct {
	mu            sync.Mutex
	tenants       map[string]model.Tenant
	professionals map[string]model.Professional
	services      map[string]model.Service
	offers        map[string][]string
	clients       map[string]model.Client
	calendars     map[string]model.Calendar
	exceptions    []model.ScheduleException
	appointments  []model.Appointment
	idempotency   map[string]string
	nextRuleID    int64

	// CommitHook runs inside the commit critical section before the overlap
	// check. A non-nil error aborts the commit.
	CommitHook func(p booking.CommitParams) error
	// Err, when set, is returned by every read.
	Err error
}

func New() *Store {
	return &Store{
		tenants:       map[string]model.Tenant{},
		professionals: map[string]model.Professional{},
		services:      map[string]model.Service{},
		offers:        map[string][]string{},
		clients:       map[string]model.Client{},
		calendars:     map[string]model.Calendar{},
		idempotency:   map[string]string{},
	}
}

var (
	_ booking.Directory    = (*Store)(nil)
	_ booking.Schedules    = (*Store)(nil)
	_ booking.Appointments = (*Store)(nil)
	_ booking.Locations    = (*Store)(nil)
)

func key(tenantID, id string) string { return tenantID + "/" + id }

func (s *Store) AddTenant(t model.Tenant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tenants[t.ID] = t
}

// AddProfessional registers p as offering serviceIDs.
func (s *Store) AddProfessional(p model.Professional, serviceIDs ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.professionals[key(p.TenantID, p.ID)] = p
	for _, id := range serviceIDs {
		s.offers[key(p.TenantID, id)] = append(s.offers[key(p.TenantID, id)], p.ID)
	}
}

func (s *Store) AddService(svc model.Service) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.services[key(svc.TenantID, svc.ID)] = svc
}

func (s *Store) AddClient(c model.Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[key(c.TenantID, c.ID)] = c
}

func (s *Store) SetCalendar(tenantID string, cal model.Calendar) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calendars[key(tenantID, cal.ProfessionalID)] = cal
}

func (s *Store) AddAppointment(a model.Appointment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appointments = append(s.appointments, a)
}

// Snapshot returns every stored appointment.
func (s *Store) Snapshot() []model.Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.appointments)
}

func (s *Store) Tenant(_ context.Context, tenantID string) (model.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return model.Tenant{}, s.Err
	}
	t, ok := s.tenants[tenantID]
	if !ok {
		return model.Tenant{}, booking.ErrTenantNotFound
	}
	return t, nil
}

func (s *Store) Location(ctx context.Context, tenantID string) (*time.Location, error) {
	t, err := s.Tenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return time.LoadLocation(t.Timezone)
}

func (s *Store) Service(_ context.Context, tenantID, serviceID string) (model.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return model.Service{}, s.Err
	}
	svc, ok := s.services[key(tenantID, serviceID)]
	if !ok {
		return model.Service{}, booking.ErrServiceNotFound
	}
	return svc, nil
}

func (s *Store) Professional(_ context.Context, tenantID, professionalID string) (model.Professional, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return model.Professional{}, s.Err
	}
	p, ok := s.professionals[key(tenantID, professionalID)]
	if !ok {
		return model.Professional{}, booking.ErrProfessionalNotFound
	}
	return p, nil
}

func (s *Store) QualifiedProfessionals(_ context.Context, tenantID, serviceID string) ([]model.Professional, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var out []model.Professional
	for _, id := range s.offers[key(tenantID, serviceID)] {
		if p := s.professionals[key(tenantID, id)]; p.Active {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b model.Professional) int { return strings.Compare(a.ID, b.ID) })
	return out, nil
}

func (s *Store) Client(_ context.Context, tenantID, clientID string) (model.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return model.Client{}, s.Err
	}
	c, ok := s.clients[key(tenantID, clientID)]
	if !ok {
		return model.Client{}, booking.ErrClientNotFound
	}
	return c, nil
}

func (s *Store) EnsureClient(_ context.Context, tenantID, name, phone string) (model.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.clients {
		if c.TenantID == tenantID && c.Phone == phone {
			return c, nil
		}
	}
	c := model.Client{ID: uuid.NewString(), TenantID: tenantID, Name: name, Phone: phone}
	s.clients[key(tenantID, c.ID)] = c
	return c, nil
}

func (s *Store) Calendar(_ context.Context, tenantID, professionalID string) (model.Calendar, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return model.Calendar{}, s.Err
	}
	cal := s.calendars[key(tenantID, professionalID)]
	cal.ProfessionalID = professionalID
	cal.Rules = slices.Clone(cal.Rules)
	cal.Breaks = slices.Clone(cal.Breaks)
	return cal, nil
}

func (s *Store) Exceptions(_ context.Context, tenantID, professionalID string, from, to time.Time, loc *time.Location) ([]model.ScheduleException, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	span := availability.Interval{Start: from, End: to}
	var out []model.ScheduleException
	for _, e := range s.exceptions {
		if e.TenantID != tenantID || e.ProfessionalID != professionalID {
			continue
		}
		if (availability.Interval{Start: e.Start, End: e.End}).Overlaps(span) {
			e.Start, e.End = e.Start.In(loc), e.End.In(loc)
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Store) PutWeeklyRule(_ context.Context, tenantID, professionalID string, rule model.WeeklyRule) (model.WeeklyRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(tenantID, professionalID)
	cal := s.calendars[k]
	cal.ProfessionalID = professionalID
	s.nextRuleID++
	rule.ID = s.nextRuleID
	cal.Rules = slices.DeleteFunc(cal.Rules, func(r model.WeeklyRule) bool { return r.Weekday == rule.Weekday })
	cal.Rules = append(cal.Rules, rule)
	s.calendars[k] = cal
	return rule, nil
}

func (s *Store) ReplaceBreaks(_ context.Context, tenantID, professionalID string, breaks []model.RecurringBreak) ([]model.RecurringBreak, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(tenantID, professionalID)
	cal := s.calendars[k]
	cal.ProfessionalID = professionalID
	cal.Breaks = make([]model.RecurringBreak, 0, len(breaks))
	for i, b := range breaks {
		b.ID = int64(i + 1)
		cal.Breaks = append(cal.Breaks, b)
	}
	s.calendars[k] = cal
	return slices.Clone(cal.Breaks), nil
}

func (s *Store) CreateException(_ context.Context, e model.ScheduleException) (model.ScheduleException, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exceptions = append(s.exceptions, e)
	return e, nil
}

func (s *Store) DeleteException(_ context.Context, tenantID, professionalID, exceptionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.exceptions)
	s.exceptions = slices.DeleteFunc(s.exceptions, func(e model.ScheduleException) bool {
		return e.TenantID == tenantID && e.ProfessionalID == professionalID && e.ID == exceptionID
	})
	if len(s.exceptions) == n {
		return booking.ErrExceptionNotFound
	}
	return nil
}

func (s *Store) ActiveBetween(_ context.Context, tenantID, professionalID string, from, to time.Time, loc *time.Location) ([]model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	span := availability.Interval{Start: from, End: to}
	var out []model.Appointment
	for _, a := range s.appointments {
		if a.TenantID != tenantID || a.ProfessionalID != professionalID || !a.Status.Active() {
			continue
		}
		if (availability.Interval{Start: a.Start, End: a.End()}).Overlaps(span) {
			a.Start = a.Start.In(loc)
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *Store) FindByIdempotencyKey(_ context.Context, tenantID, k string, loc *time.Location) (model.Appointment, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.idempotency[key(tenantID, k)]
	if !ok {
		return model.Appointment{}, false, nil
	}
	for _, a := range s.appointments {
		if a.ID == id {
			a.Start = a.Start.In(loc)
			return a, true, nil
		}
	}
	return model.Appointment{}, false, nil
}

func (s *Store) CommitAppointment(_ context.Context, p booking.CommitParams, loc *time.Location) (booking.CommitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	appt := p.Appointment
	if p.IdempotencyKey != "" {
		if id, ok := s.idempotency[key(appt.TenantID, p.IdempotencyKey)]; ok {
			for _, a := range s.appointments {
				if a.ID == id {
					a.Start = a.Start.In(loc)
					return booking.CommitResult{Appointment: a, Replayed: true}, nil
				}
			}
		}
	}
	if s.CommitHook != nil {
		if err := s.CommitHook(p); err != nil {
			return booking.CommitResult{}, err
		}
	}

	want := availability.Interval{Start: appt.Start, End: appt.End()}
	monthly := 0
	for _, a := range s.appointments {
		if a.TenantID != appt.TenantID || !a.Status.Active() {
			continue
		}
		if a.ProfessionalID == appt.ProfessionalID && (availability.Interval{Start: a.Start, End: a.End()}).Overlaps(want) {
			return booking.CommitResult{}, fmt.Errorf("%w: overlaps appointment %s", booking.ErrSlotUnavailable, a.ID)
		}
		if !a.Start.Before(p.MonthStart) && a.Start.Before(p.MonthEnd) {
			monthly++
		}
	}
	if p.MonthlyLimit > 0 && monthly >= p.MonthlyLimit {
		return booking.CommitResult{}, booking.ErrPlanLimitReached
	}

	s.appointments = append(s.appointments, appt)
	if p.IdempotencyKey != "" {
		s.idempotency[key(appt.TenantID, p.IdempotencyKey)] = appt.ID
	}
	appt.Start = appt.Start.In(loc)
	return booking.CommitResult{Appointment: appt}, nil
}

func (s *Store) UpdateAppointment(_ context.Context, tenantID, appointmentID string, loc *time.Location, fn func(*model.Appointment) error) (model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, a := range s.appointments {
		if a.TenantID != tenantID || a.ID != appointmentID {
			continue
		}
		a.Start = a.Start.In(loc)
		if err := fn(&a); err != nil {
			return model.Appointment{}, err
		}
		s.appointments[i].Status = a.Status
		s.appointments[i].CancelReason = a.CancelReason
		s.appointments[i].UpdatedAt = a.UpdatedAt
		return a, nil
	}
	return model.Appointment{}, booking.ErrAppointmentNotFound
}

func (s *Store) List(_ context.Context, f booking.AppointmentFilter, loc *time.Location) ([]model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var out []model.Appointment
	for _, a := range s.appointments {
		switch {
		case a.TenantID != f.TenantID,
			f.ProfessionalID != "" && a.ProfessionalID != f.ProfessionalID,
			f.Status != "" && a.Status != f.Status,
			!f.From.IsZero() && a.Start.Before(f.From),
			!f.To.IsZero() && !a.Start.Before(f.To):
			continue
		}
		a.Start = a.Start.In(loc)
		out = append(out, a)
	}
	slices.SortFunc(out, func(a, b model.Appointment) int { return a.Start.Compare(b.Start) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}
