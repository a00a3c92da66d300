package booking

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ybieul/saas-barbearia/services/booking-service/internal/availability"
	"github.com/ybieul/saas-barbearia/services/booking-service/internal/civil"
	"github.com/ybieul/saas-barbearia/services/booking-service/internal/entitlements"
	"github.com/ybieul/saas-barbearia/services/booking-service/internal/model"
	"github.com/ybieul/saas-barbearia/services/booking-service/internal/notify"
)

type ClientDetails struct {
	Name  string
	Phone string
}

type CommitRequest struct {
	TenantID string
	// ProfessionalID is optional; empty lets the service pick one.
	ProfessionalID string
	ServiceID      string
	// Either ClientID or NewClient identifies the client.
	ClientID       string
	NewClient      *ClientDetails
	Start          civil.DateTime
	IdempotencyKey string
}

type candidate struct {
	pro  model.Professional
	load int
}

// Commit books req.Start for one professional. The schedule is re-validated
// here and the store performs the authoritative overlap check. For unpinned
// requests, another qualified professional is tried at the same time when the
// store reports the slot taken; the requested time itself never changes.
func (s *Service) Commit(ctx context.Context, req CommitRequest) (res CommitResult, err error) {
	ctx, span := s.tracer.Start(ctx, "booking.commit", trace.WithAttributes(
		attribute.String("tenant_id", req.TenantID),
		attribute.String("service_id", req.ServiceID),
		attribute.String("professional_id", req.ProfessionalID),
		attribute.String("start", req.Start.String()),
	))
	defer func() { endSpan(span, err) }()

	if req.TenantID == "" || req.ServiceID == "" || req.Start.Date.IsZero() {
		return CommitResult{}, invalid("tenant, service and start are required")
	}
	if req.ClientID == "" {
		if req.NewClient == nil || strings.TrimSpace(req.NewClient.Name) == "" || strings.TrimSpace(req.NewClient.Phone) == "" {
			return CommitResult{}, invalid("client id or client name and phone are required")
		}
	}

	loc, err := s.location(ctx, req.TenantID)
	if err != nil {
		return CommitResult{}, err
	}
	key := strings.TrimSpace(req.IdempotencyKey)
	if key != "" {
		appt, ok, lerr := s.appts.FindByIdempotencyKey(ctx, req.TenantID, key, loc)
		if lerr != nil {
			return CommitResult{}, upstream("lookup idempotency key", lerr)
		}
		if ok {
			return CommitResult{Appointment: appt, Replayed: true}, nil
		}
	}

	tenant, err := s.dir.Tenant(ctx, req.TenantID)
	if err != nil {
		return CommitResult{}, upstream("load tenant", err)
	}
	svc, err := s.activeService(ctx, req.TenantID, req.ServiceID)
	if err != nil {
		return CommitResult{}, err
	}
	var client model.Client
	if req.ClientID != "" {
		if client, err = s.dir.Client(ctx, req.TenantID, req.ClientID); err != nil {
			return CommitResult{}, upstream("load client", err)
		}
	}
	pros, err := s.professionalsFor(ctx, req.TenantID, svc.ID, req.ProfessionalID)
	if err != nil {
		return CommitResult{}, err
	}
	if len(pros) == 0 {
		return CommitResult{}, fmt.Errorf("%w: %s", ErrSlotUnavailable, MessageNoProfessionals)
	}

	start := req.Start.In(loc)
	cands, reason, err := s.fittingCandidates(ctx, req.TenantID, pros, req.Start.Date, loc, svc.Duration, start)
	if err != nil {
		return CommitResult{}, err
	}
	if len(cands) == 0 {
		return CommitResult{}, fmt.Errorf("%w: %s", ErrSlotUnavailable, reason)
	}

	if req.ClientID == "" {
		name, phone := strings.TrimSpace(req.NewClient.Name), strings.TrimSpace(req.NewClient.Phone)
		if client, err = s.dir.EnsureClient(ctx, req.TenantID, name, phone); err != nil {
			return CommitResult{}, upstream("ensure client", err)
		}
	}

	limits := entitlements.LimitsForTier(tenant.PlanTier)
	monthStart, monthEnd := req.Start.Date.MonthBounds(loc)
	pinned := req.ProfessionalID != ""

	var lastErr error
	for _, c := range cands {
		now := s.now()
		params := CommitParams{
			Appointment: model.Appointment{
				ID:             uuid.NewString(),
				TenantID:       req.TenantID,
				ProfessionalID: c.pro.ID,
				ServiceID:      svc.ID,
				ClientID:       client.ID,
				Start:          start,
				Duration:       svc.Duration,
				Status:         model.StatusScheduled,
				CreatedAt:      now,
				UpdatedAt:      now,
			},
			IdempotencyKey: key,
			MonthlyLimit:   limits.MaxMonthlyAppointments,
			MonthStart:     monthStart,
			MonthEnd:       monthEnd,
		}
		out, cerr := s.appts.CommitAppointment(ctx, params, loc)
		switch {
		case cerr == nil:
			span.SetAttributes(attribute.String("appointment_id", out.Appointment.ID))
			if !out.Replayed {
				s.dispatchAsync(ctx, notify.Event{
					Type:             notify.TopicAppointmentBooked,
					TenantName:       tenant.Name,
					ProfessionalName: c.pro.Name,
					ServiceName:      svc.Name,
					ClientName:       client.Name,
					ClientPhone:      client.Phone,
				}, out.Appointment, loc)
			}
			return out, nil
		case errors.Is(cerr, ErrSlotUnavailable) && !pinned:
			s.logger.Info("slot taken concurrently, trying next professional",
				"tenant_id", req.TenantID, "professional_id", c.pro.ID, "start", req.Start.String())
			lastErr = cerr
		default:
			return CommitResult{}, upstream("commit appointment", cerr)
		}
	}
	return CommitResult{}, lastErr
}

// fittingCandidates returns the professionals whose schedule accepts start,
// least loaded first with ties in random order. When none fits, reason
// explains the rejection of the last one checked.
func (s *Service) fittingCandidates(ctx context.Context, tenantID string, pros []model.Professional, day civil.Date, loc *time.Location, duration time.Duration, start time.Time) ([]candidate, string, error) {
	inputs, err := s.loadDay(ctx, tenantID, pros, day, loc, duration)
	if err != nil {
		return nil, "", err
	}
	var (
		out    []candidate
		reason string
	)
	for i, in := range inputs {
		ok, why := availability.Check(in, start)
		if !ok {
			reason = why
			continue
		}
		out = append(out, candidate{pro: pros[i], load: len(availability.BookedIntervals(in.Appointments))})
	}
	s.shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	slices.SortStableFunc(out, func(a, b candidate) int { return cmp.Compare(a.load, b.load) })
	return out, reason, nil
}
