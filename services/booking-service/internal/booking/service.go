// Package booking orchestrates availability queries, booking commits and
// appointment lifecycle changes on top of the availability engine and the
// stores behind its ports.
package booking

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	otelx "github.com/ybieul/saas-barbearia/libs/otel"
	"github.com/ybieul/saas-barbearia/services/booking-service/internal/availability"
	"github.com/ybieul/saas-barbearia/services/booking-service/internal/civil"
	"github.com/ybieul/saas-barbearia/services/booking-service/internal/model"
)

const MessageNoProfessionals = "no professional offers this service"

type Config struct {
	// SlotStep is the grid between candidate start times.
	SlotStep time.Duration
	// LoadConcurrency bounds parallel per-professional loads.
	LoadConcurrency int
	DispatchTimeout time.Duration
}

type Deps struct {
	Directory    Directory
	Schedules    Schedules
	Appointments Appointments
	Locations    Locations
	Dispatcher   Dispatcher
	Logger       *slog.Logger
}

type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithShuffle replaces the tie-break shuffle used when picking a professional.
func WithShuffle(shuffle func(n int, swap func(i, j int))) Option {
	return func(s *Service) { s.shuffle = shuffle }
}

// WithTracer replaces the package tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) { s.tracer = tracer }
}

type Service struct {
	dir      Directory
	sched    Schedules
	appts    Appointments
	locs     Locations
	dispatch Dispatcher
	logger   *slog.Logger
	cfg      Config
	now      func() time.Time
	shuffle  func(n int, swap func(i, j int))
	tracer   trace.Tracer
	inflight sync.WaitGroup
}

func NewService(deps Deps, cfg Config, opts ...Option) *Service {
	if cfg.SlotStep <= 0 {
		cfg.SlotStep = 30 * time.Minute
	}
	if cfg.LoadConcurrency <= 0 {
		cfg.LoadConcurrency = 4
	}
	if cfg.DispatchTimeout <= 0 {
		cfg.DispatchTimeout = 5 * time.Second
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		dir:      deps.Directory,
		sched:    deps.Schedules,
		appts:    deps.Appointments,
		locs:     deps.Locations,
		dispatch: deps.Dispatcher,
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
		shuffle:  rand.Shuffle,
		tracer:   otelx.Tracer("booking-service/booking"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Drain waits for in-flight notification dispatches.
func (s *Service) Drain() {
	s.inflight.Wait()
}

type AvailabilityQuery struct {
	TenantID string
	// ProfessionalID is optional. When empty every qualified professional is
	// considered and the per-slot results are unioned.
	ProfessionalID string
	ServiceID      string
	Date           civil.Date
}

func (s *Service) Availability(ctx context.Context, q AvailabilityQuery) (res availability.Result, err error) {
	ctx, span := s.tracer.Start(ctx, "booking.availability", trace.WithAttributes(
		attribute.String("tenant_id", q.TenantID),
		attribute.String("service_id", q.ServiceID),
		attribute.String("professional_id", q.ProfessionalID),
		attribute.String("date", q.Date.String()),
	))
	defer func() { endSpan(span, err) }()

	if q.TenantID == "" || q.ServiceID == "" || q.Date.IsZero() {
		return availability.Result{}, invalid("tenant, service and date are required")
	}
	loc, err := s.location(ctx, q.TenantID)
	if err != nil {
		return availability.Result{}, err
	}
	svc, err := s.activeService(ctx, q.TenantID, q.ServiceID)
	if err != nil {
		return availability.Result{}, err
	}
	pros, err := s.professionalsFor(ctx, q.TenantID, svc.ID, q.ProfessionalID)
	if err != nil {
		return availability.Result{}, err
	}
	if len(pros) == 0 {
		return availability.Result{Date: q.Date, Slots: []availability.Slot{}, Message: MessageNoProfessionals}, nil
	}

	inputs, err := s.loadDay(ctx, q.TenantID, pros, q.Date, loc, svc.Duration)
	if err != nil {
		return availability.Result{}, err
	}
	results := make([]availability.Result, len(inputs))
	for i, in := range inputs {
		results[i] = availability.Compute(in)
		s.logIssues(q.TenantID, pros[i].ID, results[i].Issues)
	}
	span.SetAttributes(attribute.Int("professionals", len(pros)))
	if q.ProfessionalID != "" {
		return results[0], nil
	}
	return availability.Union(results), nil
}

// loadDay fetches, for each professional, everything Compute needs. Results
// keep the order of pros.
func (s *Service) loadDay(ctx context.Context, tenantID string, pros []model.Professional, day civil.Date, loc *time.Location, duration time.Duration) ([]availability.Input, error) {
	from, to := day.Bounds(loc)
	now := s.now()
	inputs := make([]availability.Input, len(pros))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.LoadConcurrency)
	for i, p := range pros {
		g.Go(func() error {
			cal, err := s.sched.Calendar(gctx, tenantID, p.ID)
			if err != nil {
				return upstream("load calendar", err)
			}
			exceptions, err := s.sched.Exceptions(gctx, tenantID, p.ID, from, to, loc)
			if err != nil {
				return upstream("load exceptions", err)
			}
			appts, err := s.appts.ActiveBetween(gctx, tenantID, p.ID, from, to, loc)
			if err != nil {
				return upstream("load appointments", err)
			}
			inputs[i] = availability.Input{
				Day:          day,
				Location:     loc,
				Now:          now,
				Calendar:     cal,
				Exceptions:   exceptions,
				Appointments: appts,
				Duration:     duration,
				Step:         s.cfg.SlotStep,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return inputs, nil
}

func (s *Service) location(ctx context.Context, tenantID string) (*time.Location, error) {
	loc, err := s.locs.Location(ctx, tenantID)
	if err != nil {
		return nil, upstream("resolve tenant timezone", err)
	}
	return loc, nil
}

func (s *Service) activeService(ctx context.Context, tenantID, serviceID string) (model.Service, error) {
	svc, err := s.dir.Service(ctx, tenantID, serviceID)
	if err != nil {
		return model.Service{}, upstream("load service", err)
	}
	if !svc.Active {
		return model.Service{}, ErrServiceNotFound
	}
	if svc.Duration <= 0 {
		s.logIssues(tenantID, "", []availability.Issue{{Kind: availability.IssueDataIntegrity, Detail: "service " + svc.ID + " has no duration"}})
		return model.Service{}, invalid("service %s has no duration", svc.ID)
	}
	return svc, nil
}

// professionalsFor returns the qualified professionals, or only the pinned
// one. A pinned professional that does not offer the service is not found.
func (s *Service) professionalsFor(ctx context.Context, tenantID, serviceID, pinned string) ([]model.Professional, error) {
	pros, err := s.dir.QualifiedProfessionals(ctx, tenantID, serviceID)
	if err != nil {
		return nil, upstream("list professionals", err)
	}
	if pinned == "" {
		return pros, nil
	}
	for _, p := range pros {
		if p.ID == pinned {
			return []model.Professional{p}, nil
		}
	}
	return nil, ErrProfessionalNotFound
}

func (s *Service) logIssues(tenantID, professionalID string, issues []availability.Issue) {
	for _, is := range issues {
		s.logger.Warn("scheduling data issue",
			"tenant_id", tenantID,
			"professional_id", professionalID,
			"kind", string(is.Kind),
			"detail", is.Detail,
		)
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
