package booking_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/ybieul/saas-barbearia/services/booking-service/internal/availability"
	"github.com/ybieul/saas-barbearia/services/booking-service/internal/booking"
	"github.com/ybieul/saas-barbearia/services/booking-service/internal/booking/bookingtest"
	"github.com/ybieul/saas-barbearia/services/booking-service/internal/civil"
	"github.com/ybieul/saas-barbearia/services/booking-service/internal/model"
	"github.com/ybieul/saas-barbearia/services/booking-service/internal/notify"
)

const (
	tenantID = "tenant-1"
	haircut  = "svc-haircut"
	ana      = "pro-ana"
	bruno    = "pro-bruno"
	client1  = "client-1"
)

var monday = civil.Date{Year: 2026, Month: time.March, Day: 2}

type recorder struct {
	mu     sync.Mutex
	events []notify.Event
	err    error
}

func (r *recorder) Dispatch(_ context.Context, evt notify.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return r.err
}

func (r *recorder) all() []notify.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Event(nil), r.events...)
}

type fixture struct {
	store *bookingtest.Store
	svc   *booking.Service
	rec   *recorder
	loc   *time.Location
}

func morningCalendar(proID string) model.Calendar {
	return model.Calendar{
		ProfessionalID: proID,
		Rules: []model.WeeklyRule{
			{ID: 1, Weekday: time.Monday, Start: civil.NewClock(9, 0), End: civil.NewClock(12, 0), Active: true},
		},
	}
}

func newFixture(t *testing.T, opts ...booking.Option) *fixture {
	t.Helper()
	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)

	store := bookingtest.New()
	store.AddTenant(model.Tenant{ID: tenantID, Name: "Barbearia Central", Timezone: "America/Sao_Paulo", PlanTier: "pro"})
	store.AddService(model.Service{ID: haircut, TenantID: tenantID, Name: "Corte", Duration: 30 * time.Minute, Active: true})
	store.AddProfessional(model.Professional{ID: ana, TenantID: tenantID, Name: "Ana", Active: true}, haircut)
	store.AddClient(model.Client{ID: client1, TenantID: tenantID, Name: "Carlos", Phone: "+5511999990000"})
	store.SetCalendar(tenantID, morningCalendar(ana))

	rec := &recorder{}
	now := civil.Date{Year: 2026, Month: time.March, Day: 1}.At(civil.NewClock(12, 0), loc)
	base := []booking.Option{
		booking.WithClock(func() time.Time { return now }),
		booking.WithShuffle(func(int, func(i, j int)) {}),
	}
	svc := booking.NewService(booking.Deps{
		Directory:    store,
		Schedules:    store,
		Appointments: store,
		Locations:    store,
		Dispatcher:   rec,
	}, booking.Config{SlotStep: 30 * time.Minute}, append(base, opts...)...)
	return &fixture{store: store, svc: svc, rec: rec, loc: loc}
}

func (f *fixture) at(d civil.Date, h, m int) time.Time {
	return d.At(civil.NewClock(h, m), f.loc)
}

func (f *fixture) addBruno() {
	f.store.AddProfessional(model.Professional{ID: bruno, TenantID: tenantID, Name: "Bruno", Active: true}, haircut)
	f.store.SetCalendar(tenantID, morningCalendar(bruno))
}

func (f *fixture) book(t *testing.T, proID string, h, m int) model.Appointment {
	t.Helper()
	res, err := f.svc.Commit(context.Background(), booking.CommitRequest{
		TenantID:       tenantID,
		ProfessionalID: proID,
		ServiceID:      haircut,
		ClientID:       client1,
		Start:          civil.DateTime{Date: monday, Clock: civil.NewClock(h, m)},
	})
	require.NoError(t, err)
	return res.Appointment
}

func slotClocks(slots []availability.Slot, available bool) []string {
	var out []string
	for _, s := range slots {
		if s.Available == available {
			out = append(out, civil.ClockOf(s.Time).String())
		}
	}
	return out
}

func TestAvailabilityMondayScenario(t *testing.T) {
	f := newFixture(t)
	f.book(t, ana, 10, 0)

	res, err := f.svc.Availability(context.Background(), booking.AvailabilityQuery{
		TenantID: tenantID, ProfessionalID: ana, ServiceID: haircut, Date: monday,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "09:30", "10:30", "11:00", "11:30"}, slotClocks(res.Slots, true))
	assert.Equal(t, []string{"10:00"}, slotClocks(res.Slots, false))

	// A second booking at 10:00 for the same professional fails.
	_, err = f.svc.Commit(context.Background(), booking.CommitRequest{
		TenantID: tenantID, ProfessionalID: ana, ServiceID: haircut, ClientID: client1,
		Start: civil.DateTime{Date: monday, Clock: civil.NewClock(10, 0)},
	})
	assert.ErrorIs(t, err, booking.ErrSlotUnavailable)
}

func TestAvailabilityUnpinnedIsUnion(t *testing.T) {
	f := newFixture(t)
	f.addBruno()
	f.book(t, ana, 10, 0)

	res, err := f.svc.Availability(context.Background(), booking.AvailabilityQuery{
		TenantID: tenantID, ServiceID: haircut, Date: monday,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "09:30", "10:00", "10:30", "11:00", "11:30"}, slotClocks(res.Slots, true))

	f.book(t, bruno, 10, 0)
	res, err = f.svc.Availability(context.Background(), booking.AvailabilityQuery{
		TenantID: tenantID, ServiceID: haircut, Date: monday,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"10:00"}, slotClocks(res.Slots, false))
}

func TestAvailabilityErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Availability(ctx, booking.AvailabilityQuery{TenantID: tenantID, ServiceID: "nope", Date: monday})
	assert.ErrorIs(t, err, booking.ErrServiceNotFound)

	_, err = f.svc.Availability(ctx, booking.AvailabilityQuery{TenantID: tenantID, ServiceID: haircut, ProfessionalID: "ghost", Date: monday})
	assert.ErrorIs(t, err, booking.ErrProfessionalNotFound)

	_, err = f.svc.Availability(ctx, booking.AvailabilityQuery{TenantID: tenantID, ServiceID: haircut})
	assert.ErrorIs(t, err, booking.ErrInvalidInput)

	f.store.Err = errors.New("connection refused")
	_, err = f.svc.Availability(ctx, booking.AvailabilityQuery{TenantID: tenantID, ServiceID: haircut, Date: monday})
	assert.ErrorIs(t, err, booking.ErrUpstreamUnavailable)
}

func TestAvailabilityNoQualifiedProfessionals(t *testing.T) {
	f := newFixture(t)
	f.store.AddService(model.Service{ID: "svc-beard", TenantID: tenantID, Name: "Barba", Duration: 20 * time.Minute, Active: true})

	res, err := f.svc.Availability(context.Background(), booking.AvailabilityQuery{
		TenantID: tenantID, ServiceID: "svc-beard", Date: monday,
	})
	require.NoError(t, err)
	assert.Empty(t, res.Slots)
	assert.Equal(t, booking.MessageNoProfessionals, res.Message)
}

func TestAvailabilityDayOffAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	e, err := f.svc.CreateException(ctx, booking.ExceptionInput{
		TenantID:       tenantID,
		ProfessionalID: ana,
		Start:          civil.DateTime{Date: monday, Clock: 0},
		End:            civil.DateTime{Date: monday.AddDays(1), Clock: 0},
		Type:           model.ExceptionDayOff,
		Reason:         "holiday",
	})
	require.NoError(t, err)

	q := booking.AvailabilityQuery{TenantID: tenantID, ProfessionalID: ana, ServiceID: haircut, Date: monday}
	res, err := f.svc.Availability(ctx, q)
	require.NoError(t, err)
	assert.Empty(t, res.Slots)
	assert.Nil(t, res.WorkingHours)
	assert.Equal(t, availability.MessageDayOff, res.Message)

	listed, err := f.svc.ListExceptions(ctx, tenantID, ana, monday, monday)
	require.NoError(t, err)
	require.Len(t, listed, 1)

	require.NoError(t, f.svc.DeleteException(ctx, tenantID, ana, e.ID))
	assert.ErrorIs(t, f.svc.DeleteException(ctx, tenantID, ana, e.ID), booking.ErrExceptionNotFound)

	res, err = f.svc.Availability(ctx, q)
	require.NoError(t, err)
	assert.Len(t, res.Slots, 6)
}

func TestScheduleEditing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.PutWeeklyRule(ctx, tenantID, ana, model.WeeklyRule{
		Weekday: time.Monday, Start: civil.NewClock(14, 0), End: civil.NewClock(13, 0), Active: true,
	})
	assert.ErrorIs(t, err, booking.ErrInvalidInput)

	_, err = f.svc.PutWeeklyRule(ctx, tenantID, ana, model.WeeklyRule{
		Weekday: time.Monday, Start: civil.NewClock(8, 0), End: civil.NewClock(10, 0), Active: true,
	})
	require.NoError(t, err)

	_, err = f.svc.ReplaceBreaks(ctx, tenantID, ana, []model.RecurringBreak{{Start: civil.NewClock(9, 0), End: civil.NewClock(9, 30), Label: "coffee"}})
	require.NoError(t, err)

	cal, err := f.svc.Calendar(ctx, tenantID, ana)
	require.NoError(t, err)
	require.Len(t, cal.Rules, 1)
	require.Len(t, cal.Breaks, 1)

	res, err := f.svc.Availability(ctx, booking.AvailabilityQuery{TenantID: tenantID, ProfessionalID: ana, ServiceID: haircut, Date: monday})
	require.NoError(t, err)
	assert.Equal(t, []string{"08:00", "08:30", "09:30"}, slotClocks(res.Slots, true))

	_, err = f.svc.Calendar(ctx, tenantID, "ghost")
	assert.ErrorIs(t, err, booking.ErrProfessionalNotFound)
}

func TestCommitDispatchesBookedEvent(t *testing.T) {
	f := newFixture(t)
	appt := f.book(t, ana, 10, 30)
	f.svc.Drain()

	events := f.rec.all()
	require.Len(t, events, 1)
	evt := events[0]
	assert.Equal(t, notify.TopicAppointmentBooked, evt.Type)
	assert.Equal(t, appt.ID, evt.AppointmentID)
	assert.Equal(t, "2026-03-02T10:30", evt.Start)
	assert.Equal(t, "America/Sao_Paulo", evt.Timezone)
	assert.Equal(t, 30, evt.DurationMinutes)
	assert.Equal(t, "Carlos", evt.ClientName)
	assert.Equal(t, "Ana", evt.ProfessionalName)
	assert.Equal(t, "Barbearia Central", evt.TenantName)
}

func TestCommitSurvivesDispatchFailure(t *testing.T) {
	f := newFixture(t)
	f.rec.err = errors.New("broker down")
	f.book(t, ana, 9, 0)
	f.svc.Drain()
	assert.Len(t, f.store.Snapshot(), 1)
}

func TestCommitRejectsTimesOutsideSchedule(t *testing.T) {
	f := newFixture(t)
	cal := morningCalendar(ana)
	cal.Breaks = []model.RecurringBreak{{ID: 1, Start: civil.NewClock(10, 0), End: civil.NewClock(10, 15)}}
	f.store.SetCalendar(tenantID, cal)

	cases := map[string]civil.DateTime{
		"break":          {Date: monday, Clock: civil.NewClock(9, 50)},
		"after hours":    {Date: monday, Clock: civil.NewClock(11, 45)},
		"before opening": {Date: monday, Clock: civil.NewClock(8, 45)},
		"past":           {Date: civil.Date{Year: 2026, Month: time.February, Day: 23}, Clock: civil.NewClock(9, 0)},
		"no rule":        {Date: monday.AddDays(1), Clock: civil.NewClock(9, 0)},
	}
	for name, start := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.Commit(context.Background(), booking.CommitRequest{
				TenantID: tenantID, ProfessionalID: ana, ServiceID: haircut, ClientID: client1, Start: start,
			})
			assert.ErrorIs(t, err, booking.ErrSlotUnavailable)
		})
	}
	assert.Empty(t, f.store.Snapshot())

	// Off-grid times that fit are accepted.
	f.book(t, ana, 10, 15)
}

func TestCommitNotFound(t *testing.T) {
	f := newFixture(t)
	start := civil.DateTime{Date: monday, Clock: civil.NewClock(9, 0)}
	ctx := context.Background()

	_, err := f.svc.Commit(ctx, booking.CommitRequest{TenantID: tenantID, ServiceID: "nope", ClientID: client1, Start: start})
	assert.ErrorIs(t, err, booking.ErrServiceNotFound)

	_, err = f.svc.Commit(ctx, booking.CommitRequest{TenantID: tenantID, ServiceID: haircut, ClientID: "nope", Start: start})
	assert.ErrorIs(t, err, booking.ErrClientNotFound)

	_, err = f.svc.Commit(ctx, booking.CommitRequest{TenantID: tenantID, ServiceID: haircut, ProfessionalID: "nope", ClientID: client1, Start: start})
	assert.ErrorIs(t, err, booking.ErrProfessionalNotFound)

	_, err = f.svc.Commit(ctx, booking.CommitRequest{TenantID: tenantID, ServiceID: haircut, Start: start})
	assert.ErrorIs(t, err, booking.ErrInvalidInput)
}

func TestCommitNewClientIsCreated(t *testing.T) {
	f := newFixture(t)
	res, err := f.svc.Commit(context.Background(), booking.CommitRequest{
		TenantID:  tenantID,
		ServiceID: haircut,
		NewClient: &booking.ClientDetails{Name: " Joana ", Phone: "+5511988887777"},
		Start:     civil.DateTime{Date: monday, Clock: civil.NewClock(9, 0)},
	})
	require.NoError(t, err)
	c, err := f.store.Client(context.Background(), tenantID, res.Appointment.ClientID)
	require.NoError(t, err)
	assert.Equal(t, "Joana", c.Name)
}

func TestCommitConcurrentSameSlot(t *testing.T) {
	f := newFixture(t)
	const n = 16

	var (
		wg        sync.WaitGroup
		successes int
		conflicts int
		mu        sync.Mutex
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Commit(context.Background(), booking.CommitRequest{
				TenantID: tenantID, ProfessionalID: ana, ServiceID: haircut, ClientID: client1,
				Start: civil.DateTime{Date: monday, Clock: civil.NewClock(10, 0)},
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, booking.ErrSlotUnavailable):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, successes)
	assert.Equal(t, n-1, conflicts)
	assert.Len(t, f.store.Snapshot(), 1)
}

func TestCommitPicksLeastLoadedProfessional(t *testing.T) {
	f := newFixture(t)
	f.addBruno()
	f.book(t, ana, 9, 0)

	res, err := f.svc.Commit(context.Background(), booking.CommitRequest{
		TenantID: tenantID, ServiceID: haircut, ClientID: client1,
		Start: civil.DateTime{Date: monday, Clock: civil.NewClock(11, 0)},
	})
	require.NoError(t, err)
	assert.Equal(t, bruno, res.Appointment.ProfessionalID)
}

func TestCommitTieBreakUsesShuffle(t *testing.T) {
	reverse := func(n int, swap func(i, j int)) {
		for i := 0; i < n/2; i++ {
			swap(i, n-1-i)
		}
	}
	f := newFixture(t, booking.WithShuffle(reverse))
	f.addBruno()

	res, err := f.svc.Commit(context.Background(), booking.CommitRequest{
		TenantID: tenantID, ServiceID: haircut, ClientID: client1,
		Start: civil.DateTime{Date: monday, Clock: civil.NewClock(11, 0)},
	})
	require.NoError(t, err)
	assert.Equal(t, bruno, res.Appointment.ProfessionalID)
}

func TestCommitFallsBackWhenChosenProfessionalIsTaken(t *testing.T) {
	f := newFixture(t)
	f.addBruno()
	f.store.CommitHook = func(p booking.CommitParams) error {
		if p.Appointment.ProfessionalID == ana {
			return booking.ErrSlotUnavailable
		}
		return nil
	}

	start := civil.DateTime{Date: monday, Clock: civil.NewClock(10, 0)}
	res, err := f.svc.Commit(context.Background(), booking.CommitRequest{
		TenantID: tenantID, ServiceID: haircut, ClientID: client1, Start: start,
	})
	require.NoError(t, err)
	assert.Equal(t, bruno, res.Appointment.ProfessionalID)
	assert.Equal(t, "10:00", civil.ClockOf(res.Appointment.Start).String())

	// A pinned request is never moved to someone else.
	_, err = f.svc.Commit(context.Background(), booking.CommitRequest{
		TenantID: tenantID, ProfessionalID: ana, ServiceID: haircut, ClientID: client1,
		Start: civil.DateTime{Date: monday, Clock: civil.NewClock(11, 0)},
	})
	assert.ErrorIs(t, err, booking.ErrSlotUnavailable)
}

func TestCommitSpanRecordsFinalOutcome(t *testing.T) {
	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	f := newFixture(t, booking.WithTracer(tp.Tracer("test")))
	f.addBruno()
	f.store.CommitHook = func(p booking.CommitParams) error {
		if p.Appointment.ProfessionalID == ana {
			return booking.ErrSlotUnavailable
		}
		return nil
	}

	_, err := f.svc.Commit(context.Background(), booking.CommitRequest{
		TenantID: tenantID, ServiceID: haircut, ClientID: client1,
		Start: civil.DateTime{Date: monday, Clock: civil.NewClock(10, 0)},
	})
	require.NoError(t, err)

	_, err = f.svc.Commit(context.Background(), booking.CommitRequest{
		TenantID: tenantID, ProfessionalID: ana, ServiceID: haircut, ClientID: client1,
		Start: civil.DateTime{Date: monday, Clock: civil.NewClock(11, 0)},
	})
	require.ErrorIs(t, err, booking.ErrSlotUnavailable)

	var statuses []codes.Code
	for _, s := range spans.Ended() {
		if s.Name() == "booking.commit" {
			statuses = append(statuses, s.Status().Code)
		}
	}
	assert.Equal(t, []codes.Code{codes.Unset, codes.Error}, statuses)
}

func TestCommitIdempotencyReplay(t *testing.T) {
	f := newFixture(t)
	req := booking.CommitRequest{
		TenantID: tenantID, ProfessionalID: ana, ServiceID: haircut, ClientID: client1,
		Start:          civil.DateTime{Date: monday, Clock: civil.NewClock(9, 30)},
		IdempotencyKey: "key-123",
	}
	first, err := f.svc.Commit(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, first.Replayed)

	second, err := f.svc.Commit(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, second.Replayed)
	assert.Equal(t, first.Appointment.ID, second.Appointment.ID)

	f.svc.Drain()
	assert.Len(t, f.rec.all(), 1)
	assert.Len(t, f.store.Snapshot(), 1)
}

func TestCommitPlanLimit(t *testing.T) {
	f := newFixture(t)
	f.store.AddTenant(model.Tenant{ID: tenantID, Name: "Barbearia Central", Timezone: "America/Sao_Paulo", PlanTier: "free"})
	for i := 0; i < 200; i++ {
		f.store.AddAppointment(model.Appointment{
			ID: fmt.Sprintf("old-%d", i), TenantID: tenantID, ProfessionalID: "pro-other",
			Start:    f.at(civil.Date{Year: 2026, Month: time.March, Day: 10}, 0, 0).Add(time.Duration(i) * time.Hour),
			Duration: 30 * time.Minute, Status: model.StatusCompleted,
		})
	}
	// Completed appointments do not count.
	f.book(t, ana, 9, 0)

	for i := 0; i < 199; i++ {
		f.store.AddAppointment(model.Appointment{
			ID: fmt.Sprintf("busy-%d", i), TenantID: tenantID, ProfessionalID: "pro-other",
			Start:    f.at(civil.Date{Year: 2026, Month: time.March, Day: 20}, 0, 0).Add(time.Duration(i) * time.Hour),
			Duration: 30 * time.Minute, Status: model.StatusScheduled,
		})
	}
	_, err := f.svc.Commit(context.Background(), booking.CommitRequest{
		TenantID: tenantID, ProfessionalID: ana, ServiceID: haircut, ClientID: client1,
		Start: civil.DateTime{Date: monday, Clock: civil.NewClock(11, 0)},
	})
	assert.ErrorIs(t, err, booking.ErrPlanLimitReached)
}

func TestTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	appt := f.book(t, ana, 10, 0)

	confirmed, err := f.svc.Transition(ctx, booking.TransitionRequest{TenantID: tenantID, AppointmentID: appt.ID, Next: model.StatusConfirmed})
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, confirmed.Status)
	f.svc.Drain()

	_, err = f.svc.Transition(ctx, booking.TransitionRequest{TenantID: tenantID, AppointmentID: appt.ID, Next: model.StatusCompleted})
	assert.ErrorIs(t, err, booking.ErrInvalidTransition)

	_, err = f.svc.Transition(ctx, booking.TransitionRequest{TenantID: tenantID, AppointmentID: appt.ID, Next: model.StatusCancelled, ProfessionalScope: bruno})
	assert.ErrorIs(t, err, booking.ErrAppointmentNotFound)

	cancelled, err := f.svc.Transition(ctx, booking.TransitionRequest{TenantID: tenantID, AppointmentID: appt.ID, Next: model.StatusCancelled, Reason: "client sick", ProfessionalScope: ana})
	require.NoError(t, err)
	assert.Equal(t, "client sick", cancelled.CancelReason)

	// Repeating the same status is a no-op without a new event.
	_, err = f.svc.Transition(ctx, booking.TransitionRequest{TenantID: tenantID, AppointmentID: appt.ID, Next: model.StatusCancelled})
	require.NoError(t, err)

	_, err = f.svc.Transition(ctx, booking.TransitionRequest{TenantID: tenantID, AppointmentID: "missing", Next: model.StatusCancelled})
	assert.ErrorIs(t, err, booking.ErrAppointmentNotFound)

	// The cancelled slot is free again.
	f.book(t, ana, 10, 0)

	f.svc.Drain()
	var changes []notify.Event
	for _, e := range f.rec.all() {
		if e.Type == notify.TopicAppointmentStatusChanged {
			changes = append(changes, e)
		}
	}
	require.Len(t, changes, 2)
	assert.Equal(t, "scheduled", changes[0].PreviousStatus)
	assert.Equal(t, "confirmed", changes[1].PreviousStatus)
	assert.Equal(t, "cancelled", changes[1].Status)
	assert.Equal(t, "Carlos", changes[1].ClientName)
}

func TestParseAction(t *testing.T) {
	st, err := booking.ParseAction("no-show")
	require.NoError(t, err)
	assert.Equal(t, model.StatusNoShow, st)

	_, err = booking.ParseAction("reopen")
	assert.ErrorIs(t, err, booking.ErrInvalidInput)
}

func TestListAppointments(t *testing.T) {
	f := newFixture(t)
	f.addBruno()
	f.book(t, ana, 11, 0)
	f.book(t, bruno, 9, 0)
	f.book(t, ana, 9, 30)

	all, err := f.svc.ListAppointments(context.Background(), booking.ListQuery{TenantID: tenantID, Date: monday})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, bruno, all[0].ProfessionalID)

	mine, err := f.svc.ListAppointments(context.Background(), booking.ListQuery{TenantID: tenantID, ProfessionalID: ana})
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	none, err := f.svc.ListAppointments(context.Background(), booking.ListQuery{TenantID: tenantID, Date: monday.AddDays(1)})
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = f.svc.ListAppointments(context.Background(), booking.ListQuery{TenantID: tenantID, Status: "weird"})
	assert.ErrorIs(t, err, booking.ErrInvalidInput)
}

// Random booking attempts through the service never leave two active
// appointments of one professional overlapping, and every attempt the
// availability view showed as free for a pinned professional succeeds.
func TestRandomCommitsKeepNoOverlap(t *testing.T) {
	f := newFixture(t)
	f.addBruno()
	ctx := context.Background()
	rng := rand.New(rand.NewPCG(1, 2))

	for i := 0; i < 60; i++ {
		req := booking.CommitRequest{
			TenantID:  tenantID,
			ServiceID: haircut,
			ClientID:  client1,
			Start:     civil.DateTime{Date: monday, Clock: civil.NewClock(9, 0) + civil.Clock(10*rng.IntN(18))},
		}
		if rng.IntN(2) == 0 {
			req.ProfessionalID = []string{ana, bruno}[rng.IntN(2)]
		}

		var free bool
		if req.ProfessionalID != "" && req.Start.Clock%30 == 0 {
			res, err := f.svc.Availability(ctx, booking.AvailabilityQuery{
				TenantID: tenantID, ProfessionalID: req.ProfessionalID, ServiceID: haircut, Date: monday,
			})
			require.NoError(t, err)
			for _, s := range res.Slots {
				if s.Available && civil.ClockOf(s.Time) == req.Start.Clock {
					free = true
				}
			}
		}

		_, err := f.svc.Commit(ctx, req)
		if err != nil {
			require.ErrorIs(t, err, booking.ErrSlotUnavailable)
			require.False(t, free, "availability showed %s free for %s", req.Start, req.ProfessionalID)
		}
	}

	byPro := map[string][]availability.Interval{}
	for _, a := range f.store.Snapshot() {
		byPro[a.ProfessionalID] = append(byPro[a.ProfessionalID], availability.Interval{Start: a.Start, End: a.End()})
	}
	for pro, ivs := range byPro {
		for i := range ivs {
			for j := i + 1; j < len(ivs); j++ {
				require.False(t, ivs[i].Overlaps(ivs[j]), "%s has overlapping appointments", pro)
			}
		}
	}
}
