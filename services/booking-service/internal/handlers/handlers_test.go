package handlers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ybieul/saas-barbearia/libs/auth"
	"github.com/ybieul/saas-barbearia/libs/httpx"
	"github.com/ybieul/saas-barbearia/services/booking-service/internal/booking"
	"github.com/ybieul/saas-barbearia/services/booking-service/internal/booking/bookingtest"
	"github.com/ybieul/saas-barbearia/services/booking-service/internal/civil"
	"github.com/ybieul/saas-barbearia/services/booking-service/internal/handlers"
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

type env struct {
	store *bookingtest.Store
	svc   *booking.Service
	loc   *time.Location
}

func newEnv(t *testing.T) *env {
	t.Helper()
	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)

	store := bookingtest.New()
	store.AddTenant(model.Tenant{ID: tenantID, Name: "Barbearia Central", Timezone: "America/Sao_Paulo", PlanTier: "pro"})
	store.AddService(model.Service{ID: haircut, TenantID: tenantID, Name: "Corte", Duration: 30 * time.Minute, Active: true})
	store.AddClient(model.Client{ID: client1, TenantID: tenantID, Name: "Carlos", Phone: "+5511999990000"})
	for _, p := range []model.Professional{
		{ID: ana, TenantID: tenantID, Name: "Ana", Active: true},
		{ID: bruno, TenantID: tenantID, Name: "Bruno", Active: true},
	} {
		store.AddProfessional(p, haircut)
		store.SetCalendar(tenantID, model.Calendar{
			ProfessionalID: p.ID,
			Rules: []model.WeeklyRule{
				{ID: 1, Weekday: time.Monday, Start: civil.NewClock(9, 0), End: civil.NewClock(12, 0), Active: true},
			},
		})
	}

	now := civil.Date{Year: 2026, Month: time.March, Day: 1}.At(civil.NewClock(12, 0), loc)
	svc := booking.NewService(booking.Deps{
		Directory:    store,
		Schedules:    store,
		Appointments: store,
		Locations:    store,
		Dispatcher:   notify.Noop{},
	}, booking.Config{},
		booking.WithClock(func() time.Time { return now }),
		booking.WithShuffle(func(int, func(i, j int)) {}),
	)
	t.Cleanup(svc.Drain)
	return &env{store: store, svc: svc, loc: loc}
}

// as stands in for RequireAuth, injecting a fixed caller.
func as(id httpx.Identity) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(httpx.ContextWithIdentity(r.Context(), id)))
		})
	}
}

var (
	owner    = httpx.Identity{UserID: "u-owner", TenantID: tenantID, Role: auth.RoleOwner}
	staffAna = httpx.Identity{UserID: "u-ana", TenantID: tenantID, Role: auth.RoleProfessional, ProfessionalID: ana}
)

func (e *env) mux(caller httpx.Identity) *http.ServeMux {
	mux := http.NewServeMux()
	handlers.New(e.svc, nil).Register(mux, nil, as(caller))
	return mux
}

func do(t *testing.T, h http.Handler, method, target string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func (e *env) seed(proID string, h int, status model.Status) model.Appointment {
	a := model.Appointment{
		ID:             proID + "-appt",
		TenantID:       tenantID,
		ProfessionalID: proID,
		ServiceID:      haircut,
		ClientID:       client1,
		Start:          monday.At(civil.NewClock(h, 0), e.loc),
		Duration:       30 * time.Minute,
		Status:         status,
	}
	e.store.AddAppointment(a)
	return a
}

func golden(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestPublicAvailability(t *testing.T) {
	e := newEnv(t)
	e.seed(ana, 10, model.StatusScheduled)
	mux := e.mux(owner)

	rec := do(t, mux, http.MethodGet, "/api/v1/public/tenant-1/availability?service_id=svc-haircut&date=2026-03-02&professional_id=pro-ana", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	golden(t).Assert(t, "availability_monday", rec.Body.Bytes())

	rec = do(t, mux, http.MethodGet, "/api/v1/public/tenant-1/availability?service_id=svc-haircut&date=2026-03-03", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	golden(t).Assert(t, "availability_no_hours", rec.Body.Bytes())
}

func TestAvailabilityUnionAcrossProfessionals(t *testing.T) {
	e := newEnv(t)
	e.seed(ana, 10, model.StatusScheduled)

	rec := do(t, e.mux(owner), http.MethodGet, "/api/v1/availability?service_id=svc-haircut&date=2026-03-02", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Slots []struct {
			Time      string `json:"time"`
			Available bool   `json:"available"`
		} `json:"slots"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Slots, 6)
	for _, s := range body.Slots {
		assert.True(t, s.Available, s.Time)
	}
}

func TestAvailabilityErrors(t *testing.T) {
	e := newEnv(t)
	mux := e.mux(owner)

	cases := []struct {
		name   string
		target string
		code   int
	}{
		{"bad date", "/api/v1/public/tenant-1/availability?service_id=svc-haircut&date=02/03/2026", http.StatusBadRequest},
		{"missing service", "/api/v1/public/tenant-1/availability?date=2026-03-02", http.StatusBadRequest},
		{"unknown service", "/api/v1/public/tenant-1/availability?service_id=nope&date=2026-03-02", http.StatusNotFound},
		{"unknown tenant", "/api/v1/public/other/availability?service_id=svc-haircut&date=2026-03-02", http.StatusNotFound},
		{"unknown professional", "/api/v1/availability?service_id=svc-haircut&date=2026-03-02&professional_id=ghost", http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, mux, http.MethodGet, tc.target, nil)
			assert.Equal(t, tc.code, rec.Code, rec.Body.String())
		})
	}
}

func TestAvailabilityUpstreamFailure(t *testing.T) {
	e := newEnv(t)
	e.store.Err = errors.New("connection refused")

	rec := do(t, e.mux(owner), http.MethodGet, "/api/v1/availability?service_id=svc-haircut&date=2026-03-02", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestPublicBooking(t *testing.T) {
	e := newEnv(t)
	mux := e.mux(owner)
	body := map[string]any{
		"serviceId":      "svc-haircut",
		"professionalId": "pro-ana",
		"client":         map[string]string{"name": "Joana", "phone": "+5511988887777"},
		"start":          "2026-03-02T09:30",
	}

	rec := do(t, mux, http.MethodPost, "/api/v1/public/tenant-1/bookings", body, "Idempotency-Key", "k-1")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		ID              string `json:"id"`
		ProfessionalID  string `json:"professionalId"`
		Start           string `json:"start"`
		End             string `json:"end"`
		DurationMinutes int    `json:"durationMinutes"`
		Status          string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "pro-ana", created.ProfessionalID)
	assert.Equal(t, "2026-03-02T09:30", created.Start)
	assert.Equal(t, "2026-03-02T10:00", created.End)
	assert.Equal(t, 30, created.DurationMinutes)
	assert.Equal(t, "scheduled", created.Status)

	rec = do(t, mux, http.MethodPost, "/api/v1/public/tenant-1/bookings", body, "Idempotency-Key", "k-1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "true", rec.Header().Get("Idempotent-Replayed"))
	assert.Contains(t, rec.Body.String(), created.ID)

	rec = do(t, mux, http.MethodPost, "/api/v1/public/tenant-1/bookings", body, "Idempotency-Key", "k-2")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "slot unavailable")
	assert.Len(t, e.store.Snapshot(), 1)
}

func TestPublicBookingRejections(t *testing.T) {
	e := newEnv(t)
	mux := e.mux(owner)
	const target = "/api/v1/public/tenant-1/bookings"

	rec := do(t, mux, http.MethodPost, target, map[string]any{
		"serviceId": "svc-haircut", "clientId": client1, "start": "2026-03-02T09:00",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, mux, http.MethodPost, target, map[string]any{
		"serviceId": "svc-haircut", "start": "2026-03-02T09:00",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, mux, http.MethodPost, target, map[string]any{
		"serviceId": "svc-haircut", "client": map[string]string{"name": "Joana", "phone": "1"}, "start": "2026-03-02 09:00",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, mux, http.MethodPost, target, map[string]any{"unexpected": true})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Outside working hours is a conflict with the schedule, not bad input.
	rec = do(t, mux, http.MethodPost, target, map[string]any{
		"serviceId": "svc-haircut", "client": map[string]string{"name": "Joana", "phone": "1"}, "start": "2026-03-02T13:00",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Empty(t, e.store.Snapshot())
}

func TestBookingPlanLimit(t *testing.T) {
	e := newEnv(t)
	e.store.CommitHook = func(booking.CommitParams) error { return booking.ErrPlanLimitReached }

	rec := do(t, e.mux(owner), http.MethodPost, "/api/v1/bookings", map[string]any{
		"serviceId": "svc-haircut", "professionalId": ana, "clientId": client1, "start": "2026-03-02T09:00",
	})
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
}

func TestStaffBookingScope(t *testing.T) {
	e := newEnv(t)
	mux := e.mux(staffAna)

	rec := do(t, mux, http.MethodPost, "/api/v1/bookings", map[string]any{
		"serviceId": "svc-haircut", "professionalId": bruno, "clientId": client1, "start": "2026-03-02T09:00",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, mux, http.MethodPost, "/api/v1/bookings", map[string]any{
		"serviceId": "svc-haircut", "clientId": client1, "start": "2026-03-02T09:00",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"professionalId":"pro-ana"`)
}

func TestAppointmentActions(t *testing.T) {
	e := newEnv(t)
	appt := e.seed(bruno, 9, model.StatusScheduled)
	mux := e.mux(owner)
	target := "/api/v1/appointments/" + appt.ID

	rec := do(t, mux, http.MethodPost, target+"/confirm", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"status":"confirmed"`)

	rec = do(t, mux, http.MethodPost, target+"/cancel", map[string]string{"reason": "client called"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"cancelReason":"client called"`)

	rec = do(t, mux, http.MethodPost, target+"/complete", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, mux, http.MethodPost, target+"/teleport", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, mux, http.MethodPost, "/api/v1/appointments/missing/confirm", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Another professional's appointment is invisible to staff.
	rec = do(t, e.mux(staffAna), http.MethodPost, target+"/confirm", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListAppointments(t *testing.T) {
	e := newEnv(t)
	e.seed(ana, 9, model.StatusScheduled)
	e.seed(bruno, 10, model.StatusConfirmed)

	rec := do(t, e.mux(owner), http.MethodGet, "/api/v1/appointments?date=2026-03-02", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Appointments []struct {
			ID    string `json:"id"`
			Start string `json:"start"`
		} `json:"appointments"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Appointments, 2)
	assert.Equal(t, "2026-03-02T09:00", body.Appointments[0].Start)

	rec = do(t, e.mux(staffAna), http.MethodGet, "/api/v1/appointments", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Appointments, 1)
	assert.Equal(t, "pro-ana-appt", body.Appointments[0].ID)

	rec = do(t, e.mux(staffAna), http.MethodGet, "/api/v1/appointments?professional_id=pro-bruno", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, e.mux(owner), http.MethodGet, "/api/v1/appointments?limit=zero", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScheduleEditing(t *testing.T) {
	e := newEnv(t)
	mux := e.mux(owner)

	rec := do(t, mux, http.MethodPut, "/api/v1/professionals/pro-ana/weekly-rules/2", map[string]any{
		"startTime": "13:00", "endTime": "24:00",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"endTime":"24:00"`)
	assert.Contains(t, rec.Body.String(), `"isActive":true`)

	rec = do(t, mux, http.MethodPut, "/api/v1/professionals/pro-ana/weekly-rules/7", map[string]any{
		"startTime": "13:00", "endTime": "18:00",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, mux, http.MethodPut, "/api/v1/professionals/pro-ana/weekly-rules/2", map[string]any{
		"startTime": "18:00", "endTime": "13:00",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, mux, http.MethodPut, "/api/v1/professionals/pro-ana/breaks", map[string]any{
		"breaks": []map[string]string{{"startTime": "10:00", "endTime": "10:30", "label": "coffee"}},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, mux, http.MethodGet, "/api/v1/professionals/pro-ana/calendar", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"label":"coffee"`)
	assert.Contains(t, rec.Body.String(), `"dayOfWeek":2`)

	rec = do(t, mux, http.MethodGet, "/api/v1/public/tenant-1/availability?service_id=svc-haircut&date=2026-03-02&professional_id=pro-ana", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), `"time":"10:00"`)

	rec = do(t, e.mux(staffAna), http.MethodPut, "/api/v1/professionals/pro-bruno/breaks", map[string]any{"breaks": []any{}})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestExceptions(t *testing.T) {
	e := newEnv(t)
	mux := e.mux(staffAna)

	rec := do(t, mux, http.MethodPost, "/api/v1/professionals/pro-ana/exceptions", map[string]any{
		"startDatetime": "2026-03-02T00:00", "endDatetime": "2026-03-03T00:00", "type": "DAY_OFF", "reason": "vacation",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		ID   string `json:"id"`
		Type string `json:"type"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "day_off", created.Type)

	rec = do(t, mux, http.MethodGet, "/api/v1/public/tenant-1/availability?service_id=svc-haircut&date=2026-03-02&professional_id=pro-ana", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"message":"day off"`)
	assert.Contains(t, rec.Body.String(), `"workingHours":null`)

	rec = do(t, mux, http.MethodGet, "/api/v1/professionals/pro-ana/exceptions?from=2026-03-01&to=2026-03-07", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), created.ID)

	rec = do(t, mux, http.MethodGet, "/api/v1/professionals/pro-ana/exceptions?from=2026-03-07&to=2026-03-01", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, mux, http.MethodPost, "/api/v1/professionals/pro-ana/exceptions", map[string]any{
		"startDatetime": "2026-03-02T12:00", "endDatetime": "2026-03-02T11:00", "type": "block",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, mux, http.MethodDelete, "/api/v1/professionals/pro-ana/exceptions/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, mux, http.MethodDelete, "/api/v1/professionals/pro-ana/exceptions/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, mux, http.MethodPost, "/api/v1/professionals/pro-bruno/exceptions", map[string]any{
		"startDatetime": "2026-03-02T09:00", "endDatetime": "2026-03-02T10:00", "type": "block",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestUnauthenticated(t *testing.T) {
	e := newEnv(t)
	mux := http.NewServeMux()
	handlers.New(e.svc, nil).Register(mux, nil, nil)

	rec := do(t, mux, http.MethodGet, "/api/v1/appointments", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
