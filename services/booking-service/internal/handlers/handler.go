// Package handlers exposes the booking service over HTTP. JSON bodies use
// camelCase; every date and time is a wall-clock value in the tenant's zone.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/ybieul/saas-barbearia/libs/auth"
	"github.com/ybieul/saas-barbearia/libs/httpx"
	"github.com/ybieul/saas-barbearia/services/booking-service/internal/booking"
)

const idempotencyHeader = "Idempotency-Key"

type Handler struct {
	svc    *booking.Service
	logger *slog.Logger
}

func New(svc *booking.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

// Register mounts every route on mux. public wraps the unauthenticated
// booking routes and authed wraps the rest; either may be nil.
func (h *Handler) Register(mux *http.ServeMux, public, authed httpx.Middleware) {
	wrap := func(m httpx.Middleware, fn http.HandlerFunc) http.Handler {
		if m == nil {
			return fn
		}
		return m(fn)
	}

	mux.Handle("GET /api/v1/public/{tenantID}/availability", wrap(public, h.PublicAvailability))
	mux.Handle("POST /api/v1/public/{tenantID}/bookings", wrap(public, h.PublicBook))

	mux.Handle("GET /api/v1/availability", wrap(authed, h.Availability))
	mux.Handle("POST /api/v1/bookings", wrap(authed, h.Book))
	mux.Handle("GET /api/v1/appointments", wrap(authed, h.ListAppointments))
	mux.Handle("POST /api/v1/appointments/{id}/{action}", wrap(authed, h.AppointmentAction))

	mux.Handle("GET /api/v1/professionals/{id}/calendar", wrap(authed, h.Calendar))
	mux.Handle("PUT /api/v1/professionals/{id}/weekly-rules/{weekday}", wrap(authed, h.PutWeeklyRule))
	mux.Handle("PUT /api/v1/professionals/{id}/breaks", wrap(authed, h.ReplaceBreaks))
	mux.Handle("GET /api/v1/professionals/{id}/exceptions", wrap(authed, h.ListExceptions))
	mux.Handle("POST /api/v1/professionals/{id}/exceptions", wrap(authed, h.CreateException))
	mux.Handle("DELETE /api/v1/professionals/{id}/exceptions/{exceptionID}", wrap(authed, h.DeleteException))
}

func identity(w http.ResponseWriter, r *http.Request) (httpx.Identity, bool) {
	id, ok := httpx.IdentityFromContext(r.Context())
	if !ok || id.TenantID == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthenticated")
		return httpx.Identity{}, false
	}
	return id, true
}

// manager resolves the caller and checks it may edit professionalID.
func manager(w http.ResponseWriter, r *http.Request, professionalID string) (httpx.Identity, bool) {
	id, ok := identity(w, r)
	if !ok {
		return id, false
	}
	if !id.CanManageProfessional(professionalID) {
		httpx.WriteError(w, http.StatusForbidden, "forbidden")
		return id, false
	}
	return id, true
}

// ownProfessional is the professional a staff caller is confined to, or ""
// for owners and admins.
func ownProfessional(id httpx.Identity) string {
	if id.Role == auth.RoleProfessional {
		return id.ProfessionalID
	}
	return ""
}

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, booking.ErrSlotUnavailable):
		httpx.WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, booking.ErrInvalidTransition):
		httpx.WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, booking.ErrPlanLimitReached):
		httpx.WriteError(w, http.StatusPaymentRequired, err.Error())
	case errors.Is(err, booking.ErrInvalidInput):
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, booking.ErrTenantNotFound),
		errors.Is(err, booking.ErrServiceNotFound),
		errors.Is(err, booking.ErrProfessionalNotFound),
		errors.Is(err, booking.ErrClientNotFound),
		errors.Is(err, booking.ErrAppointmentNotFound),
		errors.Is(err, booking.ErrExceptionNotFound):
		httpx.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, booking.ErrUpstreamUnavailable):
		h.logger.ErrorContext(r.Context(), "upstream failure", "path", r.URL.Path, "err", err)
		httpx.WriteError(w, http.StatusServiceUnavailable, "service temporarily unavailable")
	default:
		h.logger.ErrorContext(r.Context(), "unhandled error", "path", r.URL.Path, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}
