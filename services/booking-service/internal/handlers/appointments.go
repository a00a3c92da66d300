package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/ybieul/saas-barbearia/libs/httpx"
	"github.com/ybieul/saas-barbearia/services/booking-service/internal/booking"
	"github.com/ybieul/saas-barbearia/services/booking-service/internal/civil"
	"github.com/ybieul/saas-barbearia/services/booking-service/internal/model"
)

type actionRequest struct {
	Reason string `json:"reason"`
}

type listAppointmentsResponse struct {
	Appointments []appointmentItem `json:"appointments"`
}

// ListAppointments serves GET /api/v1/appointments. Professionals only see
// their own agenda.
func (h *Handler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	lq := booking.ListQuery{
		TenantID:       id.TenantID,
		ProfessionalID: strings.TrimSpace(q.Get("professional_id")),
		Status:         model.Status(strings.TrimSpace(q.Get("status"))),
	}
	if own := ownProfessional(id); own != "" {
		if lq.ProfessionalID != "" && lq.ProfessionalID != own {
			httpx.WriteError(w, http.StatusForbidden, "forbidden")
			return
		}
		lq.ProfessionalID = own
	}
	if raw := strings.TrimSpace(q.Get("date")); raw != "" {
		d, err := civil.ParseDate(raw)
		if err != nil {
			httpx.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		lq.Date = d
	}
	if raw := strings.TrimSpace(q.Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			httpx.WriteError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		lq.Limit = n
	}

	appts, err := h.svc.ListAppointments(r.Context(), lq)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	resp := listAppointmentsResponse{Appointments: make([]appointmentItem, 0, len(appts))}
	for _, a := range appts {
		resp.Appointments = append(resp.Appointments, toAppointment(a))
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// AppointmentAction serves POST /api/v1/appointments/{id}/{action}.
func (h *Handler) AppointmentAction(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	next, err := booking.ParseAction(r.PathValue("action"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	var body actionRequest
	if r.ContentLength != 0 {
		if err := httpx.DecodeJSON(r, &body); err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "invalid json body")
			return
		}
	}

	appt, err := h.svc.Transition(r.Context(), booking.TransitionRequest{
		TenantID:          id.TenantID,
		AppointmentID:     strings.TrimSpace(r.PathValue("id")),
		Next:              next,
		Reason:            strings.TrimSpace(body.Reason),
		ProfessionalScope: ownProfessional(id),
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toAppointment(appt))
}
