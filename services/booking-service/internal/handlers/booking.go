package handlers

import (
	"net/http"
	"strings"

	"github.com/ybieul/saas-barbearia/libs/httpx"
	"github.com/ybieul/saas-barbearia/services/booking-service/internal/booking"
	"github.com/ybieul/saas-barbearia/services/booking-service/internal/civil"
)

type clientBody struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type createBookingRequest struct {
	ServiceID      string      `json:"serviceId"`
	ProfessionalID string      `json:"professionalId"`
	ClientID       string      `json:"clientId"`
	Client         *clientBody `json:"client"`
	Start          string      `json:"start"`
}

// PublicBook lets a client book without an account. The client is always
// identified by name and phone; client ids are not accepted.
func (h *Handler) PublicBook(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeBooking(w, r)
	if !ok {
		return
	}
	if req.ClientID != "" {
		httpx.WriteError(w, http.StatusBadRequest, "clientId is not accepted on public bookings")
		return
	}
	if req.Client == nil {
		httpx.WriteError(w, http.StatusBadRequest, "client name and phone are required")
		return
	}
	tenantID := strings.TrimSpace(r.PathValue("tenantID"))
	httpx.AddLogFields(r.Context(), "tenant_id", tenantID)
	h.book(w, r, tenantID, req)
}

// Book serves staff bookings. Professionals may only book into their own
// agenda and are pinned to it when no professional is given.
func (h *Handler) Book(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	req, ok := decodeBooking(w, r)
	if !ok {
		return
	}
	if own := ownProfessional(id); own != "" && req.ProfessionalID == "" {
		req.ProfessionalID = own
	}
	if req.ProfessionalID != "" && !id.CanManageProfessional(req.ProfessionalID) {
		httpx.WriteError(w, http.StatusForbidden, "forbidden")
		return
	}
	h.book(w, r, id.TenantID, req)
}

func decodeBooking(w http.ResponseWriter, r *http.Request) (createBookingRequest, bool) {
	var req createBookingRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid json body")
		return req, false
	}
	req.ServiceID = strings.TrimSpace(req.ServiceID)
	req.ProfessionalID = strings.TrimSpace(req.ProfessionalID)
	req.ClientID = strings.TrimSpace(req.ClientID)
	return req, true
}

func (h *Handler) book(w http.ResponseWriter, r *http.Request, tenantID string, req createBookingRequest) {
	start, err := civil.ParseDateTime(strings.TrimSpace(req.Start))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	cr := booking.CommitRequest{
		TenantID:       tenantID,
		ProfessionalID: req.ProfessionalID,
		ServiceID:      req.ServiceID,
		ClientID:       req.ClientID,
		Start:          start,
		IdempotencyKey: strings.TrimSpace(r.Header.Get(idempotencyHeader)),
	}
	if req.Client != nil {
		cr.NewClient = &booking.ClientDetails{
			Name:  strings.TrimSpace(req.Client.Name),
			Phone: strings.TrimSpace(req.Client.Phone),
		}
	}

	res, err := h.svc.Commit(r.Context(), cr)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httpx.AddLogFields(r.Context(), "appointment_id", res.Appointment.ID, "professional_id", res.Appointment.ProfessionalID)
	status := http.StatusCreated
	if res.Replayed {
		w.Header().Set("Idempotent-Replayed", "true")
		status = http.StatusOK
	}
	httpx.WriteJSON(w, status, toAppointment(res.Appointment))
}
