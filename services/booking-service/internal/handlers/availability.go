package handlers

import (
	"net/http"
	"strings"

	"github.com/ybieul/saas-barbearia/libs/httpx"
	"github.com/ybieul/saas-barbearia/services/booking-service/internal/booking"
	"github.com/ybieul/saas-barbearia/services/booking-service/internal/civil"
)

// PublicAvailability serves GET /api/v1/public/{tenantID}/availability.
func (h *Handler) PublicAvailability(w http.ResponseWriter, r *http.Request) {
	tenantID := strings.TrimSpace(r.PathValue("tenantID"))
	httpx.AddLogFields(r.Context(), "tenant_id", tenantID)
	h.availability(w, r, tenantID)
}

func (h *Handler) Availability(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	h.availability(w, r, id.TenantID)
}

func (h *Handler) availability(w http.ResponseWriter, r *http.Request, tenantID string) {
	q := r.URL.Query()
	serviceID := strings.TrimSpace(q.Get("service_id"))
	if tenantID == "" || serviceID == "" {
		httpx.WriteError(w, http.StatusBadRequest, "tenant and service_id are required")
		return
	}
	date, err := civil.ParseDate(strings.TrimSpace(q.Get("date")))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.svc.Availability(r.Context(), booking.AvailabilityQuery{
		TenantID:       tenantID,
		ProfessionalID: strings.TrimSpace(q.Get("professional_id")),
		ServiceID:      serviceID,
		Date:           date,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toAvailability(date, res))
}
