package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ybieul/saas-barbearia/libs/httpx"
	"github.com/ybieul/saas-barbearia/services/booking-service/internal/booking"
	"github.com/ybieul/saas-barbearia/services/booking-service/internal/civil"
	"github.com/ybieul/saas-barbearia/services/booking-service/internal/model"
)

type weeklyRuleRequest struct {
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	IsActive  *bool  `json:"isActive"`
}

type breaksRequest struct {
	Breaks []breakItem `json:"breaks"`
}

type exceptionRequest struct {
	Start  string `json:"startDatetime"`
	End    string `json:"endDatetime"`
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

type exceptionsResponse struct {
	Exceptions []exceptionItem `json:"exceptions"`
}

func (h *Handler) Calendar(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	cal, err := h.svc.Calendar(r.Context(), id.TenantID, r.PathValue("id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toCalendar(cal))
}

// PutWeeklyRule replaces the rule for one weekday (0 = Sunday).
func (h *Handler) PutWeeklyRule(w http.ResponseWriter, r *http.Request) {
	proID := r.PathValue("id")
	id, ok := manager(w, r, proID)
	if !ok {
		return
	}
	day, err := strconv.Atoi(r.PathValue("weekday"))
	if err != nil || day < 0 || day > 6 {
		httpx.WriteError(w, http.StatusBadRequest, "weekday must be 0..6")
		return
	}
	var req weeklyRuleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	start, err := civil.ParseClock(strings.TrimSpace(req.StartTime))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	end, err := civil.ParseClock(strings.TrimSpace(req.EndTime))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	active := req.IsActive == nil || *req.IsActive

	rule, err := h.svc.PutWeeklyRule(r.Context(), id.TenantID, proID, model.WeeklyRule{
		Weekday: time.Weekday(day),
		Start:   start,
		End:     end,
		Active:  active,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toRule(rule))
}

func (h *Handler) ReplaceBreaks(w http.ResponseWriter, r *http.Request) {
	proID := r.PathValue("id")
	id, ok := manager(w, r, proID)
	if !ok {
		return
	}
	var req breaksRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	breaks := make([]model.RecurringBreak, 0, len(req.Breaks))
	for _, b := range req.Breaks {
		start, err := civil.ParseClock(strings.TrimSpace(b.StartTime))
		if err != nil {
			httpx.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		end, err := civil.ParseClock(strings.TrimSpace(b.EndTime))
		if err != nil {
			httpx.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		breaks = append(breaks, model.RecurringBreak{Start: start, End: end, Label: strings.TrimSpace(b.Label)})
	}

	saved, err := h.svc.ReplaceBreaks(r.Context(), id.TenantID, proID, breaks)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, breaksRequest{Breaks: toBreaks(saved)})
}

// ListExceptions requires from and to (inclusive days).
func (h *Handler) ListExceptions(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	from, err := civil.ParseDate(strings.TrimSpace(q.Get("from")))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	to, err := civil.ParseDate(strings.TrimSpace(q.Get("to")))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	list, err := h.svc.ListExceptions(r.Context(), id.TenantID, r.PathValue("id"), from, to)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	resp := exceptionsResponse{Exceptions: make([]exceptionItem, 0, len(list))}
	for _, e := range list {
		resp.Exceptions = append(resp.Exceptions, toException(e))
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) CreateException(w http.ResponseWriter, r *http.Request) {
	proID := r.PathValue("id")
	id, ok := manager(w, r, proID)
	if !ok {
		return
	}
	var req exceptionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	start, err := civil.ParseDateTime(strings.TrimSpace(req.Start))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	end, err := civil.ParseDateTime(strings.TrimSpace(req.End))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	e, err := h.svc.CreateException(r.Context(), booking.ExceptionInput{
		TenantID:       id.TenantID,
		ProfessionalID: proID,
		Start:          start,
		End:            end,
		Type:           model.ExceptionType(strings.ToLower(strings.TrimSpace(req.Type))),
		Reason:         strings.TrimSpace(req.Reason),
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toException(e))
}

func (h *Handler) DeleteException(w http.ResponseWriter, r *http.Request) {
	proID := r.PathValue("id")
	id, ok := manager(w, r, proID)
	if !ok {
		return
	}
	if err := h.svc.DeleteException(r.Context(), id.TenantID, proID, r.PathValue("exceptionID")); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
