// Package notify publishes booking events after a commit. Delivery is best
// effort: callers log failures and never roll a booking back because of them.
package notify

import (
	"context"
	"time"
)

const (
	TopicAppointmentBooked        = "booking.appointment.booked.v1"
	TopicAppointmentStatusChanged = "booking.appointment.status_changed.v1"
)

// Event is the JSON payload shared with notification-service. Start is the
// business wall clock ("2006-01-02T15:04") so consumers never convert zones.
type Event struct {
	ID               string    `json:"event_id"`
	Type             string    `json:"event_type"`
	TenantID         string    `json:"tenant_id"`
	TenantName       string    `json:"tenant_name,omitempty"`
	AppointmentID    string    `json:"appointment_id"`
	ProfessionalID   string    `json:"professional_id"`
	ProfessionalName string    `json:"professional_name,omitempty"`
	ServiceID        string    `json:"service_id"`
	ServiceName      string    `json:"service_name,omitempty"`
	ClientID         string    `json:"client_id"`
	ClientName       string    `json:"client_name,omitempty"`
	ClientPhone      string    `json:"client_phone,omitempty"`
	Start            string    `json:"start"`
	Timezone         string    `json:"timezone"`
	DurationMinutes  int       `json:"duration_minutes"`
	Status           string    `json:"status"`
	PreviousStatus   string    `json:"previous_status,omitempty"`
	Reason           string    `json:"reason,omitempty"`
	OccurredAt       time.Time `json:"occurred_at"`
}

type Dispatcher interface {
	Dispatch(ctx context.Context, evt Event) error
}

// Noop drops every event. Used when no brokers are configured.
type Noop struct{}

func (Noop) Dispatch(context.Context, Event) error { return nil }
