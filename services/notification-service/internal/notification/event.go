// Package notification turns booking events into WhatsApp messages and logs
// every attempt.
package notification

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const (
	TopicAppointmentBooked        = "booking.appointment.booked.v1"
	TopicAppointmentStatusChanged = "booking.appointment.status_changed.v1"

	startLayout = "2006-01-02T15:04"
)

// Event mirrors the booking-service payload. Start is a business wall clock
// and is rendered as is.
type Event struct {
	ID               string    `json:"event_id"`
	Type             string    `json:"event_type"`
	TenantID         string    `json:"tenant_id"`
	TenantName       string    `json:"tenant_name"`
	AppointmentID    string    `json:"appointment_id"`
	ProfessionalID   string    `json:"professional_id"`
	ProfessionalName string    `json:"professional_name"`
	ServiceID        string    `json:"service_id"`
	ServiceName      string    `json:"service_name"`
	ClientID         string    `json:"client_id"`
	ClientName       string    `json:"client_name"`
	ClientPhone      string    `json:"client_phone"`
	Start            string    `json:"start"`
	Timezone         string    `json:"timezone"`
	DurationMinutes  int       `json:"duration_minutes"`
	Status           string    `json:"status"`
	PreviousStatus   string    `json:"previous_status"`
	Reason           string    `json:"reason"`
	OccurredAt       time.Time `json:"occurred_at"`
}

var ErrMalformedEvent = errors.New("malformed event")

func Decode(raw []byte) (Event, error) {
	var evt Event
	if err := json.Unmarshal(raw, &evt); err != nil {
		return Event{}, fmt.Errorf("%w: %w", ErrMalformedEvent, err)
	}
	if evt.ID == "" || evt.TenantID == "" || evt.AppointmentID == "" || evt.Start == "" {
		return Event{}, fmt.Errorf("%w: event_id, tenant_id, appointment_id and start are required", ErrMalformedEvent)
	}
	if _, err := time.Parse(startLayout, evt.Start); err != nil {
		return Event{}, fmt.Errorf("%w: start %q", ErrMalformedEvent, evt.Start)
	}
	return evt, nil
}
