package model

import (
	"fmt"
	"time"
)

type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusConfirmed  Status = "confirmed"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusNoShow     Status = "no_show"
)

// ActiveStatuses occupy the professional's calendar.
var ActiveStatuses = []Status{StatusScheduled, StatusConfirmed, StatusInProgress}

func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusScheduled, StatusConfirmed, StatusInProgress, StatusCompleted, StatusCancelled, StatusNoShow:
		return st, nil
	default:
		return "", fmt.Errorf("unknown appointment status %q", s)
	}
}

// Active reports whether the status holds its time slot.
func (s Status) Active() bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusInProgress:
		return true
	default:
		return false
	}
}

var transitions = map[Status][]Status{
	StatusScheduled:  {StatusConfirmed, StatusInProgress, StatusCancelled, StatusNoShow},
	StatusConfirmed:  {StatusInProgress, StatusCancelled, StatusNoShow},
	StatusInProgress: {StatusCompleted, StatusCancelled},
}

// CanTransition reports whether s may move to next. Terminal states never
// move, so a freed slot is never re-occupied by an old appointment.
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Appointment struct {
	ID             string
	TenantID       string
	ProfessionalID string
	ServiceID      string
	ClientID       string
	Start          time.Time
	Duration       time.Duration
	Status         Status
	CancelReason   string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (a Appointment) End() time.Time {
	return a.Start.Add(a.Duration)
}
