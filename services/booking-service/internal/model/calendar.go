package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/ybieul/saas-barbearia/services/booking-service/internal/civil"
)

// WeeklyRule is a professional's working hours for one weekday.
type WeeklyRule struct {
	ID      int64
	Weekday time.Weekday
	Start   civil.Clock
	End     civil.Clock
	Active  bool
}

func (r WeeklyRule) Validate() error {
	if r.Weekday < time.Sunday || r.Weekday > time.Saturday {
		return fmt.Errorf("day_of_week must be 0..6, got %d", r.Weekday)
	}
	if !r.Start.Valid() || !r.End.Valid() || r.Start >= r.End {
		return fmt.Errorf("start_time must be before end_time (%s-%s)", r.Start, r.End)
	}
	return nil
}

// RecurringBreak repeats on every working day, e.g. lunch.
type RecurringBreak struct {
	ID    int64
	Start civil.Clock
	End   civil.Clock
	Label string
}

func (b RecurringBreak) Validate() error {
	if !b.Start.Valid() || !b.End.Valid() || b.Start >= b.End {
		return fmt.Errorf("break start must be before end (%s-%s)", b.Start, b.End)
	}
	return nil
}

type Calendar struct {
	ProfessionalID string
	Rules          []WeeklyRule
	Breaks         []RecurringBreak
}

type ExceptionType string

const (
	ExceptionBlock  ExceptionType = "block"
	ExceptionDayOff ExceptionType = "day_off"
)

func ParseExceptionType(s string) (ExceptionType, error) {
	switch t := ExceptionType(s); t {
	case ExceptionBlock, ExceptionDayOff:
		return t, nil
	default:
		return "", fmt.Errorf("exception type must be %q or %q", ExceptionBlock, ExceptionDayOff)
	}
}

// ScheduleException is a one-off block or day off. Start and End carry the
// tenant location.
type ScheduleException struct {
	ID             string
	TenantID       string
	ProfessionalID string
	Start          time.Time
	End            time.Time
	Type           ExceptionType
	Reason         string
	CreatedAt      time.Time
}

var ErrEmptyInterval = errors.New("start must be before end")

func (e ScheduleException) Validate() error {
	if _, err := ParseExceptionType(string(e.Type)); err != nil {
		return err
	}
	if !e.Start.Before(e.End) {
		return ErrEmptyInterval
	}
	return nil
}
