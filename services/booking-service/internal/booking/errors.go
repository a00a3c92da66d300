package booking

import (
	"errors"
	"fmt"
)

var (
	ErrSlotUnavailable      = errors.New("slot unavailable")
	ErrProfessionalNotFound = errors.New("professional not found")
	ErrServiceNotFound      = errors.New("service not found")
	ErrClientNotFound       = errors.New("client not found")
	ErrTenantNotFound       = errors.New("tenant not found")
	ErrAppointmentNotFound  = errors.New("appointment not found")
	ErrExceptionNotFound    = errors.New("schedule exception not found")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrPlanLimitReached     = errors.New("monthly appointment limit reached")
	ErrInvalidInput         = errors.New("invalid input")
	ErrUpstreamUnavailable  = errors.New("upstream unavailable")
)

var domainErrors = []error{
	ErrSlotUnavailable,
	ErrProfessionalNotFound,
	ErrServiceNotFound,
	ErrClientNotFound,
	ErrTenantNotFound,
	ErrAppointmentNotFound,
	ErrExceptionNotFound,
	ErrInvalidTransition,
	ErrPlanLimitReached,
	ErrInvalidInput,
	ErrUpstreamUnavailable,
}

// upstream passes domain errors through and wraps everything else, typically
// a database failure, as ErrUpstreamUnavailable.
func upstream(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return err
		}
	}
	return fmt.Errorf("%s: %w: %w", op, ErrUpstreamUnavailable, err)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
