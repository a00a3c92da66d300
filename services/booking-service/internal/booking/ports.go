package booking

import (
	"context"
	"time"

	"github.com/ybieul/saas-barbearia/services/booking-service/internal/model"
	"github.com/ybieul/saas-barbearia/services/booking-service/internal/notify"
)

// Directory resolves tenant-scoped records. Lookups return the matching
// ErrXNotFound sentinel when the row is missing.
type Directory interface {
	Tenant(ctx context.Context, tenantID string) (model.Tenant, error)
	Service(ctx context.Context, tenantID, serviceID string) (model.Service, error)
	Professional(ctx context.Context, tenantID, professionalID string) (model.Professional, error)
	// QualifiedProfessionals lists active professionals offering serviceID.
	QualifiedProfessionals(ctx context.Context, tenantID, serviceID string) ([]model.Professional, error)
	Client(ctx context.Context, tenantID, clientID string) (model.Client, error)
	// EnsureClient returns the client with phone, creating it when missing.
	EnsureClient(ctx context.Context, tenantID, name, phone string) (model.Client, error)
}

// Schedules stores calendars and exceptions. Times read back carry loc.
type Schedules interface {
	Calendar(ctx context.Context, tenantID, professionalID string) (model.Calendar, error)
	Exceptions(ctx context.Context, tenantID, professionalID string, from, to time.Time, loc *time.Location) ([]model.ScheduleException, error)
	PutWeeklyRule(ctx context.Context, tenantID, professionalID string, rule model.WeeklyRule) (model.WeeklyRule, error)
	ReplaceBreaks(ctx context.Context, tenantID, professionalID string, breaks []model.RecurringBreak) ([]model.RecurringBreak, error)
	CreateException(ctx context.Context, e model.ScheduleException) (model.ScheduleException, error)
	DeleteException(ctx context.Context, tenantID, professionalID, exceptionID string) error
}

// CommitParams describes one attempt at the authoritative commit.
type CommitParams struct {
	Appointment    model.Appointment
	IdempotencyKey string
	// MonthlyLimit caps active appointments of the tenant starting within
	// [MonthStart, MonthEnd). Zero disables the check.
	MonthlyLimit int
	MonthStart   time.Time
	MonthEnd     time.Time
}

type CommitResult struct {
	Appointment model.Appointment
	// Replayed is set when the idempotency key already produced an appointment.
	Replayed bool
}

type AppointmentFilter struct {
	TenantID       string
	ProfessionalID string
	From, To       time.Time
	Status         model.Status
	Limit          int
}

// Appointments is the appointment store. CommitAppointment must check for
// overlapping active appointments and insert in one atomic step, returning
// ErrSlotUnavailable on overlap and ErrPlanLimitReached when the monthly
// limit is exhausted.
type Appointments interface {
	ActiveBetween(ctx context.Context, tenantID, professionalID string, from, to time.Time, loc *time.Location) ([]model.Appointment, error)
	CommitAppointment(ctx context.Context, p CommitParams, loc *time.Location) (CommitResult, error)
	// FindByIdempotencyKey returns the appointment a finished commit stored
	// under key.
	FindByIdempotencyKey(ctx context.Context, tenantID, key string, loc *time.Location) (model.Appointment, bool, error)
	// UpdateAppointment locks the appointment, applies fn and persists the
	// status and cancel reason it leaves behind.
	UpdateAppointment(ctx context.Context, tenantID, appointmentID string, loc *time.Location, fn func(*model.Appointment) error) (model.Appointment, error)
	List(ctx context.Context, f AppointmentFilter, loc *time.Location) ([]model.Appointment, error)
}

type Locations interface {
	Location(ctx context.Context, tenantID string) (*time.Location, error)
}

type Dispatcher = notify.Dispatcher
