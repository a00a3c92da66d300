package booking

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ybieul/saas-barbearia/services/booking-service/internal/civil"
	"github.com/ybieul/saas-barbearia/services/booking-service/internal/model"
)

func (s *Service) professional(ctx context.Context, tenantID, professionalID string) (model.Professional, error) {
	if tenantID == "" || professionalID == "" {
		return model.Professional{}, invalid("tenant and professional are required")
	}
	p, err := s.dir.Professional(ctx, tenantID, professionalID)
	if err != nil {
		return model.Professional{}, upstream("load professional", err)
	}
	return p, nil
}

func (s *Service) Calendar(ctx context.Context, tenantID, professionalID string) (model.Calendar, error) {
	if _, err := s.professional(ctx, tenantID, professionalID); err != nil {
		return model.Calendar{}, err
	}
	cal, err := s.sched.Calendar(ctx, tenantID, professionalID)
	if err != nil {
		return model.Calendar{}, upstream("load calendar", err)
	}
	return cal, nil
}

// PutWeeklyRule replaces the professional's rule for rule.Weekday.
func (s *Service) PutWeeklyRule(ctx context.Context, tenantID, professionalID string, rule model.WeeklyRule) (model.WeeklyRule, error) {
	if err := rule.Validate(); err != nil {
		return model.WeeklyRule{}, invalid("%v", err)
	}
	if _, err := s.professional(ctx, tenantID, professionalID); err != nil {
		return model.WeeklyRule{}, err
	}
	out, err := s.sched.PutWeeklyRule(ctx, tenantID, professionalID, rule)
	if err != nil {
		return model.WeeklyRule{}, upstream("save weekly rule", err)
	}
	return out, nil
}

func (s *Service) ReplaceBreaks(ctx context.Context, tenantID, professionalID string, breaks []model.RecurringBreak) ([]model.RecurringBreak, error) {
	for _, b := range breaks {
		if err := b.Validate(); err != nil {
			return nil, invalid("%v", err)
		}
	}
	if _, err := s.professional(ctx, tenantID, professionalID); err != nil {
		return nil, err
	}
	out, err := s.sched.ReplaceBreaks(ctx, tenantID, professionalID, breaks)
	if err != nil {
		return nil, upstream("save breaks", err)
	}
	return out, nil
}

type ExceptionInput struct {
	TenantID       string
	ProfessionalID string
	Start, End     civil.DateTime
	Type           model.ExceptionType
	Reason         string
}

func (s *Service) CreateException(ctx context.Context, in ExceptionInput) (model.ScheduleException, error) {
	loc, err := s.location(ctx, in.TenantID)
	if err != nil {
		return model.ScheduleException{}, err
	}
	e := model.ScheduleException{
		ID:             uuid.NewString(),
		TenantID:       in.TenantID,
		ProfessionalID: in.ProfessionalID,
		Start:          in.Start.In(loc),
		End:            in.End.In(loc),
		Type:           in.Type,
		Reason:         in.Reason,
		CreatedAt:      s.now(),
	}
	if err := e.Validate(); err != nil {
		return model.ScheduleException{}, invalid("%v", err)
	}
	if _, err := s.professional(ctx, in.TenantID, in.ProfessionalID); err != nil {
		return model.ScheduleException{}, err
	}
	out, err := s.sched.CreateException(ctx, e)
	if err != nil {
		return model.ScheduleException{}, upstream("save exception", err)
	}
	return out, nil
}

// ListExceptions returns exceptions intersecting the days from..to inclusive.
func (s *Service) ListExceptions(ctx context.Context, tenantID, professionalID string, from, to civil.Date) ([]model.ScheduleException, error) {
	if to.Before(from) {
		return nil, invalid("to must not be before from")
	}
	if _, err := s.professional(ctx, tenantID, professionalID); err != nil {
		return nil, err
	}
	loc, err := s.location(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	start, _ := from.Bounds(loc)
	_, end := to.Bounds(loc)
	out, err := s.sched.Exceptions(ctx, tenantID, professionalID, start, end, loc)
	if err != nil {
		return nil, upstream("list exceptions", err)
	}
	return out, nil
}

func (s *Service) DeleteException(ctx context.Context, tenantID, professionalID, exceptionID string) error {
	if exceptionID == "" {
		return invalid("exception id is required")
	}
	if _, err := s.professional(ctx, tenantID, professionalID); err != nil {
		return err
	}
	return upstream("delete exception", s.sched.DeleteException(ctx, tenantID, professionalID, exceptionID))
}

// Location exposes the tenant timezone for rendering.
func (s *Service) Location(ctx context.Context, tenantID string) (*time.Location, error) {
	return s.location(ctx, tenantID)
}
