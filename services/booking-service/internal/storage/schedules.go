package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ybieul/saas-barbearia/libs/db"
	"github.com/ybieul/saas-barbearia/services/booking-service/internal/booking"
	"github.com/ybieul/saas-barbearia/services/booking-service/internal/civil"
	"github.com/ybieul/saas-barbearia/services/booking-service/internal/model"
)

type ScheduleRepository struct {
	pool *db.Pool
}

func NewScheduleRepository(pool *db.Pool) *ScheduleRepository {
	return &ScheduleRepository{pool: pool}
}

var _ booking.Schedules = (*ScheduleRepository)(nil)

// Calendar returns rules in id order so duplicate resolution is stable.
func (r *ScheduleRepository) Calendar(ctx context.Context, tenantID, professionalID string) (model.Calendar, error) {
	cal := model.Calendar{ProfessionalID: professionalID}

	rows, err := r.pool.Query(ctx, `
		SELECT id, day_of_week, start_minute, end_minute, active
		FROM weekly_rules
		WHERE tenant_id = $1 AND professional_id = $2
		ORDER BY id ASC
	`, tenantID, professionalID)
	if err != nil {
		return model.Calendar{}, err
	}
	cal.Rules, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.WeeklyRule, error) {
		var (
			rule       model.WeeklyRule
			day        int16
			start, end int16
		)
		if err := row.Scan(&rule.ID, &day, &start, &end, &rule.Active); err != nil {
			return model.WeeklyRule{}, err
		}
		rule.Weekday = time.Weekday(day)
		rule.Start, rule.End = civil.Clock(start), civil.Clock(end)
		return rule, nil
	})
	if err != nil {
		return model.Calendar{}, err
	}

	rows, err = r.pool.Query(ctx, `
		SELECT id, start_minute, end_minute, label
		FROM recurring_breaks
		WHERE tenant_id = $1 AND professional_id = $2
		ORDER BY start_minute ASC, id ASC
	`, tenantID, professionalID)
	if err != nil {
		return model.Calendar{}, err
	}
	cal.Breaks, err = pgx.CollectRows(rows, scanBreak)
	if err != nil {
		return model.Calendar{}, err
	}
	return cal, nil
}

func scanBreak(row pgx.CollectableRow) (model.RecurringBreak, error) {
	var (
		b          model.RecurringBreak
		start, end int16
	)
	if err := row.Scan(&b.ID, &start, &end, &b.Label); err != nil {
		return model.RecurringBreak{}, err
	}
	b.Start, b.End = civil.Clock(start), civil.Clock(end)
	return b, nil
}

func (r *ScheduleRepository) Exceptions(ctx context.Context, tenantID, professionalID string, from, to time.Time, loc *time.Location) ([]model.ScheduleException, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, tenant_id::text, professional_id::text, start_at, end_at, type, reason, created_at
		FROM schedule_exceptions
		WHERE tenant_id = $1
			AND professional_id = $2
			AND start_at < $4
			AND end_at > $3
		ORDER BY start_at ASC
	`, tenantID, professionalID, civil.Wall(from.In(loc)), civil.Wall(to.In(loc)))
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.ScheduleException, error) {
		return scanException(row, loc)
	})
}

func scanException(row pgx.Row, loc *time.Location) (model.ScheduleException, error) {
	var (
		e          model.ScheduleException
		start, end time.Time
		typ        string
	)
	if err := row.Scan(&e.ID, &e.TenantID, &e.ProfessionalID, &start, &end, &typ, &e.Reason, &e.CreatedAt); err != nil {
		return model.ScheduleException{}, err
	}
	e.Start, e.End = civil.FromWall(start, loc), civil.FromWall(end, loc)
	e.Type = model.ExceptionType(typ)
	return e, nil
}

// PutWeeklyRule replaces every rule of the weekday with rule.
func (r *ScheduleRepository) PutWeeklyRule(ctx context.Context, tenantID, professionalID string, rule model.WeeklyRule) (model.WeeklyRule, error) {
	err := r.pool.InTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			DELETE FROM weekly_rules
			WHERE tenant_id = $1 AND professional_id = $2 AND day_of_week = $3
		`, tenantID, professionalID, int16(rule.Weekday)); err != nil {
			return err
		}
		return tx.QueryRow(ctx, `
			INSERT INTO weekly_rules (tenant_id, professional_id, day_of_week, start_minute, end_minute, active)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`, tenantID, professionalID, int16(rule.Weekday), int16(rule.Start), int16(rule.End), rule.Active).Scan(&rule.ID)
	})
	if err != nil {
		return model.WeeklyRule{}, err
	}
	return rule, nil
}

func (r *ScheduleRepository) ReplaceBreaks(ctx context.Context, tenantID, professionalID string, breaks []model.RecurringBreak) ([]model.RecurringBreak, error) {
	out := make([]model.RecurringBreak, 0, len(breaks))
	err := r.pool.InTx(ctx, func(tx pgx.Tx) error {
		out = out[:0]
		if _, err := tx.Exec(ctx, `
			DELETE FROM recurring_breaks WHERE tenant_id = $1 AND professional_id = $2
		`, tenantID, professionalID); err != nil {
			return err
		}
		for _, b := range breaks {
			if err := tx.QueryRow(ctx, `
				INSERT INTO recurring_breaks (tenant_id, professional_id, start_minute, end_minute, label)
				VALUES ($1, $2, $3, $4, $5)
				RETURNING id
			`, tenantID, professionalID, int16(b.Start), int16(b.End), b.Label).Scan(&b.ID); err != nil {
				return err
			}
			out = append(out, b)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ScheduleRepository) CreateException(ctx context.Context, e model.ScheduleException) (model.ScheduleException, error) {
	loc := e.Start.Location()
	return scanException(r.pool.QueryRow(ctx, `
		INSERT INTO schedule_exceptions (id, tenant_id, professional_id, start_at, end_at, type, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id::text, tenant_id::text, professional_id::text, start_at, end_at, type, reason, created_at
	`, e.ID, e.TenantID, e.ProfessionalID, civil.Wall(e.Start), civil.Wall(e.End), string(e.Type), e.Reason, e.CreatedAt), loc)
}

func (r *ScheduleRepository) DeleteException(ctx context.Context, tenantID, professionalID, exceptionID string) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM schedule_exceptions
		WHERE id = $1 AND tenant_id = $2 AND professional_id = $3
	`, exceptionID, tenantID, professionalID)
	if err != nil {
		return notFound(err, booking.ErrExceptionNotFound)
	}
	if tag.RowsAffected() == 0 {
		return booking.ErrExceptionNotFound
	}
	return nil
}

// ImportCalendars replaces the rules and breaks of every professional in cals
// inside one transaction. Callers validate cals first.
func (r *ScheduleRepository) ImportCalendars(ctx context.Context, tenantID string, cals []model.Calendar) error {
	return r.pool.InTx(ctx, func(tx pgx.Tx) error {
		for _, cal := range cals {
			if err := importCalendar(ctx, tx, tenantID, cal); err != nil {
				if hasCode(err, codeForeignKeyViolation) || hasCode(err, codeInvalidText) {
					return fmt.Errorf("%w: %s", booking.ErrProfessionalNotFound, cal.ProfessionalID)
				}
				return err
			}
		}
		return nil
	})
}

func importCalendar(ctx context.Context, tx pgx.Tx, tenantID string, cal model.Calendar) error {
	for _, table := range []string{"weekly_rules", "recurring_breaks"} {
		if _, err := tx.Exec(ctx,
			"DELETE FROM "+table+" WHERE tenant_id = $1 AND professional_id = $2",
			tenantID, cal.ProfessionalID); err != nil {
			return err
		}
	}
	for _, rule := range cal.Rules {
		if _, err := tx.Exec(ctx, `
			INSERT INTO weekly_rules (tenant_id, professional_id, day_of_week, start_minute, end_minute, active)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, tenantID, cal.ProfessionalID, int16(rule.Weekday), int16(rule.Start), int16(rule.End), rule.Active); err != nil {
			return err
		}
	}
	for _, b := range cal.Breaks {
		if _, err := tx.Exec(ctx, `
			INSERT INTO recurring_breaks (tenant_id, professional_id, start_minute, end_minute, label)
			VALUES ($1, $2, $3, $4, $5)
		`, tenantID, cal.ProfessionalID, int16(b.Start), int16(b.End), b.Label); err != nil {
			return err
		}
	}
	return nil
}
