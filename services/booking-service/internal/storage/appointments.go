package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ybieul/saas-barbearia/libs/db"
	"github.com/ybieul/saas-barbearia/services/booking-service/internal/booking"
	"github.com/ybieul/saas-barbearia/services/booking-service/internal/civil"
	"github.com/ybieul/saas-barbearia/services/booking-service/internal/model"
)

const appointmentColumns = `id::text, tenant_id::text, professional_id::text, service_id::text, client_id::text,
	start_at, end_at, status, cancel_reason, created_at, updated_at`

type AppointmentRepository struct {
	pool *db.Pool
}

func NewAppointmentRepository(pool *db.Pool) *AppointmentRepository {
	return &AppointmentRepository{pool: pool}
}

var _ booking.Appointments = (*AppointmentRepository)(nil)

func activeStatuses() []string {
	out := make([]string, len(model.ActiveStatuses))
	for i, s := range model.ActiveStatuses {
		out[i] = string(s)
	}
	return out
}

func scanAppointment(row pgx.Row, loc *time.Location) (model.Appointment, error) {
	var (
		a          model.Appointment
		start, end time.Time
		status     string
	)
	err := row.Scan(
		&a.ID,
		&a.TenantID,
		&a.ProfessionalID,
		&a.ServiceID,
		&a.ClientID,
		&start,
		&end,
		&status,
		&a.CancelReason,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return model.Appointment{}, err
	}
	a.Start = civil.FromWall(start, loc)
	a.Duration = end.Sub(start)
	a.Status = model.Status(status)
	return a, nil
}

func collectAppointments(rows pgx.Rows, loc *time.Location) ([]model.Appointment, error) {
	defer rows.Close()
	var out []model.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows, loc)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *AppointmentRepository) ActiveBetween(ctx context.Context, tenantID, professionalID string, from, to time.Time, loc *time.Location) ([]model.Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE tenant_id = $1
			AND professional_id = $2
			AND status = ANY($3)
			AND start_at < $5
			AND end_at > $4
		ORDER BY start_at ASC
	`, tenantID, professionalID, activeStatuses(), civil.Wall(from.In(loc)), civil.Wall(to.In(loc)))
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows, loc)
}

// CommitAppointment is the authoritative check-then-insert. Concurrent
// commits for one professional serialize on a transaction-scoped advisory
// lock, so the overlap check and the insert see the same state. The
// exclusion constraint backs this up.
func (r *AppointmentRepository) CommitAppointment(ctx context.Context, p booking.CommitParams, loc *time.Location) (booking.CommitResult, error) {
	a := p.Appointment
	start, end := civil.Wall(a.Start.In(loc)), civil.Wall(a.End().In(loc))

	var res booking.CommitResult
	err := r.pool.InTx(ctx, func(tx pgx.Tx) error {
		if p.IdempotencyKey != "" {
			existingID, err := r.lockIdempotencyKey(ctx, tx, a.TenantID, p.IdempotencyKey)
			if err != nil {
				return fmt.Errorf("lock idempotency key: %w", err)
			}
			if existingID != "" {
				prev, err := scanAppointment(tx.QueryRow(ctx, `
					SELECT `+appointmentColumns+` FROM appointments WHERE id = $1
				`, existingID), loc)
				if err != nil {
					return err
				}
				res = booking.CommitResult{Appointment: prev, Replayed: true}
				return nil
			}
		}

		if _, err := tx.Exec(ctx,
			`SELECT pg_advisory_xact_lock(hashtextextended($1::text || ':' || $2::text, 0))`,
			a.TenantID, a.ProfessionalID,
		); err != nil {
			return fmt.Errorf("lock professional: %w", err)
		}

		var taken bool
		if err := tx.QueryRow(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM appointments
				WHERE professional_id = $1
					AND status = ANY($2)
					AND start_at < $4
					AND end_at > $3
			)
		`, a.ProfessionalID, activeStatuses(), start, end).Scan(&taken); err != nil {
			return fmt.Errorf("check overlap: %w", err)
		}
		if taken {
			return booking.ErrSlotUnavailable
		}

		if p.MonthlyLimit > 0 {
			var count int
			if err := tx.QueryRow(ctx, `
				SELECT COUNT(*)
				FROM appointments
				WHERE tenant_id = $1
					AND status = ANY($2)
					AND start_at >= $3
					AND start_at < $4
			`, a.TenantID, activeStatuses(), civil.Wall(p.MonthStart.In(loc)), civil.Wall(p.MonthEnd.In(loc))).Scan(&count); err != nil {
				return fmt.Errorf("count monthly appointments: %w", err)
			}
			if count >= p.MonthlyLimit {
				return booking.ErrPlanLimitReached
			}
		}

		inserted, err := scanAppointment(tx.QueryRow(ctx, `
			INSERT INTO appointments
				(id, tenant_id, professional_id, service_id, client_id, start_at, end_at, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
			RETURNING `+appointmentColumns,
			a.ID, a.TenantID, a.ProfessionalID, a.ServiceID, a.ClientID, start, end, string(a.Status), a.CreatedAt,
		), loc)
		if err != nil {
			return err
		}

		if p.IdempotencyKey != "" {
			if _, err := tx.Exec(ctx, `
				UPDATE booking_idempotency_keys
				SET appointment_id = $3,
					updated_at = now()
				WHERE tenant_id = $1 AND idempotency_key = $2
			`, a.TenantID, p.IdempotencyKey, inserted.ID); err != nil {
				return fmt.Errorf("finalize idempotency key: %w", err)
			}
		}
		res = booking.CommitResult{Appointment: inserted}
		return nil
	})
	if err != nil {
		if IsConflict(err) {
			return booking.CommitResult{}, fmt.Errorf("%w: %v", booking.ErrSlotUnavailable, err)
		}
		return booking.CommitResult{}, err
	}
	return res, nil
}

// lockIdempotencyKey row-locks the key, creating it when new, and returns the
// appointment a previous commit stored under it.
func (r *AppointmentRepository) lockIdempotencyKey(ctx context.Context, tx pgx.Tx, tenantID, key string) (string, error) {
	id, err := selectIdempotencyForUpdate(ctx, tx, tenantID, key)
	if err == nil {
		return id, nil
	}
	if !IsNotFound(err) {
		return "", err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO booking_idempotency_keys (tenant_id, idempotency_key)
		VALUES ($1, $2)
		ON CONFLICT (tenant_id, idempotency_key) DO NOTHING
	`, tenantID, key); err != nil {
		return "", err
	}
	return selectIdempotencyForUpdate(ctx, tx, tenantID, key)
}

func selectIdempotencyForUpdate(ctx context.Context, tx pgx.Tx, tenantID, key string) (string, error) {
	var id string
	err := tx.QueryRow(ctx, `
		SELECT COALESCE(appointment_id::text, '')
		FROM booking_idempotency_keys
		WHERE tenant_id = $1 AND idempotency_key = $2
		FOR UPDATE
	`, tenantID, key).Scan(&id)
	return id, err
}

func (r *AppointmentRepository) FindByIdempotencyKey(ctx context.Context, tenantID, key string, loc *time.Location) (model.Appointment, bool, error) {
	a, err := scanAppointment(r.pool.QueryRow(ctx, `
		SELECT `+qualified("a", appointmentColumns)+`
		FROM booking_idempotency_keys k
		JOIN appointments a ON a.id = k.appointment_id
		WHERE k.tenant_id = $1 AND k.idempotency_key = $2
	`, tenantID, key), loc)
	if err != nil {
		if IsNotFound(err) {
			return model.Appointment{}, false, nil
		}
		return model.Appointment{}, false, err
	}
	return a, true, nil
}

func (r *AppointmentRepository) UpdateAppointment(ctx context.Context, tenantID, appointmentID string, loc *time.Location, fn func(*model.Appointment) error) (model.Appointment, error) {
	var out model.Appointment
	err := r.pool.InTx(ctx, func(tx pgx.Tx) error {
		a, err := scanAppointment(tx.QueryRow(ctx, `
			SELECT `+appointmentColumns+`
			FROM appointments
			WHERE id = $1 AND tenant_id = $2
			FOR UPDATE
		`, appointmentID, tenantID), loc)
		if err != nil {
			return notFound(err, booking.ErrAppointmentNotFound)
		}
		if err := fn(&a); err != nil {
			return err
		}
		out, err = scanAppointment(tx.QueryRow(ctx, `
			UPDATE appointments
			SET status = $3,
				cancel_reason = $4,
				updated_at = $5
			WHERE id = $1 AND tenant_id = $2
			RETURNING `+appointmentColumns,
			a.ID, tenantID, string(a.Status), a.CancelReason, a.UpdatedAt,
		), loc)
		return err
	})
	if IsConflict(err) {
		return model.Appointment{}, fmt.Errorf("%w: %v", booking.ErrSlotUnavailable, err)
	}
	return out, err
}

func (r *AppointmentRepository) List(ctx context.Context, f booking.AppointmentFilter, loc *time.Location) ([]model.Appointment, error) {
	where := []string{"tenant_id = $1"}
	args := []any{f.TenantID}
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.ProfessionalID != "" {
		add("professional_id = $%d", f.ProfessionalID)
	}
	if f.Status != "" {
		add("status = $%d", string(f.Status))
	}
	if !f.From.IsZero() {
		add("start_at >= $%d", civil.Wall(f.From.In(loc)))
	}
	if !f.To.IsZero() {
		add("start_at < $%d", civil.Wall(f.To.In(loc)))
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit)

	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE `+strings.Join(where, " AND ")+`
		ORDER BY start_at ASC
		LIMIT $`+fmt.Sprint(len(args)),
		args...,
	)
	if err != nil {
		return nil, invalidFilter(err)
	}
	appts, err := collectAppointments(rows, loc)
	return appts, invalidFilter(err)
}

// qualified prefixes each column of a column list with alias.
func qualified(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
