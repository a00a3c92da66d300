package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ybieul/saas-barbearia/libs/db"
	"github.com/ybieul/saas-barbearia/services/booking-service/internal/booking"
	"github.com/ybieul/saas-barbearia/services/booking-service/internal/model"
)

type DirectoryRepository struct {
	pool *db.Pool
}

func NewDirectoryRepository(pool *db.Pool) *DirectoryRepository {
	return &DirectoryRepository{pool: pool}
}

var _ booking.Directory = (*DirectoryRepository)(nil)

func (r *DirectoryRepository) Tenant(ctx context.Context, tenantID string) (model.Tenant, error) {
	var t model.Tenant
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, name, timezone, plan_tier
		FROM tenants
		WHERE id = $1
	`, tenantID).Scan(&t.ID, &t.Name, &t.Timezone, &t.PlanTier)
	if err != nil {
		return model.Tenant{}, notFound(err, booking.ErrTenantNotFound)
	}
	return t, nil
}

func (r *DirectoryRepository) Service(ctx context.Context, tenantID, serviceID string) (model.Service, error) {
	var (
		s       model.Service
		minutes int32
	)
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, tenant_id::text, name, duration_minutes, active
		FROM services
		WHERE id = $1 AND tenant_id = $2
	`, serviceID, tenantID).Scan(&s.ID, &s.TenantID, &s.Name, &minutes, &s.Active)
	if err != nil {
		return model.Service{}, notFound(err, booking.ErrServiceNotFound)
	}
	s.Duration = time.Duration(minutes) * time.Minute
	return s, nil
}

func (r *DirectoryRepository) Professional(ctx context.Context, tenantID, professionalID string) (model.Professional, error) {
	var p model.Professional
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, tenant_id::text, name, active
		FROM professionals
		WHERE id = $1 AND tenant_id = $2
	`, professionalID, tenantID).Scan(&p.ID, &p.TenantID, &p.Name, &p.Active)
	if err != nil {
		return model.Professional{}, notFound(err, booking.ErrProfessionalNotFound)
	}
	return p, nil
}

func (r *DirectoryRepository) QualifiedProfessionals(ctx context.Context, tenantID, serviceID string) ([]model.Professional, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.id::text, p.tenant_id::text, p.name, p.active
		FROM professionals p
		JOIN professional_services ps ON ps.professional_id = p.id
		WHERE ps.tenant_id = $1 AND ps.service_id = $2 AND p.active
		ORDER BY p.id
	`, tenantID, serviceID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Professional, error) {
		var p model.Professional
		err := row.Scan(&p.ID, &p.TenantID, &p.Name, &p.Active)
		return p, err
	})
}

func (r *DirectoryRepository) Client(ctx context.Context, tenantID, clientID string) (model.Client, error) {
	var c model.Client
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, tenant_id::text, name, phone
		FROM clients
		WHERE id = $1 AND tenant_id = $2
	`, clientID, tenantID).Scan(&c.ID, &c.TenantID, &c.Name, &c.Phone)
	if err != nil {
		return model.Client{}, notFound(err, booking.ErrClientNotFound)
	}
	return c, nil
}

// EnsureClient keys clients by phone within a tenant. An existing client
// keeps its stored name.
func (r *DirectoryRepository) EnsureClient(ctx context.Context, tenantID, name, phone string) (model.Client, error) {
	var c model.Client
	err := r.pool.QueryRow(ctx, `
		INSERT INTO clients (tenant_id, name, phone)
		VALUES ($1, $2, $3)
		ON CONFLICT (tenant_id, phone) DO UPDATE SET phone = EXCLUDED.phone
		RETURNING id::text, tenant_id::text, name, phone
	`, tenantID, name, phone).Scan(&c.ID, &c.TenantID, &c.Name, &c.Phone)
	if err != nil {
		return model.Client{}, err
	}
	return c, nil
}
