// Package tenancy resolves the business timezone of each tenant.
package tenancy

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/ybieul/saas-barbearia/libs/config"
	"github.com/ybieul/saas-barbearia/services/booking-service/internal/model"
)

const (
	defaultSize = 1024
	defaultTTL  = 10 * time.Minute
)

// TenantSource loads a tenant record.
type TenantSource interface {
	Tenant(ctx context.Context, tenantID string) (model.Tenant, error)
}

type Options struct {
	Size int
	TTL  time.Duration
	// Fallback is used when a tenant carries an empty or unknown zone.
	Fallback *time.Location
	Logger   *slog.Logger
}

// Locations caches tenant locations. Lookup errors are never cached.
type Locations struct {
	src      TenantSource
	cache    *expirable.LRU[string, *time.Location]
	fallback *time.Location
	logger   *slog.Logger
}

func NewLocations(src TenantSource, opts Options) (*Locations, error) {
	if src == nil {
		return nil, errors.New("tenancy: tenant source is required")
	}
	if opts.Fallback == nil {
		return nil, errors.New("tenancy: fallback location is required")
	}
	if opts.Size <= 0 {
		opts.Size = defaultSize
	}
	if opts.TTL <= 0 {
		opts.TTL = defaultTTL
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Locations{
		src:      src,
		cache:    expirable.NewLRU[string, *time.Location](opts.Size, nil, opts.TTL),
		fallback: opts.Fallback,
		logger:   opts.Logger,
	}, nil
}

func (l *Locations) Location(ctx context.Context, tenantID string) (*time.Location, error) {
	if loc, ok := l.cache.Get(tenantID); ok {
		return loc, nil
	}
	tenant, err := l.src.Tenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	loc, err := config.Location(tenant.Timezone)
	if err != nil {
		l.logger.WarnContext(ctx, "data integrity: tenant timezone unusable",
			"tenant_id", tenantID,
			"timezone", tenant.Timezone,
			"fallback", l.fallback.String(),
			"err", err,
		)
		loc = l.fallback
	}
	l.cache.Add(tenantID, loc)
	return loc, nil
}

// Forget drops a cached entry, e.g. after the tenant changes its timezone.
func (l *Locations) Forget(tenantID string) {
	l.cache.Remove(tenantID)
}
