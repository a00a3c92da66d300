// Package entitlements maps a tenant's plan tier to the limits the booking
// path enforces.
package entitlements

import "strings"

const (
	TierFree    = "free"
	TierStarter = "starter"
	TierPro     = "pro"
)

type Limits struct {
	Tier string `json:"tier"`
	// MaxMonthlyAppointments caps active appointments starting in one
	// calendar month of the tenant's timezone. Zero means unlimited.
	MaxMonthlyAppointments int `json:"max_monthly_appointments"`
}

// LimitsForTier falls back to the free tier for unknown or empty tiers.
func LimitsForTier(tier string) Limits {
	switch strings.ToLower(strings.TrimSpace(tier)) {
	case TierStarter:
		return Limits{Tier: TierStarter, MaxMonthlyAppointments: 600}
	case TierPro:
		return Limits{Tier: TierPro, MaxMonthlyAppointments: 0}
	default:
		return Limits{Tier: TierFree, MaxMonthlyAppointments: 200}
	}
}

// AllowsAnother reports whether one more appointment fits when count are
// already booked this month.
func (l Limits) AllowsAnother(count int) bool {
	return l.MaxMonthlyAppointments <= 0 || count < l.MaxMonthlyAppointments
}
