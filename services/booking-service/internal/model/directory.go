package model

import "time"

type Tenant struct {
	ID       string
	Name     string
	Timezone string
	PlanTier string
}

type Professional struct {
	ID       string
	TenantID string
	Name     string
	Active   bool
}

type Service struct {
	ID       string
	TenantID string
	Name     string
	Duration time.Duration
	Active   bool
}

type Client struct {
	ID       string
	TenantID string
	Name     string
	Phone    string
}
