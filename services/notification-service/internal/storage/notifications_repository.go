package storage

import (
	"context"

	"github.com/ybieul/saas-barbearia/libs/db"
)

const (
	StatusSent    = "sent"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

type Notification struct {
	EventID       string
	TenantID      string
	AppointmentID string
	Channel       string
	Recipient     string
	Body          string
	Status        string
	Error         string
}

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Insert(ctx context.Context, n Notification) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO notifications (event_id, tenant_id, appointment_id, channel, recipient, body, status, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, n.EventID, n.TenantID, n.AppointmentID, n.Channel, n.Recipient, n.Body, n.Status, n.Error)
	return err
}
