package inbox

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ybieul/saas-barbearia/libs/db"
)

const codeUniqueViolation = "23505"

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

// Claim records the event for consumer. A unique violation means another
// delivery already claimed it.
func (r *Repository) Claim(ctx context.Context, consumer, eventID, eventType string) (bool, error) {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO inbox_events (consumer, event_id, event_type)
		VALUES ($1, $2, $3)
	`, consumer, eventID, eventType)
	if err == nil {
		return true, nil
	}
	if isUniqueViolation(err) {
		return false, nil
	}
	return false, err
}

// Release forgets a claim so a redelivery is handled again.
func (r *Repository) Release(ctx context.Context, consumer, eventID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM inbox_events WHERE consumer = $1 AND event_id = $2`, consumer, eventID)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation
}
