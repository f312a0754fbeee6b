package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/afaf/accounts/internal/core/domain"
)

type EventRepository struct {
	pool *pgxpool.Pool
}

func NewEventRepository(pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{pool: pool}
}

func (r *EventRepository) InsertEvent(ctx context.Context, event *domain.AuthEvent) error {
	var accountID any
	if event.AccountID != uuid.Nil {
		accountID = event.AccountID.String()
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO auth_events (type, account_id, email, outcome, detail, at) VALUES ($1, $2, $3, $4, $5, $6)`,
		string(event.Type), accountID, event.Email, event.Outcome, event.Detail, event.At.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert auth event: %w", err)
	}
	return nil
}
