package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"gatherpass/internal/domain"
)

type operatorStateRepository struct {
	DB *sql.DB
}

func NewOperatorStateRepository(db *sql.DB) domain.OperatorStateRepository {
	return &operatorStateRepository{
		DB: db,
	}
}

func (r *operatorStateRepository) GetSelectedEvent(ctx context.Context, operatorID string) (string, error) {
	query := `
		SELECT selected_event_id
		FROM operator_state
		WHERE operator_id = $1
	`
	var eventID string
	err := r.DB.QueryRowContext(ctx, query, operatorID).Scan(&eventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		return "", err
	}
	return eventID, nil
}

func (r *operatorStateRepository) SetSelectedEvent(ctx context.Context, operatorID, eventID string) error {
	query := `
		INSERT INTO operator_state (operator_id, selected_event_id, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (operator_id)
		DO UPDATE SET selected_event_id = EXCLUDED.selected_event_id, updated_at = EXCLUDED.updated_at
	`
	_, err := r.DB.ExecContext(ctx, query, operatorID, eventID, time.Now())
	return err
}
