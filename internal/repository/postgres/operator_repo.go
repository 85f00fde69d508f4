package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"gatherpass/internal/domain"
)

type operatorRepository struct {
	DB *sql.DB
}

func NewOperatorRepository(db *sql.DB) domain.OperatorRepository {
	return &operatorRepository{
		DB: db,
	}
}

func (r *operatorRepository) Create(ctx context.Context, operator *domain.Operator) error {
	query := `
		INSERT INTO operators (email, name, password_hash, salt, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query,
		operator.Email, operator.Name, operator.PasswordHash, operator.Salt,
		operator.CreatedAt, operator.UpdatedAt,
	).Scan(&operator.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return domain.ErrEmailTaken
		}
		return err
	}
	return nil
}

func (r *operatorRepository) GetByEmail(ctx context.Context, email string) (*domain.Operator, error) {
	query := `
		SELECT id, email, name, password_hash, salt, created_at, updated_at
		FROM operators
		WHERE LOWER(email) = LOWER($1)
	`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, email))
}

func (r *operatorRepository) GetByID(ctx context.Context, id string) (*domain.Operator, error) {
	query := `
		SELECT id, email, name, password_hash, salt, created_at, updated_at
		FROM operators
		WHERE id = $1
	`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, id))
}

func (r *operatorRepository) scanOne(row *sql.Row) (*domain.Operator, error) {
	op := &domain.Operator{}
	err := row.Scan(&op.ID, &op.Email, &op.Name, &op.PasswordHash, &op.Salt, &op.CreatedAt, &op.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return op, nil
}
