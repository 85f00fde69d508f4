package postgres

import (
	"context"
	"database/sql"
	"errors"

	"gatherpass/internal/domain"
)

type personRepository struct {
	DB *sql.DB
}

func NewPersonRepository(db *sql.DB) domain.PersonRepository {
	return &personRepository{
		DB: db,
	}
}

func (r *personRepository) Create(ctx context.Context, person *domain.Person) error {
	query := `
		INSERT INTO people (name, email, phone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query, person.Name, person.Email, person.Phone, person.CreatedAt, person.UpdatedAt).
		Scan(&person.ID)
}

func (r *personRepository) GetByEmail(ctx context.Context, email string) (*domain.Person, error) {
	query := `
		SELECT id, name, email, phone, created_at, updated_at
		FROM people
		WHERE LOWER(email) = LOWER($1)
	`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, email))
}

func (r *personRepository) GetByID(ctx context.Context, id string) (*domain.Person, error) {
	query := `
		SELECT id, name, email, phone, created_at, updated_at
		FROM people
		WHERE id = $1
	`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, id))
}

func (r *personRepository) scanOne(row *sql.Row) (*domain.Person, error) {
	person := &domain.Person{}
	err := row.Scan(&person.ID, &person.Name, &person.Email, &person.Phone, &person.CreatedAt, &person.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return person, nil
}
