package domain

import (
	"context"
	"time"
)

// Operator represents an admin-console account.
// swagger:model Operator
type Operator struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Salt         string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PasswordHasher handles salt generation, hashing, and verification.
// Implementations may use bcrypt, argon2, etc.
type PasswordHasher interface {
	GenerateSalt() (string, error)
	Hash(salt, password string) (hash string, err error)
	Compare(hash, salt, password string) error
}

// TokenIssuer issues tokens (e.g. JWT) for an authenticated operator.
type TokenIssuer interface {
	Issue(operatorID, email string, expiry time.Duration) (string, error)
}

// TokenVerifier verifies a token and returns the authenticated operator ID.
type TokenVerifier interface {
	Verify(token string) (operatorID string, err error)
}

// OperatorRepository defines storage operations for operator accounts.
type OperatorRepository interface {
	Create(ctx context.Context, operator *Operator) error
	GetByEmail(ctx context.Context, email string) (*Operator, error)
	GetByID(ctx context.Context, id string) (*Operator, error)
}

// OperatorStateRepository stores small advisory per-operator console state,
// currently just the selected event. It is convenience state, never
// authoritative: the event list always comes from EventRepository.
type OperatorStateRepository interface {
	GetSelectedEvent(ctx context.Context, operatorID string) (eventID string, err error)
	SetSelectedEvent(ctx context.Context, operatorID, eventID string) error
}

// AuthService defines operator signup and login.
type AuthService interface {
	Signup(ctx context.Context, email, name, password string) (*Operator, error)
	Login(ctx context.Context, email, password string) (token string, operator *Operator, err error)
}
