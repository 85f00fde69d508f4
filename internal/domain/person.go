package domain

import (
	"context"
	"time"
)

// Person is the organization-wide member record, resolved by email. A Person
// may attend many events; the per-event state lives on Attendee.
// swagger:model Person
type Person struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewPerson returns a new Person. ID is typically set by the repository on create.
func NewPerson(name, email, phone string, createdAt, updatedAt time.Time) *Person {
	return &Person{
		Name:      name,
		Email:     email,
		Phone:     phone,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
}

// PersonRepository defines storage operations for member records.
type PersonRepository interface {
	Create(ctx context.Context, person *Person) error
	GetByEmail(ctx context.Context, email string) (*Person, error)
	GetByID(ctx context.Context, id string) (*Person, error)
}
