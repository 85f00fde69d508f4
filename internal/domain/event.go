package domain

import (
	"context"
	"time"
)

// Event represents one community event attendees are invited to.
// swagger:model Event
type Event struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Date      time.Time `json:"date"`
	Location  string    `json:"location"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewEvent returns a new Event with the given fields. ID is typically set by the repository on create.
func NewEvent(title string, date time.Time, location string, createdAt, updatedAt time.Time) *Event {
	return &Event{
		Title:     title,
		Date:      date,
		Location:  location,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
}

// EventDeleteResult reports what an event deletion cascaded to.
// swagger:model EventDeleteResult
type EventDeleteResult struct {
	DeletedAttendeeCount int `json:"deleted_attendee_count"`
	DeletedCheckInCount  int `json:"deleted_check_in_count"`
}

// EventRepository defines the interface for event storage
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	List(ctx context.Context) ([]*Event, error)
	// Delete removes the event and all of its attendees, returning how many
	// attendee rows were removed and how many of those were checked in.
	Delete(ctx context.Context, id string) (deletedAttendees, deletedCheckIns int, err error)
}

// EventService defines event lifecycle operations for the admin console.
type EventService interface {
	CreateEvent(ctx context.Context, title string, date time.Time, location string) (*Event, error)
	ListEvents(ctx context.Context) ([]*Event, error)
	// DeleteEvent is destructive and cascades to attendees and their check-in
	// records. Callers must have obtained explicit confirmation first.
	DeleteEvent(ctx context.Context, eventID string) (*EventDeleteResult, error)
}
