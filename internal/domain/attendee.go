package domain

import (
	"context"
	"time"
)

// EmailStatus tracks where one attendee is in the credential email lifecycle.
type EmailStatus string

const (
	EmailStatusPending        EmailStatus = "PENDING"
	EmailStatusSent           EmailStatus = "SENT"
	EmailStatusFailed         EmailStatus = "FAILED"
	EmailStatusRetryScheduled EmailStatus = "RETRY_SCHEDULED"
)

// Valid reports whether s is one of the known email statuses.
func (s EmailStatus) Valid() bool {
	switch s {
	case EmailStatusPending, EmailStatusSent, EmailStatusFailed, EmailStatusRetryScheduled:
		return true
	}
	return false
}

// Attendee is the event-scoped record tracking one person's headcounts,
// credential, email dispatch state and check-in state for one event.
//
// Invariants maintained by the repository update methods:
// IsCheckedIn == true exactly when CheckedInAt is set, and
// EmailStatus == SENT implies EmailSentAt is set.
// swagger:model Attendee
type Attendee struct {
	ID       string `json:"id"`
	EventID  string `json:"event_id"`
	PersonID string `json:"person_id"`

	// Name, Email and Phone are joined from the person record on reads.
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`

	AdultCount      int `json:"adult_count"`
	ChildCount      int `json:"child_count"`
	MealAdultVeg    int `json:"meal_adult_veg"`
	MealAdultNonVeg int `json:"meal_adult_nonveg"`
	MealChild       int `json:"meal_child"`

	EmailStatus      EmailStatus `json:"email_status"`
	EmailSentAt      *time.Time  `json:"email_sent_at,omitempty"`
	EmailRetryCount  int         `json:"email_retry_count"`
	LastErrorMessage *string     `json:"last_error_message,omitempty"`

	CredentialToken    string     `json:"credential_token,omitempty"`
	CredentialImage    string     `json:"credential_image,omitempty"` // base64 PNG
	CredentialIssuedAt *time.Time `json:"credential_issued_at,omitempty"`

	IsCheckedIn bool       `json:"is_checked_in"`
	CheckedInAt *time.Time `json:"checked_in_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Selectable reports whether the attendee may be part of a dispatch selection:
// not checked in yet and not already successfully sent. RETRY_SCHEDULED is
// treated exactly like FAILED here; nothing in the dispatch path schedules it.
func (a *Attendee) Selectable() bool {
	if a.IsCheckedIn {
		return false
	}
	switch a.EmailStatus {
	case EmailStatusPending, EmailStatusFailed, EmailStatusRetryScheduled:
		return true
	}
	return false
}

// HasCredential reports whether a credential has been issued for the attendee.
func (a *Attendee) HasCredential() bool {
	return a.CredentialToken != ""
}

// AttendeeRepository defines storage operations for attendees. The email and
// check-in update methods each touch a disjoint field set atomically, so the
// dispatch loop and the check-in path never need a lock above the store.
type AttendeeRepository interface {
	Create(ctx context.Context, attendee *Attendee) error
	GetByID(ctx context.Context, id string) (*Attendee, error)
	GetByEventAndPerson(ctx context.Context, eventID, personID string) (*Attendee, error)
	GetByEventAndEmail(ctx context.Context, eventID, email string) (*Attendee, error)
	ListByEvent(ctx context.Context, eventID string) ([]*Attendee, error)

	// SetCredential persists the issued credential. It only writes when no
	// credential exists yet; a second call with a different token is a no-op.
	SetCredential(ctx context.Context, id, token, image string, issuedAt time.Time) error

	// MarkEmailSent sets status SENT and the sent timestamp.
	MarkEmailSent(ctx context.Context, id string, sentAt time.Time) error

	// MarkEmailFailed sets status FAILED, records the error message and
	// increments the retry count.
	MarkEmailFailed(ctx context.Context, id, errorMessage string) error

	// CheckIn marks the attendee present. It only writes when the attendee is
	// not checked in yet, so the first check-in timestamp is never overwritten.
	CheckIn(ctx context.Context, id string, at time.Time) error
}
