package domain

import (
	"context"
	"time"
)

// CheckInResult is the outcome of a successful check-in resolution. A
// duplicate scan is a success with AlreadyCheckedIn set, never an error.
// swagger:model CheckInResult
type CheckInResult struct {
	AttendeeID       string     `json:"attendee_id"`
	AttendeeName     string     `json:"attendee_name"`
	AttendeeEmail    string     `json:"attendee_email"`
	AlreadyCheckedIn bool       `json:"already_checked_in"`
	CheckedInAt      *time.Time `json:"checked_in_at"`
}

// CheckInService validates scanned credentials and performs the idempotent
// check-in transition against the attendee store.
type CheckInService interface {
	// CheckInByCredential validates the scanned payload against the event and
	// checks the resolved attendee in. Possible failures, in validation
	// order: ErrMalformedCredential, ErrWrongEvent, ErrUnknownAttendee.
	CheckInByCredential(ctx context.Context, eventID, payload string) (*CheckInResult, error)

	// CheckInByEmail is the manual fallback for when a code will not scan:
	// resolve by typed email within the event, then the same idempotent
	// transition. Fails with ErrUnknownAttendee if no attendee matches.
	CheckInByEmail(ctx context.Context, eventID, email string) (*CheckInResult, error)
}
