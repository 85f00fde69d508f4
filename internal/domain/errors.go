package domain

import "errors"

// Sentinel errors shared across services and repositories.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput is returned when a caller-supplied value fails validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmailTaken is returned on operator signup with an email already in use.
	ErrEmailTaken = errors.New("email already in use")

	// ErrInvalidCredentials is returned on a failed operator login.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrRunActive is returned when a dispatch run is requested for an event
	// that already has one in flight.
	ErrRunActive = errors.New("a dispatch run is already active for this event")

	// ErrNoActiveRun is returned when stop or progress is requested for an
	// event with no run in flight.
	ErrNoActiveRun = errors.New("no active dispatch run for this event")
)

// Check-in rejection reasons. Each is a distinct, operator-visible condition:
// a bad scan, a credential for another event, and a credential that resolves
// to nobody on this event's list must be distinguishable at the venue.
var (
	ErrMalformedCredential = errors.New("credential payload is malformed")
	ErrWrongEvent          = errors.New("credential belongs to a different event")
	ErrUnknownAttendee     = errors.New("credential does not match a registered attendee")
)
