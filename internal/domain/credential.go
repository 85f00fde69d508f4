package domain

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// CredentialPrefix is the fixed first field of every credential payload. A
// scan whose first field differs is rejected before any lookup happens.
const CredentialPrefix = "GPASS-EVENT"

// Credential is the parsed form of a scannable credential payload:
// <prefix>:<eventID>:<attendeeID>:<unix issuance timestamp>.
type Credential struct {
	EventID    string
	AttendeeID string
	IssuedUnix int64
}

// EncodeCredential builds the canonical payload string for an attendee.
func EncodeCredential(eventID, attendeeID string, issuedUnix int64) string {
	return fmt.Sprintf("%s:%s:%s:%d", CredentialPrefix, eventID, attendeeID, issuedUnix)
}

// ParseCredential parses a scanned payload. It returns ErrMalformedCredential
// unless the payload splits into exactly four fields with the fixed prefix.
func ParseCredential(payload string) (*Credential, error) {
	parts := strings.Split(payload, ":")
	if len(parts) != 4 {
		return nil, ErrMalformedCredential
	}
	if parts[0] != CredentialPrefix {
		return nil, ErrMalformedCredential
	}
	if parts[1] == "" || parts[2] == "" {
		return nil, ErrMalformedCredential
	}
	issued, err := strconv.ParseInt(parts[3], 10, 64)
	if err != nil {
		return nil, ErrMalformedCredential
	}
	return &Credential{
		EventID:    parts[1],
		AttendeeID: parts[2],
		IssuedUnix: issued,
	}, nil
}

// CredentialRenderer renders a credential payload into a scannable image
// (infrastructure port).
type CredentialRenderer interface {
	RenderPNG(payload string) (png []byte, err error)
}

// CredentialService issues scannable credentials for attendees.
type CredentialService interface {
	// EnsureCredential issues a credential for the attendee if it has none
	// and returns the token. Idempotent: an existing credential is returned
	// unchanged, never rotated.
	EnsureCredential(ctx context.Context, attendeeID string) (token string, err error)
}
