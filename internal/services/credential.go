package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"gatherpass/internal/domain"
)

type credentialService struct {
	attendeeRepo domain.AttendeeRepository
	renderer     domain.CredentialRenderer
}

// NewCredentialService creates a CredentialService backed by the attendee
// store and a QR renderer.
func NewCredentialService(attendeeRepo domain.AttendeeRepository, renderer domain.CredentialRenderer) domain.CredentialService {
	return &credentialService{
		attendeeRepo: attendeeRepo,
		renderer:     renderer,
	}
}

// EnsureCredential issues the attendee's credential if missing. Issued
// credentials are immutable: re-running an import or retrying a send returns
// the existing token and never rotates it.
func (s *credentialService) EnsureCredential(ctx context.Context, attendeeID string) (string, error) {
	attendee, err := s.attendeeRepo.GetByID(ctx, attendeeID)
	if err != nil {
		return "", fmt.Errorf("get attendee: %w", err)
	}
	if attendee.HasCredential() {
		return attendee.CredentialToken, nil
	}

	issuedAt := time.Now()
	token := domain.EncodeCredential(attendee.EventID, attendee.ID, issuedAt.Unix())
	png, err := s.renderer.RenderPNG(token)
	if err != nil {
		return "", fmt.Errorf("render credential image: %w", err)
	}
	image := base64.StdEncoding.EncodeToString(png)

	// The store only writes when the credential column is still empty, so a
	// concurrent issuance cannot overwrite the winner.
	if err := s.attendeeRepo.SetCredential(ctx, attendee.ID, token, image, issuedAt); err != nil {
		return "", fmt.Errorf("persist credential: %w", err)
	}

	stored, err := s.attendeeRepo.GetByID(ctx, attendeeID)
	if err != nil {
		return "", fmt.Errorf("reload attendee: %w", err)
	}
	return stored.CredentialToken, nil
}
