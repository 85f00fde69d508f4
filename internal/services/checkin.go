package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gatherpass/internal/domain"
	"gatherpass/internal/metrics"
)

type checkInService struct {
	attendeeRepo domain.AttendeeRepository
	logger       *slog.Logger
}

// NewCheckInService creates a CheckInService over the attendee store.
func NewCheckInService(attendeeRepo domain.AttendeeRepository, logger *slog.Logger) domain.CheckInService {
	return &checkInService{
		attendeeRepo: attendeeRepo,
		logger:       logger,
	}
}

// CheckInByCredential validates the scanned payload in a fixed order so the
// operator can tell a bad scan from a wrong-event pass from an unregistered
// person: shape first, then event match, then attendee lookup.
func (s *checkInService) CheckInByCredential(ctx context.Context, eventID, payload string) (*domain.CheckInResult, error) {
	credential, err := domain.ParseCredential(strings.TrimSpace(payload))
	if err != nil {
		metrics.CheckIns.WithLabelValues("malformed").Inc()
		return nil, err
	}
	if eventID != "" && credential.EventID != eventID {
		metrics.CheckIns.WithLabelValues("wrong_event").Inc()
		return nil, domain.ErrWrongEvent
	}

	attendee, err := s.attendeeRepo.GetByID(ctx, credential.AttendeeID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			metrics.CheckIns.WithLabelValues("unknown").Inc()
			return nil, domain.ErrUnknownAttendee
		}
		return nil, fmt.Errorf("get attendee: %w", err)
	}
	if attendee.EventID != credential.EventID {
		metrics.CheckIns.WithLabelValues("unknown").Inc()
		return nil, domain.ErrUnknownAttendee
	}

	return s.transition(ctx, attendee)
}

// CheckInByEmail is the manual fallback for when a code will not scan. Same
// idempotent transition, resolution by typed email instead of payload.
func (s *checkInService) CheckInByEmail(ctx context.Context, eventID, email string) (*domain.CheckInResult, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	}

	attendee, err := s.attendeeRepo.GetByEventAndEmail(ctx, eventID, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			metrics.CheckIns.WithLabelValues("unknown").Inc()
			return nil, domain.ErrUnknownAttendee
		}
		return nil, fmt.Errorf("get attendee by email: %w", err)
	}

	return s.transition(ctx, attendee)
}

// transition performs the idempotent check-in. A duplicate scan returns
// success with AlreadyCheckedIn set and the original timestamp, so operator
// error or a flaky network retry never surfaces as a false failure.
func (s *checkInService) transition(ctx context.Context, attendee *domain.Attendee) (*domain.CheckInResult, error) {
	if attendee.IsCheckedIn {
		metrics.CheckIns.WithLabelValues("duplicate").Inc()
		return &domain.CheckInResult{
			AttendeeID:       attendee.ID,
			AttendeeName:     attendee.Name,
			AttendeeEmail:    attendee.Email,
			AlreadyCheckedIn: true,
			CheckedInAt:      attendee.CheckedInAt,
		}, nil
	}

	now := time.Now()
	if err := s.attendeeRepo.CheckIn(ctx, attendee.ID, now); err != nil {
		return nil, fmt.Errorf("check in attendee: %w", err)
	}

	s.logger.InfoContext(ctx, "attendee checked in",
		"event_id", attendee.EventID,
		"attendee_id", attendee.ID,
	)
	metrics.CheckIns.WithLabelValues("checked_in").Inc()
	return &domain.CheckInResult{
		AttendeeID:       attendee.ID,
		AttendeeName:     attendee.Name,
		AttendeeEmail:    attendee.Email,
		AlreadyCheckedIn: false,
		CheckedInAt:      &now,
	}, nil
}
