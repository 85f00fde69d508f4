package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"gatherpass/internal/domain"
	"gatherpass/internal/metrics"
)

// sendOutcome classifies one attempt inside a run.
type sendOutcome int

const (
	outcomeSent sendOutcome = iota
	outcomeFailed
	outcomeSkipped
)

// run is the in-memory state of one batch: the operator's selection, a
// cursor, a cooperative-cancellation context and progress fan-out. It is
// never persisted; a process restart is equivalent to a cancellation at the
// last attendee state the store saw.
type run struct {
	id        string
	eventID   string
	selection []string
	startedAt time.Time

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	last        domain.DispatchProgress
	subscribers []chan domain.DispatchProgress
	closed      bool
}

// publish updates the latest progress and fans it out. Slow subscribers are
// skipped rather than allowed to stall the send loop.
func (r *run) publish(p domain.DispatchProgress) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.last = p
	for _, ch := range r.subscribers {
		select {
		case ch <- p:
		default:
		}
	}
	if p.Done {
		for _, ch := range r.subscribers {
			close(ch)
		}
		r.subscribers = nil
		r.closed = true
	}
}

func (r *run) subscribe() <-chan domain.DispatchProgress {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch := make(chan domain.DispatchProgress, 16)
	if r.closed {
		close(ch)
		return ch
	}
	ch <- r.last
	r.subscribers = append(r.subscribers, ch)
	return ch
}

func (r *run) snapshot() *domain.DispatchRunInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return &domain.DispatchRunInfo{
		RunID:     r.id,
		EventID:   r.eventID,
		Total:     len(r.selection),
		StartedAt: r.startedAt,
		Progress:  r.last,
	}
}

type dispatchService struct {
	eventRepo    domain.EventRepository
	attendeeRepo domain.AttendeeRepository
	credentials  domain.CredentialService
	emails       domain.EmailService
	logger       *slog.Logger

	// sendDelay is the pause between consecutive sends, imposed by the mail
	// channel's per-account rate limit.
	sendDelay time.Duration

	mu        sync.Mutex
	runs      map[string]*run                    // eventID -> active run
	summaries map[string]*domain.DispatchSummary // eventID -> last finished run
}

// NewDispatchService creates the batch dispatch worker. sendDelay is the
// mandatory inter-send pause; tests may shorten it.
func NewDispatchService(
	eventRepo domain.EventRepository,
	attendeeRepo domain.AttendeeRepository,
	credentials domain.CredentialService,
	emails domain.EmailService,
	sendDelay time.Duration,
	logger *slog.Logger,
) domain.DispatchService {
	return &dispatchService{
		eventRepo:    eventRepo,
		attendeeRepo: attendeeRepo,
		credentials:  credentials,
		emails:       emails,
		logger:       logger,
		sendDelay:    sendDelay,
		runs:         make(map[string]*run),
		summaries:    make(map[string]*domain.DispatchSummary),
	}
}

func (s *dispatchService) StartBatch(ctx context.Context, eventID string, attendeeIDs []string) (*domain.DispatchRunInfo, error) {
	if len(attendeeIDs) == 0 {
		return nil, fmt.Errorf("%w: empty selection", domain.ErrInvalidInput)
	}
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}

	// The run outlives the HTTP request that started it, so it gets its own
	// context; only StopBatch cancels it.
	runCtx, cancel := context.WithCancel(context.Background())
	selection := make([]string, len(attendeeIDs))
	copy(selection, attendeeIDs)
	r := &run{
		id:        uuid.NewString(),
		eventID:   eventID,
		selection: selection,
		startedAt: time.Now(),
		ctx:       runCtx,
		cancel:    cancel,
	}
	r.last = domain.DispatchProgress{RunID: r.id, Total: len(selection)}

	s.mu.Lock()
	if _, active := s.runs[eventID]; active {
		s.mu.Unlock()
		cancel()
		return nil, domain.ErrRunActive
	}
	s.runs[eventID] = r
	s.mu.Unlock()

	metrics.ActiveDispatchRuns.Inc()
	go s.execute(r, event)

	return r.snapshot(), nil
}

// execute walks the selection sequentially: one send at a time, in the exact
// operator-supplied order, with the mandatory pause between sends. Both the
// send and the pause observe the cancellation flag at their boundaries.
func (s *dispatchService) execute(r *run, event *domain.Event) {
	defer metrics.ActiveDispatchRuns.Dec()

	var sent, failed, skipped int
	succeeded := make(map[string]bool, len(r.selection))
	cancelled := false

	for i, attendeeID := range r.selection {
		if r.ctx.Err() != nil {
			cancelled = true
			break
		}

		outcome, err := s.sendOne(r.ctx, event, attendeeID, false)
		if err != nil {
			// Storage failure: the run cannot know what was persisted, so it
			// stops here rather than continue blindly. Attendee rows keep
			// whatever state they reached.
			s.logger.Error("dispatch run aborted on storage failure",
				"run_id", r.id, "event_id", r.eventID, "attendee_id", attendeeID, "err", err)
			cancelled = true
			break
		}
		switch outcome {
		case outcomeSent:
			sent++
			succeeded[attendeeID] = true
		case outcomeFailed:
			failed++
		case outcomeSkipped:
			skipped++
		}

		r.publish(domain.DispatchProgress{
			RunID:   r.id,
			Current: i + 1,
			Total:   len(r.selection),
			Sent:    sent,
			Failed:  failed,
			Skipped: skipped,
		})

		if i < len(r.selection)-1 && s.sendDelay > 0 {
			// The pause itself is a cancellation point so Stop feels
			// immediate instead of waiting out the delay.
			timer := time.NewTimer(s.sendDelay)
			select {
			case <-timer.C:
			case <-r.ctx.Done():
				timer.Stop()
				cancelled = true
			}
			if cancelled {
				break
			}
		}
	}

	remaining := make([]string, 0, len(r.selection))
	for _, id := range r.selection {
		if !succeeded[id] {
			remaining = append(remaining, id)
		}
	}
	summary := &domain.DispatchSummary{
		RunID:     r.id,
		Sent:      sent,
		Failed:    failed,
		Skipped:   skipped,
		Cancelled: cancelled,
		Remaining: remaining,
	}

	s.mu.Lock()
	delete(s.runs, r.eventID)
	s.summaries[r.eventID] = summary
	s.mu.Unlock()

	r.publish(domain.DispatchProgress{
		RunID:     r.id,
		Current:   sent + failed + skipped,
		Total:     len(r.selection),
		Sent:      sent,
		Failed:    failed,
		Skipped:   skipped,
		Done:      true,
		Cancelled: cancelled,
	})
	r.cancel()

	s.logger.Info("dispatch run finished",
		"run_id", r.id, "event_id", r.eventID,
		"sent", sent, "failed", failed, "skipped", skipped, "cancelled", cancelled)
}

// sendOne performs a single attempt: fresh store read, selectability check at
// send time, credential backfill, send, and the per-attendee state update.
// The returned error is reserved for storage failures; a failed send is a
// normal outcome recorded on the attendee row.
func (s *dispatchService) sendOne(ctx context.Context, event *domain.Event, attendeeID string, force bool) (sendOutcome, error) {
	attendee, err := s.attendeeRepo.GetByID(ctx, attendeeID)
	if err != nil {
		return outcomeSkipped, fmt.Errorf("get attendee: %w", err)
	}

	// The selection is operator-supplied; an id from another event must not
	// be mailed a ticket carrying this event's title and date. Not even
	// force crosses events.
	if attendee.EventID != event.ID {
		return outcomeSkipped, nil
	}

	// Reading current state immediately before deciding to send means an
	// out-of-band check-in excludes the attendee from this very run, not
	// just the next selection.
	if !force && !attendee.Selectable() {
		return outcomeSkipped, nil
	}

	if !attendee.HasCredential() {
		if _, err := s.credentials.EnsureCredential(ctx, attendee.ID); err != nil {
			return outcomeSkipped, fmt.Errorf("ensure credential: %w", err)
		}
		if attendee, err = s.attendeeRepo.GetByID(ctx, attendeeID); err != nil {
			return outcomeSkipped, fmt.Errorf("reload attendee: %w", err)
		}
	}

	data := &domain.TicketEmailData{
		Name:          attendee.Name,
		EventTitle:    event.Title,
		EventDate:     event.Date.Format("Monday, 2 January 2006 15:04"),
		EventLocation: event.Location,
		QRImageBase64: attendee.CredentialImage,
		Token:         attendee.CredentialToken,
	}
	if sendErr := s.emails.SendTicket(ctx, attendee.Email, data); sendErr != nil {
		metrics.EmailsFailed.Inc()
		if err := s.attendeeRepo.MarkEmailFailed(ctx, attendee.ID, sendErr.Error()); err != nil {
			return outcomeFailed, fmt.Errorf("mark email failed: %w", err)
		}
		return outcomeFailed, nil
	}

	metrics.EmailsSent.Inc()
	if err := s.attendeeRepo.MarkEmailSent(ctx, attendee.ID, time.Now()); err != nil {
		return outcomeSent, fmt.Errorf("mark email sent: %w", err)
	}
	return outcomeSent, nil
}

func (s *dispatchService) Subscribe(eventID string) (<-chan domain.DispatchProgress, error) {
	s.mu.Lock()
	r, ok := s.runs[eventID]
	s.mu.Unlock()
	if !ok {
		return nil, domain.ErrNoActiveRun
	}
	return r.subscribe(), nil
}

func (s *dispatchService) ActiveRun(eventID string) (*domain.DispatchRunInfo, error) {
	s.mu.Lock()
	r, ok := s.runs[eventID]
	s.mu.Unlock()
	if !ok {
		return nil, domain.ErrNoActiveRun
	}
	return r.snapshot(), nil
}

func (s *dispatchService) StopBatch(eventID string) error {
	s.mu.Lock()
	r, ok := s.runs[eventID]
	s.mu.Unlock()
	if !ok {
		return domain.ErrNoActiveRun
	}
	// Cooperative only: the flag is observed at the next iteration or delay
	// boundary, never mid-send.
	r.cancel()
	return nil
}

func (s *dispatchService) LastSummary(eventID string) (*domain.DispatchSummary, error) {
	s.mu.Lock()
	summary, ok := s.summaries[eventID]
	s.mu.Unlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	return summary, nil
}

// RetrySingle is one iteration of the batch loop for one attendee, without
// the inter-send delay. With force, the selectability restriction is
// bypassed so even a SENT attendee can be re-sent.
func (s *dispatchService) RetrySingle(ctx context.Context, attendeeID string, force bool) (*domain.RetryResult, error) {
	attendee, err := s.attendeeRepo.GetByID(ctx, attendeeID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get attendee: %w", err)
	}
	event, err := s.eventRepo.GetByID(ctx, attendee.EventID)
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}

	outcome, err := s.sendOne(ctx, event, attendeeID, force)
	if err != nil {
		return nil, err
	}

	updated, err := s.attendeeRepo.GetByID(ctx, attendeeID)
	if err != nil {
		return nil, fmt.Errorf("reload attendee: %w", err)
	}
	result := &domain.RetryResult{
		AttendeeID: attendeeID,
		Status:     updated.EmailStatus,
	}
	if outcome == outcomeFailed && updated.LastErrorMessage != nil {
		result.Error = *updated.LastErrorMessage
	}
	if outcome == outcomeSkipped {
		return nil, fmt.Errorf("%w: attendee is not selectable (checked in or already sent)", domain.ErrInvalidInput)
	}
	return result, nil
}
