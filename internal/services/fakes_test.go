package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"gatherpass/internal/domain"
)

// testLogger discards output so tests don't assert on log text.
var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

// errBoom stands in for an unexpected storage failure.
var errBoom = errors.New("storage offline")

// fakeAttendeeRepo is an in-memory AttendeeRepository honoring the same
// write guards as the postgres implementation.
type fakeAttendeeRepo struct {
	mu        sync.Mutex
	attendees map[string]*domain.Attendee
	nextID    int
	err       error // when set, every call fails with it
}

func newFakeAttendeeRepo() *fakeAttendeeRepo {
	return &fakeAttendeeRepo{attendees: make(map[string]*domain.Attendee)}
}

func (f *fakeAttendeeRepo) add(a *domain.Attendee) *domain.Attendee {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a.ID == "" {
		f.nextID++
		a.ID = "att-" + strconv.Itoa(f.nextID)
	}
	if a.EmailStatus == "" {
		a.EmailStatus = domain.EmailStatusPending
	}
	f.attendees[a.ID] = a
	return a
}

func (f *fakeAttendeeRepo) get(id string) *domain.Attendee {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attendees[id]
}

func (f *fakeAttendeeRepo) Create(ctx context.Context, a *domain.Attendee) error {
	if f.err != nil {
		return f.err
	}
	f.add(a)
	return nil
}

func (f *fakeAttendeeRepo) GetByID(ctx context.Context, id string) (*domain.Attendee, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.attendees[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *a
	return &copied, nil
}

func (f *fakeAttendeeRepo) GetByEventAndPerson(ctx context.Context, eventID, personID string) (*domain.Attendee, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.attendees {
		if a.EventID == eventID && a.PersonID == personID {
			copied := *a
			return &copied, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeAttendeeRepo) GetByEventAndEmail(ctx context.Context, eventID, email string) (*domain.Attendee, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.attendees {
		if a.EventID == eventID && a.Email == email {
			copied := *a
			return &copied, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeAttendeeRepo) ListByEvent(ctx context.Context, eventID string) ([]*domain.Attendee, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Attendee
	for _, a := range f.attendees {
		if a.EventID == eventID {
			copied := *a
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeAttendeeRepo) SetCredential(ctx context.Context, id, token, image string, issuedAt time.Time) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.attendees[id]
	if !ok || a.CredentialToken != "" {
		return nil
	}
	a.CredentialToken = token
	a.CredentialImage = image
	a.CredentialIssuedAt = &issuedAt
	return nil
}

func (f *fakeAttendeeRepo) MarkEmailSent(ctx context.Context, id string, sentAt time.Time) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.attendees[id]
	if !ok {
		return domain.ErrNotFound
	}
	a.EmailStatus = domain.EmailStatusSent
	a.EmailSentAt = &sentAt
	a.LastErrorMessage = nil
	return nil
}

func (f *fakeAttendeeRepo) MarkEmailFailed(ctx context.Context, id, errorMessage string) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.attendees[id]
	if !ok {
		return domain.ErrNotFound
	}
	a.EmailStatus = domain.EmailStatusFailed
	a.LastErrorMessage = &errorMessage
	a.EmailRetryCount++
	return nil
}

func (f *fakeAttendeeRepo) CheckIn(ctx context.Context, id string, at time.Time) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.attendees[id]
	if !ok {
		return domain.ErrNotFound
	}
	if a.IsCheckedIn {
		return nil
	}
	a.IsCheckedIn = true
	a.CheckedInAt = &at
	return nil
}

// fakeEventRepo is an in-memory EventRepository.
type fakeEventRepo struct {
	mu     sync.Mutex
	events map[string]*domain.Event
	nextID int

	deleteAttendees int
	deleteCheckIns  int
	err             error
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{events: make(map[string]*domain.Event)}
}

func (f *fakeEventRepo) add(e *domain.Event) *domain.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	if e.ID == "" {
		f.nextID++
		e.ID = "evt-" + strconv.Itoa(f.nextID)
	}
	f.events[e.ID] = e
	return e
}

func (f *fakeEventRepo) Create(ctx context.Context, e *domain.Event) error {
	if f.err != nil {
		return f.err
	}
	f.add(e)
	return nil
}

func (f *fakeEventRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return e, nil
}

func (f *fakeEventRepo) List(ctx context.Context) ([]*domain.Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*domain.Event{}
	for _, e := range f.events {
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeEventRepo) Delete(ctx context.Context, id string) (int, int, error) {
	if f.err != nil {
		return 0, 0, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.events[id]; !ok {
		return 0, 0, domain.ErrNotFound
	}
	delete(f.events, id)
	return f.deleteAttendees, f.deleteCheckIns, nil
}

// fakePersonRepo is an in-memory PersonRepository keyed by email.
type fakePersonRepo struct {
	mu     sync.Mutex
	people map[string]*domain.Person // email -> person
	nextID int
	err    error
}

func newFakePersonRepo() *fakePersonRepo {
	return &fakePersonRepo{people: make(map[string]*domain.Person)}
}

func (f *fakePersonRepo) Create(ctx context.Context, p *domain.Person) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	p.ID = "person-" + strconv.Itoa(f.nextID)
	f.people[p.Email] = p
	return nil
}

func (f *fakePersonRepo) GetByEmail(ctx context.Context, email string) (*domain.Person, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.people[email]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

func (f *fakePersonRepo) GetByID(ctx context.Context, id string) (*domain.Person, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.people {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, domain.ErrNotFound
}

// fakeQRRenderer returns a fixed byte payload instead of a real PNG.
type fakeQRRenderer struct{}

func (fakeQRRenderer) RenderPNG(payload string) ([]byte, error) {
	return []byte("png:" + payload), nil
}

// fakeEmailService records sends and fails for addresses listed in failFor.
type fakeEmailService struct {
	mu      sync.Mutex
	sends   []string // recipient addresses in send order
	sentAt  []time.Time
	failFor map[string]bool
	// notify, when set, receives each recipient after the send attempt.
	notify chan string
}

func newFakeEmailService() *fakeEmailService {
	return &fakeEmailService{failFor: make(map[string]bool)}
}

func (f *fakeEmailService) SendTicket(ctx context.Context, to string, data *domain.TicketEmailData) error {
	f.mu.Lock()
	f.sends = append(f.sends, to)
	f.sentAt = append(f.sentAt, time.Now())
	fail := f.failFor[to]
	f.mu.Unlock()
	if f.notify != nil {
		f.notify <- to
	}
	if fail {
		return fmt.Errorf("channel rejected recipient %s", to)
	}
	return nil
}

func (f *fakeEmailService) sentTo() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.sends))
	copy(out, f.sends)
	return out
}
