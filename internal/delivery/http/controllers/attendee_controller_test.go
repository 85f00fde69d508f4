package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatherpass/internal/delivery/http/helpers"
	"gatherpass/internal/domain"
)

// fakeImportService implements domain.ImportService for handler tests.
type fakeImportService struct {
	result *domain.ImportResult
	err    error

	lastEventID  string
	lastFilename string
	lastContent  string
}

func (f *fakeImportService) ImportAttendees(ctx context.Context, eventID, filename string, file io.Reader) (*domain.ImportResult, error) {
	f.lastEventID = eventID
	f.lastFilename = filename
	raw, _ := io.ReadAll(file)
	f.lastContent = string(raw)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

// fakeCredentialService implements domain.CredentialService.
type fakeCredentialService struct {
	token string
	err   error

	lastAttendeeID string
}

func (f *fakeCredentialService) EnsureCredential(ctx context.Context, attendeeID string) (string, error) {
	f.lastAttendeeID = attendeeID
	if f.err != nil {
		return "", f.err
	}
	return f.token, nil
}

// fakeAttendeeRepo implements domain.AttendeeRepository; only ListByEvent is
// exercised by these handlers.
type fakeAttendeeRepo struct {
	attendees []*domain.Attendee
	err       error
}

func (f *fakeAttendeeRepo) Create(ctx context.Context, a *domain.Attendee) error { return f.err }
func (f *fakeAttendeeRepo) GetByID(ctx context.Context, id string) (*domain.Attendee, error) {
	return nil, domain.ErrNotFound
}
func (f *fakeAttendeeRepo) GetByEventAndPerson(ctx context.Context, eventID, personID string) (*domain.Attendee, error) {
	return nil, domain.ErrNotFound
}
func (f *fakeAttendeeRepo) GetByEventAndEmail(ctx context.Context, eventID, email string) (*domain.Attendee, error) {
	return nil, domain.ErrNotFound
}
func (f *fakeAttendeeRepo) ListByEvent(ctx context.Context, eventID string) ([]*domain.Attendee, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.attendees, nil
}
func (f *fakeAttendeeRepo) SetCredential(ctx context.Context, id, token, image string, issuedAt time.Time) error {
	return f.err
}
func (f *fakeAttendeeRepo) MarkEmailSent(ctx context.Context, id string, sentAt time.Time) error {
	return f.err
}
func (f *fakeAttendeeRepo) MarkEmailFailed(ctx context.Context, id, errorMessage string) error {
	return f.err
}
func (f *fakeAttendeeRepo) CheckIn(ctx context.Context, id string, at time.Time) error {
	return f.err
}

func multipartUpload(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestAttendeeController_ImportAttendees(t *testing.T) {
	t.Run("passes the upload through and relays the report", func(t *testing.T) {
		svc := &fakeImportService{result: &domain.ImportResult{
			SuccessCount: 1,
			FailedCount:  1,
			Errors:       []string{"Row 1: missing required fields (name, email)"},
		}}
		ctrl := NewAttendeeController(testLogger, svc, &fakeCredentialService{}, &fakeAttendeeRepo{})

		content := "name,email\nNo Email,\nAna,ana@example.org\n"
		body, contentType := multipartUpload(t, "attendees.csv", content)
		req := httptest.NewRequest(http.MethodPost, "/events/"+testEventID+"/attendees/import", body)
		req.Header.Set("Content-Type", contentType)
		req.SetPathValue("eventID", testEventID)
		rr := httptest.NewRecorder()

		ctrl.ImportAttendees(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, testEventID, svc.lastEventID)
		assert.Equal(t, "attendees.csv", svc.lastFilename)
		assert.Equal(t, content, svc.lastContent)

		var envelope helpers.APIResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
		data, ok := envelope.Data.(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, float64(1), data["success_count"])
		assert.Equal(t, float64(1), data["failed_count"])
	})

	t.Run("missing file part", func(t *testing.T) {
		ctrl := NewAttendeeController(testLogger, &fakeImportService{}, &fakeCredentialService{}, &fakeAttendeeRepo{})

		req := httptest.NewRequest(http.MethodPost, "/events/"+testEventID+"/attendees/import", bytes.NewBufferString(""))
		req.Header.Set("Content-Type", "multipart/form-data; boundary=xyz")
		req.SetPathValue("eventID", testEventID)
		rr := httptest.NewRecorder()

		ctrl.ImportAttendees(rr, req)
		require.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("unknown event", func(t *testing.T) {
		svc := &fakeImportService{err: domain.ErrNotFound}
		ctrl := NewAttendeeController(testLogger, svc, &fakeCredentialService{}, &fakeAttendeeRepo{})

		body, contentType := multipartUpload(t, "a.csv", "name,email\n")
		req := httptest.NewRequest(http.MethodPost, "/events/"+testEventID+"/attendees/import", body)
		req.Header.Set("Content-Type", contentType)
		req.SetPathValue("eventID", testEventID)
		rr := httptest.NewRecorder()

		ctrl.ImportAttendees(rr, req)
		require.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestAttendeeController_ListSelectableAttendees(t *testing.T) {
	now := time.Now()
	repo := &fakeAttendeeRepo{attendees: []*domain.Attendee{
		{ID: "att-1", EmailStatus: domain.EmailStatusPending},
		{ID: "att-2", EmailStatus: domain.EmailStatusSent},
		{ID: "att-3", EmailStatus: domain.EmailStatusFailed},
		{ID: "att-4", EmailStatus: domain.EmailStatusPending, IsCheckedIn: true, CheckedInAt: &now},
		{ID: "att-5", EmailStatus: domain.EmailStatusRetryScheduled},
	}}
	ctrl := NewAttendeeController(testLogger, &fakeImportService{}, &fakeCredentialService{}, repo)

	req := httptest.NewRequest(http.MethodGet, "/events/"+testEventID+"/attendees/selectable", nil)
	req.SetPathValue("eventID", testEventID)
	rr := httptest.NewRecorder()

	ctrl.ListSelectableAttendees(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var envelope helpers.APIResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
	data, ok := envelope.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, []interface{}{"att-1", "att-3", "att-5"}, data["attendee_ids"])
}

func TestAttendeeController_EnsureCredential(t *testing.T) {
	t.Run("returns the token", func(t *testing.T) {
		svc := &fakeCredentialService{token: "GPASS-EVENT:" + testEventID + ":" + testAttendeeID + ":1756600000"}
		ctrl := NewAttendeeController(testLogger, &fakeImportService{}, svc, &fakeAttendeeRepo{})

		req := httptest.NewRequest(http.MethodPost, "/attendees/"+testAttendeeID+"/credential", nil)
		req.SetPathValue("attendeeID", testAttendeeID)
		rr := httptest.NewRecorder()

		ctrl.EnsureCredential(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, testAttendeeID, svc.lastAttendeeID)
	})

	t.Run("unknown attendee", func(t *testing.T) {
		svc := &fakeCredentialService{err: domain.ErrNotFound}
		ctrl := NewAttendeeController(testLogger, &fakeImportService{}, svc, &fakeAttendeeRepo{})

		req := httptest.NewRequest(http.MethodPost, "/attendees/"+testAttendeeID+"/credential", nil)
		req.SetPathValue("attendeeID", testAttendeeID)
		rr := httptest.NewRecorder()

		ctrl.EnsureCredential(rr, req)
		require.Equal(t, http.StatusNotFound, rr.Code)
	})
}
