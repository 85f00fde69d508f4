package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatherpass/internal/delivery/http/helpers"
	"gatherpass/internal/delivery/http/middleware"
	"gatherpass/internal/domain"
)

// fakeEventService implements domain.EventService for handler tests.
type fakeEventService struct {
	createErr    error
	listErr      error
	listResult   []*domain.Event
	deleteErr    error
	deleteResult *domain.EventDeleteResult

	lastCreateTitle   string
	lastDeleteEventID string
}

func (f *fakeEventService) CreateEvent(ctx context.Context, title string, date time.Time, location string) (*domain.Event, error) {
	f.lastCreateTitle = title
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &domain.Event{ID: testEventID, Title: title, Date: date, Location: location}, nil
}

func (f *fakeEventService) ListEvents(ctx context.Context) ([]*domain.Event, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.listResult, nil
}

func (f *fakeEventService) DeleteEvent(ctx context.Context, eventID string) (*domain.EventDeleteResult, error) {
	f.lastDeleteEventID = eventID
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	return f.deleteResult, nil
}

// fakeStateRepo implements domain.OperatorStateRepository.
type fakeStateRepo struct {
	selected map[string]string
	err      error
}

func newFakeStateRepo() *fakeStateRepo {
	return &fakeStateRepo{selected: make(map[string]string)}
}

func (f *fakeStateRepo) GetSelectedEvent(ctx context.Context, operatorID string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	eventID, ok := f.selected[operatorID]
	if !ok {
		return "", domain.ErrNotFound
	}
	return eventID, nil
}

func (f *fakeStateRepo) SetSelectedEvent(ctx context.Context, operatorID, eventID string) error {
	if f.err != nil {
		return f.err
	}
	f.selected[operatorID] = eventID
	return nil
}

func TestEventController_CreateEvent(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		svc         *fakeEventService
		wantStatus  int
		wantErrCode string
	}{
		{
			name:       "created",
			body:       `{"title":"Summer Gathering","date":"2026-09-12T18:00:00Z","location":"Town Hall"}`,
			svc:        &fakeEventService{},
			wantStatus: http.StatusCreated,
		},
		{
			name:        "missing title",
			body:        `{"date":"2026-09-12T18:00:00Z"}`,
			svc:         &fakeEventService{},
			wantStatus:  http.StatusBadRequest,
			wantErrCode: helpers.ErrCodeBadRequest,
		},
		{
			name:        "missing date",
			body:        `{"title":"Summer Gathering"}`,
			svc:         &fakeEventService{},
			wantStatus:  http.StatusBadRequest,
			wantErrCode: helpers.ErrCodeBadRequest,
		},
		{
			name:        "unknown field rejected",
			body:        `{"title":"X","date":"2026-09-12T18:00:00Z","bogus":1}`,
			svc:         &fakeEventService{},
			wantStatus:  http.StatusBadRequest,
			wantErrCode: helpers.ErrCodeBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := NewEventController(testLogger, tt.svc, newFakeStateRepo())

			req := httptest.NewRequest(http.MethodPost, "/events", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rr := httptest.NewRecorder()

			ctrl.CreateEvent(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code, "status code")
			var envelope helpers.APIResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
			if tt.wantStatus == http.StatusCreated {
				require.Nil(t, envelope.Error)
				assert.Equal(t, "Summer Gathering", tt.svc.lastCreateTitle)
				return
			}
			require.NotNil(t, envelope.Error)
			assert.Equal(t, tt.wantErrCode, envelope.Error.Code)
		})
	}
}

func TestEventController_DeleteEvent(t *testing.T) {
	tests := []struct {
		name        string
		eventID     string
		query       string
		svc         *fakeEventService
		wantStatus  int
		wantErrCode string
	}{
		{
			name:    "deleted with cascade counts",
			eventID: testEventID,
			query:   "?confirm=true",
			svc: &fakeEventService{deleteResult: &domain.EventDeleteResult{
				DeletedAttendeeCount: 42,
				DeletedCheckInCount:  17,
			}},
			wantStatus: http.StatusOK,
		},
		{
			name:        "missing confirmation",
			eventID:     testEventID,
			svc:         &fakeEventService{},
			wantStatus:  http.StatusBadRequest,
			wantErrCode: helpers.ErrCodeBadRequest,
		},
		{
			name:        "confirm must be literal true",
			eventID:     testEventID,
			query:       "?confirm=yes",
			svc:         &fakeEventService{},
			wantStatus:  http.StatusBadRequest,
			wantErrCode: helpers.ErrCodeBadRequest,
		},
		{
			name:        "unknown event",
			eventID:     testEventID,
			query:       "?confirm=true",
			svc:         &fakeEventService{deleteErr: domain.ErrNotFound},
			wantStatus:  http.StatusNotFound,
			wantErrCode: helpers.ErrCodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := NewEventController(testLogger, tt.svc, newFakeStateRepo())

			req := httptest.NewRequest(http.MethodDelete, "/events/"+tt.eventID+tt.query, nil)
			req.SetPathValue("eventID", tt.eventID)
			rr := httptest.NewRecorder()

			ctrl.DeleteEvent(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code, "status code")
			var envelope helpers.APIResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
			if tt.wantStatus == http.StatusOK {
				require.Nil(t, envelope.Error)
				data, ok := envelope.Data.(map[string]interface{})
				require.True(t, ok)
				assert.Equal(t, float64(42), data["deleted_attendee_count"])
				assert.Equal(t, float64(17), data["deleted_check_in_count"])
				assert.Equal(t, tt.eventID, tt.svc.lastDeleteEventID)
				return
			}
			require.NotNil(t, envelope.Error)
			assert.Equal(t, tt.wantErrCode, envelope.Error.Code)
			assert.Empty(t, tt.svc.lastDeleteEventID, "service must not be called on a rejected request")
		})
	}
}

func TestEventController_SelectedEvent(t *testing.T) {
	t.Run("round-trips the selection", func(t *testing.T) {
		state := newFakeStateRepo()
		ctrl := NewEventController(testLogger, &fakeEventService{}, state)

		body := `{"event_id":"` + testEventID + `"}`
		req := httptest.NewRequest(http.MethodPut, "/operator/selected-event", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		req = req.WithContext(middleware.SetOperatorID(req.Context(), "op-1"))
		rr := httptest.NewRecorder()

		ctrl.SetSelectedEvent(rr, req)
		require.Equal(t, http.StatusOK, rr.Code)

		req = httptest.NewRequest(http.MethodGet, "/operator/selected-event", nil)
		req = req.WithContext(middleware.SetOperatorID(req.Context(), "op-1"))
		rr = httptest.NewRecorder()

		ctrl.GetSelectedEvent(rr, req)
		require.Equal(t, http.StatusOK, rr.Code)

		var envelope helpers.APIResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
		data, ok := envelope.Data.(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, testEventID, data["event_id"])
	})

	t.Run("no selection yet is empty, not an error", func(t *testing.T) {
		ctrl := NewEventController(testLogger, &fakeEventService{}, newFakeStateRepo())

		req := httptest.NewRequest(http.MethodGet, "/operator/selected-event", nil)
		req = req.WithContext(middleware.SetOperatorID(req.Context(), "op-1"))
		rr := httptest.NewRecorder()

		ctrl.GetSelectedEvent(rr, req)
		require.Equal(t, http.StatusOK, rr.Code)

		var envelope helpers.APIResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
		data, ok := envelope.Data.(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "", data["event_id"])
	})

	t.Run("missing operator context", func(t *testing.T) {
		ctrl := NewEventController(testLogger, &fakeEventService{}, newFakeStateRepo())

		req := httptest.NewRequest(http.MethodGet, "/operator/selected-event", nil)
		rr := httptest.NewRecorder()

		ctrl.GetSelectedEvent(rr, req)
		require.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}
