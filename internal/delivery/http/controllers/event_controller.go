package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"gatherpass/internal/delivery/http/helpers"
	"gatherpass/internal/delivery/http/middleware"
	"gatherpass/internal/domain"
)

// uuidRegex matches a canonical UUID string (8-4-4-4-12 hex).
var uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

type EventController struct {
	Logger    *slog.Logger
	Service   domain.EventService
	StateRepo domain.OperatorStateRepository
}

func NewEventController(logger *slog.Logger, svc domain.EventService, stateRepo domain.OperatorStateRepository) *EventController {
	return &EventController{
		Logger:    logger,
		Service:   svc,
		StateRepo: stateRepo,
	}
}

// CreateEventRequest is the request body for POST /events.
type CreateEventRequest struct {
	Title    string    `json:"title"`
	Date     time.Time `json:"date"`
	Location string    `json:"location"`
}

// Validate implements helpers.Validator.
func (r *CreateEventRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(r.Title) == "" {
		errs = append(errs, "title is required")
	}
	if r.Date.IsZero() {
		errs = append(errs, "date is required")
	}
	return errs
}

// CreateEvent godoc
// @Summary Create an event
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body controllers.CreateEventRequest true "Event payload"
// @Success 201 {object} helpers.APIResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Router /events [post]
func (c *EventController) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req CreateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}

	event, err := c.Service.CreateEvent(r.Context(), req.Title, req.Date, req.Location)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
			return
		}
		c.Logger.ErrorContext(r.Context(), "create event failed", "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "create event failed")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, event)
}

// ListEvents godoc
// @Summary List all events
// @Tags events
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse
// @Router /events [get]
func (c *EventController) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := c.Service.ListEvents(r.Context())
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "list events failed", "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "list events failed")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, events)
}

// DeleteEvent godoc
// @Summary Delete an event and everything attached to it
// @Description Destructive: cascades to all attendees and their check-in records. Requires confirm=true.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param confirm query string true "Must be true"
// @Success 200 {object} helpers.APIResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID} [delete]
func (c *EventController) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if !uuidRegex.MatchString(eventID) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid eventID")
		return
	}
	// Deletion cascades to every attendee and check-in record; an explicit
	// confirmation is required so a stray DELETE can never wipe an event.
	if r.URL.Query().Get("confirm") != "true" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "deletion requires confirm=true")
		return
	}

	result, err := c.Service.DeleteEvent(r.Context(), eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "event not found")
			return
		}
		c.Logger.ErrorContext(r.Context(), "delete event failed", "event_id", eventID, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "delete event failed")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, result)
}

// SelectedEventResponse carries the operator's remembered event selection.
type SelectedEventResponse struct {
	EventID string `json:"event_id"`
}

// GetSelectedEvent godoc
// @Summary Get the operator's remembered event selection
// @Description Advisory convenience state only; the authoritative event set comes from GET /events.
// @Tags operator
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse
// @Router /operator/selected-event [get]
func (c *EventController) GetSelectedEvent(w http.ResponseWriter, r *http.Request) {
	operatorID, ok := middleware.OperatorIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}

	eventID, err := c.StateRepo.GetSelectedEvent(r.Context(), operatorID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		c.Logger.ErrorContext(r.Context(), "get selected event failed", "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "get selected event failed")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, SelectedEventResponse{EventID: eventID})
}

// SetSelectedEvent godoc
// @Summary Remember the operator's event selection
// @Tags operator
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body controllers.SelectedEventResponse true "Selection"
// @Success 200 {object} helpers.APIResponse
// @Router /operator/selected-event [put]
func (c *EventController) SetSelectedEvent(w http.ResponseWriter, r *http.Request) {
	operatorID, ok := middleware.OperatorIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}

	var req SelectedEventResponse
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	if err := c.StateRepo.SetSelectedEvent(r.Context(), operatorID, req.EventID); err != nil {
		c.Logger.ErrorContext(r.Context(), "set selected event failed", "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "set selected event failed")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, req)
}
