package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"gatherpass/internal/delivery/http/helpers"
	"gatherpass/internal/domain"
)

type DispatchController struct {
	Logger  *slog.Logger
	Service domain.DispatchService
}

func NewDispatchController(logger *slog.Logger, svc domain.DispatchService) *DispatchController {
	return &DispatchController{
		Logger:  logger,
		Service: svc,
	}
}

// StartBatchRequest is the request body for POST /events/{eventID}/dispatch.
// The selection is explicit: there is no implicit "send to everyone".
type StartBatchRequest struct {
	AttendeeIDs []string `json:"attendee_ids"`
}

// Validate implements helpers.Validator.
func (r *StartBatchRequest) Validate() []string {
	if len(r.AttendeeIDs) == 0 {
		return []string{"attendee_ids must not be empty"}
	}
	return nil
}

// StartBatch godoc
// @Summary Start a credential email batch for an event
// @Description Sends are sequential in the supplied order with a mandatory pause between them. At most one run per event may be active.
// @Tags dispatch
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param request body controllers.StartBatchRequest true "Selection"
// @Success 202 {object} helpers.APIResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Router /events/{eventID}/dispatch [post]
func (c *DispatchController) StartBatch(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if !uuidRegex.MatchString(eventID) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid eventID")
		return
	}
	var req StartBatchRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}

	info, err := c.Service.StartBatch(r.Context(), eventID, req.AttendeeIDs)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "event not found")
		case errors.Is(err, domain.ErrRunActive):
			helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, err.Error())
		case errors.Is(err, domain.ErrInvalidInput):
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		default:
			c.Logger.ErrorContext(r.Context(), "start batch failed", "event_id", eventID, "err", err)
			helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "start batch failed")
		}
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusAccepted, info)
}

// StreamProgress godoc
// @Summary Stream progress of the event's active dispatch run
// @Description Server-sent events; one JSON progress object per event, ending with the terminal done event.
// @Tags dispatch
// @Produce text/event-stream
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {string} string "SSE stream"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID}/dispatch/progress [get]
func (c *DispatchController) StreamProgress(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if !uuidRegex.MatchString(eventID) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid eventID")
		return
	}

	events, err := c.Service.Subscribe(eventID)
	if err != nil {
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "no active dispatch run")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "streaming unsupported")
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case progress, open := <-events:
			if !open {
				return
			}
			payload, err := json.Marshal(progress)
			if err != nil {
				c.Logger.Error("marshal progress event", "err", err)
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		}
	}
}

// GetRun godoc
// @Summary Snapshot of the event's active dispatch run
// @Tags dispatch
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} helpers.APIResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID}/dispatch [get]
func (c *DispatchController) GetRun(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if !uuidRegex.MatchString(eventID) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid eventID")
		return
	}

	info, err := c.Service.ActiveRun(eventID)
	if err != nil {
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "no active dispatch run")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, info)
}

// StopBatch godoc
// @Summary Request cancellation of the event's active dispatch run
// @Description Cooperative: takes effect at the next send or delay boundary, never mid-send. A cancelled run still reports its partial summary.
// @Tags dispatch
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 202 {object} helpers.APIResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID}/dispatch/stop [post]
func (c *DispatchController) StopBatch(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if !uuidRegex.MatchString(eventID) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid eventID")
		return
	}

	if err := c.Service.StopBatch(eventID); err != nil {
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "no active dispatch run")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusAccepted, map[string]string{"status": "cancellation requested"})
}

// GetSummary godoc
// @Summary Summary of the event's most recently finished dispatch run
// @Tags dispatch
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} helpers.APIResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID}/dispatch/summary [get]
func (c *DispatchController) GetSummary(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if !uuidRegex.MatchString(eventID) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid eventID")
		return
	}

	summary, err := c.Service.LastSummary(eventID)
	if err != nil {
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "no finished dispatch run")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, summary)
}

// RetrySingle godoc
// @Summary Send the credential email to one attendee immediately
// @Description One iteration of the batch loop without the inter-send delay. With force=true the selectability restriction is bypassed.
// @Tags dispatch
// @Produce json
// @Security BearerAuth
// @Param attendeeID path string true "Attendee ID (UUID)"
// @Param force query string false "Bypass selectability (default false)"
// @Success 200 {object} helpers.APIResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /attendees/{attendeeID}/retry [post]
func (c *DispatchController) RetrySingle(w http.ResponseWriter, r *http.Request) {
	attendeeID := r.PathValue("attendeeID")
	if !uuidRegex.MatchString(attendeeID) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid attendeeID")
		return
	}
	force := r.URL.Query().Get("force") == "true"

	result, err := c.Service.RetrySingle(r.Context(), attendeeID, force)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "attendee not found")
		case errors.Is(err, domain.ErrInvalidInput):
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		default:
			c.Logger.ErrorContext(r.Context(), "retry failed", "attendee_id", attendeeID, "err", err)
			helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "retry failed")
		}
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, result)
}
