package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"gatherpass/internal/delivery/http/helpers"
	"gatherpass/internal/domain"
)

// maxUploadBytes bounds one attendee upload; lists run to hundreds of rows,
// not millions.
const maxUploadBytes = 10 << 20

type AttendeeController struct {
	Logger       *slog.Logger
	Importer     domain.ImportService
	Credentials  domain.CredentialService
	AttendeeRepo domain.AttendeeRepository
}

func NewAttendeeController(
	logger *slog.Logger,
	importer domain.ImportService,
	credentials domain.CredentialService,
	attendeeRepo domain.AttendeeRepository,
) *AttendeeController {
	return &AttendeeController{
		Logger:       logger,
		Importer:     importer,
		Credentials:  credentials,
		AttendeeRepo: attendeeRepo,
	}
}

// ImportAttendees godoc
// @Summary Upload an attendee list for an event
// @Description Accepts a delimited text or .xlsx file with a header row (name and email required). Bad rows are reported and skipped; the upload never aborts on one bad row. Re-uploading never resets dispatch or check-in progress.
// @Tags attendees
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param file formData file true "Attendee list"
// @Success 200 {object} helpers.APIResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID}/attendees/import [post]
func (c *AttendeeController) ImportAttendees(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if !uuidRegex.MatchString(eventID) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid eventID")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing file upload")
		return
	}
	defer file.Close()

	result, err := c.Importer.ImportAttendees(r.Context(), eventID, header.Filename, file)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "event not found")
			return
		}
		if errors.Is(err, domain.ErrInvalidInput) {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
			return
		}
		c.Logger.ErrorContext(r.Context(), "attendee import failed", "event_id", eventID, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "attendee import failed")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, result)
}

// ListAttendees godoc
// @Summary List an event's attendees with dispatch and check-in state
// @Tags attendees
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} helpers.APIResponse
// @Router /events/{eventID}/attendees [get]
func (c *AttendeeController) ListAttendees(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if !uuidRegex.MatchString(eventID) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid eventID")
		return
	}

	attendees, err := c.AttendeeRepo.ListByEvent(r.Context(), eventID)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "list attendees failed", "event_id", eventID, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "list attendees failed")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, attendees)
}

// SelectableAttendeesResponse lists the attendee ids eligible for a dispatch
// selection.
type SelectableAttendeesResponse struct {
	AttendeeIDs []string `json:"attendee_ids"`
}

// ListSelectableAttendees godoc
// @Summary List attendee ids eligible for a dispatch selection
// @Description Eligible means not checked in and email status PENDING, FAILED or RETRY_SCHEDULED.
// @Tags attendees
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} helpers.APIResponse
// @Router /events/{eventID}/attendees/selectable [get]
func (c *AttendeeController) ListSelectableAttendees(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if !uuidRegex.MatchString(eventID) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid eventID")
		return
	}

	attendees, err := c.AttendeeRepo.ListByEvent(r.Context(), eventID)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "list attendees failed", "event_id", eventID, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "list attendees failed")
		return
	}

	ids := []string{}
	for _, a := range attendees {
		if a.Selectable() {
			ids = append(ids, a.ID)
		}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, SelectableAttendeesResponse{AttendeeIDs: ids})
}

// EnsureCredentialResponse carries the issued (or pre-existing) token.
type EnsureCredentialResponse struct {
	Token string `json:"token"`
}

// EnsureCredential godoc
// @Summary Issue the attendee's credential if missing
// @Description Idempotent: an existing credential is returned unchanged, never rotated.
// @Tags attendees
// @Produce json
// @Security BearerAuth
// @Param attendeeID path string true "Attendee ID (UUID)"
// @Success 200 {object} helpers.APIResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /attendees/{attendeeID}/credential [post]
func (c *AttendeeController) EnsureCredential(w http.ResponseWriter, r *http.Request) {
	attendeeID := r.PathValue("attendeeID")
	if !uuidRegex.MatchString(attendeeID) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid attendeeID")
		return
	}

	token, err := c.Credentials.EnsureCredential(r.Context(), attendeeID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "attendee not found")
			return
		}
		c.Logger.ErrorContext(r.Context(), "ensure credential failed", "attendee_id", attendeeID, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "ensure credential failed")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, EnsureCredentialResponse{Token: token})
}
