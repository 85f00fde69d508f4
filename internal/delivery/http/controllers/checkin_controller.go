package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"gatherpass/internal/delivery/http/helpers"
	"gatherpass/internal/domain"
)

type CheckInController struct {
	Logger  *slog.Logger
	Service domain.CheckInService
}

func NewCheckInController(logger *slog.Logger, svc domain.CheckInService) *CheckInController {
	return &CheckInController{
		Logger:  logger,
		Service: svc,
	}
}

// CheckInRequest is the request body for POST /events/{eventID}/checkin.
// Exactly one of Payload (scanned credential) or Email (manual fallback)
// must be set.
type CheckInRequest struct {
	Payload string `json:"payload,omitempty"`
	Email   string `json:"email,omitempty"`
}

// Validate implements helpers.Validator.
func (r *CheckInRequest) Validate() []string {
	hasPayload := strings.TrimSpace(r.Payload) != ""
	hasEmail := strings.TrimSpace(r.Email) != ""
	if hasPayload == hasEmail {
		return []string{"provide exactly one of payload or email"}
	}
	return nil
}

// CheckInResponse wraps the check-in result with an explicit success flag for
// the scanning client.
type CheckInResponse struct {
	Success          bool                  `json:"success"`
	AlreadyCheckedIn bool                  `json:"already_checked_in"`
	Result           *domain.CheckInResult `json:"result"`
}

// CheckIn godoc
// @Summary Check an attendee in by scanned credential or typed email
// @Description Idempotent: a duplicate scan returns success with already_checked_in=true and the original timestamp. Rejections distinguish a malformed payload, a credential for another event, and an unknown attendee.
// @Tags checkin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param request body controllers.CheckInRequest true "Scanned payload or manual email"
// @Success 200 {object} helpers.APIResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request (malformed payload)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found (unknown attendee)"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (wrong event)"
// @Router /events/{eventID}/checkin [post]
func (c *CheckInController) CheckIn(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if !uuidRegex.MatchString(eventID) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid eventID")
		return
	}
	var req CheckInRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}

	var result *domain.CheckInResult
	var err error
	if strings.TrimSpace(req.Payload) != "" {
		result, err = c.Service.CheckInByCredential(r.Context(), eventID, req.Payload)
	} else {
		result, err = c.Service.CheckInByEmail(r.Context(), eventID, req.Email)
	}
	if err != nil {
		// The three rejection reasons surface verbatim so venue staff can
		// tell a bad QR from a wrong-event pass from an unregistered person.
		switch {
		case errors.Is(err, domain.ErrMalformedCredential):
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		case errors.Is(err, domain.ErrWrongEvent):
			helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, err.Error())
		case errors.Is(err, domain.ErrUnknownAttendee):
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, err.Error())
		case errors.Is(err, domain.ErrInvalidInput):
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		default:
			c.Logger.ErrorContext(r.Context(), "check-in failed", "event_id", eventID, "err", err)
			helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "check-in failed")
		}
		return
	}

	helpers.WriteJSONSuccess(w, http.StatusOK, CheckInResponse{
		Success:          true,
		AlreadyCheckedIn: result.AlreadyCheckedIn,
		Result:           result,
	})
}
