package http

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"gatherpass/internal/delivery/http/controllers"
	"gatherpass/internal/delivery/http/middleware"
	"gatherpass/internal/domain"
)

// NewRouter initializes the HTTP router with all application routes.
func NewRouter(
	verifier domain.TokenVerifier,
	authController *controllers.AuthController,
	eventController *controllers.EventController,
	attendeeController *controllers.AttendeeController,
	dispatchController *controllers.DispatchController,
	checkInController *controllers.CheckInController,
) *http.ServeMux {
	mux := http.NewServeMux()
	requireAuth := middleware.RequireAuth(verifier)

	// Auth
	mux.HandleFunc("POST /auth/signup", authController.Signup)
	mux.HandleFunc("POST /auth/login", authController.Login)

	// Events
	mux.HandleFunc("POST /events", requireAuth(eventController.CreateEvent))
	mux.HandleFunc("GET /events", requireAuth(eventController.ListEvents))
	mux.HandleFunc("DELETE /events/{eventID}", requireAuth(eventController.DeleteEvent))

	// Operator console state
	mux.HandleFunc("GET /operator/selected-event", requireAuth(eventController.GetSelectedEvent))
	mux.HandleFunc("PUT /operator/selected-event", requireAuth(eventController.SetSelectedEvent))

	// Attendees
	mux.HandleFunc("POST /events/{eventID}/attendees/import", requireAuth(attendeeController.ImportAttendees))
	mux.HandleFunc("GET /events/{eventID}/attendees", requireAuth(attendeeController.ListAttendees))
	mux.HandleFunc("GET /events/{eventID}/attendees/selectable", requireAuth(attendeeController.ListSelectableAttendees))
	mux.HandleFunc("POST /attendees/{attendeeID}/credential", requireAuth(attendeeController.EnsureCredential))

	// Dispatch
	mux.HandleFunc("POST /events/{eventID}/dispatch", requireAuth(dispatchController.StartBatch))
	mux.HandleFunc("GET /events/{eventID}/dispatch", requireAuth(dispatchController.GetRun))
	mux.HandleFunc("GET /events/{eventID}/dispatch/progress", requireAuth(dispatchController.StreamProgress))
	mux.HandleFunc("POST /events/{eventID}/dispatch/stop", requireAuth(dispatchController.StopBatch))
	mux.HandleFunc("GET /events/{eventID}/dispatch/summary", requireAuth(dispatchController.GetSummary))
	mux.HandleFunc("POST /attendees/{attendeeID}/retry", requireAuth(dispatchController.RetrySingle))

	// Check-in
	mux.HandleFunc("POST /events/{eventID}/checkin", requireAuth(checkInController.CheckIn))

	// Health, metrics, docs
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
