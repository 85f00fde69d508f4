package domain

import (
	"context"
	"time"
)

// DispatchProgress is one progress event emitted by a running batch.
// swagger:model DispatchProgress
type DispatchProgress struct {
	RunID     string `json:"run_id"`
	Current   int    `json:"current"`
	Total     int    `json:"total"`
	Sent      int    `json:"sent"`
	Failed    int    `json:"failed"`
	Skipped   int    `json:"skipped"`
	Done      bool   `json:"done"`
	Cancelled bool   `json:"cancelled"`
}

// DispatchSummary is the final outcome of a batch run. A cancelled run is not
// an error; it carries the partial counts reached before the flag was observed.
// swagger:model DispatchSummary
type DispatchSummary struct {
	RunID     string `json:"run_id"`
	Sent      int    `json:"sent"`
	Failed    int    `json:"failed"`
	Skipped   int    `json:"skipped"`
	Cancelled bool   `json:"cancelled"`
	// Remaining holds the attendee ids from the selection that still need a
	// send: everyone except those whose send succeeded.
	Remaining []string `json:"remaining"`
}

// DispatchRunInfo is a point-in-time snapshot of a run.
// swagger:model DispatchRunInfo
type DispatchRunInfo struct {
	RunID     string           `json:"run_id"`
	EventID   string           `json:"event_id"`
	Total     int              `json:"total"`
	StartedAt time.Time        `json:"started_at"`
	Progress  DispatchProgress `json:"progress"`
}

// RetryResult reports the outcome of a manual single-attendee retry.
// swagger:model RetryResult
type RetryResult struct {
	AttendeeID string      `json:"attendee_id"`
	Status     EmailStatus `json:"status"`
	Error      string      `json:"error,omitempty"`
}

// DispatchService drives rate-paced batch sends of credential emails.
// At most one run may be active per event; sends within a run are strictly
// sequential in selection order.
type DispatchService interface {
	// StartBatch begins a run over the given attendee ids. It returns
	// ErrRunActive if the event already has a run in flight and
	// ErrInvalidInput if the selection is empty.
	StartBatch(ctx context.Context, eventID string, attendeeIDs []string) (*DispatchRunInfo, error)

	// Subscribe returns a channel of progress events for the event's active
	// run. The channel is closed after the terminal (done) event. Returns
	// ErrNoActiveRun when nothing is running.
	Subscribe(eventID string) (<-chan DispatchProgress, error)

	// ActiveRun returns a snapshot of the event's active run, or ErrNoActiveRun.
	ActiveRun(eventID string) (*DispatchRunInfo, error)

	// StopBatch requests cooperative cancellation of the event's active run.
	// The flag takes effect at the next iteration or delay boundary, never
	// mid-send. Returns ErrNoActiveRun when nothing is running.
	StopBatch(eventID string) error

	// LastSummary returns the summary of the event's most recently finished
	// run, or ErrNotFound if none has completed since startup.
	LastSummary(eventID string) (*DispatchSummary, error)

	// RetrySingle performs one send for one attendee immediately, without the
	// inter-send delay. With force, the selectability restriction is bypassed
	// so a SENT attendee can be re-sent.
	RetrySingle(ctx context.Context, attendeeID string, force bool) (*RetryResult, error)
}
