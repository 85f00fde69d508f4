package domain

import (
	"context"
	"io"
)

// ImportResult aggregates the outcome of one bulk attendee upload. Partial
// failure is the normal case: bad rows are recorded and skipped, the file is
// never aborted on one bad row.
// swagger:model ImportResult
type ImportResult struct {
	SuccessCount int      `json:"success_count"`
	FailedCount  int      `json:"failed_count"`
	Errors       []string `json:"errors"`
}

// ImportService parses a bulk upload into attendee records for an event.
type ImportService interface {
	// ImportAttendees reads a delimited text or spreadsheet file (picked by
	// filename extension) with a header row and upserts one attendee per
	// data row. Existing attendees keep their dispatch and check-in state;
	// re-uploading a file never resets progress. Every imported attendee
	// gets a credential backfilled.
	ImportAttendees(ctx context.Context, eventID, filename string, file io.Reader) (*ImportResult, error)
}
