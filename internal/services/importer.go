package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"gatherpass/internal/domain"
)

// maxImportErrors caps the per-row error list returned to the operator; the
// counts still cover every row.
const maxImportErrors = 50

type importService struct {
	eventRepo    domain.EventRepository
	personRepo   domain.PersonRepository
	attendeeRepo domain.AttendeeRepository
	credentials  domain.CredentialService
	logger       *slog.Logger
}

// NewImportService creates an ImportService over the given repositories and
// credential issuer.
func NewImportService(
	eventRepo domain.EventRepository,
	personRepo domain.PersonRepository,
	attendeeRepo domain.AttendeeRepository,
	credentials domain.CredentialService,
	logger *slog.Logger,
) domain.ImportService {
	return &importService{
		eventRepo:    eventRepo,
		personRepo:   personRepo,
		attendeeRepo: attendeeRepo,
		credentials:  credentials,
		logger:       logger,
	}
}

// columnLayout maps recognized header names to their column index in a file.
type columnLayout struct {
	name            int
	email           int
	phone           int
	adults          int
	children        int
	mealAdultVeg    int
	mealAdultNonVeg int
	mealChild       int
}

// tableRow is one data row together with its position in the uploaded file,
// counted from the first row after the header. Blank lines and empty
// spreadsheet rows still advance the count, so the numbers in operator-facing
// errors match what the operator sees in their editor.
type tableRow struct {
	num   int
	cells []string
}

func (s *importService) ImportAttendees(ctx context.Context, eventID, filename string, file io.Reader) (*domain.ImportResult, error) {
	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}

	header, rows, err := readTabular(filename, file)
	if err != nil {
		return nil, err
	}

	layout, err := resolveColumns(header)
	if err != nil {
		return nil, err
	}

	result := &domain.ImportResult{Errors: []string{}}
	for _, row := range rows {
		if blankRow(row.cells) {
			continue
		}
		if err := s.importRow(ctx, eventID, layout, row.cells); err != nil {
			var rowErr *rowError
			if errors.As(err, &rowErr) {
				result.FailedCount++
				if len(result.Errors) < maxImportErrors {
					result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %s", row.num, rowErr.reason))
				}
				continue
			}
			// Anything that is not a row-level validation problem is a
			// storage failure; the whole operation must fail loudly rather
			// than continue without knowing what was persisted.
			return nil, fmt.Errorf("import row %d: %w", row.num, err)
		}
		result.SuccessCount++
	}

	s.logger.InfoContext(ctx, "attendee import finished",
		"event_id", eventID,
		"file", filename,
		"succeeded", result.SuccessCount,
		"failed", result.FailedCount,
	)
	return result, nil
}

// rowError marks a validation problem local to one row: recorded and skipped,
// never fatal to the upload.
type rowError struct {
	reason string
}

func (e *rowError) Error() string { return e.reason }

func (s *importService) importRow(ctx context.Context, eventID string, layout *columnLayout, row []string) error {
	name := strings.TrimSpace(cell(row, layout.name))
	email := strings.TrimSpace(cell(row, layout.email))
	if name == "" || email == "" {
		return &rowError{reason: "missing required fields (name, email)"}
	}

	person, err := s.personRepo.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		now := time.Now()
		person = domain.NewPerson(name, email, strings.TrimSpace(cell(row, layout.phone)), now, now)
		if err := s.personRepo.Create(ctx, person); err != nil {
			return fmt.Errorf("create person: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("get person: %w", err)
	}

	attendee, err := s.attendeeRepo.GetByEventAndPerson(ctx, eventID, person.ID)
	if errors.Is(err, domain.ErrNotFound) {
		now := time.Now()
		attendee = &domain.Attendee{
			EventID:         eventID,
			PersonID:        person.ID,
			AdultCount:      count(row, layout.adults),
			ChildCount:      count(row, layout.children),
			MealAdultVeg:    count(row, layout.mealAdultVeg),
			MealAdultNonVeg: count(row, layout.mealAdultNonVeg),
			MealChild:       count(row, layout.mealChild),
			EmailStatus:     domain.EmailStatusPending,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := s.attendeeRepo.Create(ctx, attendee); err != nil {
			return fmt.Errorf("create attendee: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("get attendee: %w", err)
	}
	// An existing attendee keeps its dispatch and check-in state untouched;
	// re-uploading a list must never reset progress.

	if _, err := s.credentials.EnsureCredential(ctx, attendee.ID); err != nil {
		return fmt.Errorf("ensure credential: %w", err)
	}
	return nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func count(row []string, idx int) int {
	n, err := strconv.Atoi(strings.TrimSpace(cell(row, idx)))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// resolveColumns matches header cells against the recognized column names.
// Matching is case-insensitive and ignores spaces, hyphens and underscores.
func resolveColumns(header []string) (*columnLayout, error) {
	layout := &columnLayout{
		name: -1, email: -1, phone: -1,
		adults: -1, children: -1,
		mealAdultVeg: -1, mealAdultNonVeg: -1, mealChild: -1,
	}
	for i, h := range header {
		switch normalizeHeader(h) {
		case "name", "fullname":
			layout.name = i
		case "email", "emailaddress":
			layout.email = i
		case "phone", "phonenumber":
			layout.phone = i
		case "adults", "adultcount":
			layout.adults = i
		case "children", "childcount":
			layout.children = i
		case "adultveg", "adultvegetarian":
			layout.mealAdultVeg = i
		case "adultnonveg", "adultnonvegetarian":
			layout.mealAdultNonVeg = i
		case "child", "childmeal":
			layout.mealChild = i
		}
	}
	if layout.name < 0 || layout.email < 0 {
		return nil, fmt.Errorf("%w: header must contain name and email columns", domain.ErrInvalidInput)
	}
	return layout, nil
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.NewReplacer(" ", "", "-", "", "_", "").Replace(h)
	return h
}

// readTabular loads the upload into a header and numbered data rows.
// Spreadsheets are picked by extension; everything else is treated as
// delimited text with the delimiter sniffed from the header line.
func readTabular(filename string, file io.Reader) ([]string, []tableRow, error) {
	if strings.EqualFold(filepath.Ext(filename), ".xlsx") {
		return readSpreadsheet(file)
	}
	return readDelimited(file)
}

func readDelimited(file io.Reader) ([]string, []tableRow, error) {
	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, nil, fmt.Errorf("read upload: %w", err)
	}
	content := string(raw)

	reader := csv.NewReader(strings.NewReader(content))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	if line, _, ok := strings.Cut(content, "\n"); ok || line != "" {
		if strings.Count(line, ";") > strings.Count(line, ",") {
			reader.Comma = ';'
		}
	}

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("%w: file has no header row", domain.ErrInvalidInput)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	headerLine, _ := reader.FieldPos(0)

	var rows []tableRow
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		}
		// The csv reader skips blank lines silently; FieldPos gives the
		// physical line, so numbering stays anchored to the file.
		line, _ := reader.FieldPos(0)
		rows = append(rows, tableRow{num: line - headerLine, cells: record})
	}
	return header, rows, nil
}

func readSpreadsheet(file io.Reader) ([]string, []tableRow, error) {
	wb, err := excelize.OpenReader(file)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("%w: workbook has no sheets", domain.ErrInvalidInput)
	}
	raw, err := wb.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if len(raw) == 0 {
		return nil, nil, fmt.Errorf("%w: file has no header row", domain.ErrInvalidInput)
	}
	rows := make([]tableRow, 0, len(raw)-1)
	for i, cells := range raw[1:] {
		rows = append(rows, tableRow{num: i + 1, cells: cells})
	}
	return raw[0], rows, nil
}

// blankRow reports whether every cell is empty or whitespace. Such rows are
// skipped outright rather than reported as failures.
func blankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
