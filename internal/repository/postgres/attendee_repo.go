package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"gatherpass/internal/domain"
)

type attendeeRepository struct {
	DB *sql.DB
}

func NewAttendeeRepository(db *sql.DB) domain.AttendeeRepository {
	return &attendeeRepository{
		DB: db,
	}
}

// attendeeColumns lists the joined attendee+person column set shared by all
// read queries. Scan order must match scanAttendee.
const attendeeColumns = `
	a.id, a.event_id, a.person_id, p.name, p.email, p.phone,
	a.adult_count, a.child_count, a.meal_adult_veg, a.meal_adult_nonveg, a.meal_child,
	a.email_status, a.email_sent_at, a.email_retry_count, a.last_error_message,
	a.credential_token, a.credential_image, a.credential_issued_at,
	a.is_checked_in, a.checked_in_at, a.created_at, a.updated_at
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAttendee(row rowScanner) (*domain.Attendee, error) {
	a := &domain.Attendee{}
	var status string
	err := row.Scan(
		&a.ID, &a.EventID, &a.PersonID, &a.Name, &a.Email, &a.Phone,
		&a.AdultCount, &a.ChildCount, &a.MealAdultVeg, &a.MealAdultNonVeg, &a.MealChild,
		&status, &a.EmailSentAt, &a.EmailRetryCount, &a.LastErrorMessage,
		&a.CredentialToken, &a.CredentialImage, &a.CredentialIssuedAt,
		&a.IsCheckedIn, &a.CheckedInAt, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.EmailStatus = domain.EmailStatus(status)
	return a, nil
}

func (r *attendeeRepository) Create(ctx context.Context, attendee *domain.Attendee) error {
	query := `
		INSERT INTO attendees (
			event_id, person_id,
			adult_count, child_count, meal_adult_veg, meal_adult_nonveg, meal_child,
			email_status, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`
	if attendee.EmailStatus == "" {
		attendee.EmailStatus = domain.EmailStatusPending
	}
	return r.DB.QueryRowContext(ctx, query,
		attendee.EventID, attendee.PersonID,
		attendee.AdultCount, attendee.ChildCount,
		attendee.MealAdultVeg, attendee.MealAdultNonVeg, attendee.MealChild,
		string(attendee.EmailStatus), attendee.CreatedAt, attendee.UpdatedAt,
	).Scan(&attendee.ID)
}

func (r *attendeeRepository) GetByID(ctx context.Context, id string) (*domain.Attendee, error) {
	query := `
		SELECT ` + attendeeColumns + `
		FROM attendees a
		JOIN people p ON p.id = a.person_id
		WHERE a.id = $1
	`
	return r.getOne(ctx, query, id)
}

func (r *attendeeRepository) GetByEventAndPerson(ctx context.Context, eventID, personID string) (*domain.Attendee, error) {
	query := `
		SELECT ` + attendeeColumns + `
		FROM attendees a
		JOIN people p ON p.id = a.person_id
		WHERE a.event_id = $1 AND a.person_id = $2
	`
	return r.getOne(ctx, query, eventID, personID)
}

func (r *attendeeRepository) GetByEventAndEmail(ctx context.Context, eventID, email string) (*domain.Attendee, error) {
	query := `
		SELECT ` + attendeeColumns + `
		FROM attendees a
		JOIN people p ON p.id = a.person_id
		WHERE a.event_id = $1 AND LOWER(p.email) = LOWER($2)
	`
	return r.getOne(ctx, query, eventID, email)
}

func (r *attendeeRepository) getOne(ctx context.Context, query string, args ...any) (*domain.Attendee, error) {
	attendee, err := scanAttendee(r.DB.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return attendee, nil
}

func (r *attendeeRepository) ListByEvent(ctx context.Context, eventID string) ([]*domain.Attendee, error) {
	query := `
		SELECT ` + attendeeColumns + `
		FROM attendees a
		JOIN people p ON p.id = a.person_id
		WHERE a.event_id = $1
		ORDER BY p.name ASC
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attendees []*domain.Attendee
	for rows.Next() {
		attendee, err := scanAttendee(rows)
		if err != nil {
			return nil, err
		}
		attendees = append(attendees, attendee)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if attendees == nil {
		attendees = []*domain.Attendee{}
	}
	return attendees, nil
}

// SetCredential writes the credential only when none exists yet, so a
// re-issue attempt never rotates an already issued token.
func (r *attendeeRepository) SetCredential(ctx context.Context, id, token, image string, issuedAt time.Time) error {
	query := `
		UPDATE attendees
		SET credential_token = $2, credential_image = $3, credential_issued_at = $4, updated_at = $4
		WHERE id = $1 AND credential_token = ''
	`
	_, err := r.DB.ExecContext(ctx, query, id, token, image, issuedAt)
	return err
}

func (r *attendeeRepository) MarkEmailSent(ctx context.Context, id string, sentAt time.Time) error {
	query := `
		UPDATE attendees
		SET email_status = $2, email_sent_at = $3, last_error_message = NULL, updated_at = $3
		WHERE id = $1
	`
	res, err := r.DB.ExecContext(ctx, query, id, string(domain.EmailStatusSent), sentAt)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *attendeeRepository) MarkEmailFailed(ctx context.Context, id, errorMessage string) error {
	query := `
		UPDATE attendees
		SET email_status = $2, last_error_message = $3,
			email_retry_count = email_retry_count + 1, updated_at = $4
		WHERE id = $1
	`
	res, err := r.DB.ExecContext(ctx, query, id, string(domain.EmailStatusFailed), errorMessage, time.Now())
	if err != nil {
		return err
	}
	return requireRow(res)
}

// CheckIn flips the checked-in flag only for a not-yet-checked-in row; the
// first check-in timestamp is never overwritten by a duplicate scan.
func (r *attendeeRepository) CheckIn(ctx context.Context, id string, at time.Time) error {
	query := `
		UPDATE attendees
		SET is_checked_in = TRUE, checked_in_at = $2, updated_at = $2
		WHERE id = $1 AND is_checked_in = FALSE
	`
	_, err := r.DB.ExecContext(ctx, query, id, at)
	return err
}

func requireRow(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
