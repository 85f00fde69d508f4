package domain

import "context"

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(ctx context.Context, to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// TicketEmailData holds data for the credential ("your ticket") email.
type TicketEmailData struct {
	Name          string
	EventTitle    string
	EventDate     string
	EventLocation string
	// QRImageBase64 is the credential PNG, embedded in the HTML body as a
	// data URI so the code is scannable straight from the inbox.
	QRImageBase64 string
	Token         string
}

// EmailService defines the contract for sending domain-level emails.
type EmailService interface {
	SendTicket(ctx context.Context, to string, data *TicketEmailData) error
}
