package model

import (
	"strings"
	"time"

	"github.com/unveiledecho/formrelay/internal/delivery"
)

// MissingFieldsReason is returned to callers that omit a required field.
const MissingFieldsReason = "Missing required fields: name, email, and message are required"

// SheetTimestampLayout is how submission times are written to the spreadsheet.
const SheetTimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Submission is a contact form submission from the clinic website
type Submission struct {
	Name        string
	Email       string // opaque, not RFC-validated
	Phone       string // optional
	Message     string
	SubmittedAt time.Time
}

// Validate checks that name, email and message are present
func (s Submission) Validate() error {
	if strings.TrimSpace(s.Name) == "" ||
		strings.TrimSpace(s.Email) == "" ||
		strings.TrimSpace(s.Message) == "" {
		return delivery.Invalid(MissingFieldsReason)
	}
	return nil
}

// ParseSubmittedAt parses a client supplied timestamp. Empty or unparseable
// values yield the receipt time and ok=false.
func ParseSubmittedAt(raw string, received time.Time) (t time.Time, ok bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return received, false
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, true
		}
	}
	return received, false
}

// SheetRow returns the spreadsheet row for the submission:
// timestamp, name, email, phone (or empty), message.
func (s Submission) SheetRow() []string {
	return []string{
		s.SubmittedAt.UTC().Format(SheetTimestampLayout),
		s.Name,
		s.Email,
		s.Phone,
		s.Message,
	}
}
