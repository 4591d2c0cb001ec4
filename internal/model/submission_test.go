package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/unveiledecho/formrelay/internal/delivery"
)

func TestSubmission_Validate(t *testing.T) {
	t.Parallel()

	valid := Submission{Name: "Jane Doe", Email: "jane@example.com", Message: "Hello"}

	tests := []struct {
		name   string
		mutate func(*Submission)
		ok     bool
	}{
		{"complete", func(*Submission) {}, true},
		{"phone optional", func(s *Submission) { s.Phone = "" }, true},
		{"missing name", func(s *Submission) { s.Name = "" }, false},
		{"blank email", func(s *Submission) { s.Email = "   " }, false},
		{"missing message", func(s *Submission) { s.Message = "" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := valid
			tt.mutate(&s)
			err := s.Validate()
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, delivery.ErrInvalidRequest)
			assert.Equal(t, MissingFieldsReason, delivery.ReasonOf(err))
		})
	}
}

func TestParseSubmittedAt(t *testing.T) {
	t.Parallel()

	received := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	got, ok := ParseSubmittedAt("2026-02-28T17:45:12.345Z", received)
	assert.True(t, ok)
	assert.Equal(t, time.Date(2026, 2, 28, 17, 45, 12, 345000000, time.UTC), got)

	got, ok = ParseSubmittedAt("", received)
	assert.False(t, ok)
	assert.Equal(t, received, got)

	got, ok = ParseSubmittedAt("yesterday", received)
	assert.False(t, ok)
	assert.Equal(t, received, got)
}

func TestSubmission_SheetRow(t *testing.T) {
	t.Parallel()

	s := Submission{
		Name:        "Jane Doe",
		Email:       "jane@example.com",
		Message:     "Hello",
		SubmittedAt: time.Date(2026, 2, 28, 17, 45, 12, 0, time.FixedZone("EST", -5*3600)),
	}

	assert.Equal(t, []string{"2026-02-28T22:45:12.000Z", "Jane Doe", "jane@example.com", "", "Hello"}, s.SheetRow())
}
