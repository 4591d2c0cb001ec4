package email

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unveiledecho/formrelay/internal/delivery"
)

func TestFileSender_Send(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "outbox")
	sender := NewFileSender(dir)
	sender.now = func() time.Time { return time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC) }

	receipt, err := sender.Send(context.Background(), testEnvelope)
	require.NoError(t, err)
	assert.Equal(t, ChannelFile, receipt.Channel)
	assert.NotEmpty(t, receipt.ProviderMessageID)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	var htmlFile, jsonFile string
	for _, e := range entries {
		switch filepath.Ext(e.Name()) {
		case ".html":
			htmlFile = e.Name()
		case ".json":
			jsonFile = e.Name()
		}
	}
	assert.True(t, strings.HasPrefix(htmlFile, "2026_10_19_093000_new_form_submission_from_jane_doe_-_unveiled_echo_clinic"), htmlFile)

	html, err := os.ReadFile(filepath.Join(dir, htmlFile))
	require.NoError(t, err)
	assert.Equal(t, "<p>hi</p>", string(html))

	raw, err := os.ReadFile(filepath.Join(dir, jsonFile))
	require.NoError(t, err)
	var meta fileMetadata
	require.NoError(t, json.Unmarshal(raw, &meta))
	assert.Equal(t, receipt.ProviderMessageID, meta.ID)
	assert.Equal(t, "owner@unveiledecho.com", meta.To)
	assert.Equal(t, "jane@example.com", meta.ReplyTo)
}

func TestFileSender_NotConfigured(t *testing.T) {
	t.Parallel()

	_, err := NewFileSender("").Send(context.Background(), testEnvelope)
	assert.ErrorIs(t, err, delivery.ErrNotConfigured)
}

func TestSanitizeFilename(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "email", sanitizeFilename("✓✓"))
	assert.Equal(t, "_unveiled_echo_clinic_-_email_configuration_test", sanitizeFilename("✓ Unveiled Echo Clinic - Email Configuration Test"))
	assert.Len(t, sanitizeFilename(strings.Repeat("a", 200)), 60)
}
