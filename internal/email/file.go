package email

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/unveiledecho/formrelay/internal/delivery"
)

// FileSender writes each email to disk instead of sending it. It is meant
// for local development of the clinic website.
type FileSender struct {
	dir string
	now func() time.Time
}

// NewFileSender creates a FileSender rooted at dir.
func NewFileSender(dir string) *FileSender {
	return &FileSender{dir: dir, now: time.Now}
}

type fileMetadata struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	From      string `json:"from"`
	To        string `json:"to"`
	ReplyTo   string `json:"reply_to,omitempty"`
	Subject   string `json:"subject"`
}

func (f *FileSender) Name() string { return ChannelFile }

func (f *FileSender) Configured() bool { return f.dir != "" }

// Send saves the HTML body and a JSON metadata file side by side.
func (f *FileSender) Send(_ context.Context, env delivery.Envelope) (delivery.Receipt, error) {
	if !f.Configured() {
		return delivery.Receipt{}, delivery.NotConfigured(ChannelFile, "directory")
	}

	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return delivery.Receipt{}, delivery.Transport(ChannelFile, fmt.Errorf("create directory: %w", err))
	}

	now := f.now()
	id := uuid.NewString()
	base := fmt.Sprintf("%s_%s_%s", now.Format("2006_01_02_150405"), sanitizeFilename(env.Message.Subject), id[:8])

	if err := os.WriteFile(filepath.Join(f.dir, base+".html"), []byte(env.Message.HTML), 0o644); err != nil {
		return delivery.Receipt{}, delivery.Transport(ChannelFile, fmt.Errorf("write html: %w", err))
	}

	meta, err := json.MarshalIndent(fileMetadata{
		ID:        id,
		Timestamp: now.Format(time.RFC3339),
		From:      env.From,
		To:        env.To,
		ReplyTo:   env.ReplyTo,
		Subject:   env.Message.Subject,
	}, "", "  ")
	if err != nil {
		return delivery.Receipt{}, delivery.Transport(ChannelFile, fmt.Errorf("marshal metadata: %w", err))
	}
	if err := os.WriteFile(filepath.Join(f.dir, base+".json"), meta, 0o644); err != nil {
		// The HTML file alone is not a delivery
		_ = os.Remove(filepath.Join(f.dir, base+".html"))
		return delivery.Receipt{}, delivery.Transport(ChannelFile, fmt.Errorf("write metadata: %w", err))
	}

	return delivery.Receipt{Channel: ChannelFile, ProviderMessageID: id}, nil
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)

func sanitizeFilename(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = unsafeFilenameChars.ReplaceAllString(s, "")

	const maxLength = 60
	if len(s) > maxLength {
		s = s[:maxLength]
	}
	if s == "" {
		s = "email"
	}
	return strings.ToLower(s)
}
