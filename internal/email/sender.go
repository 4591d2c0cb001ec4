package email

import (
	"fmt"
	"mime"
	"strings"
	"time"

	"github.com/unveiledecho/formrelay/internal/delivery"
)

// Channel names reported in receipts and logs.
const (
	ChannelResend   = "resend"
	ChannelPostmark = "postmark"
	ChannelSMTP     = "smtp"
	ChannelGmail    = "gmail"
	ChannelFile     = "file"
)

// FormatAddress formats a name and email into RFC 5322 address format.
func FormatAddress(name, address string) string {
	if name == "" {
		return address
	}
	return fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", name), address)
}

// buildMIME renders env as a single-part HTML message with CRLF line endings.
func buildMIME(env delivery.Envelope, messageID string, now time.Time) []byte {
	headers := []string{
		"From: " + sanitizeHeaderValue(env.From),
		"To: " + sanitizeHeaderValue(env.To),
	}
	if env.ReplyTo != "" {
		headers = append(headers, "Reply-To: "+sanitizeHeaderValue(env.ReplyTo))
	}
	headers = append(headers,
		"Subject: "+mime.QEncoding.Encode("utf-8", sanitizeHeaderValue(env.Message.Subject)),
		"Date: "+now.UTC().Format(time.RFC1123Z),
	)
	if messageID != "" {
		headers = append(headers, "Message-ID: "+messageID)
	}
	headers = append(headers,
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=UTF-8",
		"Content-Transfer-Encoding: 8bit",
		"",
		normalizeBody(env.Message.HTML),
	)

	return []byte(strings.Join(headers, "\r\n"))
}

func normalizeBody(body string) string {
	normalized := strings.ReplaceAll(body, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")
	return strings.ReplaceAll(normalized, "\n", "\r\n")
}

func sanitizeHeaderValue(value string) string {
	clean := strings.ReplaceAll(value, "\r", " ")
	clean = strings.ReplaceAll(clean, "\n", " ")
	return strings.TrimSpace(clean)
}
