package email

import "strings"

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#039;",
)

// Escape replaces the five HTML-significant characters with entities so
// untrusted text can be embedded in element content and quoted attributes.
func Escape(text string) string {
	if text == "" {
		return ""
	}
	return htmlEscaper.Replace(text)
}
