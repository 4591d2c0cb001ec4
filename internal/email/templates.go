package email

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // clinic timezone lookups on hosts without zoneinfo

	"github.com/unveiledecho/formrelay/internal/delivery"
	"github.com/unveiledecho/formrelay/internal/model"
)

// DisplayTimeLayout formats submission times in notification emails.
const DisplayTimeLayout = "1/2/2006, 3:04:05 PM MST"

// Renderer builds the HTML documents sent by the clinic backend.
// It never fails: user text is escaped and everything else is produced here.
type Renderer struct {
	clinicName string
	location   *time.Location
	now        func() time.Time
}

// NewRenderer creates a Renderer. An unknown timezone falls back to UTC.
func NewRenderer(clinicName, timezone string) *Renderer {
	loc, err := time.LoadLocation(timezone)
	if err != nil || timezone == "" {
		loc = time.UTC
	}
	return &Renderer{
		clinicName: clinicName,
		location:   loc,
		now:        time.Now,
	}
}

// WithClock returns a copy of r that reads the current time from now.
func (r *Renderer) WithClock(now func() time.Time) *Renderer {
	c := *r
	c.now = now
	return &c
}

// SubmissionSubject returns the subject line for a form notification.
func (r *Renderer) SubmissionSubject(name string) string {
	return fmt.Sprintf("New Form Submission from %s - %s", name, r.clinicName)
}

// RenderSubmission returns the notification email for a form submission.
// A zero SubmittedAt is rendered as the current time.
func (r *Renderer) RenderSubmission(s model.Submission) delivery.Message {
	submittedAt := s.SubmittedAt
	if submittedAt.IsZero() {
		submittedAt = r.now()
	}

	email := Escape(s.Email)

	var fields strings.Builder
	fields.WriteString(field("Name", Escape(s.Name)))
	fields.WriteString(field("Email Address",
		fmt.Sprintf(`<a href="mailto:%s" style="color:#0ea5e9;text-decoration:none;">%s</a>`, email, email)))
	if s.Phone != "" {
		fields.WriteString(field("Phone Number", Escape(s.Phone)))
	}
	fields.WriteString(field("Message", newlinesToBreaks(Escape(s.Message))))
	fields.WriteString(field("Submitted At", Escape(submittedAt.In(r.location).Format(DisplayTimeLayout))))

	clinic := Escape(r.clinicName)
	html := fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>New Form Submission</title>
</head>
<body style="margin:0;padding:0;font-family:'Segoe UI',Tahoma,Geneva,Verdana,sans-serif;line-height:1.6;color:#333333;background-color:#f9fafb;">
<table width="100%%" cellpadding="0" cellspacing="0" style="background-color:#f9fafb;padding:20px 0;">
<tr><td align="center">
<table width="600" cellpadding="0" cellspacing="0" style="background-color:#ffffff;border-radius:8px;overflow:hidden;box-shadow:0 2px 8px rgba(0,0,0,0.1);">
  <tr><td style="padding:30px 20px;text-align:center;color:#ffffff;background:linear-gradient(135deg,#0ea5e9 0%%,#06b6d4 100%%);">
    <h1 style="margin:0;font-size:24px;font-weight:600;">New Form Submission</h1>
    <p style="margin:10px 0 0 0;font-size:14px;opacity:0.9;">%s</p>
  </td></tr>
  <tr><td style="padding:30px 20px;">
    <h2 style="color:#1f2937;margin-top:0;">Client Information</h2>
%s
    <p style="margin-top:20px;padding-top:20px;border-top:1px solid #e5e7eb;color:#6b7280;font-size:13px;">
      <strong>Quick Action:</strong> Reply directly to this email to contact the client.
    </p>
  </td></tr>
  <tr><td style="padding:20px;background-color:#f9fafb;border-top:1px solid #e5e7eb;text-align:center;font-size:12px;color:#6b7280;">
    <p style="margin:0;">This is an automated email from the %s submission system.</p>
    <p style="margin:8px 0 0 0;">&copy; %d %s. All rights reserved.</p>
  </td></tr>
</table>
</td></tr>
</table>
</body>
</html>`, clinic, fields.String(), clinic, r.now().In(r.location).Year(), clinic)

	return delivery.Message{
		Subject: r.SubmissionSubject(s.Name),
		HTML:    html,
	}
}

// RenderConfigurationTest returns the static email used to check that a
// delivery channel works. It contains no user supplied data.
func (r *Renderer) RenderConfigurationTest() delivery.Message {
	clinic := Escape(r.clinicName)
	html := fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>Email Configuration Test</title>
</head>
<body style="margin:0;padding:0;font-family:'Segoe UI',Tahoma,Geneva,Verdana,sans-serif;background-color:#f9fafb;">
<table width="100%%" cellpadding="0" cellspacing="0" style="background-color:#f9fafb;padding:20px 0;">
<tr><td align="center">
<table width="600" cellpadding="0" cellspacing="0" style="background-color:#ffffff;border-radius:8px;overflow:hidden;box-shadow:0 2px 8px rgba(0,0,0,0.1);">
  <tr><td style="padding:40px 20px;text-align:center;color:#ffffff;background:linear-gradient(135deg,#10b981 0%%,#059669 100%%);">
    <h1 style="margin:0;font-size:28px;font-weight:600;">&#10003; Email Service Connected!</h1>
  </td></tr>
  <tr><td style="padding:40px 20px;text-align:center;">
    <h2 style="color:#10b981;margin-top:0;">Configuration Successful</h2>
    <p style="color:#1f2937;font-size:16px;line-height:1.6;margin:20px 0;">Your email service is properly configured and working.</p>
    <p style="color:#1f2937;font-size:16px;line-height:1.6;margin:20px 0;">Your clinic can now receive form submissions and client messages.</p>
    <p style="font-size:14px;color:#6b7280;margin-top:30px;">%s</p>
  </td></tr>
  <tr><td style="padding:20px;background-color:#f9fafb;border-top:1px solid #e5e7eb;text-align:center;font-size:12px;color:#6b7280;">
    <p style="margin:0;">This is an automated test email. You can safely ignore this message.</p>
  </td></tr>
</table>
</td></tr>
</table>
</body>
</html>`, clinic)

	return delivery.Message{
		Subject: fmt.Sprintf("✓ %s - Email Configuration Test", r.clinicName),
		HTML:    html,
	}
}

func field(label, valueHTML string) string {
	return fmt.Sprintf(`    <div style="margin:20px 0;padding:15px;background-color:#f3f4f6;border-left:4px solid #0ea5e9;border-radius:4px;">
      <div style="font-weight:600;color:#0ea5e9;font-size:12px;text-transform:uppercase;letter-spacing:0.5px;">%s</div>
      <div style="margin-top:8px;color:#1f2937;font-size:14px;line-height:1.6;word-break:break-word;">%s</div>
    </div>
`, label, valueHTML)
}

func newlinesToBreaks(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\n", "<br>")
}
