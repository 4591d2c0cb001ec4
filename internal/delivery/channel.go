package delivery

import (
	"context"
	"time"
)

// AttemptTimeout bounds one provider call, connection setup included. The
// HTTP server's write timeout must stay above it.
const AttemptTimeout = 30 * time.Second

// Message is a rendered document ready to be sent. It has no identity beyond
// its content.
type Message struct {
	Subject string
	HTML    string
}

// Envelope addresses a Message.
type Envelope struct {
	From    string
	To      string
	ReplyTo string // optional
	Message Message
}

// Receipt is the Delivered outcome of an attempt.
type Receipt struct {
	Channel           string
	ProviderMessageID string // empty when the provider does not return one
}

// Channel is a single outbound provider selected at start-up.
type Channel interface {
	// Name identifies the provider in logs and health output.
	Name() string
	// Configured reports whether every required setting is present.
	Configured() bool
}

// Mailer is a channel that can send an email.
type Mailer interface {
	Channel
	// Send makes exactly one delivery attempt.
	Send(ctx context.Context, env Envelope) (Receipt, error)
}

// RowAppender is a channel that appends rows to a spreadsheet.
type RowAppender interface {
	Channel
	// AppendRow makes exactly one append attempt.
	AppendRow(ctx context.Context, values []string) (Receipt, error)
}

// Unconfigured stands in for a channel whose settings are incomplete or whose
// client could not be built. Every attempt fails with ChannelNotConfigured.
type Unconfigured struct {
	ChannelName string
	Missing     []string
}

func (u Unconfigured) Name() string { return u.ChannelName }

func (u Unconfigured) Configured() bool { return false }

func (u Unconfigured) err() error {
	return NotConfigured(u.ChannelName, u.Missing...)
}

// UnconfiguredMailer is an Unconfigured email channel.
type UnconfiguredMailer struct{ Unconfigured }

func (u UnconfiguredMailer) Send(context.Context, Envelope) (Receipt, error) {
	return Receipt{}, u.err()
}

// UnconfiguredAppender is an Unconfigured spreadsheet channel.
type UnconfiguredAppender struct{ Unconfigured }

func (u UnconfiguredAppender) AppendRow(context.Context, []string) (Receipt, error) {
	return Receipt{}, u.err()
}
