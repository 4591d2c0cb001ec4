package service

import (
	"context"
	"fmt"

	"github.com/unveiledecho/formrelay/internal/config"
	"github.com/unveiledecho/formrelay/internal/delivery"
	"github.com/unveiledecho/formrelay/internal/email"
	"github.com/unveiledecho/formrelay/internal/logger"
	"github.com/unveiledecho/formrelay/internal/sheets"
)

// Channels is the delivery channel selected for this deployment, exposed
// through the capability each endpoint needs. Only one of Mailer and
// Appender is backed by a real provider; the other always fails with
// ChannelNotConfigured.
type Channels struct {
	Selected string
	Mailer   delivery.Mailer
	Appender delivery.RowAppender
}

// Active returns the channel chosen by delivery.channel.
func (c Channels) Active() delivery.Channel {
	if c.Selected == config.ChannelSheets {
		return c.Appender
	}
	return c.Mailer
}

// NewChannels builds the configured channel. Incomplete settings or a client
// that cannot be built never stop the process: the channel is replaced by a
// stand-in that reports what is missing on every attempt.
func NewChannels(ctx context.Context, cfg config.DeliveryConfig, log *logger.Logger) Channels {
	log = log.WithComponent("channels")

	name := cfg.Channel
	if name == "" {
		name = "delivery"
	}

	c := Channels{Selected: cfg.Channel}

	// The capability the selected channel does not have
	if cfg.Channel == config.ChannelSheets {
		c.Mailer = delivery.UnconfiguredMailer{Unconfigured: delivery.Unconfigured{
			ChannelName: "email",
			Missing:     []string{fmt.Sprintf("email channel (delivery.channel is %q)", cfg.Channel)},
		}}
	} else {
		c.Appender = delivery.UnconfiguredAppender{Unconfigured: delivery.Unconfigured{
			ChannelName: config.ChannelSheets,
			Missing:     []string{fmt.Sprintf("spreadsheet channel (delivery.channel is %q)", cfg.Channel)},
		}}
	}

	if missing := cfg.Missing(); len(missing) > 0 {
		log.Warn().Str("channel", name).Strs("missing", missing).Msg("delivery channel is not configured")
		unconfigured := delivery.Unconfigured{ChannelName: name, Missing: missing}
		if cfg.Channel == config.ChannelSheets {
			c.Appender = delivery.UnconfiguredAppender{Unconfigured: unconfigured}
		} else {
			c.Mailer = delivery.UnconfiguredMailer{Unconfigured: unconfigured}
		}
		return c
	}

	var err error
	switch cfg.Channel {
	case config.ChannelResend:
		c.Mailer = email.NewResendSender(cfg.Resend.APIKey)
	case config.ChannelPostmark:
		c.Mailer = email.NewPostmarkSender(cfg.Postmark.ServerToken, cfg.Postmark.AccountToken)
	case config.ChannelSMTP:
		c.Mailer = email.NewSMTPSender(cfg.SMTP)
	case config.ChannelFile:
		c.Mailer = email.NewFileSender(cfg.File.Dir)
	case config.ChannelGmail:
		var sender *email.GmailSender
		sender, err = email.NewGmailSender(ctx, cfg.Gmail, cfg.Sender())
		if err == nil {
			c.Mailer = sender
		}
	case config.ChannelSheets:
		var appender *sheets.Appender
		appender, err = sheets.NewAppender(ctx, cfg.Sheets)
		if err == nil {
			c.Appender = appender
		}
	}

	if err != nil {
		log.Error().Err(err).Str("channel", name).Msg("failed to initialize delivery channel")
		unconfigured := delivery.Unconfigured{ChannelName: name, Missing: []string{"valid credentials"}}
		if cfg.Channel == config.ChannelSheets {
			c.Appender = delivery.UnconfiguredAppender{Unconfigured: unconfigured}
		} else {
			c.Mailer = delivery.UnconfiguredMailer{Unconfigured: unconfigured}
		}
	}

	return c
}
