package email

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/resend/resend-go/v3"

	"github.com/unveiledecho/formrelay/internal/delivery"
)

// resendEmails is the part of the Resend client the sender uses.
type resendEmails interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// ResendSender sends email through the Resend API.
type ResendSender struct {
	emails resendEmails
	apiKey string
}

// NewResendSender creates a ResendSender. An empty key yields a sender whose
// every Send fails with ChannelNotConfigured.
func NewResendSender(apiKey string) *ResendSender {
	s := &ResendSender{apiKey: apiKey}
	if apiKey != "" {
		client := resend.NewCustomClient(&http.Client{Timeout: delivery.AttemptTimeout}, apiKey)
		s.emails = client.Emails
	}
	return s
}

// NewResendSenderWithClient creates a ResendSender on an existing client, for
// example one whose BaseURL points at a proxy.
func NewResendSenderWithClient(client *resend.Client) *ResendSender {
	return &ResendSender{emails: client.Emails, apiKey: client.ApiKey}
}

func (s *ResendSender) Name() string { return ChannelResend }

func (s *ResendSender) Configured() bool { return s.apiKey != "" && s.emails != nil }

// Send implements delivery.Mailer.
func (s *ResendSender) Send(ctx context.Context, env delivery.Envelope) (delivery.Receipt, error) {
	if !s.Configured() {
		return delivery.Receipt{}, delivery.NotConfigured(ChannelResend, "API key")
	}

	req := &resend.SendEmailRequest{
		From:    env.From,
		To:      []string{env.To},
		Subject: env.Message.Subject,
		Html:    env.Message.HTML,
		ReplyTo: env.ReplyTo,
	}

	resp, err := s.emails.SendWithContext(ctx, req)
	if err != nil {
		return delivery.Receipt{}, resendError(err)
	}

	receipt := delivery.Receipt{Channel: ChannelResend}
	if resp != nil {
		receipt.ProviderMessageID = resp.Id
	}
	return receipt, nil
}

// resendAPIErrorPrefix is prepended by the client to every non-429 API error.
const resendAPIErrorPrefix = "[ERROR]: "

// resendError recovers the provider message from a client error. The client
// flattens API errors into strings, so the prefix is the only marker.
func resendError(err error) error {
	var rateLimited *resend.RateLimitError
	if errors.As(err, &rateLimited) {
		return delivery.Rejected(ChannelResend, rateLimited.Message, err)
	}
	if msg, ok := strings.CutPrefix(err.Error(), resendAPIErrorPrefix); ok {
		return delivery.Rejected(ChannelResend, msg, err)
	}
	return delivery.FromClientError(ChannelResend, err)
}
