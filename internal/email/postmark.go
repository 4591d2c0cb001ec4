package email

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/mrz1836/postmark"

	"github.com/unveiledecho/formrelay/internal/delivery"
)

// postmarkAPI is the part of the Postmark client the sender uses.
type postmarkAPI interface {
	SendEmail(ctx context.Context, email postmark.Email) (postmark.EmailResponse, error)
}

// PostmarkSender sends email through Postmark's transactional API.
type PostmarkSender struct {
	client      postmarkAPI
	serverToken string
}

// NewPostmarkSender creates a PostmarkSender. The account token is optional
// because only server-scoped endpoints are used.
func NewPostmarkSender(serverToken, accountToken string) *PostmarkSender {
	s := &PostmarkSender{serverToken: serverToken}
	if serverToken != "" {
		client := postmark.NewClient(serverToken, accountToken)
		client.HTTPClient = &http.Client{Timeout: delivery.AttemptTimeout}
		s.client = client
	}
	return s
}

// NewPostmarkSenderWithClient creates a PostmarkSender on an existing client,
// for example one whose BaseURL points at a proxy.
func NewPostmarkSenderWithClient(client *postmark.Client) *PostmarkSender {
	return &PostmarkSender{client: client, serverToken: client.ServerToken}
}

func (s *PostmarkSender) Name() string { return ChannelPostmark }

func (s *PostmarkSender) Configured() bool { return s.serverToken != "" && s.client != nil }

// Send implements delivery.Mailer. Postmark reports refusals either as a
// non-zero ErrorCode in a 200 response or as an APIError on 4xx.
func (s *PostmarkSender) Send(ctx context.Context, env delivery.Envelope) (delivery.Receipt, error) {
	if !s.Configured() {
		return delivery.Receipt{}, delivery.NotConfigured(ChannelPostmark, "server token")
	}

	resp, err := s.client.SendEmail(ctx, postmark.Email{
		From:     env.From,
		To:       env.To,
		ReplyTo:  env.ReplyTo,
		Subject:  env.Message.Subject,
		HTMLBody: env.Message.HTML,
		Tag:      "form-submission",
	})
	if resp.ErrorCode != 0 {
		return delivery.Receipt{}, postmarkError(resp.ErrorCode, resp.Message, err)
	}
	var apiErr postmark.APIError
	if errors.As(err, &apiErr) {
		return delivery.Receipt{}, postmarkError(apiErr.ErrorCode, apiErr.Message, err)
	}
	if err != nil {
		return delivery.Receipt{}, delivery.FromClientError(ChannelPostmark, err)
	}

	return delivery.Receipt{Channel: ChannelPostmark, ProviderMessageID: resp.MessageID}, nil
}

// postmarkBadToken is the error code for a missing or invalid server token.
const postmarkBadToken = 10

func postmarkError(code int64, message string, err error) *delivery.Error {
	if err == nil {
		err = errors.New(message)
	}
	if code == postmarkBadToken {
		return delivery.Unauthorized(ChannelPostmark, err)
	}
	de := delivery.Rejected(ChannelPostmark, message, err)
	de.Detail = fmt.Sprintf("postmark error code %d", code)
	return de
}
