package email

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/unveiledecho/formrelay/internal/config"
	"github.com/unveiledecho/formrelay/internal/delivery"
)

// GmailSender sends email through the Gmail API as the sender mailbox.
type GmailSender struct {
	service *gmail.Service
	now     func() time.Time
}

// NewGmailSender creates a GmailSender.
// It accepts a service account credentials JSON with domain-wide delegation,
// impersonating senderAddress, or OAuth2 client credentials with a refresh
// token for the sender mailbox.
func NewGmailSender(ctx context.Context, cfg config.GmailConfig, senderAddress string) (*GmailSender, error) {
	if senderAddress == "" {
		return nil, fmt.Errorf("gmail: sender address is required")
	}

	var client *http.Client
	if cfg.CredentialsJSON != "" {
		jwtConfig, err := google.JWTConfigFromJSON([]byte(cfg.CredentialsJSON), gmail.GmailSendScope)
		if err != nil {
			return nil, fmt.Errorf("gmail: failed to parse credentials: %w", err)
		}
		// Domain-wide delegation: act as the sender mailbox
		jwtConfig.Subject = senderAddress
		client = jwtConfig.Client(ctx)
	} else {
		if cfg.ClientID == "" || cfg.RefreshToken == "" {
			return nil, fmt.Errorf("gmail: credentials JSON or client ID with refresh token is required")
		}
		oauthCfg := &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{gmail.GmailSendScope},
		}
		client = oauthCfg.Client(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken})
	}

	return NewGmailSenderWithOptions(ctx, option.WithHTTPClient(client))
}

// NewGmailSenderWithOptions creates a GmailSender from raw client options.
func NewGmailSenderWithOptions(ctx context.Context, opts ...option.ClientOption) (*GmailSender, error) {
	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gmail: failed to create service: %w", err)
	}
	return &GmailSender{service: svc, now: time.Now}, nil
}

func (g *GmailSender) Name() string { return ChannelGmail }

func (g *GmailSender) Configured() bool { return g.service != nil }

// Send implements delivery.Mailer.
func (g *GmailSender) Send(ctx context.Context, env delivery.Envelope) (delivery.Receipt, error) {
	if !g.Configured() {
		return delivery.Receipt{}, delivery.NotConfigured(ChannelGmail)
	}

	raw := buildMIME(env, "", g.now())
	msg := &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString(raw),
	}

	sent, err := g.service.Users.Messages.Send("me", msg).Context(ctx).Do()
	if err != nil {
		return delivery.Receipt{}, delivery.FromGoogleError(ChannelGmail, err)
	}

	return delivery.Receipt{Channel: ChannelGmail, ProviderMessageID: sent.Id}, nil
}
