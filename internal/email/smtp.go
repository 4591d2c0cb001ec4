package email

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/mail"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/unveiledecho/formrelay/internal/config"
	"github.com/unveiledecho/formrelay/internal/delivery"
)

// Dialer abstracts net.Dialer to simplify testing.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// SMTPOption configures an SMTPSender.
type SMTPOption func(*SMTPSender)

// WithSMTPDialer swaps the network dialer used to reach the relay.
func WithSMTPDialer(d Dialer) SMTPOption {
	return func(s *SMTPSender) {
		if d != nil {
			s.dialer = d
		}
	}
}

// WithSMTPTLSConfig overrides the TLS configuration for implicit TLS and STARTTLS.
func WithSMTPTLSConfig(cfg *tls.Config) SMTPOption {
	return func(s *SMTPSender) {
		s.tlsConfig = cfg
	}
}

// WithSMTPClock replaces the clock used for the Date header.
func WithSMTPClock(now func() time.Time) SMTPOption {
	return func(s *SMTPSender) {
		if now != nil {
			s.now = now
		}
	}
}

// SMTPSender sends email through an SMTP relay, one connection per message.
type SMTPSender struct {
	cfg       config.SMTPConfig
	dialer    Dialer
	tlsConfig *tls.Config
	now       func() time.Time
	helloName string
}

// NewSMTPSender creates an SMTPSender. Missing settings are reported by Send.
func NewSMTPSender(cfg config.SMTPConfig, opts ...SMTPOption) *SMTPSender {
	s := &SMTPSender{
		cfg:       cfg,
		dialer:    &net.Dialer{Timeout: 30 * time.Second},
		now:       time.Now,
		helloName: "localhost",
		tlsConfig: &tls.Config{
			ServerName: cfg.Host,
			MinVersion: tls.VersionTLS12,
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *SMTPSender) Name() string { return ChannelSMTP }

func (s *SMTPSender) Configured() bool { return len(s.missing()) == 0 }

func (s *SMTPSender) missing() []string {
	var missing []string
	if strings.TrimSpace(s.cfg.Host) == "" {
		missing = append(missing, "host")
	}
	if s.cfg.Port <= 0 || s.cfg.Port > 65535 {
		missing = append(missing, "port")
	}
	if s.cfg.User == "" {
		missing = append(missing, "user")
	}
	if s.cfg.Pass == "" {
		missing = append(missing, "password")
	}
	return missing
}

// Send implements delivery.Mailer. Any error raised while talking to the
// relay becomes a TransportFailure carrying the error text. Refused
// credentials are an AuthorizationFailure, and other permanent SMTP replies
// (5xx) are reported as rejections.
func (s *SMTPSender) Send(ctx context.Context, env delivery.Envelope) (delivery.Receipt, error) {
	if missing := s.missing(); len(missing) > 0 {
		return delivery.Receipt{}, delivery.NotConfigured(ChannelSMTP, missing...)
	}

	from, err := envelopeAddress(env.From)
	if err != nil {
		return delivery.Receipt{}, delivery.Rejected(ChannelSMTP, "invalid from address: "+err.Error(), err)
	}
	to, err := envelopeAddress(env.To)
	if err != nil {
		return delivery.Receipt{}, delivery.Rejected(ChannelSMTP, "invalid recipient address: "+err.Error(), err)
	}

	messageID := fmt.Sprintf("<%s@%s>", uuid.NewString(), s.cfg.Host)
	msg := buildMIME(env, messageID, s.now())

	if err := s.deliver(ctx, from, to, msg); err != nil {
		var de *delivery.Error
		if errors.As(err, &de) {
			return delivery.Receipt{}, de
		}
		var tpErr *textproto.Error
		if errors.As(err, &tpErr) && tpErr.Code >= 500 {
			de := delivery.Rejected(ChannelSMTP, err.Error(), err)
			de.Detail = fmt.Sprintf("smtp %d", tpErr.Code)
			return delivery.Receipt{}, de
		}
		return delivery.Receipt{}, delivery.Transport(ChannelSMTP, err)
	}

	return delivery.Receipt{Channel: ChannelSMTP, ProviderMessageID: messageID}, nil
}

func (s *SMTPSender) deliver(ctx context.Context, from, to string, msg []byte) error {
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	conn, err := s.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	if s.cfg.Secure {
		tlsConn := tls.Client(conn, s.sessionTLSConfig())
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			return fmt.Errorf("tls handshake: %w", err)
		}
		conn = tlsConn
	}

	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		return fmt.Errorf("greeting: %w", err)
	}
	defer client.Close()

	if err := client.Hello(s.helloName); err != nil {
		return fmt.Errorf("hello: %w", err)
	}

	if !s.cfg.Secure {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(s.sessionTLSConfig()); err != nil {
				return fmt.Errorf("starttls: %w", err)
			}
		}
	}

	if ok, _ := client.Extension("AUTH"); ok {
		auth := smtp.PlainAuth("", s.cfg.User, s.cfg.Pass, s.cfg.Host)
		if err := client.Auth(auth); err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) || errors.Is(err, io.EOF) {
				return fmt.Errorf("auth: %w", err)
			}
			// The relay answered, so the credentials themselves were refused.
			return delivery.Unauthorized(ChannelSMTP, fmt.Errorf("auth: %w", err))
		}
	}

	if err := client.Mail(from); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("rcpt to %s: %w", to, err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		_ = w.Close()
		return fmt.Errorf("data write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("data close: %w", err)
	}

	if err := client.Quit(); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("quit: %w", err)
	}
	return nil
}

func (s *SMTPSender) sessionTLSConfig() *tls.Config {
	if s.tlsConfig == nil {
		return &tls.Config{ServerName: s.cfg.Host, MinVersion: tls.VersionTLS12}
	}
	cfg := s.tlsConfig.Clone()
	if cfg.ServerName == "" {
		cfg.ServerName = s.cfg.Host
	}
	return cfg
}

func envelopeAddress(value string) (string, error) {
	addr, err := mail.ParseAddress(value)
	if err != nil {
		return "", err
	}
	return addr.Address, nil
}
