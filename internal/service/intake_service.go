package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/unveiledecho/formrelay/internal/config"
	"github.com/unveiledecho/formrelay/internal/delivery"
	"github.com/unveiledecho/formrelay/internal/email"
	"github.com/unveiledecho/formrelay/internal/logger"
	"github.com/unveiledecho/formrelay/internal/model"
)

// TestAddressRequiredReason is returned when a test dispatch has no address.
const TestAddressRequiredReason = "Test email address required"

// DeliveryRecorder persists the outcome of delivery attempts.
type DeliveryRecorder interface {
	Record(ctx context.Context, entry *model.DeliveryLog) error
}

// IntakeService validates submissions, renders them and hands them to the
// configured channel. Each call makes at most one delivery attempt.
type IntakeService struct {
	channels Channels
	renderer *email.Renderer
	cfg      config.DeliveryConfig
	recorder DeliveryRecorder
	log      *logger.Logger
	now      func() time.Time
}

// NewIntakeService creates a new IntakeService.
func NewIntakeService(
	channels Channels,
	renderer *email.Renderer,
	cfg config.DeliveryConfig,
	log *logger.Logger,
) *IntakeService {
	return &IntakeService{
		channels: channels,
		renderer: renderer,
		cfg:      cfg,
		log:      log.WithComponent("intake"),
		now:      time.Now,
	}
}

// WithRecorder enables the delivery log.
func (s *IntakeService) WithRecorder(r DeliveryRecorder) *IntakeService {
	s.recorder = r
	return s
}

// ChannelStatus reports the selected channel and whether it is usable.
func (s *IntakeService) ChannelStatus() (name string, configured bool) {
	active := s.channels.Active()
	return active.Name(), active.Configured()
}

// Submit delivers a contact form submission to the clinic owner. The
// submitter's address is used as Reply-To.
func (s *IntakeService) Submit(ctx context.Context, requestID string, sub model.Submission) (delivery.Receipt, error) {
	if err := sub.Validate(); err != nil {
		return delivery.Receipt{}, err
	}
	if sub.SubmittedAt.IsZero() {
		sub.SubmittedAt = s.now()
	}

	env := delivery.Envelope{
		From:    email.FormatAddress(s.cfg.FromName, s.cfg.Sender()),
		To:      s.cfg.Owner(),
		ReplyTo: sub.Email,
		Message: s.renderer.RenderSubmission(sub),
	}

	return s.send(ctx, requestID, model.OperationSubmission, env)
}

// SendTest delivers the configuration test document to address.
func (s *IntakeService) SendTest(ctx context.Context, requestID, address string) (delivery.Receipt, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return delivery.Receipt{}, delivery.Invalid(TestAddressRequiredReason)
	}

	env := delivery.Envelope{
		From:    email.FormatAddress(s.cfg.FromName, s.cfg.Sender()),
		To:      address,
		Message: s.renderer.RenderConfigurationTest(),
	}

	return s.send(ctx, requestID, model.OperationTestDispatch, env)
}

// AppendToSheet appends the submission as one spreadsheet row.
func (s *IntakeService) AppendToSheet(ctx context.Context, requestID string, sub model.Submission) (delivery.Receipt, error) {
	if err := sub.Validate(); err != nil {
		return delivery.Receipt{}, err
	}
	if sub.SubmittedAt.IsZero() {
		sub.SubmittedAt = s.now()
	}

	attemptCtx, cancel := context.WithTimeout(ctx, delivery.AttemptTimeout)
	defer cancel()

	appender := s.channels.Appender
	start := time.Now()
	receipt, err := appender.AppendRow(attemptCtx, sub.SheetRow())
	s.finish(ctx, requestID, model.OperationSheetAppend, appender.Name(), s.cfg.Sheets.SpreadsheetID, receipt, err, time.Since(start))

	return receipt, err
}

func (s *IntakeService) send(ctx context.Context, requestID, operation string, env delivery.Envelope) (delivery.Receipt, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, delivery.AttemptTimeout)
	defer cancel()

	mailer := s.channels.Mailer
	start := time.Now()
	receipt, err := mailer.Send(attemptCtx, env)
	s.finish(ctx, requestID, operation, mailer.Name(), env.To, receipt, err, time.Since(start))

	return receipt, err
}

// finish logs the attempt and writes it to the delivery log when enabled.
func (s *IntakeService) finish(ctx context.Context, requestID, operation, channel, recipient string, receipt delivery.Receipt, err error, took time.Duration) {
	kind := string(delivery.KindOf(err))

	s.log.Delivery(logger.DeliveryAttempt{
		RequestID:         requestID,
		Operation:         operation,
		Channel:           channel,
		Recipient:         recipient,
		ProviderMessageID: receipt.ProviderMessageID,
		Duration:          took,
		Err:               err,
		ErrorKind:         kind,
	})

	if s.recorder == nil {
		return
	}

	entry := &model.DeliveryLog{
		ID:        uuid.New().String(),
		Operation: operation,
		Channel:   channel,
		Recipient: recipient,
		Status:    model.DeliveryStatusDelivered,
		CreatedAt: s.now().UTC(),
	}
	if requestID != "" {
		entry.RequestID = &requestID
	}
	if receipt.ProviderMessageID != "" {
		id := receipt.ProviderMessageID
		entry.ProviderMessageID = &id
	}
	if err != nil {
		reason := delivery.ReasonOf(err)
		entry.Status = model.DeliveryStatusFailed
		entry.ErrorKind = &kind
		entry.Reason = &reason
	}

	if recErr := s.recorder.Record(ctx, entry); recErr != nil {
		s.log.Warn().Err(recErr).Str("operation", operation).Msg("failed to record delivery")
	}
}
