package email

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/resend/resend-go/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/unveiledecho/formrelay/internal/delivery"
)

type mockResendEmails struct {
	mock.Mock
}

func (m *mockResendEmails) SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error) {
	args := m.Called(ctx, params)
	resp, _ := args.Get(0).(*resend.SendEmailResponse)
	return resp, args.Error(1)
}

var testEnvelope = delivery.Envelope{
	From:    "forms@unveiledecho.com",
	To:      "owner@unveiledecho.com",
	ReplyTo: "jane@example.com",
	Message: delivery.Message{Subject: "New Form Submission from Jane Doe - Unveiled Echo Clinic", HTML: "<p>hi</p>"},
}

func TestResendSender_Send_Success(t *testing.T) {
	t.Parallel()

	emails := &mockResendEmails{}
	sender := &ResendSender{emails: emails, apiKey: "re_test"}

	emails.On("SendWithContext", mock.Anything, mock.MatchedBy(func(req *resend.SendEmailRequest) bool {
		return req.From == testEnvelope.From &&
			assert.ObjectsAreEqual([]string{"owner@unveiledecho.com"}, req.To) &&
			req.ReplyTo == "jane@example.com" &&
			req.Subject == testEnvelope.Message.Subject &&
			req.Html == "<p>hi</p>"
	})).Return(&resend.SendEmailResponse{Id: "em_123"}, nil)

	receipt, err := sender.Send(context.Background(), testEnvelope)

	require.NoError(t, err)
	assert.Equal(t, delivery.Receipt{Channel: ChannelResend, ProviderMessageID: "em_123"}, receipt)
	emails.AssertExpectations(t)
}

func TestResendSender_Send_ProviderError(t *testing.T) {
	t.Parallel()

	emails := &mockResendEmails{}
	sender := &ResendSender{emails: emails, apiKey: "re_test"}
	emails.On("SendWithContext", mock.Anything, mock.Anything).Return(nil, errors.New("[ERROR]: quota exceeded"))

	_, err := sender.Send(context.Background(), testEnvelope)

	require.Error(t, err)
	assert.ErrorIs(t, err, delivery.ErrProviderRejected)
	assert.Equal(t, "quota exceeded", delivery.ReasonOf(err))
}

func TestResendSender_Send_NotConfigured(t *testing.T) {
	t.Parallel()

	sender := NewResendSender("")
	assert.False(t, sender.Configured())

	_, err := sender.Send(context.Background(), testEnvelope)
	assert.ErrorIs(t, err, delivery.ErrNotConfigured)
	assert.Equal(t, "resend not configured: missing API key", delivery.ReasonOf(err))
}

func TestNewResendSender_Configured(t *testing.T) {
	t.Parallel()

	sender := NewResendSender("re_live")
	assert.True(t, sender.Configured())
	assert.Equal(t, "resend", sender.Name())
}

func newResendTestSender(t *testing.T, handler http.HandlerFunc) *ResendSender {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := resend.NewClient("re_test")
	base, err := url.Parse(srv.URL + "/")
	require.NoError(t, err)
	client.BaseURL = base

	return NewResendSenderWithClient(client)
}

func TestResendSender_Send_API(t *testing.T) {
	t.Parallel()

	t.Run("accepted", func(t *testing.T) {
		t.Parallel()

		var body map[string]any
		sender := newResendTestSender(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/emails", r.URL.Path)
			assert.Equal(t, "Bearer re_test", r.Header.Get("Authorization"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"4ef9a417-02e9-4d39-ad75-9611e0fcc33c"}`))
		})

		receipt, err := sender.Send(context.Background(), testEnvelope)

		require.NoError(t, err)
		assert.Equal(t, "4ef9a417-02e9-4d39-ad75-9611e0fcc33c", receipt.ProviderMessageID)
		assert.Equal(t, "jane@example.com", body["reply_to"])
	})

	tests := []struct {
		name        string
		status      int
		contentType string
		body        string
		wantReason  string
	}{
		{"validation error", http.StatusBadRequest, "application/json", `{"statusCode":400,"message":"quota exceeded","name":"validation_error"}`, "quota exceeded"},
		{"unprocessable", http.StatusUnprocessableEntity, "application/json", `{"message":"Invalid 'to' field"}`, "Invalid 'to' field"},
		{"rate limited", http.StatusTooManyRequests, "application/json", `{"message":"Too many requests"}`, "Too many requests"},
		{"server error", http.StatusInternalServerError, "application/json", `{"message":"Internal server error"}`, "Internal server error"},
		{"plain text", http.StatusBadGateway, "text/plain", "bad gateway", "502 Bad Gateway"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sender := newResendTestSender(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				w.Header().Set("retry-after", "1")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := sender.Send(context.Background(), testEnvelope)

			require.Error(t, err)
			assert.ErrorIs(t, err, delivery.ErrProviderRejected)
			assert.Equal(t, tt.wantReason, delivery.ReasonOf(err))
		})
	}
}
