package email

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/unveiledecho/formrelay/internal/config"
	"github.com/unveiledecho/formrelay/internal/delivery"
)

func newTestGmailSender(t *testing.T, handler http.HandlerFunc) *GmailSender {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	sender, err := NewGmailSenderWithOptions(context.Background(),
		option.WithHTTPClient(srv.Client()),
		option.WithEndpoint(srv.URL+"/"),
	)
	require.NoError(t, err)
	return sender
}

func TestGmailSender_Send_Success(t *testing.T) {
	t.Parallel()

	var raw string
	sender := newTestGmailSender(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.True(t, strings.HasSuffix(r.URL.Path, "/users/me/messages/send"), r.URL.Path)

		var body struct {
			Raw string `json:"raw"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		decoded, err := base64.URLEncoding.DecodeString(body.Raw)
		require.NoError(t, err)
		raw = string(decoded)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"gm-42","threadId":"t-1"}`))
	})

	receipt, err := sender.Send(context.Background(), testEnvelope)

	require.NoError(t, err)
	assert.Equal(t, delivery.Receipt{Channel: ChannelGmail, ProviderMessageID: "gm-42"}, receipt)
	assert.Contains(t, raw, "To: owner@unveiledecho.com\r\n")
	assert.Contains(t, raw, "Reply-To: jane@example.com\r\n")
}

func TestGmailSender_Send_Forbidden(t *testing.T) {
	t.Parallel()

	sender := newTestGmailSender(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"Delegation denied"}}`))
	})

	_, err := sender.Send(context.Background(), testEnvelope)

	require.Error(t, err)
	assert.ErrorIs(t, err, delivery.ErrAuthorizationFailure)
}

func TestGmailSender_Send_BadRequest(t *testing.T) {
	t.Parallel()

	sender := newTestGmailSender(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"Invalid To header"}}`))
	})

	_, err := sender.Send(context.Background(), testEnvelope)

	require.Error(t, err)
	assert.ErrorIs(t, err, delivery.ErrProviderRejected)
	assert.Equal(t, "Invalid To header", delivery.ReasonOf(err))
}

func TestNewGmailSender_RequiresCredentials(t *testing.T) {
	t.Parallel()

	_, err := NewGmailSender(context.Background(), config.GmailConfig{}, "forms@unveiledecho.com")
	assert.Error(t, err)

	_, err = NewGmailSender(context.Background(), config.GmailConfig{CredentialsJSON: "{}"}, "")
	assert.Error(t, err)

	_, err = NewGmailSender(context.Background(), config.GmailConfig{CredentialsJSON: "not json"}, "forms@unveiledecho.com")
	assert.Error(t, err)
}
