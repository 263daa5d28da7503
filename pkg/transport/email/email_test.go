package email

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mrz1836/postmark"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dispatchlab/notifykit/pkg/dispatch"
	"github.com/dispatchlab/notifykit/pkg/notification"
)

type stubSender struct {
	sent []postmark.Email
	resp postmark.EmailResponse
	err  error
}

func (s *stubSender) SendEmail(_ context.Context, email postmark.Email) (postmark.EmailResponse, error) {
	s.sent = append(s.sent, email)
	return s.resp, s.err
}

func validConfig() Config {
	return Config{
		PostmarkServerToken:  "server-token",
		PostmarkAccountToken: "account-token",
		SenderEmail:          "noreply@example.com",
	}
}

func testPayload(t *testing.T, opts ...notification.ChannelOption) dispatch.Payload {
	t.Helper()
	n, err := notification.New("user-1", "billing", "Invoice ready", "Your invoice is ready to view.",
		[]notification.ChannelDescriptor{notification.MustNewChannel(notification.ChannelEmail)},
		notification.WithID("notif-1"),
		notification.WithActionURL("https://example.com/invoices/42"),
	)
	require.NoError(t, err)
	return dispatch.Payload{
		Notification: n,
		Channel:      notification.MustNewChannel(notification.ChannelEmail, opts...),
	}
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mut    func(*Config)
		errMsg string
	}{
		{"missing server token", func(c *Config) { c.PostmarkServerToken = "" }, "PostmarkServerToken"},
		{"missing account token", func(c *Config) { c.PostmarkAccountToken = "" }, "PostmarkAccountToken"},
		{"missing sender", func(c *Config) { c.SenderEmail = "" }, "SenderEmail"},
		{"malformed sender", func(c *Config) { c.SenderEmail = "not-an-email" }, "valid email"},
		{"malformed reply-to", func(c *Config) { c.ReplyToEmail = "nope" }, "ReplyToEmail"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.mut(&cfg)
			_, err := New(cfg)
			require.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}

	t.Run("valid", func(t *testing.T) {
		t.Parallel()

		tr, err := New(validConfig())
		require.NoError(t, err)
		assert.NotNil(t, tr)
	})
}

func TestTransport_Send(t *testing.T) {
	t.Parallel()

	t.Run("delivers through postmark", func(t *testing.T) {
		t.Parallel()

		stub := &stubSender{resp: postmark.EmailResponse{MessageID: "pm-123"}}
		tr := &Transport{client: stub, config: validConfig()}

		payload := testPayload(t, notification.WithChannelConfig(map[string]any{"address": "user@example.com"}))
		res, err := tr.Send(context.Background(), payload)
		require.NoError(t, err)
		assert.True(t, res.Success)
		assert.Equal(t, "pm-123", res.MessageID)

		require.Len(t, stub.sent, 1)
		sent := stub.sent[0]
		assert.Equal(t, "user@example.com", sent.To)
		assert.Equal(t, "noreply@example.com", sent.From)
		assert.Equal(t, "noreply@example.com", sent.ReplyTo, "reply-to falls back to sender")
		assert.Equal(t, "Invoice ready", sent.Subject)
		assert.Equal(t, "billing", sent.Tag)
		assert.Contains(t, sent.HTMLBody, "Your invoice is ready to view.")
		assert.Contains(t, sent.HTMLBody, "https://example.com/invoices/42")
	})

	t.Run("recipient falls back to metadata", func(t *testing.T) {
		t.Parallel()

		stub := &stubSender{}
		tr := &Transport{client: stub, config: validConfig()}

		payload := testPayload(t)
		payload.Notification.Metadata = map[string]any{"email": "fallback@example.com"}
		_, err := tr.Send(context.Background(), payload)
		require.NoError(t, err)
		require.Len(t, stub.sent, 1)
		assert.Equal(t, "fallback@example.com", stub.sent[0].To)
	})

	t.Run("missing recipient", func(t *testing.T) {
		t.Parallel()

		tr := &Transport{client: &stubSender{}, config: validConfig()}
		_, err := tr.Send(context.Background(), testPayload(t))
		require.ErrorIs(t, err, ErrRecipientRequired)
	})

	t.Run("postmark api error code", func(t *testing.T) {
		t.Parallel()

		stub := &stubSender{resp: postmark.EmailResponse{ErrorCode: 300, Message: "invalid to"}}
		tr := &Transport{client: stub, config: validConfig()}

		payload := testPayload(t, notification.WithChannelConfig(map[string]any{"address": "user@example.com"}))
		_, err := tr.Send(context.Background(), payload)
		require.ErrorIs(t, err, ErrSendFailed)
		assert.Contains(t, err.Error(), "300")
	})

	t.Run("transport error", func(t *testing.T) {
		t.Parallel()

		stub := &stubSender{err: errors.New("connection reset")}
		tr := &Transport{client: stub, config: validConfig()}

		payload := testPayload(t, notification.WithChannelConfig(map[string]any{"address": "user@example.com"}))
		_, err := tr.Send(context.Background(), payload)
		require.ErrorIs(t, err, ErrSendFailed)
	})
}

func TestDevTransport_Send(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tr := NewDevTransport(filepath.Join(dir, "outbox"))

	payload := testPayload(t, notification.WithChannelConfig(map[string]any{"address": "user@example.com"}))
	res, err := tr.Send(context.Background(), payload)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.NotEmpty(t, res.MessageID)

	html, err := os.ReadFile(filepath.Join(dir, "outbox", res.MessageID+".html"))
	require.NoError(t, err)
	assert.Contains(t, string(html), "Invoice ready")

	meta, err := os.ReadFile(filepath.Join(dir, "outbox", res.MessageID+".json"))
	require.NoError(t, err)
	assert.Contains(t, string(meta), `"notif-1"`)
	assert.Contains(t, string(meta), `"user@example.com"`)
}

func TestSanitizeFilename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"Invoice ready", "invoice_ready"},
		{"Weird/Name!!", "weirdname"},
		{"", "notification"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeFilename(tt.in))
	}
}
