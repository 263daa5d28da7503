package webhook_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dispatchlab/notifykit/pkg/transport/webhook"
)

func TestSignPayload(t *testing.T) {
	t.Parallel()

	payload := []byte(`{"id":"evt_1"}`)

	t.Run("produces verifiable signature", func(t *testing.T) {
		t.Parallel()

		headers, err := webhook.SignPayload("secret", payload)
		require.NoError(t, err)
		assert.NotEmpty(t, headers.Signature)
		assert.NotEmpty(t, headers.ID)
		assert.NotZero(t, headers.Timestamp)

		require.NoError(t, webhook.VerifySignature("secret", payload, headers, time.Minute))
	})

	t.Run("unique id per signature", func(t *testing.T) {
		t.Parallel()

		a, err := webhook.SignPayload("secret", payload)
		require.NoError(t, err)
		b, err := webhook.SignPayload("secret", payload)
		require.NoError(t, err)
		assert.NotEqual(t, a.ID, b.ID)
	})

	t.Run("requires secret", func(t *testing.T) {
		t.Parallel()

		_, err := webhook.SignPayload("", payload)
		require.ErrorIs(t, err, webhook.ErrInvalidConfiguration)
	})

	t.Run("requires payload", func(t *testing.T) {
		t.Parallel()

		_, err := webhook.SignPayload("secret", nil)
		require.ErrorIs(t, err, webhook.ErrInvalidPayload)
	})

	t.Run("headers map", func(t *testing.T) {
		t.Parallel()

		headers, err := webhook.SignPayload("secret", payload)
		require.NoError(t, err)

		m := headers.Headers()
		assert.Equal(t, headers.Signature, m["X-Notification-Signature"])
		assert.Equal(t, headers.ID, m["X-Notification-ID"])
		assert.NotEmpty(t, m["X-Notification-Timestamp"])
	})
}

func TestVerifySignature(t *testing.T) {
	t.Parallel()

	payload := []byte(`{"id":"evt_1"}`)

	sign := func(t *testing.T) webhook.SignatureHeaders {
		t.Helper()
		headers, err := webhook.SignPayload("secret", payload)
		require.NoError(t, err)
		return headers
	}

	t.Run("rejects wrong secret", func(t *testing.T) {
		t.Parallel()

		err := webhook.VerifySignature("other", payload, sign(t), time.Minute)
		require.ErrorIs(t, err, webhook.ErrInvalidConfiguration)
		assert.Contains(t, err.Error(), "mismatch")
	})

	t.Run("rejects tampered payload", func(t *testing.T) {
		t.Parallel()

		err := webhook.VerifySignature("secret", []byte(`{"id":"evt_2"}`), sign(t), time.Minute)
		require.ErrorIs(t, err, webhook.ErrInvalidConfiguration)
	})

	t.Run("rejects stale timestamp", func(t *testing.T) {
		t.Parallel()

		headers := sign(t)
		headers.Timestamp = time.Now().Add(-time.Hour).Unix()
		err := webhook.VerifySignature("secret", payload, headers, time.Minute)
		require.ErrorIs(t, err, webhook.ErrInvalidConfiguration)
		assert.Contains(t, err.Error(), "too old")
	})

	t.Run("rejects future timestamp", func(t *testing.T) {
		t.Parallel()

		headers := sign(t)
		headers.Timestamp = time.Now().Add(time.Hour).Unix()
		err := webhook.VerifySignature("secret", payload, headers, time.Minute)
		require.ErrorIs(t, err, webhook.ErrInvalidConfiguration)
	})

	t.Run("zero maxAge skips age check", func(t *testing.T) {
		t.Parallel()

		require.NoError(t, webhook.VerifySignature("secret", payload, sign(t), 0))
	})

	t.Run("missing signature", func(t *testing.T) {
		t.Parallel()

		err := webhook.VerifySignature("secret", payload, webhook.SignatureHeaders{Timestamp: time.Now().Unix()}, time.Minute)
		require.ErrorIs(t, err, webhook.ErrInvalidConfiguration)
	})
}
