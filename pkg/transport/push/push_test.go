package push_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dispatchlab/notifykit/pkg/dispatch"
	"github.com/dispatchlab/notifykit/pkg/notification"
	"github.com/dispatchlab/notifykit/pkg/transport/push"
)

func pushPayload(t *testing.T, opts ...notification.ChannelOption) dispatch.Payload {
	t.Helper()
	n, err := notification.New("user-1", "alerts", "Build finished", "Pipeline #88 passed.",
		[]notification.ChannelDescriptor{notification.MustNewChannel(notification.ChannelPush)},
		notification.WithID("notif-p-1"),
		notification.WithPriority(notification.PriorityHigh),
	)
	require.NoError(t, err)
	return dispatch.Payload{
		Notification: n,
		Channel:      notification.MustNewChannel(notification.ChannelPush, opts...),
	}
}

func TestTransport_Send(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("single token from channel config", func(t *testing.T) {
		t.Parallel()

		var got []push.Message
		tr := push.New(push.ProviderFunc(func(_ context.Context, msg push.Message) error {
			got = append(got, msg)
			return nil
		}))

		res, err := tr.Send(ctx, pushPayload(t, notification.WithChannelConfig(map[string]any{"token": "device-a"})))
		require.NoError(t, err)
		assert.True(t, res.Success)
		assert.NotEmpty(t, res.MessageID)

		require.Len(t, got, 1)
		assert.Equal(t, "device-a", got[0].Token)
		assert.Equal(t, "Build finished", got[0].Title)
		assert.Equal(t, notification.PriorityHigh, got[0].Priority)
	})

	t.Run("multiple tokens fan out", func(t *testing.T) {
		t.Parallel()

		var tokens []string
		tr := push.New(push.ProviderFunc(func(_ context.Context, msg push.Message) error {
			tokens = append(tokens, msg.Token)
			return nil
		}))

		payload := pushPayload(t, notification.WithChannelConfig(map[string]any{"tokens": []any{"device-a", "device-b"}}))
		_, err := tr.Send(ctx, payload)
		require.NoError(t, err)
		assert.Equal(t, []string{"device-a", "device-b"}, tokens)
	})

	t.Run("token falls back to metadata", func(t *testing.T) {
		t.Parallel()

		var got string
		tr := push.New(push.ProviderFunc(func(_ context.Context, msg push.Message) error {
			got = msg.Token
			return nil
		}))

		payload := pushPayload(t)
		payload.Notification.Metadata = map[string]any{"device_token": "device-meta"}
		_, err := tr.Send(ctx, payload)
		require.NoError(t, err)
		assert.Equal(t, "device-meta", got)
	})

	t.Run("missing token", func(t *testing.T) {
		t.Parallel()

		tr := push.New(push.ProviderFunc(func(context.Context, push.Message) error { return nil }))
		_, err := tr.Send(ctx, pushPayload(t))
		require.ErrorIs(t, err, push.ErrTokenRequired)
	})

	t.Run("provider failure", func(t *testing.T) {
		t.Parallel()

		tr := push.New(push.ProviderFunc(func(context.Context, push.Message) error {
			return errors.New("gateway unavailable")
		}))
		payload := pushPayload(t, notification.WithChannelConfig(map[string]any{"token": "device-a"}))
		_, err := tr.Send(ctx, payload)
		require.ErrorIs(t, err, push.ErrSendFailed)
	})
}
