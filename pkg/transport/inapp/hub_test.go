package inapp_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dispatchlab/notifykit/pkg/dispatch"
	"github.com/dispatchlab/notifykit/pkg/notification"
	"github.com/dispatchlab/notifykit/pkg/transport/inapp"
)

func inappPayload(t *testing.T, userID, id string) dispatch.Payload {
	t.Helper()
	n, err := notification.New(userID, "social", "New follower", "Someone followed you.",
		[]notification.ChannelDescriptor{notification.MustNewChannel(notification.ChannelInApp)},
		notification.WithID(id),
	)
	require.NoError(t, err)
	return dispatch.Payload{Notification: n, Channel: n.Channels[0]}
}

func TestHub_Send(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("delivers to the recipient's subscriptions only", func(t *testing.T) {
		t.Parallel()

		hub := inapp.NewHub()
		defer hub.Close()

		alice := hub.Subscribe(ctx, "alice")
		bob := hub.Subscribe(ctx, "bob")

		res, err := hub.Send(ctx, inappPayload(t, "alice", "n-1"))
		require.NoError(t, err)
		assert.True(t, res.Success)
		assert.Equal(t, "n-1", res.MessageID)

		select {
		case got := <-alice.Receive():
			assert.Equal(t, "n-1", got.ID)
		case <-time.After(time.Second):
			t.Fatal("alice did not receive the notification")
		}

		select {
		case got := <-bob.Receive():
			t.Fatalf("bob received %s unexpectedly", got.ID)
		case <-time.After(50 * time.Millisecond):
		}
	})

	t.Run("fans out to every subscription of the user", func(t *testing.T) {
		t.Parallel()

		hub := inapp.NewHub()
		defer hub.Close()

		first := hub.Subscribe(ctx, "alice")
		second := hub.Subscribe(ctx, "alice")
		assert.Equal(t, 2, hub.SubscriberCount("alice"))

		_, err := hub.Send(ctx, inappPayload(t, "alice", "n-2"))
		require.NoError(t, err)

		for _, sub := range []*inapp.Subscription{first, second} {
			select {
			case got := <-sub.Receive():
				assert.Equal(t, "n-2", got.ID)
			case <-time.After(time.Second):
				t.Fatal("subscription missed the notification")
			}
		}
	})

	t.Run("succeeds with no subscribers online", func(t *testing.T) {
		t.Parallel()

		hub := inapp.NewHub()
		defer hub.Close()

		res, err := hub.Send(ctx, inappPayload(t, "offline-user", "n-3"))
		require.NoError(t, err)
		assert.True(t, res.Success)
	})

	t.Run("slow subscriber is dropped, others keep receiving", func(t *testing.T) {
		t.Parallel()

		hub := inapp.NewHub(inapp.WithBufferSize(1))
		defer hub.Close()

		stalled := hub.Subscribe(ctx, "alice")
		healthy := hub.Subscribe(ctx, "alice")

		// Fill the stalled subscriber's buffer, then overflow it. The
		// healthy reader drains after each send so only the stalled one
		// ever overflows.
		for i, id := range []string{"n-4", "n-5"} {
			_, err := hub.Send(ctx, inappPayload(t, "alice", id))
			require.NoError(t, err)
			select {
			case <-healthy.Receive():
			case <-time.After(time.Second):
				t.Fatalf("healthy subscription starved on send %d", i)
			}
		}

		// The stalled subscription ends up detached and closed.
		assert.Eventually(t, func() bool {
			return hub.SubscriberCount("alice") == 1
		}, time.Second, 10*time.Millisecond)
		_ = stalled
	})

	t.Run("closed hub rejects sends", func(t *testing.T) {
		t.Parallel()

		hub := inapp.NewHub()
		require.NoError(t, hub.Close())

		_, err := hub.Send(ctx, inappPayload(t, "alice", "n-6"))
		require.ErrorIs(t, err, inapp.ErrHubClosed)
	})
}

func TestHub_Subscribe(t *testing.T) {
	t.Parallel()

	t.Run("context cancellation cleans up", func(t *testing.T) {
		t.Parallel()

		hub := inapp.NewHub()
		defer hub.Close()

		ctx, cancel := context.WithCancel(context.Background())
		sub := hub.Subscribe(ctx, "alice")
		assert.Equal(t, 1, hub.SubscriberCount("alice"))

		cancel()
		assert.Eventually(t, func() bool {
			return hub.SubscriberCount("alice") == 0
		}, time.Second, 10*time.Millisecond)

		_, open := <-sub.Receive()
		assert.False(t, open, "receive channel closes on cleanup")
	})

	t.Run("subscribe after close returns closed subscription", func(t *testing.T) {
		t.Parallel()

		hub := inapp.NewHub()
		require.NoError(t, hub.Close())

		sub := hub.Subscribe(context.Background(), "alice")
		_, open := <-sub.Receive()
		assert.False(t, open)
	})

	t.Run("close returns while subscriber contexts are live", func(t *testing.T) {
		t.Parallel()

		hub := inapp.NewHub()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		sub := hub.Subscribe(ctx, "alice")

		done := make(chan error, 1)
		go func() { done <- hub.Close() }()

		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("Close did not return with a live subscriber context")
		}

		_, open := <-sub.Receive()
		assert.False(t, open, "receive channel closes on hub shutdown")
	})

	t.Run("close is idempotent", func(t *testing.T) {
		t.Parallel()

		hub := inapp.NewHub()
		sub := hub.Subscribe(context.Background(), "alice")
		require.NoError(t, sub.Close())
		require.NoError(t, sub.Close())
		require.NoError(t, hub.Close())
		require.NoError(t, hub.Close())
	})
}
