package notifier_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dispatchlab/notifykit/pkg/notification"
	"github.com/dispatchlab/notifykit/pkg/notifier"
)

func storedNotification(t *testing.T, clock *notification.FixedClock, userID, id, category string) notification.Notification {
	t.Helper()
	n, err := notification.New(userID, category, "title", "message",
		[]notification.ChannelDescriptor{notification.MustNewChannel(notification.ChannelInApp)},
		notification.WithID(id),
		notification.WithClock(clock),
	)
	require.NoError(t, err)
	return n
}

func TestMemoryStore_CRUD(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := notification.NewFixedClock(noonUTC)
	store := notifier.NewMemoryStore(notifier.WithMemoryStoreClock(clock))

	n := storedNotification(t, clock, "alice", "n-1", "reports")
	require.NoError(t, store.Create(ctx, n))

	t.Run("create requires id", func(t *testing.T) {
		bad := n
		bad.ID = ""
		require.Error(t, store.Create(ctx, bad))
	})

	t.Run("get", func(t *testing.T) {
		got, err := store.Get(ctx, "alice", "n-1")
		require.NoError(t, err)
		assert.Equal(t, "n-1", got.ID)

		_, err = store.Get(ctx, "alice", "missing")
		require.ErrorIs(t, err, notifier.ErrNotificationNotFound)

		_, err = store.Get(ctx, "bob", "n-1")
		require.ErrorIs(t, err, notifier.ErrNotificationNotFound, "notifications are scoped per user")
	})

	t.Run("update", func(t *testing.T) {
		updated := n
		updated.Status = notification.StatusSent
		require.NoError(t, store.Update(ctx, updated))

		got, err := store.Get(ctx, "alice", "n-1")
		require.NoError(t, err)
		assert.Equal(t, notification.StatusSent, got.Status)

		ghost := n
		ghost.ID = "missing"
		require.ErrorIs(t, store.Update(ctx, ghost), notifier.ErrNotificationNotFound)
	})

	t.Run("delete ignores unknown ids", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, "alice", "missing"))
		require.NoError(t, store.Delete(ctx, "nobody", "n-1"))

		got, err := store.Get(ctx, "alice", "n-1")
		require.NoError(t, err)
		assert.Equal(t, "n-1", got.ID)
	})
}

func TestMemoryStore_List(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := notification.NewFixedClock(noonUTC)
	store := notifier.NewMemoryStore(notifier.WithMemoryStoreClock(clock))

	// Three notifications a minute apart, categories alternate.
	for i, spec := range []struct{ id, category string }{
		{"n-1", "reports"},
		{"n-2", "billing"},
		{"n-3", "reports"},
	} {
		n := storedNotification(t, clock, "alice", spec.id, spec.category)
		n.CreatedAt = noonUTC.Add(time.Duration(i) * time.Minute)
		require.NoError(t, store.Create(ctx, n))
	}

	t.Run("newest first", func(t *testing.T) {
		list, err := store.List(ctx, "alice", notifier.ListOptions{})
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, "n-3", list[0].ID)
		assert.Equal(t, "n-1", list[2].ID)
	})

	t.Run("pagination", func(t *testing.T) {
		list, err := store.List(ctx, "alice", notifier.ListOptions{Limit: 1, Offset: 1})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "n-2", list[0].ID)

		list, err = store.List(ctx, "alice", notifier.ListOptions{Offset: 10})
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("category filter", func(t *testing.T) {
		list, err := store.List(ctx, "alice", notifier.ListOptions{Categories: []string{"billing"}})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "n-2", list[0].ID)
	})

	t.Run("since filter", func(t *testing.T) {
		since := noonUTC.Add(time.Minute)
		list, err := store.List(ctx, "alice", notifier.ListOptions{Since: &since})
		require.NoError(t, err)
		assert.Len(t, list, 2)
	})

	t.Run("expired notifications are hidden", func(t *testing.T) {
		expiry := noonUTC.Add(time.Hour)
		n := storedNotification(t, clock, "bob", "n-exp", "reports")
		n.ExpiresAt = &expiry
		require.NoError(t, store.Create(ctx, n))

		list, err := store.List(ctx, "bob", notifier.ListOptions{})
		require.NoError(t, err)
		assert.Len(t, list, 1)

		clock.Advance(2 * time.Hour)
		list, err = store.List(ctx, "bob", notifier.ListOptions{})
		require.NoError(t, err)
		assert.Empty(t, list)

		count, err := store.CountUnread(ctx, "bob")
		require.NoError(t, err)
		assert.Zero(t, count, "expired notifications do not count as unread")
	})

	t.Run("unknown user yields empty list", func(t *testing.T) {
		list, err := store.List(ctx, "nobody", notifier.ListOptions{})
		require.NoError(t, err)
		assert.Empty(t, list)
	})
}

func TestMemoryStore_ListDue(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := notification.NewFixedClock(noonUTC)
	store := notifier.NewMemoryStore(notifier.WithMemoryStoreClock(clock))

	later := noonUTC.Add(time.Hour)
	muchLater := noonUTC.Add(2 * time.Hour)

	scheduled := storedNotification(t, clock, "alice", "n-due", "reports")
	scheduled.Status = notification.StatusScheduled
	scheduled.ScheduledAt = &later
	require.NoError(t, store.Create(ctx, scheduled))

	notYet := storedNotification(t, clock, "bob", "n-later", "reports")
	notYet.Status = notification.StatusScheduled
	notYet.ScheduledAt = &muchLater
	require.NoError(t, store.Create(ctx, notYet))

	plain := storedNotification(t, clock, "alice", "n-plain", "reports")
	require.NoError(t, store.Create(ctx, plain))

	due, err := store.ListDue(ctx, noonUTC)
	require.NoError(t, err)
	assert.Empty(t, due)

	due, err = store.ListDue(ctx, later)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "n-due", due[0].ID)

	due, err = store.ListDue(ctx, muchLater)
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, "n-due", due[0].ID, "ordered by scheduled time")
}

func TestMemoryPreferencesStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := notifier.NewMemoryPreferencesStore()

	_, err := store.Get(ctx, "alice")
	require.ErrorIs(t, err, notifier.ErrPreferencesNotFound)

	prefs := mustPrefs(t, "alice", notification.WithGlobalDisabled())
	require.NoError(t, store.Put(ctx, prefs))

	got, err := store.Get(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, got.GlobalEnabled)

	require.ErrorIs(t, store.Put(ctx, notification.RecipientPreferences{}), notification.ErrUserIDRequired)
}
