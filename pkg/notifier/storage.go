package notifier

import (
	"context"
	"time"

	"github.com/dispatchlab/notifykit/pkg/notification"
)

// NotificationStore persists notifications for retrieval, feeds, and
// scheduled re-processing.
type NotificationStore interface {
	// Create stores a new notification. The ID must be set.
	Create(ctx context.Context, notif notification.Notification) error

	// Get retrieves one of a user's notifications.
	Get(ctx context.Context, userID, notifID string) (notification.Notification, error)

	// Update replaces a stored notification, matched by UserID and ID.
	Update(ctx context.Context, notif notification.Notification) error

	// List returns a user's notifications, newest first.
	List(ctx context.Context, userID string, opts ListOptions) ([]notification.Notification, error)

	// ListDue returns scheduled notifications across all users whose
	// scheduled time is at or before due.
	ListDue(ctx context.Context, due time.Time) ([]notification.Notification, error)

	// Delete removes notification(s) belonging to the user. Unknown IDs
	// are ignored.
	Delete(ctx context.Context, userID string, notifIDs ...string) error

	// CountUnread returns the user's unread, unarchived, unexpired count.
	CountUnread(ctx context.Context, userID string) (int, error)
}

// ListOptions filters and paginates notification listings.
type ListOptions struct {
	Limit           int        // Maximum notifications to return (0 = no limit)
	Offset          int        // Notifications to skip for pagination
	OnlyUnread      bool       // Only notifications without a read timestamp
	Categories      []string   // Restrict to these categories when non-empty
	Since           *time.Time // Only notifications created at or after this instant
	IncludeArchived bool       // Archived notifications are hidden by default
}

// PreferencesStore persists per-user delivery preferences.
// Get returns ErrPreferencesNotFound for users who never saved any; the
// Manager substitutes defaults.
type PreferencesStore interface {
	Get(ctx context.Context, userID string) (notification.RecipientPreferences, error)
	Put(ctx context.Context, prefs notification.RecipientPreferences) error
}
