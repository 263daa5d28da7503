package notifier

import "errors"

var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrPreferencesNotFound  = errors.New("preferences not found")
	ErrStoreRequired        = errors.New("notification store is required")
	ErrNoPreferencesStore   = errors.New("no preferences store configured")
	ErrNoRecipients         = errors.New("at least one recipient is required")
)
