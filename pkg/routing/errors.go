package routing

import "errors"

var (
	ErrNilNotification   = errors.New("notification is required")
	ErrNilPreferences    = errors.New("preferences are required")
	ErrNoChannels        = errors.New("notification has no channels")
	ErrNoCategoryChannel = errors.New("preferences configure no channel for category")
)
