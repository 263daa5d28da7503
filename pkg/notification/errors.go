package notification

import "errors"

var (
	ErrInvalidChannelType      = errors.New("invalid channel type")
	ErrWebhookURLRequired      = errors.New("webhook channel config must include a url")
	ErrUserIDRequired          = errors.New("user ID is required")
	ErrTitleRequired           = errors.New("notification title is required")
	ErrMessageRequired         = errors.New("notification message is required")
	ErrCategoryRequired        = errors.New("notification category is required")
	ErrNoChannels              = errors.New("notification must have at least one channel")
	ErrScheduledInPast         = errors.New("scheduled time must be in the future")
	ErrTerminalState           = errors.New("notification already has a terminal marker")
	ErrDuplicateCategory       = errors.New("duplicate category preference")
	ErrCategoryChannelsEmpty   = errors.New("enabled category preference must have at least one channel")
	ErrInvalidTimeFormat       = errors.New("time must be in HH:mm 24-hour format")
	ErrInvalidTimezone         = errors.New("timezone must be a valid IANA zone")
	ErrInvalidDigestFrequency  = errors.New("invalid email digest frequency")
	ErrInvalidDefaultChannel   = errors.New("invalid default channel")
	ErrQuietHoursIncomplete    = errors.New("quiet hours require start, end, and timezone")
)
