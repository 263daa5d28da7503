package tracker

import "errors"

var (
	ErrNotificationIDRequired = errors.New("notification ID is required")
	ErrChannelRequired        = errors.New("channel is required")
	ErrRecordNotFound         = errors.New("delivery record not found")
	ErrStoreNil               = errors.New("store is required")
	ErrFailedToParseRedisURL  = errors.New("failed to parse redis connection string")
	ErrRedisNotReady          = errors.New("redis did not become ready within the given time period")
)
