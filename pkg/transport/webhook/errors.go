package webhook

import "errors"

var (
	ErrInvalidURL           = errors.New("invalid webhook URL")
	ErrInvalidPayload       = errors.New("invalid webhook payload")
	ErrInvalidConfiguration = errors.New("invalid webhook configuration")
	ErrCircuitOpen          = errors.New("webhook circuit breaker is open")
	ErrRequestFailed        = errors.New("webhook request failed")
	ErrTimeout              = errors.New("webhook request timeout")
)
