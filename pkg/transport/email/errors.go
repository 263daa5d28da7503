package email

import "errors"

var (
	ErrInvalidConfig     = errors.New("email.errors.invalid_config")
	ErrRecipientRequired = errors.New("email.errors.recipient_required")
	ErrSendFailed        = errors.New("email.errors.send_failed")
)
