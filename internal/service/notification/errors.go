package notification

import "errors"

var (
	ErrNoTemplate   = errors.New("no sms template configured for message kind")
	ErrEmailOff     = errors.New("email delivery is not configured")
	ErrSMSOff       = errors.New("sms delivery is not configured")
	ErrInvalidPhone = errors.New("recipient phone number is invalid")
)
