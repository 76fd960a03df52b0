package email

import (
	"errors"
	"fmt"
)

// ErrDisabled is returned by every Sender while email.enabled is false.
var ErrDisabled = errors.New("email: sending disabled by config")

// InvalidMessageError names the Message field that failed validation.
type InvalidMessageError struct{ Field string }

func (e *InvalidMessageError) Error() string {
	return "email: message " + e.Field + " is required"
}

// SendError wraps a delivery failure reported by a provider.
type SendError struct {
	Provider string
	Err      error
}

func (e *SendError) Error() string { return fmt.Sprintf("email: %s: %v", e.Provider, e.Err) }
func (e *SendError) Unwrap() error { return e.Err }
