package pasetotoken

import (
	"errors"
	"fmt"
)

// ErrInvalidToken is wrapped by every Verify failure.
var ErrInvalidToken = errors.New("paseto: invalid token")

func invalidToken(err error) error {
	return fmt.Errorf("%w: %v", ErrInvalidToken, err)
}

// ConfigError reports unusable token settings or keys. Field is the
// authentication.paseto key at fault, when one is.
type ConfigError struct {
	Field string
	Msg   string
	Err   error
}

func (e *ConfigError) Error() string {
	s := "paseto: "
	if e.Field != "" {
		s += "authentication.paseto." + e.Field + ": "
	}
	s += e.Msg
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *ConfigError) Unwrap() error { return e.Err }
