package session

import "errors"

var (
	ErrNotFound             = errors.New("session not found")
	ErrCenterNotFound       = errors.New("medical center not found")
	ErrDuplicateSessionName = errors.New("a session with this name already exists in the center")
	ErrInvalidTimeRange     = errors.New("session end time must be after start time")
	ErrInvalidTime          = errors.New("session times must be HH:MM")
	ErrNameRequired         = errors.New("session name is required")
	ErrDuplicateIdentifier  = errors.New("session identifier collision, retry the request")
)
