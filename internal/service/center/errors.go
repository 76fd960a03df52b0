package center

import "errors"

var (
	ErrNotFound             = errors.New("medical center not found")
	ErrNameRequired         = errors.New("center name is required")
	ErrInvalidEmail         = errors.New("invalid email address")
	ErrInvalidContactNumber = errors.New("invalid contact number")
	ErrDuplicateIdentifier  = errors.New("center identifier collision, retry the request")
)
