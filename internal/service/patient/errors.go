package patient

import "errors"

var (
	ErrNotFound             = errors.New("patient not found")
	ErrNameRequired         = errors.New("patient name is required")
	ErrInvalidContactNumber = errors.New("invalid contact number")
	ErrInvalidEmail         = errors.New("invalid email address")
	ErrInvalidGender        = errors.New("gender must be male, female or other")
	ErrInvalidDateOfBirth   = errors.New("date of birth cannot be in the future")
	ErrDuplicateIdentifier  = errors.New("patient identifier collision, retry the request")
)
