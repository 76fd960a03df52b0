package appointment

import "errors"

var (
	ErrNotFound            = errors.New("appointment not found")
	ErrCenterNotFound      = errors.New("medical center not found")
	ErrSessionNotFound     = errors.New("session not found")
	ErrPatientNotFound     = errors.New("patient not found")
	ErrMissingField        = errors.New("date, sessionId, patientId and centerId are required")
	ErrInvalidDate         = errors.New("date must be YYYY-MM-DD")
	ErrSessionWindowClosed = errors.New("the session has already ended for this date")
	ErrDuplicateBooking    = errors.New("the patient already has an appointment in this session on this date")
	ErrSessionNotActive    = errors.New("the session is not active")
	ErrDuplicateIdentifier = errors.New("appointment identifier collision, retry the request")
)
