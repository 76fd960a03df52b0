package prescription

import "errors"

var (
	ErrNotFound            = errors.New("prescription not found")
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrPatientNotVisited   = errors.New("a prescription needs a visited appointment")
	ErrMedicineRequired    = errors.New("every medicine needs a name")
	ErrDuplicateIdentifier = errors.New("prescription number collision, retry the request")
)
