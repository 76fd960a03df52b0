package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/medicenter_backend/internal/service/patient"
)

type PatientHandler struct {
	svc patient.Service
}

func NewPatientHandler(svc patient.Service) *PatientHandler {
	return &PatientHandler{svc: svc}
}

func mapPatientError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, patient.ErrNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, patient.ErrNameRequired),
		errors.Is(err, patient.ErrInvalidContactNumber),
		errors.Is(err, patient.ErrInvalidEmail),
		errors.Is(err, patient.ErrInvalidGender),
		errors.Is(err, patient.ErrInvalidDateOfBirth):
		return badRequest(c, err.Error())
	case errors.Is(err, patient.ErrDuplicateIdentifier):
		return conflict(c, err.Error())
	default:
		return internalError(c, err)
	}
}

type patientBody struct {
	Name          *string `json:"name"`
	ContactNumber *string `json:"contactNumber"`
	Email         *string `json:"email"`
	Gender        *string `json:"gender"`
	DateOfBirth   *string `json:"dateOfBirth"`
}

func (b patientBody) dateOfBirth() (*time.Time, error) {
	if b.DateOfBirth == nil || *b.DateOfBirth == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, *b.DateOfBirth)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// POST /patients
func (h *PatientHandler) Create(c fiber.Ctx) error {
	var body patientBody
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	dob, err := body.dateOfBirth()
	if err != nil {
		return badRequest(c, "dateOfBirth must be YYYY-MM-DD")
	}

	p, err := h.svc.Create(c.Context(), patient.CreatePatientRequest{
		Name:          deref(body.Name),
		ContactNumber: deref(body.ContactNumber),
		Email:         deref(body.Email),
		Gender:        deref(body.Gender),
		DateOfBirth:   dob,
	}, actor(c))
	if err != nil {
		return mapPatientError(c, err)
	}
	return created(c, p)
}

// GET /patients
func (h *PatientHandler) List(c fiber.Ctx) error {
	var q struct {
		Page   int    `query:"page"`
		Limit  int    `query:"limit"`
		Search string `query:"search"`
	}
	if err := c.Bind().Query(&q); err != nil {
		return badRequest(c, "invalid query")
	}

	result, err := h.svc.List(c.Context(), patient.ListPatientsRequest{
		Search: q.Search,
		Page:   q.Page,
		Limit:  q.Limit,
	})
	if err != nil {
		return mapPatientError(c, err)
	}
	return list(c, result)
}

// GET /patients/:id
func (h *PatientHandler) Get(c fiber.Ctx) error {
	p, err := h.svc.Get(c.Context(), c.Params("id"))
	if err != nil {
		return mapPatientError(c, err)
	}
	return ok(c, p)
}

// PATCH /patients/:id
func (h *PatientHandler) Update(c fiber.Ctx) error {
	var body patientBody
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	dob, err := body.dateOfBirth()
	if err != nil {
		return badRequest(c, "dateOfBirth must be YYYY-MM-DD")
	}

	p, err := h.svc.Update(c.Context(), c.Params("id"), patient.UpdatePatientRequest{
		Name:          body.Name,
		ContactNumber: body.ContactNumber,
		Email:         body.Email,
		Gender:        body.Gender,
		DateOfBirth:   dob,
	}, actor(c))
	if err != nil {
		return mapPatientError(c, err)
	}
	return ok(c, p)
}
