package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/medicenter_backend/internal/repo"
	"github.com/Alijeyrad/medicenter_backend/internal/service/prescription"
)

type PrescriptionHandler struct {
	svc prescription.Service
}

func NewPrescriptionHandler(svc prescription.Service) *PrescriptionHandler {
	return &PrescriptionHandler{svc: svc}
}

func mapPrescriptionError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, prescription.ErrNotFound), errors.Is(err, prescription.ErrAppointmentNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, prescription.ErrPatientNotVisited), errors.Is(err, prescription.ErrMedicineRequired):
		return badRequest(c, err.Error())
	case errors.Is(err, prescription.ErrDuplicateIdentifier):
		return conflict(c, err.Error())
	default:
		return internalError(c, err)
	}
}

// POST /prescriptions
func (h *PrescriptionHandler) Create(c fiber.Ctx) error {
	var body struct {
		AppointmentID string          `json:"appointmentId"`
		Medicines     []repo.Medicine `json:"medicines"`
		Notes         string          `json:"notes"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if body.AppointmentID == "" {
		return badRequest(c, "appointmentId is required")
	}

	p, err := h.svc.Create(c.Context(), prescription.CreatePrescriptionRequest{
		AppointmentID: body.AppointmentID,
		Medicines:     body.Medicines,
		Notes:         body.Notes,
	}, actor(c))
	if err != nil {
		return mapPrescriptionError(c, err)
	}
	return created(c, p)
}

// GET /appointments/:id/prescriptions
func (h *PrescriptionHandler) ListByAppointment(c fiber.Ctx) error {
	ps, err := h.svc.ListByAppointment(c.Context(), c.Params("id"))
	if err != nil {
		return mapPrescriptionError(c, err)
	}
	return ok(c, ps)
}

// GET /prescriptions/:number
func (h *PrescriptionHandler) Get(c fiber.Ctx) error {
	p, err := h.svc.GetByNumber(c.Context(), c.Params("number"))
	if err != nil {
		return mapPrescriptionError(c, err)
	}
	return ok(c, p)
}
