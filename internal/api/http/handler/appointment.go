package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/medicenter_backend/internal/service/appointment"
)

type AppointmentHandler struct {
	svc appointment.Service
}

func NewAppointmentHandler(svc appointment.Service) *AppointmentHandler {
	return &AppointmentHandler{svc: svc}
}

// Unknown references in a booking body are the caller's mistake, so they
// map to 400 like the other booking rules. Only the path id yields 404.
func mapAppointmentError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, appointment.ErrNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, appointment.ErrCenterNotFound),
		errors.Is(err, appointment.ErrSessionNotFound),
		errors.Is(err, appointment.ErrPatientNotFound),
		errors.Is(err, appointment.ErrMissingField),
		errors.Is(err, appointment.ErrInvalidDate),
		errors.Is(err, appointment.ErrSessionWindowClosed),
		errors.Is(err, appointment.ErrDuplicateBooking),
		errors.Is(err, appointment.ErrSessionNotActive):
		return badRequest(c, err.Error())
	case errors.Is(err, appointment.ErrDuplicateIdentifier):
		return conflict(c, err.Error())
	default:
		return internalError(c, err)
	}
}

// POST /appointments
func (h *AppointmentHandler) Book(c fiber.Ctx) error {
	var body struct {
		Date      string `json:"date"`
		SessionID string `json:"sessionId"`
		PatientID string `json:"patientId"`
		CenterID  string `json:"centerId"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	a, err := h.svc.Book(c.Context(), appointment.BookRequest{
		CenterID:  body.CenterID,
		SessionID: body.SessionID,
		PatientID: body.PatientID,
		Date:      body.Date,
	}, actor(c))
	if err != nil {
		return mapAppointmentError(c, err)
	}
	return created(c, a)
}

// GET /appointments
func (h *AppointmentHandler) List(c fiber.Ctx) error {
	var q struct {
		Page           int    `query:"page"`
		Limit          int    `query:"limit"`
		Search         string `query:"search"`
		CenterID       string `query:"centerId"`
		SessionID      string `query:"sessionId"`
		PatientID      string `query:"patientId"`
		Date           string `query:"date"`
		Status         string `query:"status"`
		IncludeDeleted bool   `query:"includeDeleted"`
	}
	if err := c.Bind().Query(&q); err != nil {
		return badRequest(c, "invalid query")
	}

	req := appointment.ListRequest{
		Search:         q.Search,
		CenterID:       q.CenterID,
		SessionID:      q.SessionID,
		PatientID:      q.PatientID,
		Date:           q.Date,
		Status:         q.Status,
		IncludeDeleted: q.IncludeDeleted,
		Page:           q.Page,
		Limit:          q.Limit,
	}
	// absent and false differ here
	if raw := c.Query("isPatientvisited"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return badRequest(c, "isPatientvisited must be true or false")
		}
		req.IsPatientVisited = &v
	}

	result, err := h.svc.List(c.Context(), req)
	if err != nil {
		return mapAppointmentError(c, err)
	}
	return list(c, result)
}

// GET /appointments/:id
func (h *AppointmentHandler) Get(c fiber.Ctx) error {
	d, err := h.svc.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return mapAppointmentError(c, err)
	}
	return ok(c, d)
}

// PATCH /appointments/:id/cancel
func (h *AppointmentHandler) Cancel(c fiber.Ctx) error {
	a, err := h.svc.Cancel(c.Context(), c.Params("id"), actor(c))
	if err != nil {
		return mapAppointmentError(c, err)
	}
	return ok(c, a)
}

// PATCH /appointments/:id/status
func (h *AppointmentHandler) UpdateStatus(c fiber.Ctx) error {
	var body struct {
		IsPatientVisited *bool `json:"isPatientvisited"`
		IsCancelled      *bool `json:"isCancelled"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	a, err := h.svc.UpdateStatus(c.Context(), c.Params("id"), appointment.UpdateStatusRequest{
		IsPatientVisited: body.IsPatientVisited,
		IsCancelled:      body.IsCancelled,
	}, actor(c))
	if err != nil {
		return mapAppointmentError(c, err)
	}
	return ok(c, a)
}
