package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/medicenter_backend/internal/service/center"
	"github.com/Alijeyrad/medicenter_backend/internal/service/session"
)

type CenterHandler struct {
	svc      center.Service
	sessions session.Service
}

func NewCenterHandler(svc center.Service, sessions session.Service) *CenterHandler {
	return &CenterHandler{svc: svc, sessions: sessions}
}

func mapCenterError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, center.ErrNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, center.ErrNameRequired),
		errors.Is(err, center.ErrInvalidEmail),
		errors.Is(err, center.ErrInvalidContactNumber):
		return badRequest(c, err.Error())
	case errors.Is(err, center.ErrDuplicateIdentifier):
		return conflict(c, err.Error())
	default:
		return internalError(c, err)
	}
}

type centerBody struct {
	Name          *string `json:"name"`
	Email         *string `json:"email"`
	ContactNumber *string `json:"contactNumber"`
	Address       *string `json:"address"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// POST /centers
func (h *CenterHandler) Create(c fiber.Ctx) error {
	var body centerBody
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	m, err := h.svc.Create(c.Context(), center.CreateCenterRequest{
		Name:          deref(body.Name),
		Email:         deref(body.Email),
		ContactNumber: deref(body.ContactNumber),
		Address:       deref(body.Address),
	}, actor(c))
	if err != nil {
		return mapCenterError(c, err)
	}
	return created(c, m)
}

// GET /centers
func (h *CenterHandler) List(c fiber.Ctx) error {
	var q struct {
		Page           int    `query:"page"`
		Limit          int    `query:"limit"`
		Search         string `query:"search"`
		IncludeDeleted bool   `query:"includeDeleted"`
	}
	if err := c.Bind().Query(&q); err != nil {
		return badRequest(c, "invalid query")
	}

	result, err := h.svc.List(c.Context(), center.ListCentersRequest{
		Search:         q.Search,
		Page:           q.Page,
		Limit:          q.Limit,
		IncludeDeleted: q.IncludeDeleted,
	})
	if err != nil {
		return mapCenterError(c, err)
	}
	return list(c, result)
}

// GET /centers/:id
func (h *CenterHandler) Get(c fiber.Ctx) error {
	m, err := h.svc.Get(c.Context(), c.Params("id"))
	if err != nil {
		return mapCenterError(c, err)
	}
	return ok(c, m)
}

// PATCH /centers/:id
func (h *CenterHandler) Update(c fiber.Ctx) error {
	var body centerBody
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	m, err := h.svc.Update(c.Context(), c.Params("id"), center.UpdateCenterRequest{
		Name:          body.Name,
		Email:         body.Email,
		ContactNumber: body.ContactNumber,
		Address:       body.Address,
	}, actor(c))
	if err != nil {
		return mapCenterError(c, err)
	}
	return ok(c, m)
}

// DELETE /centers/:id
func (h *CenterHandler) Delete(c fiber.Ctx) error {
	if err := h.svc.Delete(c.Context(), c.Params("id"), actor(c)); err != nil {
		return mapCenterError(c, err)
	}
	return noContent(c)
}

// GET /centers/:id/sessions
func (h *CenterHandler) ListSessions(c fiber.Ctx) error {
	sessions, err := h.sessions.ListByCenter(c.Context(), c.Params("id"), fiber.Query[bool](c, "includeDeleted"))
	if err != nil {
		return mapSessionError(c, err)
	}
	return ok(c, sessions)
}
