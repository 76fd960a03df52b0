package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/Alijeyrad/medicenter_backend/internal/repo"
	"github.com/Alijeyrad/medicenter_backend/internal/service/session"
)

type SessionHandler struct {
	svc session.Service
}

func NewSessionHandler(svc session.Service) *SessionHandler {
	return &SessionHandler{svc: svc}
}

func mapSessionError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, session.ErrNotFound), errors.Is(err, session.ErrCenterNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, session.ErrNameRequired),
		errors.Is(err, session.ErrInvalidTime),
		errors.Is(err, session.ErrInvalidTimeRange),
		errors.Is(err, session.ErrDuplicateSessionName):
		return badRequest(c, err.Error())
	case errors.Is(err, session.ErrDuplicateIdentifier):
		return conflict(c, err.Error())
	default:
		return internalError(c, err)
	}
}

// POST /sessions
func (h *SessionHandler) Create(c fiber.Ctx) error {
	var body struct {
		CenterID    string `json:"centerId"`
		SessionName string `json:"sessionName"`
		StartTime   string `json:"startTime"`
		EndTime     string `json:"endTime"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if body.CenterID == "" {
		return badRequest(c, "centerId is required")
	}

	s, err := h.svc.Create(c.Context(), session.CreateSessionRequest{
		CenterID:    body.CenterID,
		SessionName: body.SessionName,
		StartTime:   body.StartTime,
		EndTime:     body.EndTime,
	}, actor(c))
	if err != nil {
		return mapSessionError(c, err)
	}
	return created(c, s)
}

// GET /sessions?centerId=
func (h *SessionHandler) List(c fiber.Ctx) error {
	centerID := c.Query("centerId")
	if centerID == "" {
		return badRequest(c, "centerId is required")
	}
	sessions, err := h.svc.ListByCenter(c.Context(), centerID, fiber.Query[bool](c, "includeDeleted"))
	if err != nil {
		return mapSessionError(c, err)
	}
	return ok(c, sessions)
}

// GET /sessions/:id
func (h *SessionHandler) Get(c fiber.Ctx) error {
	var (
		s   *repo.Session
		err error
	)
	if id, perr := uuid.Parse(c.Params("id")); perr == nil {
		s, err = h.svc.GetByID(c.Context(), id)
	} else {
		s, err = h.svc.GetByCode(c.Context(), c.Params("id"))
	}
	if err != nil {
		return mapSessionError(c, err)
	}
	return ok(c, s)
}

// PATCH /sessions/:id
func (h *SessionHandler) Update(c fiber.Ctx) error {
	var body struct {
		SessionName *string `json:"sessionName"`
		StartTime   *string `json:"startTime"`
		EndTime     *string `json:"endTime"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	s, err := h.svc.Update(c.Context(), c.Params("id"), session.UpdateSessionRequest{
		SessionName: body.SessionName,
		StartTime:   body.StartTime,
		EndTime:     body.EndTime,
	}, actor(c))
	if err != nil {
		return mapSessionError(c, err)
	}
	return ok(c, s)
}

// DELETE /sessions/:id
func (h *SessionHandler) Delete(c fiber.Ctx) error {
	if err := h.svc.Delete(c.Context(), c.Params("id"), actor(c)); err != nil {
		return mapSessionError(c, err)
	}
	return noContent(c)
}

// PATCH /sessions/active/:sessionId
func (h *SessionHandler) SetActive(c fiber.Ctx) error {
	var body struct {
		IsActive *bool `json:"isActive"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if body.IsActive == nil {
		return badRequest(c, "isActive is required")
	}

	s, err := h.svc.SetActive(c.Context(), c.Params("sessionId"), *body.IsActive, actor(c))
	if err != nil {
		return mapSessionError(c, err)
	}
	return ok(c, s)
}
