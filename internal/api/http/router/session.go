package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/medicenter_backend/internal/api/http/handler"
	"github.com/Alijeyrad/medicenter_backend/pkg/authorize"
)

func (r *Router) registerSessionRoutes(api fiber.Router, h *handler.SessionHandler, requirePerm permFunc) {
	sessions := api.Group("/sessions")

	sessions.Get("/", requirePerm(authorize.ResourceSession, authorize.ActionList), h.List)
	sessions.Post("/", requirePerm(authorize.ResourceSession, authorize.ActionCreate), h.Create)
	sessions.Patch("/active/:sessionId", requirePerm(authorize.ResourceSession, authorize.ActionActivate), h.SetActive)

	s := sessions.Group("/:id")
	s.Get("/", requirePerm(authorize.ResourceSession, authorize.ActionRead), h.Get)
	s.Patch("/", requirePerm(authorize.ResourceSession, authorize.ActionUpdate), h.Update)
	s.Delete("/", requirePerm(authorize.ResourceSession, authorize.ActionDelete), h.Delete)
}
