package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/medicenter_backend/internal/api/http/handler"
	"github.com/Alijeyrad/medicenter_backend/pkg/authorize"
)

func (r *Router) registerCenterRoutes(api fiber.Router, h *handler.CenterHandler, requirePerm permFunc) {
	centers := api.Group("/centers")

	centers.Get("/", requirePerm(authorize.ResourceCenter, authorize.ActionList), h.List)
	centers.Post("/", requirePerm(authorize.ResourceCenter, authorize.ActionCreate), h.Create)

	c := centers.Group("/:id")
	c.Get("/", requirePerm(authorize.ResourceCenter, authorize.ActionRead), h.Get)
	c.Patch("/", requirePerm(authorize.ResourceCenter, authorize.ActionUpdate), h.Update)
	c.Delete("/", requirePerm(authorize.ResourceCenter, authorize.ActionDelete), h.Delete)
	c.Get("/sessions", requirePerm(authorize.ResourceSession, authorize.ActionList), h.ListSessions)
}
