package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/medicenter_backend/internal/api/http/handler"
	"github.com/Alijeyrad/medicenter_backend/pkg/authorize"
)

func (r *Router) registerPrescriptionRoutes(api fiber.Router, h *handler.PrescriptionHandler, requirePerm permFunc) {
	prescriptions := api.Group("/prescriptions")

	prescriptions.Post("/", requirePerm(authorize.ResourcePrescription, authorize.ActionCreate), h.Create)
	prescriptions.Get("/:number", requirePerm(authorize.ResourcePrescription, authorize.ActionRead), h.Get)
}
