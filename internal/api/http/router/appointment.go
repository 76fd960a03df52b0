package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/medicenter_backend/internal/api/http/handler"
	"github.com/Alijeyrad/medicenter_backend/pkg/authorize"
)

func (r *Router) registerAppointmentRoutes(
	api fiber.Router,
	ah *handler.AppointmentHandler,
	ph *handler.PrescriptionHandler,
	requirePerm permFunc,
) {
	appts := api.Group("/appointments")

	appts.Get("/", requirePerm(authorize.ResourceAppointment, authorize.ActionList), ah.List)
	appts.Post("/", requirePerm(authorize.ResourceAppointment, authorize.ActionCreate), ah.Book)

	a := appts.Group("/:id")
	a.Get("/", requirePerm(authorize.ResourceAppointment, authorize.ActionRead), ah.Get)
	a.Patch("/cancel", requirePerm(authorize.ResourceAppointment, authorize.ActionCancel), ah.Cancel)
	a.Patch("/status", requirePerm(authorize.ResourceAppointment, authorize.ActionUpdate), ah.UpdateStatus)
	a.Get("/prescriptions", requirePerm(authorize.ResourcePrescription, authorize.ActionList), ph.ListByAppointment)
}
