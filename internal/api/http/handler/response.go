package handler

import (
	"log/slog"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/medicenter_backend/pkg/reqctx"
)

func ok(c fiber.Ctx, data any) error {
	return c.JSON(fiber.Map{"data": data})
}

func created(c fiber.Ctx, data any) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": data})
}

// list writes a paging.Result as is; it already carries the data envelope.
func list(c fiber.Ctx, result any) error {
	return c.JSON(result)
}

func noContent(c fiber.Ctx) error {
	return c.SendStatus(fiber.StatusNoContent)
}

func badRequest(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

func notFound(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": msg})
}

func conflict(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": msg})
}

// internalError logs err with the request's correlation ids and hides it
// from the client.
func internalError(c fiber.Ctx, err error) error {
	attrs := append([]any{"method", c.Method(), "path", c.Path(), "err", err}, reqctx.LogAttrs(c.Context())...)
	slog.Error("request failed", attrs...)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
}

// actor names the caller in modification history.
func actor(c fiber.Ctx) string {
	return reqctx.Actor(c.Context())
}
