package middleware

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/medicenter_backend/internal/repo"
)

const (
	HeaderCenterID = "X-Center-ID"
	LocalsCenterID = "center_id"
)

// CenterHeader resolves the optional X-Center-ID header (UUID or MC#### code)
// to a live center and stores its UUID in locals, so RequirePermission
// checks the center's domain. Without the header the request stays in the
// sys domain.
func CenterHeader(db *repo.Client) fiber.Handler {
	return func(c fiber.Ctx) error {
		ref := c.Get(HeaderCenterID)
		if ref == "" {
			return c.Next()
		}

		center, err := db.CenterByRef(c.Context(), ref)
		if err != nil {
			if repo.IsNotFound(err) {
				return fiber.NewError(fiber.StatusNotFound, "medical center not found")
			}
			return err
		}
		if center.IsDeleted {
			return fiber.NewError(fiber.StatusNotFound, "medical center not found")
		}

		c.Locals(LocalsCenterID, center.ID.String())
		return c.Next()
	}
}
