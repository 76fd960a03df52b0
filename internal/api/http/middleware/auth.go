package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"

	"github.com/Alijeyrad/medicenter_backend/pkg/constants"
	pasetotoken "github.com/Alijeyrad/medicenter_backend/pkg/paseto"
	"github.com/Alijeyrad/medicenter_backend/pkg/reqctx"
)

const LocalsClaims = "claims"

// AuthRequired validates a Bearer PASETO access token. When rdb is non-nil
// the token's session must also be present in Redis.
// On success the claims are stored in locals and in the request context.
func AuthRequired(mgr *pasetotoken.Manager, rdb redis.UniversalClient) fiber.Handler {
	return func(c fiber.Ctx) error {
		h := c.Get("Authorization")
		if h == "" {
			return fiber.ErrUnauthorized
		}

		parts := strings.SplitN(h, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return fiber.ErrUnauthorized
		}

		claims, err := mgr.Verify(strings.TrimSpace(parts[1]))
		if err != nil {
			return fiber.ErrUnauthorized
		}

		// Only access tokens are accepted on protected routes
		if claims.Type != pasetotoken.TokenTypeAccess {
			return fiber.ErrUnauthorized
		}

		if rdb != nil && claims.SessionID != nil {
			key := constants.RedisKeyAuthSession + claims.SessionID.String()
			if err := rdb.Get(c.Context(), key).Err(); err != nil {
				return fiber.ErrUnauthorized
			}
		}

		c.Locals(LocalsClaims, claims)
		c.SetContext(reqctx.WithClaims(c.Context(), claims))
		return c.Next()
	}
}

// ClaimsFromFiber returns the claims stored by AuthRequired.
func ClaimsFromFiber(c fiber.Ctx) (*pasetotoken.Claims, bool) {
	claims, ok := c.Locals(LocalsClaims).(*pasetotoken.Claims)
	return claims, ok && claims != nil
}
