package middleware

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	fiberredis "github.com/gofiber/storage/redis/v3"
	"github.com/redis/go-redis/v9"

	"github.com/Alijeyrad/medicenter_backend/config"
)

const (
	defaultLimitMax        = 20
	defaultLimitExpiration = 30 * time.Second
)

// NewLimiterWithRedis shares a sliding-window rate limit across instances.
func NewLimiterWithRedis(rdb *redis.Client, cfg config.RateLimit) fiber.Handler {
	limit := cfg.Max
	if limit <= 0 {
		limit = defaultLimitMax
	}
	exp := time.Duration(cfg.ExpirationSeconds) * time.Second
	if exp <= 0 {
		exp = defaultLimitExpiration
	}

	storage := fiberredis.NewFromConnection(rdb)
	return limiter.New(limiter.Config{
		Storage: storage,

		// sliding window
		Max:               limit,
		Expiration:        exp,
		LimiterMiddleware: limiter.SlidingWindow{},
	})
}
