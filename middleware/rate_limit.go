package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	redisstorage "github.com/gofiber/storage/redis/v3"
	"github.com/redis/go-redis/v9"

	"github.com/sadeshahansana5-cloud/G-Create-Bot/utils"
)

// RuntimeLimiter limits operator endpoint calls per client IP. Counters live
// in Redis when a client is supplied so that replicas share them; otherwise
// the limiter's in-memory storage is used.
func RuntimeLimiter(rdb *redis.Client, trustProxy bool, max int, window time.Duration) fiber.Handler {
	cfg := limiter.Config{
		Max:        max,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return "runtime:" + utils.ClientIP(c, trustProxy)
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests. Please try again later.",
			})
		},
	}
	if rdb != nil {
		cfg.Storage = redisstorage.NewFromConnection(rdb)
	}
	return limiter.New(cfg)
}
