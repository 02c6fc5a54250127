package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	redisLocal "github.com/ssakssri/sfsf-connector-api/pkg/redis"
)

// GetRDBStatus reports 200 while the redis backing the circuit breakers is
// reachable.
func GetRDBStatus(rdb *redis.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
		defer cancel()

		if err := redisLocal.Ping(ctx, rdb); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusOK)
	}
}
