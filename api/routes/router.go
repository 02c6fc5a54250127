package routes

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/ssakssri/sfsf-connector-api/api/handlers"
	"github.com/ssakssri/sfsf-connector-api/api/middleware"
	"github.com/ssakssri/sfsf-connector-api/pkg/circuitbreaker"
	"github.com/ssakssri/sfsf-connector-api/pkg/successfactors"
)

func RegisterRoutes(app fiber.Router, svc successfactors.SuccessFactorsService, rdb *redis.Client, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})

	api := app.Group("/api")

	withCB := middleware.WithCircuitBreaker(func(name string) *circuitbreaker.RedisBreaker {
		return circuitbreaker.NewRedisBreaker(
			rdb,
			name,
			circuitbreaker.DefaultOptions(),
			logger,
		)
	})

	api.Get("/users/:userId", withCB(handlers.GetUserHandler(svc, logger)))
	api.Get("/users", withCB(handlers.ListUsersHandler(svc, logger)))

	api.Get("/token", withCB(handlers.TokenHandler(svc, logger)))
	api.Get("/token/validate", withCB(handlers.ValidateTokenHandler(svc, logger)))
	api.Delete("/token", handlers.InvalidateTokenHandler(svc, logger))
}
