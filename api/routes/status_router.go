package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/ssakssri/sfsf-connector-api/api/handlers"
)

func StatusRouter(app fiber.Router, rdb *redis.Client) {
	app.Get("/api/healthcheck", handlers.GetRDBStatus(rdb))
}
