package handlers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ssakssri/sfsf-connector-api/pkg/successfactors"
)

const sfContextTimeout time.Duration = 5 * time.Second

func GetUserHandler(svc successfactors.SuccessFactorsService, logger *slog.Logger) fiber.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("handler", "GetUserHandler"))

	return func(c *fiber.Ctx) error {
		if svc == nil {
			logger.Error("missing successfactors service")
			return fiber.NewError(fiber.StatusInternalServerError, "server misconfigured")
		}

		userID := c.Params("userId")
		if userID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "userId is required")
		}

		ctx, cancel := context.WithTimeout(c.Context(), sfContextTimeout)
		defer cancel()

		user, err := svc.GetUser(ctx, userID)
		if err != nil {
			return mapUpstreamError(logger, "failed to fetch user", err)
		}

		return c.Status(fiber.StatusOK).JSON(user)
	}
}

func ListUsersHandler(svc successfactors.SuccessFactorsService, logger *slog.Logger) fiber.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("handler", "ListUsersHandler"))

	return func(c *fiber.Ctx) error {
		if svc == nil {
			logger.Error("missing successfactors service")
			return fiber.NewError(fiber.StatusInternalServerError, "server misconfigured")
		}

		q := successfactors.ListUsersQuery{
			Top:    c.QueryInt("top"),
			Filter: c.Query("filter"),
		}
		if q.Top < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "top must be positive")
		}

		ctx, cancel := context.WithTimeout(c.Context(), sfContextTimeout)
		defer cancel()

		users, err := svc.ListUsers(ctx, q)
		if err != nil {
			return mapUpstreamError(logger, "failed to list users", err)
		}

		return c.Status(fiber.StatusOK).JSON(fiber.Map{"results": users})
	}
}

// mapUpstreamError turns domain errors into fiber errors without leaking
// upstream response bodies to our callers.
func mapUpstreamError(logger *slog.Logger, msg string, err error) error {
	logger.Error(msg, slog.Any("err", err))

	var upErr *successfactors.UpstreamError
	if errors.As(err, &upErr) {
		if upErr.Status == fiber.StatusNotFound {
			return fiber.ErrNotFound
		}
		return fiber.NewError(fiber.StatusBadGateway, msg)
	}

	var exchErr *successfactors.TokenExchangeError
	if errors.As(err, &exchErr) {
		return fiber.NewError(fiber.StatusBadGateway, "failed to authenticate with SuccessFactors")
	}

	return fiber.NewError(fiber.StatusBadGateway, msg)
}
