package handlers

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/ssakssri/sfsf-connector-api/pkg/successfactors"
)

// TokenHandler warms the token cache and returns its metadata. The access
// token itself never leaves the service.
func TokenHandler(svc successfactors.SuccessFactorsService, logger *slog.Logger) fiber.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("handler", "TokenHandler"))

	return func(c *fiber.Ctx) error {
		if svc == nil {
			logger.Error("missing successfactors service")
			return fiber.NewError(fiber.StatusInternalServerError, "server misconfigured")
		}

		ctx, cancel := context.WithTimeout(c.Context(), sfContextTimeout)
		defer cancel()

		if _, err := svc.GetAccessToken(ctx); err != nil {
			logger.Error("failed to get SF access token", slog.Any("err", err))
			return fiber.NewError(fiber.StatusBadGateway, "failed to authenticate with SuccessFactors")
		}

		return c.Status(fiber.StatusOK).JSON(svc.TokenStatus())
	}
}

// ValidateTokenHandler checks the cached token against the upstream validate
// endpoint.
func ValidateTokenHandler(svc successfactors.SuccessFactorsService, logger *slog.Logger) fiber.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("handler", "ValidateTokenHandler"))

	return func(c *fiber.Ctx) error {
		if svc == nil {
			logger.Error("missing successfactors service")
			return fiber.NewError(fiber.StatusInternalServerError, "server misconfigured")
		}

		ctx, cancel := context.WithTimeout(c.Context(), sfContextTimeout)
		defer cancel()

		status, err := svc.ValidateToken(ctx)
		if err != nil {
			logger.Error("token validation failed", slog.Any("err", err))
			return fiber.NewError(fiber.StatusBadGateway, "token validation failed")
		}

		return c.Status(fiber.StatusOK).JSON(status)
	}
}

// InvalidateTokenHandler drops the cached token so the next call exchanges a
// fresh assertion.
func InvalidateTokenHandler(svc successfactors.SuccessFactorsService, logger *slog.Logger) fiber.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("handler", "InvalidateTokenHandler"))

	return func(c *fiber.Ctx) error {
		if svc == nil {
			logger.Error("missing successfactors service")
			return fiber.NewError(fiber.StatusInternalServerError, "server misconfigured")
		}

		svc.Invalidate()
		logger.Info("token cache invalidated")

		return c.SendStatus(fiber.StatusNoContent)
	}
}
