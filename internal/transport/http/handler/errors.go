package handler

import (
	"errors"

	"github.com/bethel4/Ecommerce-Backend-Repo/internal/domain"
	"github.com/bethel4/Ecommerce-Backend-Repo/internal/repository"
	"github.com/bethel4/Ecommerce-Backend-Repo/internal/service"
	"github.com/gofiber/fiber/v2"
)

// respondError maps the typed domain errors onto distinct HTTP statuses
// so clients can tell retryable failures from permanent ones: conflicts
// are retryable, validation and stock failures are not.
func respondError(c *fiber.Ctx, err error) error {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		body := fiber.Map{"error": validationErr.Error()}
		if validationErr.ProductID != "" {
			body["product_id"] = validationErr.ProductID
		}
		return c.Status(fiber.StatusBadRequest).JSON(body)
	}

	var notFoundErr *domain.NotFoundError
	if errors.As(err, &notFoundErr) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": notFoundErr.Error()})
	}

	var stockErr *domain.InsufficientStockError
	if errors.As(err, &stockErr) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":      stockErr.Error(),
			"product_id": stockErr.ProductID,
			"requested":  stockErr.Requested,
			"available":  stockErr.Available,
		})
	}

	var conflictErr *domain.ConflictError
	if errors.As(err, &conflictErr) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error":     conflictErr.Error(),
			"retryable": true,
		})
	}

	switch {
	case errors.Is(err, repository.ErrUserAlreadyExists):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidCredentials):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
}

// callerID pulls the authenticated user id set by the auth middleware.
func callerID(c *fiber.Ctx) (string, bool) {
	userID, ok := c.Locals("userId").(string)
	return userID, ok && userID != ""
}
