package controllers

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/SaaSKit/app/models"
	"github.com/ManuelReschke/SaaSKit/internal/pkg/billing"
)

var validate = validator.New()

// jsonError writes the standard API error body.
func jsonError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": code, "message": message})
}

// writeError maps domain errors to HTTP responses.
func writeError(c *fiber.Ctx, err error) error {
	var verrs validator.ValidationErrors
	switch {
	case errors.Is(err, billing.ErrUnauthenticated):
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", err.Error())
	case errors.Is(err, billing.ErrSubscriptionNotFound),
		errors.Is(err, billing.ErrNoActiveSubscription),
		errors.Is(err, billing.ErrNoSubscription),
		errors.Is(err, gorm.ErrRecordNotFound):
		msg := err.Error()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			msg = "Not found"
		}
		return jsonError(c, fiber.StatusNotFound, "not_found", msg)
	case errors.Is(err, billing.ErrSubscriptionExists):
		return jsonError(c, fiber.StatusConflict, "conflict", err.Error())
	case errors.Is(err, billing.ErrInvalidInput),
		errors.Is(err, billing.ErrUnknownStatus),
		errors.Is(err, models.ErrNameEmpty),
		errors.Is(err, models.ErrCurrentPasswordWrong),
		isPasswordRule(err):
		return jsonError(c, fiber.StatusBadRequest, "bad_request", err.Error())
	case errors.As(err, &verrs):
		return jsonError(c, fiber.StatusBadRequest, "validation_failed", validationMessage(verrs))
	case errors.Is(err, billing.ErrNotConfigured):
		return jsonError(c, fiber.StatusServiceUnavailable, "not_configured", "Payments are not configured")
	case errors.Is(err, billing.ErrProviderCall):
		log.Errorf("stripe call failed on %s %s: %v", c.Method(), c.Path(), err)
		return jsonError(c, fiber.StatusBadGateway, "payment_provider_error", "Payment provider request failed")
	default:
		log.Errorf("request %s %s failed: %v", c.Method(), c.Path(), err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Internal server error")
	}
}

func isPasswordRule(err error) bool {
	return errors.Is(err, models.ErrPasswordTooShort) ||
		errors.Is(err, models.ErrPasswordNoDigit) ||
		errors.Is(err, models.ErrPasswordNoLowercase) ||
		errors.Is(err, models.ErrPasswordNoUppercase)
}

// parseBody decodes the JSON body into dst and runs its validate tags. When
// ok is false the error response has been written and err is its result.
func parseBody(c *fiber.Ctx, dst interface{}) (ok bool, err error) {
	if err := c.BodyParser(dst); err != nil {
		return false, jsonError(c, fiber.StatusBadRequest, "invalid_body", "Invalid request body")
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return false, jsonError(c, fiber.StatusBadRequest, "validation_failed", validationMessage(verrs))
		}
		return false, jsonError(c, fiber.StatusBadRequest, "invalid_body", err.Error())
	}
	return true, nil
}

func validationMessage(verrs validator.ValidationErrors) string {
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fe.Field()+" is invalid ("+fe.Tag()+")")
	}
	return strings.Join(parts, ", ")
}
