package handlers

import (
	"errors"
	"fmt"
	"strings"

	"task-manager/internal/config"
	"task-manager/internal/middleware"
	"task-manager/internal/models"
	"task-manager/internal/service"
	"task-manager/pkg/logger"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"
)

// Handler menyimpan dependency yang dipakai seluruh endpoint.
type Handler struct {
	deps *config.Dependencies
}

func New(deps *config.Dependencies) *Handler {
	return &Handler{deps: deps}
}

func success(c *fiber.Ctx, status int, message string, data interface{}) error {
	return c.Status(status).JSON(fiber.Map{
		"message": message,
		"success": true,
		"status":  status,
		"data":    data,
	})
}

func fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"message": message,
		"error":   utils.StatusMessage(status),
		"success": false,
		"status":  status,
	})
}

var kindStatus = map[service.Kind]int{
	service.KindNotFound:     fiber.StatusNotFound,
	service.KindConflict:     fiber.StatusConflict,
	service.KindForbidden:    fiber.StatusForbidden,
	service.KindUnauthorized: fiber.StatusUnauthorized,
	service.KindValidation:   fiber.StatusBadRequest,
}

// handleError menerjemahkan error service ke response HTTP.
func handleError(c *fiber.Ctx, err error, action string) error {
	var serviceErr *service.Error
	if errors.As(err, &serviceErr) {
		if status, ok := kindStatus[serviceErr.Kind]; ok {
			if status == fiber.StatusForbidden || status == fiber.StatusUnauthorized {
				logger.SecurityLogger.Warn(action+" rejected",
					zap.String("reason", serviceErr.Message),
					zap.String("url", c.OriginalURL()))
			}
			return fail(c, status, serviceErr.Message)
		}
	}
	logger.ErrorLogger.Error("Error "+action, zap.Error(err))
	return fail(c, fiber.StatusInternalServerError, "Internal server error")
}

// bind mem-parse body lalu menjalankan validasi tag.
func (h *Handler) bind(c *fiber.Ctx, req interface{}) error {
	if err := c.BodyParser(req); err != nil {
		return service.Invalid("Invalid request body: %v", err)
	}
	if err := h.deps.Validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			messages := make([]string, 0, len(validationErrs))
			for _, fe := range validationErrs {
				messages = append(messages, describe(fe))
			}
			return service.Invalid("%s", strings.Join(messages, "; "))
		}
		return service.Invalid("%v", err)
	}
	return nil
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	}
	return fmt.Sprintf("%s is invalid", field)
}

func identity(c *fiber.Ctx) (models.Identity, error) {
	actor, ok := middleware.IdentityFrom(c)
	if !ok {
		return models.Identity{}, service.Unauthorized("No token provided")
	}
	return actor, nil
}
