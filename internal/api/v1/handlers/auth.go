package handlers

import (
	"task-manager/internal/models"
	"task-manager/internal/service"
	"task-manager/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,max=255"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"omitempty,oneof=user admin"`
}

// Login menukar email dan password dengan access token.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := h.bind(c, &req); err != nil {
		return handleError(c, err, "login")
	}

	result, err := h.deps.Auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return handleError(c, err, "login")
	}
	return success(c, fiber.StatusOK, "Login success", result)
}

func (h *Handler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := h.bind(c, &req); err != nil {
		return handleError(c, err, "registering user")
	}

	user, err := h.deps.Auth.Register(c.UserContext(), service.CreateUserInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
		Role:     models.Role(req.Role),
	})
	if err != nil {
		return handleError(c, err, "registering user")
	}

	logger.AuditLogger.Info("User registered successfully", zap.String("user_id", user.ID))
	return success(c, fiber.StatusCreated, "User created successfully", user)
}
