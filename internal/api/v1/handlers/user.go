package handlers

import (
	"task-manager/internal/models"
	"task-manager/internal/service"

	"github.com/gofiber/fiber/v2"
)

// UpdateUserRequest dipakai oleh PATCH /users/profile dan PATCH /users/:id.
type UpdateUserRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=255"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Role     *string `json:"role" validate:"omitempty,oneof=user admin"`
	Password *string `json:"password" validate:"omitempty,min=6"`
}

func (r UpdateUserRequest) input() service.UpdateUserInput {
	in := service.UpdateUserInput{Name: r.Name, Email: r.Email, Password: r.Password}
	if r.Role != nil {
		role := models.Role(*r.Role)
		in.Role = &role
	}
	return in
}

func (h *Handler) ListUsers(c *fiber.Ctx) error {
	users, err := h.deps.Users.List(c.UserContext())
	if err != nil {
		return handleError(c, err, "fetching users")
	}
	return success(c, fiber.StatusOK, "Users retrieved successfully", users)
}

func (h *Handler) GetProfile(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return handleError(c, err, "fetching profile")
	}
	user, err := h.deps.Users.Get(c.UserContext(), actor.ID)
	if err != nil {
		return handleError(c, err, "fetching profile")
	}
	return success(c, fiber.StatusOK, "User profile retrieved", user)
}

func (h *Handler) UpdateProfile(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return handleError(c, err, "updating profile")
	}
	var req UpdateUserRequest
	if err := h.bind(c, &req); err != nil {
		return handleError(c, err, "updating profile")
	}
	user, err := h.deps.Users.UpdateProfile(c.UserContext(), actor, req.input())
	if err != nil {
		return handleError(c, err, "updating profile")
	}
	return success(c, fiber.StatusOK, "User updated successfully", user)
}

func (h *Handler) GetUser(c *fiber.Ctx) error {
	user, err := h.deps.Users.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return handleError(c, err, "fetching user")
	}
	return success(c, fiber.StatusOK, "User retrieved successfully", user)
}

func (h *Handler) UpdateUser(c *fiber.Ctx) error {
	var req UpdateUserRequest
	if err := h.bind(c, &req); err != nil {
		return handleError(c, err, "updating user")
	}
	user, err := h.deps.Users.Update(c.UserContext(), c.Params("id"), req.input())
	if err != nil {
		return handleError(c, err, "updating user")
	}
	return success(c, fiber.StatusOK, "User updated successfully", user)
}

// DeleteUser juga menghapus semua task milik user tersebut.
func (h *Handler) DeleteUser(c *fiber.Ctx) error {
	if err := h.deps.Users.Delete(c.UserContext(), c.Params("id")); err != nil {
		return handleError(c, err, "deleting user")
	}
	return success(c, fiber.StatusOK, "User deleted successfully", nil)
}
