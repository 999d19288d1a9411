package v1

import (
	"task-manager/internal/api/v1/handlers"
	"task-manager/internal/config"
	"task-manager/internal/middleware"
	"task-manager/internal/models"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(app *fiber.App, deps *config.Dependencies) {
	h := handlers.New(deps)
	auth := middleware.UseToken(deps.Tokens)
	adminOnly := middleware.RequireRoles(models.RoleAdmin)

	app.Get("/", h.Info)
	app.Get("/health", h.Health)

	// Auth
	authRoutes := app.Group("/auth")
	authRoutes.Post("/login", h.Login)
	authRoutes.Post("/register", h.Register)

	// User; /profile harus terdaftar sebelum /:id
	userRoutes := app.Group("/users", auth)
	userRoutes.Get("/", adminOnly, h.ListUsers)
	userRoutes.Get("/profile", h.GetProfile)
	userRoutes.Patch("/profile", h.UpdateProfile)
	userRoutes.Get("/:id", adminOnly, h.GetUser)
	userRoutes.Patch("/:id", adminOnly, h.UpdateUser)
	userRoutes.Delete("/:id", adminOnly, h.DeleteUser)

	// Task
	taskRoutes := app.Group("/tasks", auth)
	taskRoutes.Post("/", h.CreateTask)
	taskRoutes.Get("/", h.ListTasks)
	taskRoutes.Get("/stats", h.TaskStats)
	taskRoutes.Get("/:id", h.GetTask)
	taskRoutes.Patch("/:id", h.UpdateTask)
	taskRoutes.Delete("/:id", h.DeleteTask)

	// Task events
	app.Get("/ws", h.UpgradeTaskEvents, h.TaskEvents())
}
