package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"task-manager/internal/models"
	"task-manager/internal/service"

	"github.com/gofiber/fiber/v2"
)

// NullableDate membedakan key yang tidak dikirim (Set=false) dari null atau
// string kosong (Set=true, Value=nil).
type NullableDate struct {
	Set   bool
	Value *time.Time
}

func (d *NullableDate) UnmarshalJSON(data []byte) error {
	d.Set = true
	d.Value = nil
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("dueDate must be a string")
	}
	if raw == "" {
		return nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			d.Value = &t
			return nil
		}
	}
	return fmt.Errorf("dueDate must be YYYY-MM-DD or RFC 3339, got %q", raw)
}

// CreateTaskRequest tidak punya field owner; owner selalu user yang login.
type CreateTaskRequest struct {
	Title       string       `json:"title" validate:"required,max=255"`
	Description *string      `json:"description"`
	Priority    string       `json:"priority" validate:"omitempty,oneof=low medium high"`
	DueDate     NullableDate `json:"dueDate"`
}

type UpdateTaskRequest struct {
	Title       *string      `json:"title" validate:"omitempty,min=1,max=255"`
	Description *string      `json:"description"`
	Status      *string      `json:"status" validate:"omitempty,oneof=pending in_progress completed"`
	Priority    *string      `json:"priority" validate:"omitempty,oneof=low medium high"`
	DueDate     NullableDate `json:"dueDate"`
}

func (r UpdateTaskRequest) input() service.UpdateTaskInput {
	in := service.UpdateTaskInput{
		Title:       r.Title,
		Description: r.Description,
		DueDateSet:  r.DueDate.Set,
		DueDate:     r.DueDate.Value,
	}
	if r.Status != nil {
		status := models.TaskStatus(*r.Status)
		in.Status = &status
	}
	if r.Priority != nil {
		priority := models.TaskPriority(*r.Priority)
		in.Priority = &priority
	}
	return in
}

func (h *Handler) CreateTask(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return handleError(c, err, "creating task")
	}
	var req CreateTaskRequest
	if err := h.bind(c, &req); err != nil {
		return handleError(c, err, "creating task")
	}

	task, err := h.deps.Tasks.Create(c.UserContext(), actor, service.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    models.TaskPriority(req.Priority),
		DueDate:     req.DueDate.Value,
	})
	if err != nil {
		return handleError(c, err, "creating task")
	}
	return success(c, fiber.StatusCreated, "Task created successfully", task)
}

func (h *Handler) ListTasks(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return handleError(c, err, "fetching tasks")
	}
	tasks, err := h.deps.Tasks.List(c.UserContext(), actor)
	if err != nil {
		return handleError(c, err, "fetching tasks")
	}
	return success(c, fiber.StatusOK, "Tasks retrieved successfully", tasks)
}

func (h *Handler) TaskStats(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return handleError(c, err, "fetching task stats")
	}
	stats, err := h.deps.Tasks.Stats(c.UserContext(), actor)
	if err != nil {
		return handleError(c, err, "fetching task stats")
	}
	return success(c, fiber.StatusOK, "Task stats retrieved successfully", stats)
}

func (h *Handler) GetTask(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return handleError(c, err, "fetching task")
	}
	task, err := h.deps.Tasks.Get(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return handleError(c, err, "fetching task")
	}
	return success(c, fiber.StatusOK, "Task retrieved successfully", task)
}

func (h *Handler) UpdateTask(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return handleError(c, err, "updating task")
	}
	var req UpdateTaskRequest
	if err := h.bind(c, &req); err != nil {
		return handleError(c, err, "updating task")
	}
	task, err := h.deps.Tasks.Update(c.UserContext(), actor, c.Params("id"), req.input())
	if err != nil {
		return handleError(c, err, "updating task")
	}
	return success(c, fiber.StatusOK, "Task updated successfully", task)
}

func (h *Handler) DeleteTask(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return handleError(c, err, "deleting task")
	}
	if err := h.deps.Tasks.Delete(c.UserContext(), actor, c.Params("id")); err != nil {
		return handleError(c, err, "deleting task")
	}
	return success(c, fiber.StatusOK, "Task deleted successfully", nil)
}
