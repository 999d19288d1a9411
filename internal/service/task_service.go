package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"task-manager/internal/models"
	"task-manager/internal/repository"
	"task-manager/pkg/cache"
	"task-manager/pkg/logger"

	"go.uber.org/zap"
)

type TaskStore interface {
	Create(ctx context.Context, task *models.Task) error
	List(ctx context.Context, scope repository.TaskScope, withOwner bool) ([]models.Task, error)
	FindByID(ctx context.Context, id string) (*models.Task, error)
	Update(ctx context.Context, id string, fields map[string]interface{}) (*models.Task, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context, scope repository.TaskScope, status models.TaskStatus) (int64, error)
}

// Notifier menerima event perubahan task, misalnya hub websocket.
type Notifier interface {
	Publish(event models.TaskEvent)
}

// OwnerReader mengembalikan data pemilik task tanpa password.
// *UserService memenuhi interface ini.
type OwnerReader interface {
	Get(ctx context.Context, id string) (*models.User, error)
}

type CreateTaskInput struct {
	Title       string
	Description *string
	Priority    models.TaskPriority
	DueDate     *time.Time
}

// UpdateTaskInput: nil pointers are left untouched. When DueDateSet is true
// the due date is replaced by DueDate, which may be nil to clear it.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	Status      *models.TaskStatus
	Priority    *models.TaskPriority
	DueDateSet  bool
	DueDate     *time.Time
}

type TaskService struct {
	tasks    TaskStore
	owners   OwnerReader
	cache    cache.Cache
	notifier Notifier
}

// NewTaskService: owners boleh nil, task tunggal lalu dikembalikan tanpa info pemilik.
func NewTaskService(tasks TaskStore, owners OwnerReader, c cache.Cache, notifier Notifier) *TaskService {
	if c == nil {
		c = cache.Noop{}
	}
	return &TaskService{tasks: tasks, owners: owners, cache: c, notifier: notifier}
}

// stripOwnerSecret clears the owner's password hash on an attached owner.
func stripOwnerSecret(task *models.Task) {
	if task.User != nil {
		task.User = sanitize(task.User)
	}
}

// scopeFor is shared by List and Stats so both see the same rows.
func scopeFor(actor models.Identity) repository.TaskScope {
	if actor.IsAdmin() {
		return repository.TaskScope{}
	}
	return repository.TaskScope{OwnerID: actor.ID}
}

func validPriority(p models.TaskPriority) bool {
	switch p {
	case models.PriorityLow, models.PriorityMedium, models.PriorityHigh:
		return true
	}
	return false
}

func validStatus(s models.TaskStatus) bool {
	switch s {
	case models.StatusPending, models.StatusInProgress, models.StatusCompleted:
		return true
	}
	return false
}

func (s *TaskService) publish(eventType models.TaskEventType, task *models.Task) {
	if s.notifier == nil {
		return
	}
	s.notifier.Publish(models.TaskEvent{Type: eventType, OwnerID: task.UserID, Task: *task})
}

func (s *TaskService) Create(ctx context.Context, actor models.Identity, in CreateTaskInput) (*models.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, Invalid("Title is required")
	}
	priority := in.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !validPriority(priority) {
		return nil, Invalid("Invalid priority")
	}

	// pemilik selalu user yang sedang login
	task := &models.Task{
		Title:       title,
		Description: in.Description,
		Status:      models.StatusPending,
		Priority:    priority,
		DueDate:     in.DueDate,
		UserID:      actor.ID,
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}

	logger.AuditLogger.Info("Task created", zap.String("task_id", task.ID), zap.String("user_id", actor.ID))
	s.publish(models.TaskCreated, task)
	return task, nil
}

func (s *TaskService) List(ctx context.Context, actor models.Identity) ([]models.Task, error) {
	tasks, err := s.tasks.List(ctx, scopeFor(actor), actor.IsAdmin())
	if err != nil {
		return nil, err
	}
	for i := range tasks {
		stripOwnerSecret(&tasks[i])
	}
	return tasks, nil
}

// Get returns NotFound when the task does not exist, whoever asks, and
// Forbidden when it exists but the actor may not see it.
func (s *TaskService) Get(ctx context.Context, actor models.Identity, id string) (*models.Task, error) {
	task, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanAccess(actor, task.UserID) {
		logger.SecurityLogger.Warn("Task access denied",
			zap.String("role", string(actor.Role)),
			zap.String("user_id", actor.ID),
			zap.String("task_id", id))
		return nil, Forbidden("You can only access your own tasks")
	}
	s.attachOwner(ctx, task)
	return task, nil
}

// attachOwner reads the owner through the user read path, whose cache entry
// is evicted on every user update.
func (s *TaskService) attachOwner(ctx context.Context, task *models.Task) {
	if s.owners == nil {
		return
	}
	owner, err := s.owners.Get(ctx, task.UserID)
	if err != nil {
		logger.ErrorLogger.Error("Error loading task owner", zap.String("task_id", task.ID), zap.Error(err))
		return
	}
	task.User = owner
}

func (s *TaskService) load(ctx context.Context, id string) (*models.Task, error) {
	var cached models.Task
	if hit, err := s.cache.Get(ctx, cache.TaskKey(id), &cached); err != nil {
		logger.ErrorLogger.Error("Error reading task cache", zap.Error(err))
	} else if hit {
		return &cached, nil
	}

	task, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NotFound("Task not found")
		}
		return nil, err
	}
	// info pemilik tidak ikut di-cache
	task.User = nil

	if err := s.cache.Set(ctx, cache.TaskKey(id), task); err != nil {
		logger.ErrorLogger.Error("Error caching task", zap.Error(err))
	}
	return task, nil
}

func (s *TaskService) Update(ctx context.Context, actor models.Identity, id string, in UpdateTaskInput) (*models.Task, error) {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, Invalid("Title cannot be empty")
		}
		fields["title"] = title
	}
	if in.Description != nil {
		fields["description"] = *in.Description
	}
	if in.Status != nil {
		if !validStatus(*in.Status) {
			return nil, Invalid("Invalid status")
		}
		fields["status"] = *in.Status
	}
	if in.Priority != nil {
		if !validPriority(*in.Priority) {
			return nil, Invalid("Invalid priority")
		}
		fields["priority"] = *in.Priority
	}
	if in.DueDateSet {
		fields["due_date"] = in.DueDate
	}

	updated, err := s.tasks.Update(ctx, id, fields)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NotFound("Task not found")
		}
		return nil, err
	}

	if err := s.cache.Delete(ctx, cache.TaskKey(id)); err != nil {
		logger.ErrorLogger.Error("Error invalidating task cache", zap.Error(err))
	}
	stripOwnerSecret(updated)
	logger.AuditLogger.Info("Task updated", zap.String("task_id", id), zap.String("user_id", actor.ID))
	s.publish(models.TaskUpdated, updated)
	return updated, nil
}

func (s *TaskService) Delete(ctx context.Context, actor models.Identity, id string) error {
	task, err := s.Get(ctx, actor, id)
	if err != nil {
		return err
	}

	if err := s.tasks.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return NotFound("Task not found")
		}
		return err
	}

	if err := s.cache.Delete(ctx, cache.TaskKey(id)); err != nil {
		logger.ErrorLogger.Error("Error invalidating task cache", zap.Error(err))
	}
	logger.AuditLogger.Info("Task deleted", zap.String("task_id", id), zap.String("user_id", actor.ID))
	s.publish(models.TaskDeleted, task)
	return nil
}

// Stats counts tasks per status within the actor's scope.
func (s *TaskService) Stats(ctx context.Context, actor models.Identity) (*models.TaskStats, error) {
	scope := scopeFor(actor)

	var stats models.TaskStats
	var err error
	if stats.Total, err = s.tasks.Count(ctx, scope, ""); err != nil {
		return nil, err
	}
	if stats.Pending, err = s.tasks.Count(ctx, scope, models.StatusPending); err != nil {
		return nil, err
	}
	if stats.InProgress, err = s.tasks.Count(ctx, scope, models.StatusInProgress); err != nil {
		return nil, err
	}
	if stats.Completed, err = s.tasks.Count(ctx, scope, models.StatusCompleted); err != nil {
		return nil, err
	}
	return &stats, nil
}
