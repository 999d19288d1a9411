package repository

import (
	"context"
	"errors"
	"fmt"

	"task-manager/internal/models"

	"gorm.io/gorm"
)

// TaskScope membatasi query task. OwnerID kosong berarti semua task.
type TaskScope struct {
	OwnerID string
}

func (s TaskScope) apply(db *gorm.DB) *gorm.DB {
	if s.OwnerID == "" {
		return db
	}
	return db.Where("user_id = ?", s.OwnerID)
}

// withOwner memuat user pemilik tanpa kolom password.
func withOwner(db *gorm.DB) *gorm.DB {
	return db.Preload("User", func(tx *gorm.DB) *gorm.DB {
		return tx.Omit("password")
	})
}

type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	if err := r.db.WithContext(ctx).Omit("User").Create(task).Error; err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

// List returns tasks in scope, newest first. owner preloads the owning user.
func (r *TaskRepository) List(ctx context.Context, scope TaskScope, owner bool) ([]models.Task, error) {
	q := scope.apply(r.db.WithContext(ctx).Model(&models.Task{}))
	if owner {
		q = withOwner(q)
	}

	tasks := []models.Task{}
	if err := q.Order("created_at DESC").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func (r *TaskRepository) FindByID(ctx context.Context, id string) (*models.Task, error) {
	var task models.Task
	err := withOwner(r.db.WithContext(ctx)).Where("id = ?", id).First(&task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query task: %w", err)
	}
	return &task, nil
}

func (r *TaskRepository) Update(ctx context.Context, id string, fields map[string]interface{}) (*models.Task, error) {
	if len(fields) > 0 {
		result := r.db.WithContext(ctx).Model(&models.Task{}).Where("id = ?", id).Updates(fields)
		if result.Error != nil {
			return nil, fmt.Errorf("update task: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return nil, ErrNotFound
		}
	}
	return r.FindByID(ctx, id)
}

func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Task{})
	if result.Error != nil {
		return fmt.Errorf("delete task: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Count menghitung task dalam scope. Status kosong berarti semua status.
func (r *TaskRepository) Count(ctx context.Context, scope TaskScope, status models.TaskStatus) (int64, error) {
	q := scope.apply(r.db.WithContext(ctx).Model(&models.Task{}))
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}
	return count, nil
}
