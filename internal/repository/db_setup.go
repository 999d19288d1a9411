package repository

import (
	"context"
	"errors"
	"fmt"

	"task-manager/internal/models"
	"task-manager/pkg/crypto"
	"task-manager/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CreateTableIfNotExists membuat atau menyesuaikan tabel users dan tasks.
func CreateTableIfNotExists(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.User{}, &models.Task{}); err != nil {
		return fmt.Errorf("migrate tables: %w", err)
	}
	logger.SystemLogger.Info("Tables 'users', 'tasks' are ready")
	return nil
}

// AdminSeed describes the bootstrap administrator.
type AdminSeed struct {
	Email      string
	Name       string
	Password   string
	BcryptCost int
}

// CreateAdminUser membuat admin jika email tersebut belum terdaftar.
// Mengembalikan true jika admin baru dibuat.
func CreateAdminUser(ctx context.Context, db *gorm.DB, seed AdminSeed) (bool, error) {
	var existing models.User
	err := db.WithContext(ctx).Where("email = ?", seed.Email).First(&existing).Error
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, fmt.Errorf("lookup admin: %w", err)
	}

	hashedPassword, err := crypto.HashPassword(seed.Password, seed.BcryptCost)
	if err != nil {
		return false, fmt.Errorf("hash admin password: %w", err)
	}

	admin := models.User{
		Email:        seed.Email,
		Name:         seed.Name,
		PasswordHash: hashedPassword,
		Role:         models.RoleAdmin,
		IsActive:     true,
	}
	if err := db.WithContext(ctx).Create(&admin).Error; err != nil {
		return false, fmt.Errorf("insert admin: %w", err)
	}

	logger.SystemLogger.Info("Admin user created", zap.String("email", seed.Email), zap.String("user_id", admin.ID))
	return true, nil
}

// DeleteAllTable drops both tables.
func DeleteAllTable(db *gorm.DB) error {
	if err := db.Migrator().DropTable(&models.Task{}, &models.User{}); err != nil {
		return fmt.Errorf("drop tables: %w", err)
	}
	logger.SystemLogger.Info("Tables 'tasks', 'users' are deleted")
	return nil
}
