package service

import (
	"context"
	"errors"
	"strings"

	"task-manager/internal/models"
	"task-manager/internal/repository"
	"task-manager/pkg/cache"
	"task-manager/pkg/crypto"
	"task-manager/pkg/logger"

	"go.uber.org/zap"
)

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	List(ctx context.Context) ([]models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	EmailTakenByOther(ctx context.Context, email, excludeID string) (bool, error)
	Update(ctx context.Context, id string, fields map[string]interface{}) (*models.User, error)
	Delete(ctx context.Context, id string) ([]models.Task, error)
}

type CreateUserInput struct {
	Email    string
	Name     string
	Password string
	Role     models.Role
}

// UpdateUserInput berisi field opsional; nil berarti tidak diubah.
type UpdateUserInput struct {
	Name     *string
	Email    *string
	Role     *models.Role
	Password *string
}

type UserService struct {
	users      UserStore
	cache      cache.Cache
	notifier   Notifier
	bcryptCost int
}

// NewUserService: notifier menerima task.deleted untuk task yang ikut terhapus
// bersama pemiliknya, boleh nil.
func NewUserService(users UserStore, c cache.Cache, notifier Notifier, bcryptCost int) *UserService {
	if c == nil {
		c = cache.Noop{}
	}
	return &UserService{users: users, cache: c, notifier: notifier, bcryptCost: bcryptCost}
}

// sanitize returns a copy safe to hand across the API boundary.
func sanitize(u *models.User) *models.User {
	out := *u
	out.PasswordHash = ""
	return &out
}

func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*models.User, error) {
	role := in.Role
	if role == "" {
		role = models.RoleUser
	}
	if !role.Valid() {
		return nil, Invalid("Invalid role %q", role)
	}

	if _, err := s.users.FindByEmail(ctx, in.Email); err == nil {
		logger.SecurityLogger.Warn("Duplicate email", zap.String("email", in.Email))
		return nil, Conflict("Email already exists")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hashedPassword, err := crypto.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:        in.Email,
		Name:         strings.TrimSpace(in.Name),
		PasswordHash: hashedPassword,
		Role:         role,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, Conflict("Email already exists")
		}
		return nil, err
	}

	logger.AuditLogger.Info("User created", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return sanitize(user), nil
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	return users, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	var cached models.User
	if hit, err := s.cache.Get(ctx, cache.UserKey(id), &cached); err != nil {
		logger.ErrorLogger.Error("Error reading user cache", zap.Error(err))
	} else if hit {
		return &cached, nil
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NotFound("User not found")
		}
		return nil, err
	}

	user = sanitize(user)
	if err := s.cache.Set(ctx, cache.UserKey(id), user); err != nil {
		logger.ErrorLogger.Error("Error caching user", zap.Error(err))
	}
	return user, nil
}

// GetByEmail is the only read path that keeps the password hash. It exists
// for the login flow and must not be exposed over HTTP.
func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NotFound("User not found")
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) Update(ctx context.Context, id string, in UpdateUserInput) (*models.User, error) {
	current, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NotFound("User not found")
		}
		return nil, err
	}

	fields := map[string]interface{}{}
	if in.Name != nil {
		fields["name"] = strings.TrimSpace(*in.Name)
	}
	if in.Email != nil && *in.Email != current.Email {
		taken, err := s.users.EmailTakenByOther(ctx, *in.Email, id)
		if err != nil {
			return nil, err
		}
		if taken {
			logger.SecurityLogger.Warn("Duplicate email on update", zap.String("user_id", id), zap.String("email", *in.Email))
			return nil, Conflict("Email already exists")
		}
		fields["email"] = *in.Email
	}
	if in.Role != nil {
		if !in.Role.Valid() {
			return nil, Invalid("Invalid role %q", *in.Role)
		}
		fields["role"] = *in.Role
	}
	if in.Password != nil {
		hashedPassword, err := crypto.HashPassword(*in.Password, s.bcryptCost)
		if err != nil {
			return nil, err
		}
		fields["password"] = hashedPassword
	}

	updated, err := s.users.Update(ctx, id, fields)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, NotFound("User not found")
		case errors.Is(err, repository.ErrDuplicateEmail):
			return nil, Conflict("Email already exists")
		}
		return nil, err
	}

	if err := s.cache.Delete(ctx, cache.UserKey(id)); err != nil {
		logger.ErrorLogger.Error("Error invalidating user cache", zap.Error(err))
	}
	logger.AuditLogger.Info("User updated", zap.String("user_id", id))
	return sanitize(updated), nil
}

// UpdateProfile is the self-service variant of Update. Only admins may change
// their own role through it.
func (s *UserService) UpdateProfile(ctx context.Context, actor models.Identity, in UpdateUserInput) (*models.User, error) {
	if in.Role != nil && *in.Role != actor.Role && !actor.IsAdmin() {
		logger.SecurityLogger.Warn("Role change via profile rejected", zap.String("user_id", actor.ID), zap.String("role", string(*in.Role)))
		return nil, Forbidden("You cannot change your own role")
	}
	return s.Update(ctx, actor.ID, in)
}

func (s *UserService) Delete(ctx context.Context, id string) error {
	tasks, err := s.users.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return NotFound("User not found")
		}
		return err
	}

	keys := []string{cache.UserKey(id)}
	for _, task := range tasks {
		keys = append(keys, cache.TaskKey(task.ID))
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		logger.ErrorLogger.Error("Error invalidating user cache", zap.Error(err))
	}

	if s.notifier != nil {
		for _, task := range tasks {
			s.notifier.Publish(models.TaskEvent{Type: models.TaskDeleted, OwnerID: task.UserID, Task: task})
		}
	}

	logger.AuditLogger.Info("User deleted", zap.String("user_id", id), zap.Int("tasks_deleted", len(tasks)))
	return nil
}
