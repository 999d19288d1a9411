package service

import (
	"context"
	"errors"

	"task-manager/internal/models"
	"task-manager/pkg/crypto"
	"task-manager/pkg/logger"

	"go.uber.org/zap"
)

type TokenIssuer interface {
	Issue(subjectID, email, role string) (string, error)
}

type LoginUser struct {
	ID    string      `json:"id"`
	Email string      `json:"email"`
	Name  string      `json:"name"`
	Role  models.Role `json:"role"`
}

type LoginResult struct {
	AccessToken string    `json:"access_token"`
	User        LoginUser `json:"user"`
}

type AuthService struct {
	users  *UserService
	tokens TokenIssuer
}

func NewAuthService(users *UserService, tokens TokenIssuer) *AuthService {
	return &AuthService{users: users, tokens: tokens}
}

// Login memeriksa kredensial lalu menerbitkan token.
// Status isActive tidak diperiksa di sini.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			logger.SecurityLogger.Warn("Login with unknown email", zap.String("email", email))
			return nil, Unauthorized("Invalid credentials")
		}
		return nil, err
	}

	if !crypto.CheckPassword(user.PasswordHash, password) {
		logger.SecurityLogger.Warn("Invalid password", zap.String("user_id", user.ID))
		return nil, Unauthorized("Invalid credentials")
	}

	identity := user.Identity()
	accessToken, err := s.tokens.Issue(identity.ID, identity.Email, string(identity.Role))
	if err != nil {
		return nil, err
	}

	logger.AuditLogger.Info("Login success", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return &LoginResult{
		AccessToken: accessToken,
		User: LoginUser{
			ID:    user.ID,
			Email: user.Email,
			Name:  user.Name,
			Role:  user.Role,
		},
	}, nil
}

func (s *AuthService) Register(ctx context.Context, in CreateUserInput) (*models.User, error) {
	return s.users.Create(ctx, in)
}
