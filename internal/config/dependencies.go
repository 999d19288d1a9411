package config

import (
	"reflect"
	"strings"

	"task-manager/configs"
	"task-manager/internal/repository"
	"task-manager/internal/service"
	"task-manager/internal/websocket"
	"task-manager/pkg/cache"
	"task-manager/pkg/token"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// Dependencies adalah container yang dibangun sekali di main lalu diteruskan
// ke router dan handler.
type Dependencies struct {
	DB       *gorm.DB
	Validate *validator.Validate
	Tokens   *token.Manager
	Hub      *websocket.Hub

	Users *service.UserService
	Tasks *service.TaskService
	Auth  *service.AuthService
}

// NewValidator memakai nama field JSON di pesan error validasi.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// NewDependencies merakit repository, service, dan hub. c boleh nil (cache mati).
func NewDependencies(cfg configs.Config, db *gorm.DB, c cache.Cache) *Dependencies {
	if c == nil {
		c = cache.Noop{}
	}
	tokens := token.NewManager(cfg.JWTSecret, cfg.JWTExpiry, cfg.JWTIssuer)
	hub := websocket.NewHub()

	users := service.NewUserService(repository.NewUserRepository(db), c, hub, cfg.BcryptCost)
	tasks := service.NewTaskService(repository.NewTaskRepository(db), users, c, hub)

	return &Dependencies{
		DB:       db,
		Validate: NewValidator(),
		Tokens:   tokens,
		Hub:      hub,
		Users:    users,
		Tasks:    tasks,
		Auth:     service.NewAuthService(users, tokens),
	}
}
