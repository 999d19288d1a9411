package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"task-manager/configs"
	"task-manager/internal/config"
	"task-manager/internal/middleware"
	"task-manager/internal/repository"
	"task-manager/pkg/database"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	adminEmail    = "admin@test.com"
	adminPassword = "admin123"
)

type envelope struct {
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Success bool            `json:"success"`
	Status  int             `json:"status"`
	Data    json.RawMessage `json:"data"`
}

func (e envelope) decode(t *testing.T, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(e.Data, dst))
}

type testServer struct {
	app  *fiber.App
	deps *config.Dependencies
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.OpenSQLite("file:"+name+"?mode=memory&cache=shared", &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, repository.CreateTableIfNotExists(db))

	_, err = repository.CreateAdminUser(context.Background(), db, repository.AdminSeed{
		Email:      adminEmail,
		Name:       "Admin",
		Password:   adminPassword,
		BcryptCost: bcrypt.MinCost,
	})
	require.NoError(t, err)

	cfg := configs.Config{
		JWTSecret:  "test-secret",
		JWTExpiry:  time.Hour,
		JWTIssuer:  "task-manager",
		BcryptCost: bcrypt.MinCost,
	}
	deps := config.NewDependencies(cfg, db, nil)

	app := fiber.New()
	app.Use(middleware.ErrorHandler())
	RegisterRoutes(app, deps)
	return &testServer{app: app, deps: deps}
}

func (s *testServer) doRaw(t *testing.T, method, path, token string, body interface{}) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = strings.NewReader(b)
		default:
			payload, err := json.Marshal(b)
			require.NoError(t, err)
			reader = bytes.NewReader(payload)
		}
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()
	status, raw := s.doRaw(t, method, path, token, body)
	var env envelope
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return status, env
}

func (s *testServer) login(t *testing.T, email, password string) string {
	t.Helper()
	status, env := s.do(t, "POST", "/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equal(t, fiber.StatusOK, status, env.Message)
	var result struct {
		AccessToken string `json:"access_token"`
	}
	env.decode(t, &result)
	require.NotEmpty(t, result.AccessToken)
	return result.AccessToken
}

// register membuat user lalu login, mengembalikan id dan token.
func (s *testServer) register(t *testing.T, email string) (string, string) {
	t.Helper()
	status, env := s.do(t, "POST", "/auth/register", "", map[string]string{
		"email":    email,
		"name":     strings.Split(email, "@")[0],
		"password": "password123",
	})
	require.Equal(t, fiber.StatusCreated, status, env.Message)
	var user struct {
		ID string `json:"id"`
	}
	env.decode(t, &user)
	return user.ID, s.login(t, email, "password123")
}

func (s *testServer) createTask(t *testing.T, token string, body map[string]interface{}) string {
	t.Helper()
	status, env := s.do(t, "POST", "/tasks", token, body)
	require.Equal(t, fiber.StatusCreated, status, env.Message)
	var task struct {
		ID string `json:"id"`
	}
	env.decode(t, &task)
	return task.ID
}
