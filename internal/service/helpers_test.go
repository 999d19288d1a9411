package service

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"task-manager/internal/models"
	"task-manager/internal/repository"
	"task-manager/pkg/database"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
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
	return db
}

// memCache is an in-process cache.Cache used to observe caching behaviour.
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (m *memCache) Get(_ context.Context, key string, dst interface{}) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dst)
}

func (m *memCache) Set(_ context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = raw
	return nil
}

func (m *memCache) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *memCache) raw(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return string(v), ok
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []models.TaskEvent
}

func (r *recordingNotifier) Publish(e models.TaskEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingNotifier) types() []models.TaskEventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.TaskEventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	db       *gorm.DB
	cache    *memCache
	notifier *recordingNotifier
	users    *UserService
	tasks    *TaskService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	c := newMemCache()
	n := &recordingNotifier{}
	users := NewUserService(repository.NewUserRepository(db), c, n, bcrypt.MinCost)
	return &fixture{
		db:       db,
		cache:    c,
		notifier: n,
		users:    users,
		tasks:    NewTaskService(repository.NewTaskRepository(db), users, c, n),
	}
}

func (f *fixture) createUser(t *testing.T, email string, role models.Role) models.Identity {
	t.Helper()
	u, err := f.users.Create(context.Background(), CreateUserInput{
		Email:    email,
		Name:     strings.Split(email, "@")[0],
		Password: "password123",
		Role:     role,
	})
	require.NoError(t, err)
	return u.Identity()
}
