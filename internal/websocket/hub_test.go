package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"task-manager/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	mu       sync.Mutex
	messages [][]byte
	closed   bool
	failOn   bool
}

func (f *fakeConn) WriteMessage(_ int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOn {
		return errors.New("broken pipe")
	}
	f.messages = append(f.messages, data)
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages)
}

func (f *fakeConn) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return hub
}

func TestHubDeliversToOwnerAndAdmins(t *testing.T) {
	hub := startHub(t)

	owner := &fakeConn{}
	other := &fakeConn{}
	admin := &fakeConn{}
	hub.Register(&Client{Conn: owner, Identity: models.Identity{ID: "u1", Role: models.RoleUser}})
	hub.Register(&Client{Conn: other, Identity: models.Identity{ID: "u2", Role: models.RoleUser}})
	hub.Register(&Client{Conn: admin, Identity: models.Identity{ID: "a1", Role: models.RoleAdmin}})

	hub.Publish(models.TaskEvent{
		Type:    models.TaskCreated,
		OwnerID: "u1",
		Task:    models.Task{ID: "t1", Title: "Secret", UserID: "u1", User: &models.User{ID: "u1", Email: "u1@test.com"}},
	})

	require.Eventually(t, func() bool { return owner.count() == 1 && admin.count() == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, other.count())

	var event models.TaskEvent
	owner.mu.Lock()
	require.NoError(t, json.Unmarshal(owner.messages[0], &event))
	owner.mu.Unlock()
	assert.Equal(t, models.TaskCreated, event.Type)
	assert.Equal(t, "t1", event.Task.ID)
	assert.Nil(t, event.Task.User)
}

func TestHubDropsBrokenClient(t *testing.T) {
	hub := startHub(t)

	broken := &fakeConn{failOn: true}
	hub.Register(&Client{Conn: broken, Identity: models.Identity{ID: "u1", Role: models.RoleUser}})
	hub.Publish(models.TaskEvent{Type: models.TaskUpdated, OwnerID: "u1", Task: models.Task{ID: "t1"}})

	require.Eventually(t, broken.isClosed, time.Second, 10*time.Millisecond)
}

func TestHubUnregisterClosesConn(t *testing.T) {
	hub := startHub(t)

	conn := &fakeConn{}
	client := &Client{Conn: conn, Identity: models.Identity{ID: "u1", Role: models.RoleUser}}
	hub.Register(client)
	hub.Unregister(client)

	require.Eventually(t, conn.isClosed, time.Second, 10*time.Millisecond)
}

func TestHubStoppedDoesNotBlock(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	hub.Run(ctx)

	conn := &fakeConn{}
	client := &Client{Conn: conn, Identity: models.Identity{ID: "u1"}}
	hub.Register(client)
	hub.Unregister(client)
	assert.True(t, conn.isClosed())
}

// blockingConn menahan setiap WriteMessage sampai Close dipanggil.
type blockingConn struct {
	release chan struct{}
	once    sync.Once
	closed  chan struct{}
}

func newBlockingConn() *blockingConn {
	return &blockingConn{release: make(chan struct{}), closed: make(chan struct{})}
}

func (b *blockingConn) WriteMessage(int, []byte) error {
	<-b.release
	return errors.New("closed")
}

func (b *blockingConn) Close() error {
	b.once.Do(func() {
		close(b.release)
		close(b.closed)
	})
	return nil
}

func TestHubSlowClientDoesNotStallOthers(t *testing.T) {
	hub := startHub(t)

	slow := newBlockingConn()
	t.Cleanup(func() { _ = slow.Close() })
	fast := &fakeConn{}
	hub.Register(&Client{Conn: slow, Identity: models.Identity{ID: "a1", Role: models.RoleAdmin}})
	hub.Register(&Client{Conn: fast, Identity: models.Identity{ID: "u1", Role: models.RoleUser}})

	const events = 100
	for i := 0; i < events; i++ {
		hub.Publish(models.TaskEvent{Type: models.TaskUpdated, OwnerID: "u1", Task: models.Task{ID: "t1"}})
	}

	require.Eventually(t, func() bool { return fast.count() == events }, 2*time.Second, 10*time.Millisecond)

	select {
	case <-slow.closed:
	case <-time.After(2 * time.Second):
		t.Fatal("slow client was not disconnected")
	}
}
