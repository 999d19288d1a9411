package websocket

import (
	"context"
	"encoding/json"

	"task-manager/internal/models"
	"task-manager/internal/service"
	"task-manager/pkg/logger"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

// Conn adalah bagian dari *websocket.Conn yang dipakai hub.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// clientQueue adalah jumlah pesan yang boleh menunggu per klien sebelum
// klien tersebut diputus.
const clientQueue = 32

// Client merepresentasikan klien WebSocket beserta identitasnya.
type Client struct {
	Conn     Conn
	Identity models.Identity
	send     chan []byte
}

// writePump adalah satu-satunya penulis ke Conn.
func (c *Client) writePump(h *Hub) {
	defer c.Conn.Close()
	for message := range c.send {
		if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			logger.ContextLogger.Debug("Dropping websocket client", zap.String("user_id", c.Identity.ID), zap.Error(err))
			go h.Unregister(c)
			return
		}
	}
}

// Hub mengelola koneksi WebSocket dan meneruskan event task ke pemilik task
// dan admin.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan models.TaskEvent
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
}

// NewHub membuat instance Hub baru.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan models.TaskEvent, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Register dan Unregister tidak memblokir lagi setelah Run berhenti.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
		_ = c.Conn.Close()
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Publish queues an event without blocking the caller. Events are dropped
// when the queue is full.
func (h *Hub) Publish(event models.TaskEvent) {
	select {
	case h.broadcast <- event:
	default:
		logger.ErrorLogger.Error("Task event dropped, hub queue full",
			zap.String("type", string(event.Type)),
			zap.String("task_id", event.Task.ID))
	}
}

// Run menjalankan loop Hub sampai ctx selesai.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.remove(client)
			}
			return
		case client := <-h.register:
			client.send = make(chan []byte, clientQueue)
			h.clients[client] = true
			go client.writePump(h)
		case client := <-h.unregister:
			h.remove(client)
		case event := <-h.broadcast:
			h.deliver(event)
		}
	}
}

func (h *Hub) remove(client *Client) {
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
		// membuka blokir writePump yang sedang menulis
		_ = client.Conn.Close()
	}
}

func (h *Hub) deliver(event models.TaskEvent) {
	// owner info tidak ikut dikirim
	event.Task.User = nil
	message, err := json.Marshal(event)
	if err != nil {
		logger.ErrorLogger.Error("Error encoding task event", zap.Error(err))
		return
	}
	for client := range h.clients {
		if !service.CanAccess(client.Identity, event.OwnerID) {
			continue
		}
		select {
		case client.send <- message:
		default:
			logger.ContextLogger.Debug("Websocket client too slow, disconnecting", zap.String("user_id", client.Identity.ID))
			h.remove(client)
		}
	}
}
