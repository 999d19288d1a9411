package handlers

import (
	"task-manager/internal/middleware"
	"task-manager/internal/models"
	myws "task-manager/internal/websocket"
	"task-manager/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

const wsIdentityKey = "ws_identity"

// UpgradeTaskEvents memvalidasi ?token= sebelum koneksi di-upgrade.
func (h *Handler) UpgradeTaskEvents(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fail(c, fiber.StatusUpgradeRequired, "Websocket upgrade required")
	}
	actor, err := middleware.IdentityFromToken(h.deps.Tokens, c.Query("token"))
	if err != nil {
		logger.SecurityLogger.Warn("Websocket rejected", zap.String("ip", c.IP()))
		return fail(c, fiber.StatusUnauthorized, "Invalid or expired token")
	}
	c.Locals(wsIdentityKey, actor)
	return c.Next()
}

// TaskEvents mendaftarkan koneksi ke hub. Pesan dari client diabaikan.
func (h *Handler) TaskEvents() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		actor, _ := conn.Locals(wsIdentityKey).(models.Identity)
		client := &myws.Client{Conn: conn, Identity: actor}
		h.deps.Hub.Register(client)
		defer h.deps.Hub.Unregister(client)

		logger.ContextLogger.Debug("Websocket connected", zap.String("user_id", actor.ID))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
}
