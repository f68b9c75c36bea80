package handler

import (
	"concept-visualizer-be/internal/pkg/logger"
	"concept-visualizer-be/internal/pkg/serverutils"
	"concept-visualizer-be/internal/repository/memory"
	internalWS "concept-visualizer-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// SyncHandler upgrades clients onto a session's active-concept channel.
type SyncHandler struct {
	sessions *memory.SessionRepository
	hub      *internalWS.Hub
	logger   logger.ILogger
}

func NewSyncHandler(sessions *memory.SessionRepository, hub *internalWS.Hub, log logger.ILogger) *SyncHandler {
	return &SyncHandler{
		sessions: sessions,
		hub:      hub,
		logger:   log,
	}
}

// ServeWs handles websocket requests for one visualization session.
func (h *SyncHandler) ServeWs(c *fiber.Ctx) error {
	sessionID := c.Params("id")
	if _, ok := h.sessions.Get(sessionID); !ok {
		return c.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, "Visualization session not found"))
	}

	if websocket.IsWebSocketUpgrade(c) {
		return websocket.New(func(conn *websocket.Conn) {
			h.logger.Info("SyncHandler", "Starting WebSocket session", map[string]interface{}{"session_id": sessionID})
			internalWS.ServeWs(h.hub, conn, sessionID)
			h.logger.Info("SyncHandler", "WebSocket session ended", map[string]interface{}{"session_id": sessionID})
		})(c)
	}
	return fiber.ErrUpgradeRequired
}

func (h *SyncHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/visualization/v1/:id/ws", h.ServeWs)
}
