package handler

import (
	"net/http/httptest"
	"testing"

	"concept-visualizer-be/internal/pkg/logger"
	"concept-visualizer-be/internal/repository/memory"
	internalWS "concept-visualizer-be/internal/websocket"
	"concept-visualizer-be/pkg/conceptsync"
	"concept-visualizer-be/pkg/store"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncHandler_RejectsBeforeUpgrade(t *testing.T) {
	sessions := memory.NewSessionRepository(0)
	sessions.Save(&store.Session{ID: "s1"})
	hub := internalWS.NewHub(nil, conceptsync.DefaultConfig(), nil, logger.NewNopLogger())

	app := fiber.New()
	NewSyncHandler(sessions, hub, logger.NewNopLogger()).RegisterRoutes(app.Group("/api"))

	resp, err := app.Test(httptest.NewRequest("GET", "/api/visualization/v1/missing/ws", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	// a plain GET on a known session is not an upgrade
	resp, err = app.Test(httptest.NewRequest("GET", "/api/visualization/v1/s1/ws", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUpgradeRequired, resp.StatusCode)
}
