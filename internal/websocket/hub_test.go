package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"concept-visualizer-be/internal/dto"
	"concept-visualizer-be/internal/pkg/logger"
	"concept-visualizer-be/pkg/conceptsync"
	"concept-visualizer-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T, positions map[string][]int) *Hub {
	t.Helper()
	loader := func(id string) ([]int, bool) {
		p, ok := positions[id]
		return p, ok
	}
	cfg := conceptsync.Config{Throttle: 5 * time.Millisecond, SuppressionWindow: 20 * time.Millisecond}
	h := NewHub(nil, cfg, loader, logger.NewNopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	t.Cleanup(cancel)
	return h
}

func join(t *testing.T, h *Hub, sessionID string) *Client {
	t.Helper()
	c := &Client{Hub: h, SessionID: sessionID, Send: make(chan []byte, 32)}
	h.register <- c
	return c
}

// next reads messages until one of the wanted type arrives.
func next(t *testing.T, c *Client, msgType string) dto.SyncOutbound {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case data, ok := <-c.Send:
			require.True(t, ok, "client channel closed")
			var msg dto.SyncOutbound
			require.NoError(t, json.Unmarshal(data, &msg))
			if msg.Type == msgType {
				return msg
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s message", msgType)
		}
	}
}

func TestHub_RegisterLoadsSessionPositions(t *testing.T) {
	h := startHub(t, map[string][]int{"s1": {0, 40, 90}})
	c := join(t, h, "s1")

	msg := next(t, c, dto.SyncMessageActive)
	require.NotNil(t, msg.Active)

	// the initial snapshot may precede the load; wait for the loaded one
	for msg.Active.Count != 3 {
		msg = next(t, c, dto.SyncMessageActive)
	}
	assert.Equal(t, "s1", msg.SessionId)
	assert.Equal(t, 0, msg.Active.ActiveIndex)
}

func TestHub_InboundNavigation(t *testing.T) {
	h := startHub(t, map[string][]int{"s1": {0, 40, 90}})
	c := join(t, h, "s1")

	_, err := h.Navigate(context.Background(), "s1", conceptsync.Next{})
	require.NoError(t, err)

	h.handleInbound(c, dto.SyncInbound{Type: dto.SyncMessageJump, Index: 2})
	var msg dto.SyncOutbound
	for {
		msg = next(t, c, dto.SyncMessageActive)
		if msg.Active.ActiveIndex == 2 {
			break
		}
	}
	assert.True(t, msg.ScrollIntoView)
	assert.Equal(t, conceptsync.StateSuppressed, msg.Active.State)

	h.handleInbound(c, dto.SyncInbound{Type: "teleport"})
	errMsg := next(t, c, dto.SyncMessageError)
	assert.Contains(t, errMsg.Error, "unknown navigation action")

	h.handleInbound(c, dto.SyncInbound{Type: dto.SyncMessageScroll})
	errMsg = next(t, c, dto.SyncMessageError)
	assert.Contains(t, errMsg.Error, "scroll")
}

func TestHub_SessionLifecycleMessages(t *testing.T) {
	h := startHub(t, nil)
	c := join(t, h, "s1")
	next(t, c, dto.SyncMessageActive)

	h.Progress(dto.ProgressMessage{SessionId: "s1", Completed: 1, Total: 2, Message: "Completed 1 of 2 visualizations"})
	progress := next(t, c, dto.SyncMessageProgress)
	require.NotNil(t, progress.Progress)
	assert.Equal(t, 2, progress.Progress.Total)

	h.SessionLoaded("s1", []int{5, 15})
	status := next(t, c, dto.SyncMessageSession)
	assert.Equal(t, store.StatusReady, status.Status)

	snap, err := h.Navigate(context.Background(), "s1", conceptsync.Next{})
	require.NoError(t, err)
	assert.Equal(t, 1, snap.ActiveIndex)
	assert.Equal(t, 2, snap.Count)

	h.SessionReset("s1")
	status = next(t, c, dto.SyncMessageSession)
	assert.Equal(t, store.StatusIdle, status.Status)

	assert.Eventually(t, func() bool {
		active, ok := h.Active("s1")
		return ok && active.Count == 0 && active.State == conceptsync.StateIdle
	}, time.Second, 5*time.Millisecond)
}

func TestHub_RoomOutlivesLastClient(t *testing.T) {
	h := startHub(t, map[string][]int{"s1": {0, 40, 90}})

	// cursor moved over REST before any socket joins
	_, err := h.Navigate(context.Background(), "s1", conceptsync.Jump{Index: 2})
	require.NoError(t, err)

	c := join(t, h, "s1")
	next(t, c, dto.SyncMessageActive)
	h.leave(c)

	// Send is closed once the client is gone
	for range c.Send {
	}

	active, ok := h.Active("s1")
	require.True(t, ok)
	assert.Equal(t, 2, active.ActiveIndex)
	assert.Equal(t, 3, active.Count)
}

func TestHub_SweepClosesIdleRooms(t *testing.T) {
	h := startHub(t, nil)

	_, err := h.Navigate(context.Background(), "idle", conceptsync.Next{})
	require.NoError(t, err)
	c := join(t, h, "busy")
	next(t, c, dto.SyncMessageActive)

	h.sweep(time.Now())
	_, ok := h.Active("idle")
	assert.True(t, ok, "recently used room survives")

	h.sweep(time.Now().Add(roomIdleTTL + time.Minute))
	_, ok = h.Active("idle")
	assert.False(t, ok)
	_, ok = h.Active("busy")
	assert.True(t, ok, "rooms with clients are never swept")
}
