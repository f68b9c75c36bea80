package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"concept-visualizer-be/internal/dto"
	"concept-visualizer-be/internal/pkg/logger"
	"concept-visualizer-be/pkg/conceptsync"
	"concept-visualizer-be/pkg/store"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	clusterChannel = "cluster_events"
	roomSweepEvery = time.Minute
	roomIdleTTL    = 10 * time.Minute
)

// PositionsLoader returns the concept start offsets of a session, in index
// order, when the session exists and has been visualized.
type PositionsLoader func(sessionID string) ([]int, bool)

// room is one visualization session: its connected clients and the
// synchronizer that owns the session's active concept.
type room struct {
	sessionID string
	clients   map[*Client]struct{}
	sync      *conceptsync.Synchronizer
	lastUsed  time.Time
}

type clusterMessage struct {
	Origin    string          `json:"origin"`
	SessionID string          `json:"session_id"`
	Message   json.RawMessage `json:"message"`
}

type Hub struct {
	// Rooms keyed by session ID
	rooms map[string]*room

	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu sync.RWMutex

	// Redis connection for cross-instance fan-out; nil runs single-instance
	rdb        *redis.Client
	instanceID string

	syncCfg   conceptsync.Config
	positions PositionsLoader

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, syncCfg conceptsync.Config, positions PositionsLoader, log logger.ILogger) *Hub {
	return &Hub{
		rooms:      make(map[string]*room),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		rdb:        rdb,
		instanceID: uuid.NewString(),
		syncCfg:    syncCfg,
		positions:  positions,
		logger:     log,
	}
}

// Run serves register and unregister requests until ctx ends, then closes
// every room. Rooms without clients are only closed by the periodic sweep.
func (h *Hub) Run(ctx context.Context) {
	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
	}

	ticker := time.NewTicker(roomSweepEvery)
	defer func() {
		ticker.Stop()
		close(h.done)
		h.closeAll()
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			r := h.ensureRoom(client.SessionID)
			h.mu.Lock()
			r.clients[client] = struct{}{}
			count := len(r.clients)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{
				"session_id": client.SessionID,
				"clients":    count,
			})
			snap := r.sync.Snapshot()
			h.sendTo(client, dto.SyncOutbound{Type: dto.SyncMessageActive, SessionId: client.SessionID, Active: &snap})

		case client := <-h.unregister:
			h.mu.Lock()
			if r, ok := h.rooms[client.SessionID]; ok {
				if _, present := r.clients[client]; present {
					delete(r.clients, client)
					close(client.Send)
				}
				// the room outlives its clients so a cursor moved over REST
				// survives; sweep reclaims it once idle
				r.lastUsed = time.Now()
			}
			h.mu.Unlock()

		case now := <-ticker.C:
			h.sweep(now)
		}
	}
}

// ensureRoom returns the session's room, creating it and its synchronizer
// on first use.
func (h *Hub) ensureRoom(sessionID string) *room {
	h.mu.Lock()
	defer h.mu.Unlock()

	if r, ok := h.rooms[sessionID]; ok {
		r.lastUsed = time.Now()
		return r
	}

	s := conceptsync.New(h.syncCfg, h.logger)
	r := &room{
		sessionID: sessionID,
		clients:   make(map[*Client]struct{}),
		sync:      s,
		lastUsed:  time.Now(),
	}
	h.rooms[sessionID] = r

	updates, _ := s.Subscribe()
	go s.Run(context.Background())
	go h.forward(sessionID, updates)

	if h.positions != nil {
		if positions, ok := h.positions(sessionID); ok {
			s.Dispatch(conceptsync.Load{Positions: positions})
		}
	}
	return r
}

func (h *Hub) lookup(sessionID string) (*room, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	r, ok := h.rooms[sessionID]
	return r, ok
}

// forward relays synchronizer updates to the room until the synchronizer
// closes its subscription.
func (h *Hub) forward(sessionID string, updates <-chan conceptsync.Update) {
	for u := range updates {
		snap := u.Snapshot
		h.deliver(sessionID, dto.SyncOutbound{
			Type:           dto.SyncMessageActive,
			SessionId:      sessionID,
			Active:         &snap,
			ScrollIntoView: u.Scroll,
		})
	}
}

// SessionLoaded replaces the concept positions of a live room.
func (h *Hub) SessionLoaded(sessionID string, positions []int) {
	if r, ok := h.lookup(sessionID); ok {
		r.sync.Dispatch(conceptsync.Load{Positions: positions})
	}
	h.deliver(sessionID, dto.SyncOutbound{Type: dto.SyncMessageSession, SessionId: sessionID, Status: store.StatusReady})
}

// SessionReset clears the active concept of a live room.
func (h *Hub) SessionReset(sessionID string) {
	if r, ok := h.lookup(sessionID); ok {
		r.sync.Dispatch(conceptsync.Reset{})
	}
	h.deliver(sessionID, dto.SyncOutbound{Type: dto.SyncMessageSession, SessionId: sessionID, Status: store.StatusIdle})
}

func (h *Hub) Progress(msg dto.ProgressMessage) {
	h.deliver(msg.SessionId, dto.SyncOutbound{Type: dto.SyncMessageProgress, SessionId: msg.SessionId, Progress: &msg})
}

// Navigate applies a navigation event to the session's synchronizer and
// returns the resulting snapshot.
func (h *Hub) Navigate(ctx context.Context, sessionID string, ev conceptsync.Event) (conceptsync.Snapshot, error) {
	return h.ensureRoom(sessionID).sync.Apply(ctx, ev)
}

// Active returns the live snapshot of a session, if it has a room.
func (h *Hub) Active(sessionID string) (conceptsync.Snapshot, bool) {
	r, ok := h.lookup(sessionID)
	if !ok {
		return conceptsync.Snapshot{}, false
	}
	return r.sync.Snapshot(), true
}

// handleInbound turns a client message into a synchronizer event.
func (h *Hub) handleInbound(c *Client, msg dto.SyncInbound) {
	r, ok := h.lookup(c.SessionID)
	if !ok {
		return
	}

	var ev conceptsync.Event
	switch msg.Type {
	case dto.SyncMessageScroll:
		if msg.Scroll == nil {
			h.sendTo(c, dto.SyncOutbound{Type: dto.SyncMessageError, SessionId: c.SessionID, Error: "scroll message without observation"})
			return
		}
		ev = conceptsync.Scroll{Observation: *msg.Scroll}
	default:
		var err error
		if ev, err = conceptsync.NavigationEvent(msg.Type, msg.Index); err != nil {
			h.sendTo(c, dto.SyncOutbound{Type: dto.SyncMessageError, SessionId: c.SessionID, Error: err.Error()})
			return
		}
	}
	r.sync.Dispatch(ev)
}

// deliver sends msg to every local client of the session and publishes it
// for other instances.
func (h *Hub) deliver(sessionID string, msg dto.SyncOutbound) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("Hub", "Failed to encode message", map[string]interface{}{"error": err.Error()})
		return
	}
	h.deliverLocal(sessionID, data)

	if h.rdb != nil {
		payload, _ := json.Marshal(clusterMessage{Origin: h.instanceID, SessionID: sessionID, Message: data})
		if err := h.rdb.Publish(context.Background(), clusterChannel, payload).Err(); err != nil {
			h.logger.Warn("Hub", "Failed to publish to Redis", map[string]interface{}{"error": err.Error()})
		}
	}
}

func (h *Hub) deliverLocal(sessionID string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	r, ok := h.rooms[sessionID]
	if !ok {
		return
	}
	for client := range r.clients {
		select {
		case client.Send <- data:
		default:
			h.logger.Warn("Hub", "Client Send buffer full, dropping message", map[string]interface{}{"session_id": sessionID})
		}
	}
}

func (h *Hub) sendTo(c *Client, msg dto.SyncOutbound) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	r, ok := h.rooms[c.SessionID]
	if !ok {
		return
	}
	if _, live := r.clients[c]; !live {
		return
	}
	select {
	case c.Send <- data:
	default:
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) sweep(now time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, r := range h.rooms {
		if len(r.clients) == 0 && now.Sub(r.lastUsed) > roomIdleTTL {
			h.closeRoomLocked(r)
			h.logger.Info("Hub", "Room closed", map[string]interface{}{"session_id": r.sessionID})
		}
	}
}

func (h *Hub) closeRoomLocked(r *room) {
	r.sync.Close()
	delete(h.rooms, r.sessionID)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, r := range h.rooms {
		for client := range r.clients {
			close(client.Send)
		}
		r.clients = nil
		h.closeRoomLocked(r)
	}
}

func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, clusterChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var payload clusterMessage
			if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
				h.logger.Warn("Hub", "Redis message parse error", map[string]interface{}{"error": err.Error()})
				continue
			}
			if payload.Origin == h.instanceID {
				continue
			}
			h.deliverLocal(payload.SessionID, payload.Message)
		}
	}
}
